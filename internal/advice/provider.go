// Package advice asks a generative model for a savings plan for a goal.
package advice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

var ErrEmptyResponse = errors.New("empty response from model")

// Provider sends one prompt and returns the raw model text.
type Provider interface {
	SendPrompt(ctx context.Context, system, user string) (string, error)
}

type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini API client. An empty apiKey falls back to
// the GEMINI_API_KEY / GOOGLE_API_KEY environment the SDK reads itself.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) SendPrompt(ctx context.Context, system, user string) (string, error) {
	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(system+"\n\n"+user), nil)
	if err != nil {
		slog.ErrorContext(ctx, "Gemini request failed", "model", p.model, "error", err)
		return "", fmt.Errorf("generate content: %w", err)
	}
	raw := result.Text()
	if raw == "" {
		return "", ErrEmptyResponse
	}
	slog.DebugContext(ctx, "Gemini response received", "model", p.model, "bytes", len(raw))
	return raw, nil
}
