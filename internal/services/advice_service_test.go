package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"finpulse/internal/cache"
	"finpulse/internal/core"
)

type fakeProvider struct {
	calls  atomic.Int32
	reply  string
	err    error
	prompt string
}

func (p *fakeProvider) SendPrompt(_ context.Context, _, user string) (string, error) {
	p.calls.Add(1)
	p.prompt = user
	return p.reply, p.err
}

func TestAdviseGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.goals.Create(ctx, testUser, "Trip", amt("5000"), amt("1000"))
	if err != nil {
		t.Fatal(err)
	}
	f.spend(t, "Dining Out", "-45", core.NewDate(2024, 1, 10))

	provider := &fakeProvider{reply: "```json\n{\"summary\":\"Cut dining out.\",\"steps\":[\"Cook twice a week\"],\"monthly_contribution\":\"200.00\"}\n```"}
	svc := NewAdviceService(f.goals, f.ledger, provider, cache.NewLRUCache[string](10, time.Hour))
	svc.now = f.clock.Now

	advised, err := svc.AdviseGoal(ctx, testUser, g.ID)
	if err != nil {
		t.Fatalf("AdviseGoal: %v", err)
	}
	if !strings.HasPrefix(advised.Advice, "Cut dining out.\n1. Cook twice a week") {
		t.Errorf("unexpected advice %q", advised.Advice)
	}
	if !strings.Contains(provider.prompt, "Dining Out: 45.00") {
		t.Errorf("prompt missing recent spending:\n%s", provider.prompt)
	}

	again, err := svc.AdviseGoal(ctx, testUser, g.ID)
	if err != nil {
		t.Fatalf("second AdviseGoal: %v", err)
	}
	if provider.calls.Load() != 1 {
		t.Errorf("expected a cached answer, provider called %d times", provider.calls.Load())
	}
	if again.Version != advised.Version {
		t.Errorf("unchanged advice should not rewrite the goal (version %d -> %d)", advised.Version, again.Version)
	}

	if _, err := f.goals.Contribute(ctx, testUser, g.ID, amt("100")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AdviseGoal(ctx, testUser, g.ID); err != nil {
		t.Fatalf("AdviseGoal after contribution: %v", err)
	}
	if provider.calls.Load() != 2 {
		t.Errorf("a changed goal should ask again, provider called %d times", provider.calls.Load())
	}
}

func TestAdviseGoalFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.goals.Create(ctx, testUser, "Trip", amt("5000"), amt("0"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewAdviceService(f.goals, f.ledger, nil, nil).AdviseGoal(ctx, testUser, g.ID); !errors.Is(err, ErrAdviceUnavailable) {
		t.Error("expected error without a provider")
	}

	down := errors.New("quota exceeded")
	svc := NewAdviceService(f.goals, f.ledger, &fakeProvider{err: down}, nil)
	if _, err := svc.AdviseGoal(ctx, testUser, g.ID); !errors.Is(err, down) {
		t.Errorf("expected provider error, got %v", err)
	}

	svc = NewAdviceService(f.goals, f.ledger, &fakeProvider{reply: "I cannot help with that"}, nil)
	if _, err := svc.AdviseGoal(ctx, testUser, g.ID); err == nil {
		t.Error("expected decode error")
	}

	stored, _ := f.goals.Get(ctx, testUser, g.ID)
	if stored.Advice != "" {
		t.Errorf("failed advice was attached: %q", stored.Advice)
	}
}
