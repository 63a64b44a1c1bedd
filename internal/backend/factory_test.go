package backend

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"finpulse/internal/config"
	"finpulse/internal/core"
	"finpulse/internal/log"

	"github.com/shopspring/decimal"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Component: log.ComponentBackend, Output: io.Discard})
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "./x.db",
		AMQPURL:      "amqp://localhost/",
		AMQPExchange: "finpulse",
		AMQPQueue:    "ledger_mirror",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "./x.db" || cfg.AMQPQueue != "ledger_mirror" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost/", AMQPExchange: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	factory := NewFactory(quietLogger())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"memory", Config{Type: MemoryBackend}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "finpulse.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := factory.CreateBackend(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer res.Cleanup()

			if res.Publisher != nil {
				t.Error("expected no publisher without AMQP URL")
			}
			if err := res.Ready(ctx); err != nil {
				t.Errorf("Ready() error = %v", err)
			}

			budget, err := res.Repository.CreateBudget(ctx, core.Budget{
				UserID:   "alice",
				Category: "Food",
				Limit:    decimal.NewFromInt(100),
			})
			if err != nil {
				t.Fatalf("CreateBudget() error = %v", err)
			}
			got, err := res.Repository.GetBudget(ctx, "alice", budget.ID)
			if err != nil {
				t.Fatalf("GetBudget() error = %v", err)
			}
			if got.Category != "Food" {
				t.Errorf("GetBudget() category = %q", got.Category)
			}
		})
	}
}

func TestCreateBackend_InvalidType(t *testing.T) {
	_, err := NewFactory(quietLogger()).CreateBackend(context.Background(), Config{Type: "sheets"})
	if err == nil {
		t.Error("expected error for invalid backend type")
	}
}

func TestBackendTypes(t *testing.T) {
	types := GetBackendTypes()
	if len(types) != 2 {
		t.Fatalf("GetBackendTypes() = %v", types)
	}
	for _, bt := range types {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("sheets").IsValid() {
		t.Error("sheets should not be a valid backend")
	}

	err := Config{Type: "sheets"}.Validate()
	if err == nil || !strings.Contains(err.Error(), "sqlite") || !strings.Contains(err.Error(), "memory") {
		t.Errorf("Validate() error = %v, want the valid types listed", err)
	}
}
