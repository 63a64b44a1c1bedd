// Package backend opens the ledger store selected by configuration.
package backend

import (
	"context"
	"slices"

	"finpulse/internal/services"
	"finpulse/internal/storage"
)

// CleanupFunc releases what the backend opened.
type CleanupFunc func() error

// BackendResult is an opened store plus the optional event publisher that
// goes with it. Publisher is nil when no broker is configured.
type BackendResult struct {
	Repository storage.Repository
	Publisher  services.Publisher
	// Ready reports whether the store is reachable.
	Ready   func(context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string

	// AMQP is optional for either store.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	return slices.Contains(GetBackendTypes(), bt)
}
