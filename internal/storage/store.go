// Package storage persists the ledger, budgets, goals, recurring templates and
// sweep records.
package storage

import (
	"context"
	"errors"
	"time"

	"finpulse/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict covers duplicate budget categories and stale goal versions.
	ErrConflict = errors.New("conflict")
)

const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// PendingSync identifies a transaction whose mirror row has not been written.
type PendingSync struct {
	ID        uuid.UUID
	UserID    string
	CreatedAt time.Time
}

// SweepRecord remembers the outcome of a sweep. A replay of its key returns
// it instead of moving money twice, and later sweeps of the same budget and
// period subtract its amount.
type SweepRecord struct {
	UserID         string
	IdempotencyKey string
	BudgetID       uuid.UUID
	GoalID         uuid.UUID
	// PeriodStart identifies the swept period.
	PeriodStart core.Date
	Amount      decimal.Decimal
	SavingsTxID uuid.UUID
	CloseTxID   uuid.UUID // uuid.Nil when no close entry was written
	CreatedAt   time.Time
}

// Store is the set of operations available both directly on a repository and
// inside a unit of work.
type Store interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, userID string, id uuid.UUID) (core.Transaction, error)
	// ListTransactions returns the user's ledger, newest first.
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	ListTransactionsInPeriod(ctx context.Context, userID string, period core.Period) ([]core.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, userID string, id uuid.UUID, category string) error
	DeleteTransaction(ctx context.Context, userID string, id uuid.UUID) error

	ListPendingSync(ctx context.Context, limit int) ([]PendingSync, error)
	MarkSynced(ctx context.Context, id uuid.UUID) error
	MarkSyncError(ctx context.Context, id uuid.UUID) error

	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	GetBudget(ctx context.Context, userID string, id uuid.UUID) (core.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	UpdateBudgetLimit(ctx context.Context, userID string, id uuid.UUID, limit decimal.Decimal) (core.Budget, error)
	DeleteBudget(ctx context.Context, userID string, id uuid.UUID) error

	CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	GetGoal(ctx context.Context, userID string, id uuid.UUID) (core.Goal, error)
	// ListGoals filters by status unless status is empty.
	ListGoals(ctx context.Context, userID string, status core.GoalStatus) ([]core.Goal, error)
	// UpdateGoal stores g if the stored version still equals g.Version and
	// returns the goal with its version bumped.
	UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	DeleteGoal(ctx context.Context, userID string, id uuid.UUID) error

	CreateRecurring(ctx context.Context, re core.RecurringTransaction) (core.RecurringTransaction, error)
	ListRecurring(ctx context.Context, userID string) ([]core.RecurringTransaction, error)
	ListAllRecurring(ctx context.Context) ([]core.RecurringTransaction, error)
	UpdateRecurringLastExecution(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteRecurring(ctx context.Context, userID string, id uuid.UUID) error

	GetSweep(ctx context.Context, userID, key string) (SweepRecord, error)
	CreateSweep(ctx context.Context, rec SweepRecord) error
	// SweptInPeriod totals what earlier sweeps of budgetID moved for the
	// period starting at periodStart.
	SweptInPeriod(ctx context.Context, userID string, budgetID uuid.UUID, periodStart core.Date) (decimal.Decimal, error)
}

// Repository is a Store that can also run a unit of work: every write made
// through the Store handed to fn commits together or not at all.
type Repository interface {
	Store
	WithinTx(ctx context.Context, fn func(Store) error) error
	Close() error
}
