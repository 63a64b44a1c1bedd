package memory

import (
	"context"
	"time"

	"finpulse/internal/core"
	"finpulse/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The methods below run a single state operation under the store mutex.

func (s *Store) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateTransaction(ctx, tx)
}

func (s *Store) GetTransaction(ctx context.Context, userID string, id uuid.UUID) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetTransaction(ctx, userID, id)
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListTransactions(ctx, userID)
}

func (s *Store) ListTransactionsInPeriod(ctx context.Context, userID string, period core.Period) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListTransactionsInPeriod(ctx, userID, period)
}

func (s *Store) UpdateTransactionCategory(ctx context.Context, userID string, id uuid.UUID, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateTransactionCategory(ctx, userID, id, category)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteTransaction(ctx, userID, id)
}

func (s *Store) ListPendingSync(ctx context.Context, limit int) ([]storage.PendingSync, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListPendingSync(ctx, limit)
}

func (s *Store) MarkSynced(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.MarkSynced(ctx, id)
}

func (s *Store) MarkSyncError(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.MarkSyncError(ctx, id)
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateBudget(ctx, b)
}

func (s *Store) GetBudget(ctx context.Context, userID string, id uuid.UUID) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetBudget(ctx, userID, id)
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListBudgets(ctx, userID)
}

func (s *Store) UpdateBudgetLimit(ctx context.Context, userID string, id uuid.UUID, limit decimal.Decimal) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateBudgetLimit(ctx, userID, id, limit)
}

func (s *Store) DeleteBudget(ctx context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteBudget(ctx, userID, id)
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateGoal(ctx, g)
}

func (s *Store) GetGoal(ctx context.Context, userID string, id uuid.UUID) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetGoal(ctx, userID, id)
}

func (s *Store) ListGoals(ctx context.Context, userID string, status core.GoalStatus) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListGoals(ctx, userID, status)
}

func (s *Store) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateGoal(ctx, g)
}

func (s *Store) DeleteGoal(ctx context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteGoal(ctx, userID, id)
}

func (s *Store) CreateRecurring(ctx context.Context, re core.RecurringTransaction) (core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateRecurring(ctx, re)
}

func (s *Store) ListRecurring(ctx context.Context, userID string) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListRecurring(ctx, userID)
}

func (s *Store) ListAllRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListAllRecurring(ctx)
}

func (s *Store) UpdateRecurringLastExecution(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateRecurringLastExecution(ctx, id, at)
}

func (s *Store) DeleteRecurring(ctx context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteRecurring(ctx, userID, id)
}

func (s *Store) GetSweep(ctx context.Context, userID, key string) (storage.SweepRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetSweep(ctx, userID, key)
}

func (s *Store) CreateSweep(ctx context.Context, rec storage.SweepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateSweep(ctx, rec)
}

func (s *Store) SweptInPeriod(ctx context.Context, userID string, budgetID uuid.UUID, periodStart core.Date) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.SweptInPeriod(ctx, userID, budgetID, periodStart)
}
