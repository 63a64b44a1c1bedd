// Package memory is an in-process storage.Repository. Nothing survives a
// restart; it backs the memory data backend and service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"finpulse/internal/core"
	"finpulse/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type txEntry struct {
	tx   core.Transaction
	sync string
	seq  int
}

type state struct {
	seq       int
	txs       []txEntry
	budgets   map[uuid.UUID]core.Budget
	goals     map[uuid.UUID]core.Goal
	recurring map[uuid.UUID]core.RecurringTransaction
	sweeps    map[string]storage.SweepRecord
	now       func() time.Time
}

// Store serialises every call with a mutex. A unit of work holds the mutex
// for its whole duration and restores a snapshot when it fails.
type Store struct {
	mu sync.Mutex
	st *state
}

var (
	_ storage.Repository = (*Store)(nil)
	_ storage.Store      = (*state)(nil)
)

func New() *Store {
	return &Store{st: &state{
		budgets:   map[uuid.UUID]core.Budget{},
		goals:     map[uuid.UUID]core.Goal{},
		recurring: map[uuid.UUID]core.RecurringTransaction{},
		sweeps:    map[string]storage.SweepRecord{},
		now:       time.Now,
	}}
}

func (s *state) clone() *state {
	c := &state{
		seq:       s.seq,
		txs:       append([]txEntry(nil), s.txs...),
		budgets:   make(map[uuid.UUID]core.Budget, len(s.budgets)),
		goals:     make(map[uuid.UUID]core.Goal, len(s.goals)),
		recurring: make(map[uuid.UUID]core.RecurringTransaction, len(s.recurring)),
		sweeps:    make(map[string]storage.SweepRecord, len(s.sweeps)),
		now:       s.now,
	}
	for k, v := range s.budgets {
		c.budgets[k] = v
	}
	for k, v := range s.goals {
		c.goals[k] = v
	}
	for k, v := range s.recurring {
		c.recurring[k] = v
	}
	for k, v := range s.sweeps {
		c.sweeps[k] = v
	}
	return c
}

func (s *Store) WithinTx(_ context.Context, fn func(storage.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(s.st); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *state) stamp(id uuid.UUID, created time.Time) (uuid.UUID, time.Time) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if created.IsZero() {
		created = s.now()
	}
	return id, created.UTC()
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
}

// Transactions

func (s *state) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID, tx.CreatedAt = s.stamp(tx.ID, tx.CreatedAt)
	s.seq++
	s.txs = append(s.txs, txEntry{tx: tx, sync: storage.SyncPending, seq: s.seq})
	return tx, nil
}

func (s *state) findTx(userID string, id uuid.UUID) int {
	for i, e := range s.txs {
		if e.tx.ID == id && e.tx.UserID == userID {
			return i
		}
	}
	return -1
}

func (s *state) GetTransaction(_ context.Context, userID string, id uuid.UUID) (core.Transaction, error) {
	i := s.findTx(userID, id)
	if i < 0 {
		return core.Transaction{}, notFound("transaction")
	}
	return s.txs[i].tx, nil
}

func (s *state) userTxs(userID string, keep func(core.Transaction) bool) []core.Transaction {
	entries := make([]txEntry, 0)
	for _, e := range s.txs {
		if e.tx.UserID == userID && keep(e.tx) {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].tx.CreatedAt.Equal(entries[j].tx.CreatedAt) {
			return entries[i].tx.CreatedAt.After(entries[j].tx.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})
	out := make([]core.Transaction, len(entries))
	for i, e := range entries {
		out[i] = e.tx
	}
	return out
}

func (s *state) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	return s.userTxs(userID, func(core.Transaction) bool { return true }), nil
}

func (s *state) ListTransactionsInPeriod(_ context.Context, userID string, period core.Period) ([]core.Transaction, error) {
	return s.userTxs(userID, func(tx core.Transaction) bool { return period.Contains(tx.Date) }), nil
}

func (s *state) UpdateTransactionCategory(_ context.Context, userID string, id uuid.UUID, category string) error {
	i := s.findTx(userID, id)
	if i < 0 {
		return notFound("transaction")
	}
	s.txs[i].tx.Category = category
	s.txs[i].sync = storage.SyncPending
	return nil
}

func (s *state) DeleteTransaction(_ context.Context, userID string, id uuid.UUID) error {
	i := s.findTx(userID, id)
	if i < 0 {
		return notFound("transaction")
	}
	s.txs = append(s.txs[:i:i], s.txs[i+1:]...)
	return nil
}

func (s *state) ListPendingSync(_ context.Context, limit int) ([]storage.PendingSync, error) {
	var out []storage.PendingSync
	for _, e := range s.txs {
		if e.sync == storage.SyncSynced {
			continue
		}
		out = append(out, storage.PendingSync{ID: e.tx.ID, UserID: e.tx.UserID, CreatedAt: e.tx.CreatedAt})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *state) setSync(id uuid.UUID, status string) error {
	for i := range s.txs {
		if s.txs[i].tx.ID == id {
			s.txs[i].sync = status
			return nil
		}
	}
	return notFound("transaction")
}

func (s *state) MarkSynced(_ context.Context, id uuid.UUID) error {
	return s.setSync(id, storage.SyncSynced)
}

func (s *state) MarkSyncError(_ context.Context, id uuid.UUID) error {
	return s.setSync(id, storage.SyncError)
}

// Budgets

func (s *state) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	for _, existing := range s.budgets {
		if existing.UserID == b.UserID && existing.Category == b.Category {
			return core.Budget{}, fmt.Errorf("budget for %q: %w", b.Category, storage.ErrConflict)
		}
	}
	b.ID, b.CreatedAt = s.stamp(b.ID, b.CreatedAt)
	s.budgets[b.ID] = b
	return b, nil
}

func (s *state) GetBudget(_ context.Context, userID string, id uuid.UUID) (core.Budget, error) {
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, notFound("budget")
	}
	return b, nil
}

func (s *state) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *state) UpdateBudgetLimit(ctx context.Context, userID string, id uuid.UUID, limit decimal.Decimal) (core.Budget, error) {
	b, err := s.GetBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, err
	}
	b.Limit = limit
	s.budgets[id] = b
	return b, nil
}

func (s *state) DeleteBudget(ctx context.Context, userID string, id uuid.UUID) error {
	if _, err := s.GetBudget(ctx, userID, id); err != nil {
		return err
	}
	delete(s.budgets, id)
	return nil
}

// Goals

func (s *state) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	g.ID, g.CreatedAt = s.stamp(g.ID, g.CreatedAt)
	g.UpdatedAt = g.CreatedAt
	g.Version = 1
	s.goals[g.ID] = g
	return g, nil
}

func (s *state) GetGoal(_ context.Context, userID string, id uuid.UUID) (core.Goal, error) {
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.Goal{}, notFound("goal")
	}
	return g, nil
}

func (s *state) ListGoals(_ context.Context, userID string, status core.GoalStatus) ([]core.Goal, error) {
	out := make([]core.Goal, 0)
	for _, g := range s.goals {
		if g.UserID == userID && (status == "" || g.Status == status) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *state) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	stored, err := s.GetGoal(ctx, g.UserID, g.ID)
	if err != nil {
		return core.Goal{}, err
	}
	if stored.Version != g.Version {
		return core.Goal{}, fmt.Errorf("goal %s version %d: %w", g.ID, g.Version, storage.ErrConflict)
	}
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = s.now()
	}
	g.CreatedAt = stored.CreatedAt
	g.Version++
	s.goals[g.ID] = g
	return g, nil
}

func (s *state) DeleteGoal(ctx context.Context, userID string, id uuid.UUID) error {
	if _, err := s.GetGoal(ctx, userID, id); err != nil {
		return err
	}
	delete(s.goals, id)
	return nil
}

// Recurring templates

func (s *state) CreateRecurring(_ context.Context, re core.RecurringTransaction) (core.RecurringTransaction, error) {
	re.ID, re.CreatedAt = s.stamp(re.ID, re.CreatedAt)
	s.recurring[re.ID] = re
	return re, nil
}

func (s *state) listRecurring(keep func(core.RecurringTransaction) bool) []core.RecurringTransaction {
	out := make([]core.RecurringTransaction, 0)
	for _, re := range s.recurring {
		if keep(re) {
			out = append(out, re)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate.Time) {
			return out[i].StartDate.Before(out[j].StartDate.Time)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *state) ListRecurring(_ context.Context, userID string) ([]core.RecurringTransaction, error) {
	return s.listRecurring(func(re core.RecurringTransaction) bool { return re.UserID == userID }), nil
}

func (s *state) ListAllRecurring(_ context.Context) ([]core.RecurringTransaction, error) {
	return s.listRecurring(func(core.RecurringTransaction) bool { return true }), nil
}

func (s *state) UpdateRecurringLastExecution(_ context.Context, id uuid.UUID, at time.Time) error {
	re, ok := s.recurring[id]
	if !ok {
		return notFound("recurring transaction")
	}
	re.LastExecution = at
	s.recurring[id] = re
	return nil
}

func (s *state) DeleteRecurring(_ context.Context, userID string, id uuid.UUID) error {
	re, ok := s.recurring[id]
	if !ok || re.UserID != userID {
		return notFound("recurring transaction")
	}
	delete(s.recurring, id)
	return nil
}

// Sweeps

func sweepKey(userID, key string) string { return userID + "\x00" + key }

func (s *state) GetSweep(_ context.Context, userID, key string) (storage.SweepRecord, error) {
	rec, ok := s.sweeps[sweepKey(userID, key)]
	if !ok {
		return storage.SweepRecord{}, notFound("sweep")
	}
	return rec, nil
}

func (s *state) CreateSweep(_ context.Context, rec storage.SweepRecord) error {
	k := sweepKey(rec.UserID, rec.IdempotencyKey)
	if _, ok := s.sweeps[k]; ok {
		return fmt.Errorf("sweep %q: %w", rec.IdempotencyKey, storage.ErrConflict)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	s.sweeps[k] = rec
	return nil
}

func (s *state) SweptInPeriod(_ context.Context, userID string, budgetID uuid.UUID, periodStart core.Date) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, rec := range s.sweeps {
		if rec.UserID == userID && rec.BudgetID == budgetID && rec.PeriodStart.Equal(periodStart.Time) {
			total = total.Add(rec.Amount)
		}
	}
	return total, nil
}
