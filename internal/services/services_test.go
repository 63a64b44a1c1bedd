package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finpulse/internal/amqp"
	"finpulse/internal/core"
	"finpulse/internal/storage"
	"finpulse/internal/storage/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const testUser = "user-1"

// stepClock advances by a millisecond on every reading so creation
// timestamps are strictly ordered.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

type publishedEvent struct {
	action string
	id     uuid.UUID
	snap   *amqp.TransactionSnapshot
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishTransaction(_ context.Context, action, _ string, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{action: action, id: id})
	return p.err
}

func (p *recordingPublisher) PublishDeletion(_ context.Context, _ string, id uuid.UUID, snap amqp.TransactionSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{action: amqp.ActionDeleted, id: id, snap: &snap})
	return p.err
}

func (p *recordingPublisher) Events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type fixture struct {
	repo      storage.Repository
	clock     *stepClock
	publisher *recordingPublisher
	ledger    *LedgerService
	budgets   *BudgetService
	goals     *GoalService
	sweeps    *SweepService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, memory.New())
}

func newFixtureWithRepo(t *testing.T, repo storage.Repository) *fixture {
	t.Helper()
	f := &fixture{
		repo:      repo,
		clock:     newStepClock(),
		publisher: &recordingPublisher{},
	}
	f.ledger = NewLedgerService(repo, f.publisher)
	f.ledger.now = f.clock.Now
	f.budgets = NewBudgetService(repo)
	f.budgets.now = f.clock.Now
	f.goals = NewGoalService(repo)
	f.goals.now = f.clock.Now
	f.sweeps = NewSweepService(repo, f.publisher)
	f.sweeps.now = f.clock.Now
	return f
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) spend(t *testing.T, category, amount string, date core.Date) core.Transaction {
	t.Helper()
	tx, err := f.ledger.Append(context.Background(), testUser, core.Transaction{
		Description: "spend " + amount,
		Amount:      amt(amount),
		Date:        date,
		Category:    category,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	return tx
}

func (f *fixture) ledgerEntries(t *testing.T) []core.Transaction {
	t.Helper()
	txs, err := f.ledger.List(context.Background(), testUser)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return txs
}

var errBoom = errors.New("boom")

// failingRepo fails the first period_close write made inside a unit of work.
type failingRepo struct {
	storage.Repository
}

func (r failingRepo) WithinTx(ctx context.Context, fn func(storage.Store) error) error {
	return r.Repository.WithinTx(ctx, func(st storage.Store) error {
		return fn(failingStore{Store: st})
	})
}

type failingStore struct {
	storage.Store
}

func (s failingStore) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.Kind == core.KindPeriodClose {
		return core.Transaction{}, errBoom
	}
	return s.Store.CreateTransaction(ctx, tx)
}
