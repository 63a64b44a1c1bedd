package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"finpulse/internal/core"
	"finpulse/internal/storage"
	"finpulse/internal/storage/memory"

	"github.com/google/uuid"
)

func TestRecurringProcessorProcessDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	recurring := NewRecurringService(f.repo)
	recurring.now = f.clock.Now
	processor := NewRecurringProcessor(f.repo, f.ledger)

	rent, err := recurring.Create(ctx, testUser, core.RecurringTransaction{
		StartDate: core.NewDate(2024, 1, 1), Every: core.Monthly,
		Description: "Rent", Amount: amt("-900"), Category: "Housing",
	})
	if err != nil {
		t.Fatalf("Create rent: %v", err)
	}
	if _, err := recurring.Create(ctx, testUser, core.RecurringTransaction{
		StartDate: core.NewDate(2023, 1, 1), EndDate: core.NewDate(2023, 12, 31), Every: core.Daily,
		Description: "Old gym", Amount: amt("-2"), Category: "Health",
	}); err != nil {
		t.Fatalf("Create ended template: %v", err)
	}
	if _, err := recurring.Create(ctx, "user-2", core.RecurringTransaction{
		StartDate: core.NewDate(2024, 6, 1), Every: core.Yearly,
		Description: "Insurance", Amount: amt("-300"), Category: "Insurance",
	}); err != nil {
		t.Fatalf("Create future template: %v", err)
	}
	if _, err := recurring.Create(ctx, testUser, core.RecurringTransaction{
		StartDate: core.NewDate(2024, 1, 1), Every: core.Monthly,
		Description: "Salary", Amount: amt("2500"),
	}); err != nil {
		t.Fatalf("Create salary: %v", err)
	}

	now := time.Date(2024, 1, 20, 6, 0, 0, 0, time.UTC)
	n, err := processor.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected rent and salary appended, got %d", n)
	}

	entries := f.ledgerEntries(t)
	var rentEntry *core.Transaction
	for i := range entries {
		if entries[i].Description == "Rent" {
			rentEntry = &entries[i]
		}
		if entries[i].Description == "Salary" && entries[i].Category != core.CategoryIncome {
			t.Errorf("salary filed under %q", entries[i].Category)
		}
	}
	if rentEntry == nil {
		t.Fatal("rent entry missing")
	}
	if rentEntry.Date.String() != "2024-01-20" || !strings.HasPrefix(rentEntry.Source, "recurring:") ||
		!strings.HasSuffix(rentEntry.Source, rent.ID.String()) {
		t.Errorf("unexpected rent entry %+v", *rentEntry)
	}

	n, err = processor.ProcessDue(ctx, now.Add(time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("second run the same day appended %d (%v)", n, err)
	}

	n, err = processor.ProcessDue(ctx, time.Date(2024, 2, 1, 6, 0, 0, 0, time.UTC))
	if err != nil || n != 2 {
		t.Fatalf("expected the monthly templates again in February, got %d (%v)", n, err)
	}
}

func TestRecurringServiceValidation(t *testing.T) {
	f := newFixture(t)
	recurring := NewRecurringService(f.repo)

	tests := []struct {
		name string
		re   core.RecurringTransaction
	}{
		{"unknown frequency", core.RecurringTransaction{StartDate: core.NewDate(2024, 1, 1), Every: "hourly", Description: "x", Amount: amt("-1"), Category: "c"}},
		{"end before start", core.RecurringTransaction{StartDate: core.NewDate(2024, 2, 1), EndDate: core.NewDate(2024, 1, 1), Every: core.Daily, Description: "x", Amount: amt("-1"), Category: "c"}},
		{"zero amount", core.RecurringTransaction{StartDate: core.NewDate(2024, 1, 1), Every: core.Daily, Description: "x", Amount: amt("0.001"), Category: "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := recurring.Create(context.Background(), testUser, tt.re); !core.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRecurringProcessorNotInitialized(t *testing.T) {
	p := NewRecurringProcessor(nil, nil)
	if _, err := p.ProcessDue(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error from an uninitialised processor")
	}
}

// stuckRecurringRepo fails every last-execution update made inside a unit of
// work.
type stuckRecurringRepo struct {
	storage.Repository
}

func (r stuckRecurringRepo) WithinTx(ctx context.Context, fn func(storage.Store) error) error {
	return r.Repository.WithinTx(ctx, func(st storage.Store) error {
		return fn(stuckRecurringStore{Store: st})
	})
}

type stuckRecurringStore struct {
	storage.Store
}

func (stuckRecurringStore) UpdateRecurringLastExecution(context.Context, uuid.UUID, time.Time) error {
	return errBoom
}

func TestRecurringProcessorFailedMarkLeavesNoEntry(t *testing.T) {
	f := newFixtureWithRepo(t, stuckRecurringRepo{Repository: memory.New()})
	ctx := context.Background()
	recurring := NewRecurringService(f.repo)
	recurring.now = f.clock.Now
	if _, err := recurring.Create(ctx, testUser, core.RecurringTransaction{
		StartDate: core.NewDate(2024, 1, 1), Every: core.Monthly,
		Description: "Rent", Amount: amt("-900"), Category: "Housing",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	processor := NewRecurringProcessor(f.repo, f.ledger)
	now := time.Date(2024, 1, 20, 6, 0, 0, 0, time.UTC)

	for run := 1; run <= 2; run++ {
		n, err := processor.ProcessDue(ctx, now)
		if err != nil || n != 0 {
			t.Fatalf("run %d: processed %d (%v), want 0", run, n, err)
		}
		if entries := f.ledgerEntries(t); len(entries) != 0 {
			t.Fatalf("run %d: entry left behind without a last execution: %+v", run, entries)
		}
	}
	if len(f.publisher.Events()) != 0 {
		t.Error("rolled back entry was published")
	}

	all, err := f.repo.ListAllRecurring(ctx)
	if err != nil || len(all) != 1 || !all[0].LastExecution.IsZero() {
		t.Errorf("template = %+v (%v), want it unmarked", all, err)
	}
}
