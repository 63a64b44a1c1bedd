package services

import (
	"context"
	"errors"
	"testing"

	"finpulse/internal/core"
	"finpulse/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestBudgetCreateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.budgets.Create(ctx, testUser, "Dining Out", amt("300")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.budgets.Create(ctx, testUser, "Dining Out", amt("50")); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate category, got %v", err)
	}
	for _, limit := range []string{"0", "-10"} {
		if _, err := f.budgets.Create(ctx, testUser, "Travel", amt(limit)); !errors.Is(err, core.ErrInvalidLimit) {
			t.Errorf("limit %s: expected ErrInvalidLimit, got %v", limit, err)
		}
	}
	if _, err := f.budgets.Create(ctx, testUser, " ", amt("10")); !errors.Is(err, core.ErrEmptyCategory) {
		t.Errorf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestBudgetUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.budgets.Create(ctx, testUser, "Groceries", amt("200"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.budgets.UpdateLimit(ctx, testUser, b.ID, decimal.Zero); !core.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	updated, err := f.budgets.UpdateLimit(ctx, testUser, b.ID, amt("250.005"))
	if err != nil {
		t.Fatalf("UpdateLimit: %v", err)
	}
	if core.FormatAmount(updated.Limit) != "250.01" {
		t.Errorf("expected limit rounded to 250.01, got %s", updated.Limit)
	}

	if err := f.budgets.Delete(ctx, testUser, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.budgets.Get(ctx, testUser, b.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBudgetOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jan := core.MonthPeriod(core.NewDate(2024, 1, 1))

	if _, err := f.budgets.Create(ctx, testUser, "Dining Out", amt("300")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.budgets.Create(ctx, testUser, "Groceries", amt("100")); err != nil {
		t.Fatal(err)
	}

	f.spend(t, "Dining Out", "-100", core.NewDate(2024, 1, 3))
	f.spend(t, "Dining Out", "-50", core.NewDate(2024, 1, 18))
	f.spend(t, "Dining Out", "-75", core.NewDate(2023, 12, 30))
	f.spend(t, "Groceries", "-120", core.NewDate(2024, 1, 10))
	if _, err := f.ledger.Append(ctx, testUser, core.Transaction{
		Description: "Refund", Amount: amt("20"), Date: core.NewDate(2024, 1, 11), Category: "Dining Out",
	}); err != nil {
		t.Fatal(err)
	}

	overview, err := f.budgets.Overview(ctx, testUser, jan)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(overview) != 2 {
		t.Fatalf("expected 2 budgets, got %d", len(overview))
	}

	byCategory := map[string]core.BudgetStatus{}
	for _, st := range overview {
		byCategory[st.Budget.Category] = st
	}

	tests := []struct {
		category  string
		spent     string
		remainder string
		over      bool
	}{
		{"Dining Out", "150.00", "150.00", false},
		{"Groceries", "120.00", "-20.00", true},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			st := byCategory[tt.category]
			if core.FormatAmount(st.Spent) != tt.spent {
				t.Errorf("spent = %s, want %s", st.Spent, tt.spent)
			}
			if core.FormatAmount(st.Remainder) != tt.remainder {
				t.Errorf("remainder = %s, want %s", st.Remainder, tt.remainder)
			}
			if st.OverBudget != tt.over {
				t.Errorf("over budget = %v, want %v", st.OverBudget, tt.over)
			}
		})
	}

	other, err := f.budgets.Overview(ctx, "someone-else", jan)
	if err != nil || len(other) != 0 {
		t.Errorf("expected no budgets for another user, got %d (%v)", len(other), err)
	}
}

func TestBudgetStatusMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.budgets.Status(context.Background(), testUser, uuid.New(), core.MonthPeriod(core.NewDate(2024, 1, 1)))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
