package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finpulse/internal/core"
	"finpulse/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// BudgetService manages spending ceilings. Spent figures are aggregated from
// the ledger at read time and never stored.
type BudgetService struct {
	repo storage.Repository
	now  func() time.Time
}

func NewBudgetService(repo storage.Repository) *BudgetService {
	return &BudgetService{repo: repo, now: utcNow}
}

// Create adds a budget. A second budget for the same category is a conflict.
func (s *BudgetService) Create(ctx context.Context, userID, category string, limit decimal.Decimal) (core.Budget, error) {
	b, err := core.NewBudget(userID, category, limit)
	if err != nil {
		return core.Budget{}, err
	}
	b.CreatedAt = s.now()

	created, err := s.repo.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget %q: %w", b.Category, err)
	}
	slog.InfoContext(ctx, "Budget created",
		"budget_id", created.ID,
		"category", created.Category,
		"limit", core.FormatAmount(created.Limit))
	return created, nil
}

func (s *BudgetService) Get(ctx context.Context, userID string, id uuid.UUID) (core.Budget, error) {
	b, err := s.repo.GetBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", id, err)
	}
	return b, nil
}

func (s *BudgetService) List(ctx context.Context, userID string) ([]core.Budget, error) {
	budgets, err := s.repo.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

func (s *BudgetService) UpdateLimit(ctx context.Context, userID string, id uuid.UUID, limit decimal.Decimal) (core.Budget, error) {
	if !limit.IsPositive() {
		return core.Budget{}, core.Invalid("limit", core.ErrInvalidLimit)
	}
	b, err := s.repo.UpdateBudgetLimit(ctx, userID, id, limit.Round(2))
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Budget limit updated", "budget_id", id, "limit", core.FormatAmount(b.Limit))
	return b, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.repo.DeleteBudget(ctx, userID, id); err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Budget deleted", "budget_id", id)
	return nil
}

// Status loads one budget and the period's ledger in parallel and aggregates.
func (s *BudgetService) Status(ctx context.Context, userID string, id uuid.UUID, period core.Period) (core.BudgetStatus, error) {
	var (
		budget core.Budget
		txs    []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budget, err = s.repo.GetBudget(gctx, userID, id)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.repo.ListTransactionsInPeriod(gctx, userID, period)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.BudgetStatus{}, fmt.Errorf("budget status %s: %w", id, err)
	}
	return budget.Status(period, txs), nil
}

// Overview returns every budget of the user with its figures for period.
func (s *BudgetService) Overview(ctx context.Context, userID string, period core.Period) ([]core.BudgetStatus, error) {
	var (
		budgets []core.Budget
		txs     []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = s.repo.ListBudgets(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.repo.ListTransactionsInPeriod(gctx, userID, period)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("budget overview %s: %w", period, err)
	}

	out := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, b.Status(period, txs))
	}
	return out, nil
}
