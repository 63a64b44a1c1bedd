package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finpulse/internal/amqp"
	"finpulse/internal/core"
	"finpulse/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrSweepKeyReused is returned when an idempotency key is replayed against a
// different budget or goal than the one it was first used with.
var ErrSweepKeyReused = errors.New("idempotency key already used for another sweep")

type SweepRequest struct {
	UserID   string
	BudgetID uuid.UUID
	GoalID   uuid.UUID
	// Period defaults to the calendar month of today.
	Period         core.Period
	IdempotencyKey string
}

type SweepResult struct {
	Swept     bool
	Replayed  bool
	Spent     decimal.Decimal
	Remainder decimal.Decimal
	Goal      core.Goal
	Savings   *core.Transaction
	Close     *core.Transaction
}

// SweepService moves a budget's unspent remainder into a goal.
type SweepService struct {
	repo      storage.Repository
	publisher Publisher
	now       func() time.Time
}

func NewSweepService(repo storage.Repository, publisher Publisher) *SweepService {
	return &SweepService{repo: repo, publisher: publisher, now: utcNow}
}

// Sweep contributes the remainder to the goal, records the Savings entry and
// closes the budget's spend window, all in one unit of work. The remainder
// excludes what earlier sweeps of the period moved; zero or less writes
// nothing. A period that has not started yet is rejected on "month". With an
// idempotency key, a replay returns the first outcome without writing again.
func (s *SweepService) Sweep(ctx context.Context, req SweepRequest) (SweepResult, error) {
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	today := core.DateOf(s.now())
	if req.Period.Start.IsZero() {
		req.Period = core.MonthPeriod(today)
	}

	var res SweepResult
	err := s.repo.WithinTx(ctx, func(st storage.Store) error {
		if req.IdempotencyKey != "" {
			rec, err := st.GetSweep(ctx, req.UserID, req.IdempotencyKey)
			switch {
			case err == nil:
				res, err = replay(ctx, st, req, rec)
				return err
			case !errors.Is(err, storage.ErrNotFound):
				return err
			}
		}

		budget, err := st.GetBudget(ctx, req.UserID, req.BudgetID)
		if err != nil {
			return err
		}
		goal, err := st.GetGoal(ctx, req.UserID, req.GoalID)
		if err != nil {
			return err
		}
		txs, err := st.ListTransactionsInPeriod(ctx, req.UserID, req.Period)
		if err != nil {
			return err
		}

		swept, err := st.SweptInPeriod(ctx, req.UserID, budget.ID, req.Period.Start)
		if err != nil {
			return err
		}

		plan, err := core.PlanSweep(budget, goal, req.Period, txs, swept, today)
		if err != nil {
			return err
		}
		res = SweepResult{Spent: plan.Spent, Remainder: plan.Remainder, Goal: plan.Goal}
		if !plan.Swept {
			return nil
		}

		plan.Goal.UpdatedAt = s.now()
		if res.Goal, err = st.UpdateGoal(ctx, plan.Goal); err != nil {
			return err
		}

		plan.Savings.CreatedAt = s.now()
		savings, err := st.CreateTransaction(ctx, plan.Savings)
		if err != nil {
			return err
		}
		res.Savings = &savings

		rec := storage.SweepRecord{
			UserID:         req.UserID,
			IdempotencyKey: req.IdempotencyKey,
			BudgetID:       budget.ID,
			GoalID:         goal.ID,
			PeriodStart:    req.Period.Start,
			Amount:         plan.Remainder,
			SavingsTxID:    savings.ID,
		}
		if plan.Close != nil {
			plan.Close.CreatedAt = s.now()
			closing, err := st.CreateTransaction(ctx, *plan.Close)
			if err != nil {
				return err
			}
			res.Close = &closing
			rec.CloseTxID = closing.ID
		}
		res.Swept = true

		// Unkeyed sweeps are recorded too, under their savings entry id, so
		// the next sweep of this period knows what already left the budget.
		if rec.IdempotencyKey == "" {
			rec.IdempotencyKey = savings.ID.String()
		}
		rec.CreatedAt = s.now()
		return st.CreateSweep(ctx, rec)
	})
	if err != nil {
		slog.ErrorContext(ctx, "Sweep failed",
			"budget_id", req.BudgetID,
			"goal_id", req.GoalID,
			"error", err)
		return SweepResult{}, fmt.Errorf("sweep budget %s into goal %s: %w", req.BudgetID, req.GoalID, err)
	}

	if !res.Swept || res.Replayed {
		slog.InfoContext(ctx, "Sweep wrote nothing",
			"budget_id", req.BudgetID,
			"remainder", core.FormatAmount(res.Remainder),
			"replayed", res.Replayed)
		return res, nil
	}

	slog.InfoContext(ctx, "Budget swept into goal",
		"budget_id", req.BudgetID,
		"goal_id", req.GoalID,
		"amount", core.FormatAmount(res.Remainder),
		"spent", core.FormatAmount(res.Spent),
		"period", req.Period.String())

	announce(ctx, s.publisher, amqp.ActionCreated, *res.Savings)
	if res.Close != nil {
		announce(ctx, s.publisher, amqp.ActionCreated, *res.Close)
	}
	return res, nil
}

func replay(ctx context.Context, st storage.Store, req SweepRequest, rec storage.SweepRecord) (SweepResult, error) {
	if rec.BudgetID != req.BudgetID || rec.GoalID != req.GoalID {
		return SweepResult{}, core.Invalid("idempotency_key", ErrSweepKeyReused)
	}
	goal, err := st.GetGoal(ctx, req.UserID, rec.GoalID)
	if err != nil {
		return SweepResult{}, err
	}
	res := SweepResult{
		Swept:     true,
		Replayed:  true,
		Spent:     decimal.Zero,
		Remainder: rec.Amount,
		Goal:      goal,
	}
	if savings, err := st.GetTransaction(ctx, req.UserID, rec.SavingsTxID); err == nil {
		res.Savings = &savings
	} else if !errors.Is(err, storage.ErrNotFound) {
		return SweepResult{}, err
	}
	if rec.CloseTxID != uuid.Nil {
		closing, err := st.GetTransaction(ctx, req.UserID, rec.CloseTxID)
		switch {
		case err == nil:
			res.Close = &closing
			res.Spent = closing.Amount.Abs()
		case !errors.Is(err, storage.ErrNotFound):
			return SweepResult{}, err
		}
	}
	return res, nil
}
