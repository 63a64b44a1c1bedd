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
)

// GoalService manages savings goals. Every change is a read-modify-write
// inside one unit of work and bumps the goal's version.
type GoalService struct {
	repo storage.Repository
	now  func() time.Time
}

func NewGoalService(repo storage.Repository) *GoalService {
	return &GoalService{repo: repo, now: utcNow}
}

// Create stores a new active goal. A target of zero or less, or an initial
// amount above the target, is rejected and nothing is stored.
func (s *GoalService) Create(ctx context.Context, userID, title string, target, initial decimal.Decimal) (core.Goal, error) {
	g, err := core.NewGoal(userID, title, target, initial)
	if err != nil {
		return core.Goal{}, err
	}
	g.CreatedAt = s.now()
	g.UpdatedAt = g.CreatedAt

	created, err := s.repo.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	slog.InfoContext(ctx, "Goal created",
		"goal_id", created.ID,
		"target", core.FormatAmount(created.Target),
		"current", core.FormatAmount(created.Current))
	return created, nil
}

func (s *GoalService) Get(ctx context.Context, userID string, id uuid.UUID) (core.Goal, error) {
	g, err := s.repo.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal %s: %w", id, err)
	}
	return g, nil
}

// List returns the user's goals; an empty status returns all of them.
func (s *GoalService) List(ctx context.Context, userID string, status core.GoalStatus) ([]core.Goal, error) {
	if status != "" && !status.Valid() {
		return nil, core.Invalid("status", core.ErrInvalidStatus)
	}
	goals, err := s.repo.ListGoals(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// Edit applies a user edit. expectedVersion, when non-zero, must match the
// stored version or the edit fails with storage.ErrConflict. A rejected edit
// leaves the stored goal untouched.
func (s *GoalService) Edit(ctx context.Context, userID string, id uuid.UUID, title string, current, target decimal.Decimal, expectedVersion int64) (core.Goal, error) {
	return s.mutate(ctx, "edit", userID, id, func(g core.Goal) (core.Goal, error) {
		if expectedVersion != 0 && g.Version != expectedVersion {
			return g, fmt.Errorf("goal version %d, expected %d: %w", g.Version, expectedVersion, storage.ErrConflict)
		}
		return g.Edit(title, current, target)
	})
}

// Contribute adds amount to an active goal without a ceiling check.
func (s *GoalService) Contribute(ctx context.Context, userID string, id uuid.UUID, amount decimal.Decimal) (core.Goal, error) {
	return s.mutate(ctx, "contribute", userID, id, func(g core.Goal) (core.Goal, error) {
		if g.Status != core.GoalActive {
			return g, core.Invalid("goal", core.ErrGoalNotActive)
		}
		return g.Contribute(amount)
	})
}

func (s *GoalService) Archive(ctx context.Context, userID string, id uuid.UUID) (core.Goal, error) {
	return s.mutate(ctx, "archive", userID, id, core.Goal.Archive)
}

func (s *GoalService) Restore(ctx context.Context, userID string, id uuid.UUID) (core.Goal, error) {
	return s.mutate(ctx, "restore", userID, id, core.Goal.Restore)
}

// AttachAdvice stores generated advice text on the goal.
func (s *GoalService) AttachAdvice(ctx context.Context, userID string, id uuid.UUID, advice string) (core.Goal, error) {
	return s.mutate(ctx, "attach advice", userID, id, func(g core.Goal) (core.Goal, error) {
		g.Advice = advice
		return g, nil
	})
}

// Delete removes the goal permanently. Ledger entries attributed to it keep
// their goal reference.
func (s *GoalService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.repo.DeleteGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Goal deleted", "goal_id", id)
	return nil
}

func (s *GoalService) mutate(ctx context.Context, op, userID string, id uuid.UUID, fn func(core.Goal) (core.Goal, error)) (core.Goal, error) {
	var out core.Goal
	err := s.repo.WithinTx(ctx, func(st storage.Store) error {
		g, err := st.GetGoal(ctx, userID, id)
		if err != nil {
			return err
		}
		changed, err := fn(g)
		if err != nil {
			return err
		}
		changed.UpdatedAt = s.now()
		out, err = st.UpdateGoal(ctx, changed)
		return err
	})
	if err != nil {
		return core.Goal{}, fmt.Errorf("%s goal %s: %w", op, id, err)
	}
	slog.InfoContext(ctx, "Goal updated",
		"op", op,
		"goal_id", out.ID,
		"status", out.Status,
		"current", core.FormatAmount(out.Current),
		"version", out.Version)
	return out, nil
}
