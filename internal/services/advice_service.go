package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finpulse/internal/advice"
	"finpulse/internal/cache"
	"finpulse/internal/core"

	"github.com/google/uuid"
)

// ErrAdviceUnavailable is returned when no provider is configured.
var ErrAdviceUnavailable = errors.New("no advice provider configured")

// adviceLookback is how much recent ledger history feeds the prompt.
const adviceLookback = 90 * 24 * time.Hour

// AdviceService asks the provider for a plan for a goal and attaches it.
type AdviceService struct {
	goals    *GoalService
	ledger   *LedgerService
	provider advice.Provider
	cache    cache.Cache[string]
	now      func() time.Time
}

// NewAdviceService wires the provider. c may be nil to disable caching.
func NewAdviceService(goals *GoalService, ledger *LedgerService, provider advice.Provider, c cache.Cache[string]) *AdviceService {
	return &AdviceService{
		goals:    goals,
		ledger:   ledger,
		provider: provider,
		cache:    c,
		now:      utcNow,
	}
}

// adviceKey changes whenever something the prompt is built from changes.
// Attaching advice bumps the goal version, so the version is not part of it.
func adviceKey(g core.Goal) string {
	return fmt.Sprintf("%s|%s|%s|%s", g.ID, g.Title, core.FormatAmount(g.Current), core.FormatAmount(g.Target))
}

// AdviseGoal generates advice for the goal and stores it on the goal.
func (s *AdviceService) AdviseGoal(ctx context.Context, userID string, goalID uuid.UUID) (core.Goal, error) {
	if s.provider == nil {
		return core.Goal{}, fmt.Errorf("advise goal %s: %w", goalID, ErrAdviceUnavailable)
	}

	goal, err := s.goals.Get(ctx, userID, goalID)
	if err != nil {
		return core.Goal{}, err
	}

	key := adviceKey(goal)
	text, cached := "", false
	if s.cache != nil {
		text, cached = s.cache.Get(key)
	}
	if !cached {
		now := s.now()
		recent, err := s.ledger.ListInPeriod(ctx, userID, core.Period{
			Start: core.DateOf(now.Add(-adviceLookback)),
			End:   core.DateOf(now).AddDays(1),
		})
		if err != nil {
			return core.Goal{}, err
		}

		system, user := advice.BuildPrompt(goal, recent)
		raw, err := s.provider.SendPrompt(ctx, system, user)
		if err != nil {
			return core.Goal{}, fmt.Errorf("advise goal %s: %w", goalID, err)
		}
		plan, err := advice.ParsePlan(raw)
		if err != nil {
			slog.ErrorContext(ctx, "Advice response could not be decoded", "goal_id", goalID, "error", err)
			return core.Goal{}, fmt.Errorf("advise goal %s: %w", goalID, err)
		}
		text = plan.Text()
		if s.cache != nil {
			s.cache.Set(key, text)
		}
	}

	if goal.Advice == text {
		return goal, nil
	}
	slog.InfoContext(ctx, "Attaching advice to goal", "goal_id", goalID, "cached", cached)
	return s.goals.AttachAdvice(ctx, userID, goalID, text)
}
