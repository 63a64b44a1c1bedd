package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	GoalActive   GoalStatus = "active"
	GoalArchived GoalStatus = "archived"
)

var (
	ErrEmptyTitle           = errors.New("empty title")
	ErrInvalidTarget        = errors.New("target must be positive")
	ErrNegativeCurrent      = errors.New("current amount cannot be negative")
	ErrCurrentExceedsTarget = errors.New("current amount exceeds target")
	ErrNegativeContribution = errors.New("contribution must be positive")
	ErrInvalidTransition    = errors.New("invalid goal status transition")
	ErrGoalNotActive        = errors.New("goal is not active")
	ErrInvalidStatus        = errors.New("invalid goal status")
)

type GoalStatus string

func (s GoalStatus) Valid() bool {
	return s == GoalActive || s == GoalArchived
}

// Goal is a savings target with its accumulated progress. Version grows on
// every stored write and guards user edits against lost updates.
type Goal struct {
	ID        uuid.UUID
	UserID    string
	Title     string
	Current   decimal.Decimal
	Target    decimal.Decimal
	Advice    string
	Status    GoalStatus
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func validateGoalAmounts(current, target decimal.Decimal) error {
	if !target.IsPositive() {
		return Invalid("target", ErrInvalidTarget)
	}
	if current.IsNegative() {
		return Invalid("current", ErrNegativeCurrent)
	}
	if current.GreaterThan(target) {
		return Invalid("current", ErrCurrentExceedsTarget)
	}
	return nil
}

// NewGoal builds an active goal. Out of range amounts are rejected, never clamped.
func NewGoal(userID, title string, target, initial decimal.Decimal) (Goal, error) {
	if strings.TrimSpace(userID) == "" {
		return Goal{}, Invalid("user", ErrEmptyUser)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Goal{}, Invalid("title", ErrEmptyTitle)
	}
	if err := validateGoalAmounts(initial, target); err != nil {
		return Goal{}, err
	}
	return Goal{
		UserID:  userID,
		Title:   title,
		Current: initial,
		Target:  target,
		Status:  GoalActive,
	}, nil
}

// Edit applies a user edit. Unlike Contribute it enforces current <= target.
func (g Goal) Edit(title string, current, target decimal.Decimal) (Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return g, Invalid("title", ErrEmptyTitle)
	}
	if err := validateGoalAmounts(current, target); err != nil {
		return g, err
	}
	g.Title = title
	g.Current = current
	g.Target = target
	return g, nil
}

// Contribute adds amount to the accumulated progress. There is no ceiling:
// the result may exceed the target.
func (g Goal) Contribute(amount decimal.Decimal) (Goal, error) {
	if !amount.IsPositive() {
		return g, Invalid("amount", ErrNegativeContribution)
	}
	g.Current = g.Current.Add(amount)
	return g, nil
}

func (g Goal) Archive() (Goal, error) {
	if g.Status != GoalActive {
		return g, ErrInvalidTransition
	}
	g.Status = GoalArchived
	return g, nil
}

func (g Goal) Restore() (Goal, error) {
	if g.Status != GoalArchived {
		return g, ErrInvalidTransition
	}
	g.Status = GoalActive
	return g, nil
}

// Progress is current/target as a percentage, two decimals.
func (g Goal) Progress() decimal.Decimal {
	if !g.Target.IsPositive() {
		return decimal.Zero
	}
	return g.Current.Div(g.Target).Mul(decimal.NewFromInt(100)).Round(2)
}
