package core

import (
	"github.com/shopspring/decimal"
)

// SweepPlan is everything a sweep writes, computed before anything is stored.
// Close is nil when nothing was spent in the window: there is no spend to
// snapshot and an entry of zero would not be a valid transaction.
type SweepPlan struct {
	Swept     bool
	Spent     decimal.Decimal
	Remainder decimal.Decimal
	Goal      Goal
	Savings   Transaction
	Close     *Transaction
}

// PlanSweep works out how the unspent remainder of budget moves into goal.
// The remainder is the limit less everything spent in the period and less
// what earlier sweeps of the same period already moved, so a period can never
// yield more than its limit. A remainder of zero or less yields a plan with
// Swept false and nothing to write. A period that has not started is rejected.
func PlanSweep(budget Budget, goal Goal, period Period, txs []Transaction, alreadySwept decimal.Decimal, today Date) (SweepPlan, error) {
	if period.StartsAfter(today) {
		return SweepPlan{Goal: goal}, Invalid("month", ErrFuturePeriod)
	}
	spent := SpentInPeriod(budget.Category, period, txs)
	plan := SweepPlan{
		Spent:     spent,
		Remainder: budget.Limit.Sub(PeriodSpent(budget.Category, period, txs)).Sub(alreadySwept),
		Goal:      goal,
	}
	if !plan.Remainder.IsPositive() {
		return plan, nil
	}
	if goal.Status != GoalActive {
		return plan, Invalid("goal", ErrGoalNotActive)
	}

	contributed, err := goal.Contribute(plan.Remainder)
	if err != nil {
		return plan, err
	}
	plan.Goal = contributed
	plan.Swept = true

	plan.Savings = Transaction{
		UserID:      budget.UserID,
		Description: "Budget sweep: " + budget.Category,
		Amount:      plan.Remainder,
		Date:        today,
		Category:    CategorySavings,
		GoalID:      goal.ID,
		Kind:        KindRegular,
		Source:      SourceManual,
	}

	if spent.IsPositive() {
		plan.Close = &Transaction{
			UserID:      budget.UserID,
			Description: "Budget period close: " + budget.Category,
			Amount:      spent.Neg(),
			Date:        closeDate(period, today),
			Category:    budget.Category,
			Kind:        KindPeriodClose,
			Source:      SourceManual,
		}
	}
	return plan, nil
}

// closeDate keeps the close entry inside the swept period even when the sweep
// of a past month runs today.
func closeDate(period Period, today Date) Date {
	if period.Contains(today) {
		return today
	}
	return period.End.AddDays(-1)
}
