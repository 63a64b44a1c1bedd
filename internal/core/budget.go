package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidLimit = errors.New("budget limit must be positive")

// Budget is a spending ceiling for one category. What has been spent is never
// stored: it is aggregated from the ledger on every read.
type Budget struct {
	ID        uuid.UUID
	UserID    string
	Category  string
	Limit     decimal.Decimal
	CreatedAt time.Time
}

// BudgetStatus is a budget together with its read-time aggregation.
type BudgetStatus struct {
	Budget     Budget
	Period     Period
	Spent      decimal.Decimal
	Remainder  decimal.Decimal
	OverBudget bool
}

func NewBudget(userID, category string, limit decimal.Decimal) (Budget, error) {
	b := Budget{
		UserID:   strings.TrimSpace(userID),
		Category: strings.TrimSpace(category),
		Limit:    limit,
	}
	if err := b.Validate(); err != nil {
		return Budget{}, err
	}
	return b, nil
}

func (b Budget) Validate() error {
	if b.UserID == "" {
		return Invalid("user", ErrEmptyUser)
	}
	if strings.TrimSpace(b.Category) == "" {
		return Invalid("category", ErrEmptyCategory)
	}
	if !b.Limit.IsPositive() {
		return Invalid("limit", ErrInvalidLimit)
	}
	return nil
}

// ComputeSpent sums the absolute value of every expense in category among txs.
// It looks at nothing but its arguments.
func ComputeSpent(category string, txs []Transaction) decimal.Decimal {
	spent := decimal.Zero
	for _, tx := range txs {
		if tx.Category != category || !tx.IsExpense() {
			continue
		}
		spent = spent.Add(tx.Amount.Abs())
	}
	return spent
}

// SpendWindow narrows txs to the entries that count toward category's spend in
// period. The latest period_close entry of the category inside the period
// opens a new window: it and everything recorded at or before it drop out.
func SpendWindow(category string, period Period, txs []Transaction) []Transaction {
	var (
		closedAt time.Time
		closed   bool
	)
	for _, tx := range txs {
		if tx.Kind != KindPeriodClose || tx.Category != category || !period.Contains(tx.Date) {
			continue
		}
		if !closed || tx.CreatedAt.After(closedAt) {
			closedAt = tx.CreatedAt
			closed = true
		}
	}

	window := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Category != category || !period.Contains(tx.Date) {
			continue
		}
		if closed && !tx.CreatedAt.After(closedAt) {
			continue
		}
		window = append(window, tx)
	}
	return window
}

// PeriodSpent is everything spent in category during period, ignoring
// period_close entries. Closing a window resets what the budget displays but
// not what was actually spent.
func PeriodSpent(category string, period Period, txs []Transaction) decimal.Decimal {
	spent := decimal.Zero
	for _, tx := range txs {
		if tx.Kind == KindPeriodClose || tx.Category != category || !period.Contains(tx.Date) || !tx.IsExpense() {
			continue
		}
		spent = spent.Add(tx.Amount.Abs())
	}
	return spent
}

// SpentInPeriod is ComputeSpent over the category's current window in period.
func SpentInPeriod(category string, period Period, txs []Transaction) decimal.Decimal {
	return ComputeSpent(category, SpendWindow(category, period, txs))
}

// Status aggregates txs into the budget's figures for period. Spending over the
// limit is a valid state and yields a negative remainder.
func (b Budget) Status(period Period, txs []Transaction) BudgetStatus {
	spent := SpentInPeriod(b.Category, period, txs)
	remainder := b.Limit.Sub(spent)
	return BudgetStatus{
		Budget:     b,
		Period:     period,
		Spent:      spent,
		Remainder:  remainder,
		OverBudget: spent.GreaterThan(b.Limit),
	}
}
