package storage

import (
	"context"
)

const getSweep = `-- name: GetSweep :one
SELECT user_id, idempotency_key, budget_id, goal_id, period_start, amount, savings_tx_id, close_tx_id, created_at
FROM sweeps
WHERE user_id = ? AND idempotency_key = ?
`

func (q *Queries) GetSweep(ctx context.Context, userID, key string) (Sweep, error) {
	row := q.db.QueryRowContext(ctx, getSweep, userID, key)
	var i Sweep
	err := row.Scan(
		&i.UserID,
		&i.IdempotencyKey,
		&i.BudgetID,
		&i.GoalID,
		&i.PeriodStart,
		&i.Amount,
		&i.SavingsTxID,
		&i.CloseTxID,
		&i.CreatedAt,
	)
	return i, err
}

const createSweep = `-- name: CreateSweep :exec
INSERT INTO sweeps (user_id, idempotency_key, budget_id, goal_id, period_start, amount, savings_tx_id, close_tx_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateSweep(ctx context.Context, arg Sweep) error {
	_, err := q.db.ExecContext(ctx, createSweep,
		arg.UserID,
		arg.IdempotencyKey,
		arg.BudgetID,
		arg.GoalID,
		arg.PeriodStart,
		arg.Amount,
		arg.SavingsTxID,
		arg.CloseTxID,
		arg.CreatedAt,
	)
	return err
}

const listSweptAmounts = `-- name: ListSweptAmounts :many
SELECT amount
FROM sweeps
WHERE user_id = ? AND budget_id = ? AND period_start = ?
`

func (q *Queries) ListSweptAmounts(ctx context.Context, userID, budgetID, periodStart string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listSweptAmounts, userID, budgetID, periodStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return nil, err
		}
		items = append(items, amount)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
