package storage

import (
	"context"
)

const createBudget = `-- name: CreateBudget :exec
INSERT INTO budgets (id, user_id, category, limit_amount, created_at)
VALUES (?, ?, ?, ?, ?)
`

func (q *Queries) CreateBudget(ctx context.Context, arg Budget) error {
	_, err := q.db.ExecContext(ctx, createBudget,
		arg.ID,
		arg.UserID,
		arg.Category,
		arg.LimitAmount,
		arg.CreatedAt,
	)
	return err
}

const getBudget = `-- name: GetBudget :one
SELECT id, user_id, category, limit_amount, created_at FROM budgets
WHERE user_id = ? AND id = ?
`

func (q *Queries) GetBudget(ctx context.Context, userID, id string) (Budget, error) {
	row := q.db.QueryRowContext(ctx, getBudget, userID, id)
	var i Budget
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Category,
		&i.LimitAmount,
		&i.CreatedAt,
	)
	return i, err
}

const listBudgets = `-- name: ListBudgets :many
SELECT id, user_id, category, limit_amount, created_at FROM budgets
WHERE user_id = ?
ORDER BY category ASC
`

func (q *Queries) ListBudgets(ctx context.Context, userID string) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		var i Budget
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Category,
			&i.LimitAmount,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateBudgetLimit = `-- name: UpdateBudgetLimit :execrows
UPDATE budgets SET limit_amount = ? WHERE user_id = ? AND id = ?
`

func (q *Queries) UpdateBudgetLimit(ctx context.Context, limitAmount, userID, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateBudgetLimit, limitAmount, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteBudget = `-- name: DeleteBudget :execrows
DELETE FROM budgets WHERE user_id = ? AND id = ?
`

func (q *Queries) DeleteBudget(ctx context.Context, userID, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBudget, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
