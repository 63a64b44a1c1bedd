package storage

import (
	"context"
	"database/sql"
)

const goalColumns = `id, user_id, title, current_amount, target_amount, advice, status, version, created_at, updated_at`

func scanGoal(row interface{ Scan(...interface{}) error }) (Goal, error) {
	var i Goal
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Title,
		&i.CurrentAmount,
		&i.TargetAmount,
		&i.Advice,
		&i.Status,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createGoal = `-- name: CreateGoal :exec
INSERT INTO goals (` + goalColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateGoal(ctx context.Context, arg Goal) error {
	_, err := q.db.ExecContext(ctx, createGoal,
		arg.ID,
		arg.UserID,
		arg.Title,
		arg.CurrentAmount,
		arg.TargetAmount,
		arg.Advice,
		arg.Status,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getGoal = `-- name: GetGoal :one
SELECT ` + goalColumns + ` FROM goals
WHERE user_id = ? AND id = ?
`

func (q *Queries) GetGoal(ctx context.Context, userID, id string) (Goal, error) {
	return scanGoal(q.db.QueryRowContext(ctx, getGoal, userID, id))
}

const listGoals = `-- name: ListGoals :many
SELECT ` + goalColumns + ` FROM goals
WHERE user_id = ?1 AND (?2 = '' OR status = ?2)
ORDER BY created_at DESC, rowid DESC
`

func (q *Queries) ListGoals(ctx context.Context, userID, status string) ([]Goal, error) {
	rows, err := q.db.QueryContext(ctx, listGoals, userID, status)
	if err != nil {
		return nil, err
	}
	return collectGoals(rows)
}

func collectGoals(rows *sql.Rows) ([]Goal, error) {
	defer rows.Close()
	var items []Goal
	for rows.Next() {
		i, err := scanGoal(rows)
		if err != nil {
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

const updateGoal = `-- name: UpdateGoal :execrows
UPDATE goals
SET title = ?, current_amount = ?, target_amount = ?, advice = ?, status = ?,
    version = version + 1, updated_at = ?
WHERE user_id = ? AND id = ? AND version = ?
`

type UpdateGoalParams struct {
	Title         string
	CurrentAmount string
	TargetAmount  string
	Advice        string
	Status        string
	UpdatedAt     string
	UserID        string
	ID            string
	Version       int64
}

func (q *Queries) UpdateGoal(ctx context.Context, arg UpdateGoalParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateGoal,
		arg.Title,
		arg.CurrentAmount,
		arg.TargetAmount,
		arg.Advice,
		arg.Status,
		arg.UpdatedAt,
		arg.UserID,
		arg.ID,
		arg.Version,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteGoal = `-- name: DeleteGoal :execrows
DELETE FROM goals WHERE user_id = ? AND id = ?
`

func (q *Queries) DeleteGoal(ctx context.Context, userID, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteGoal, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
