package storage

import (
	"context"
	"database/sql"
)

const recurringColumns = `id, user_id, start_date, end_date, every, description, amount, category, last_execution, created_at`

func collectRecurring(rows *sql.Rows) ([]RecurringTransaction, error) {
	defer rows.Close()
	var items []RecurringTransaction
	for rows.Next() {
		var i RecurringTransaction
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.StartDate,
			&i.EndDate,
			&i.Every,
			&i.Description,
			&i.Amount,
			&i.Category,
			&i.LastExecution,
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

const createRecurring = `-- name: CreateRecurring :exec
INSERT INTO recurring_transactions (` + recurringColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateRecurring(ctx context.Context, arg RecurringTransaction) error {
	_, err := q.db.ExecContext(ctx, createRecurring,
		arg.ID,
		arg.UserID,
		arg.StartDate,
		arg.EndDate,
		arg.Every,
		arg.Description,
		arg.Amount,
		arg.Category,
		arg.LastExecution,
		arg.CreatedAt,
	)
	return err
}

const listRecurringByUser = `-- name: ListRecurringByUser :many
SELECT ` + recurringColumns + ` FROM recurring_transactions
WHERE user_id = ?
ORDER BY start_date ASC, created_at ASC
`

func (q *Queries) ListRecurringByUser(ctx context.Context, userID string) ([]RecurringTransaction, error) {
	rows, err := q.db.QueryContext(ctx, listRecurringByUser, userID)
	if err != nil {
		return nil, err
	}
	return collectRecurring(rows)
}

const listAllRecurring = `-- name: ListAllRecurring :many
SELECT ` + recurringColumns + ` FROM recurring_transactions
ORDER BY user_id ASC, start_date ASC
`

func (q *Queries) ListAllRecurring(ctx context.Context) ([]RecurringTransaction, error) {
	rows, err := q.db.QueryContext(ctx, listAllRecurring)
	if err != nil {
		return nil, err
	}
	return collectRecurring(rows)
}

const updateRecurringLastExecution = `-- name: UpdateRecurringLastExecution :execrows
UPDATE recurring_transactions SET last_execution = ? WHERE id = ?
`

func (q *Queries) UpdateRecurringLastExecution(ctx context.Context, lastExecution, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateRecurringLastExecution, lastExecution, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteRecurring = `-- name: DeleteRecurring :execrows
DELETE FROM recurring_transactions WHERE user_id = ? AND id = ?
`

func (q *Queries) DeleteRecurring(ctx context.Context, userID, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRecurring, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
