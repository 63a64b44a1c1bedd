package storage

import (
	"context"
	"database/sql"
)

const transactionColumns = `id, user_id, description, amount, occurred_on, category, goal_id, project_id, kind, source, sync_status, created_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Description,
		&i.Amount,
		&i.OccurredOn,
		&i.Category,
		&i.GoalID,
		&i.ProjectID,
		&i.Kind,
		&i.Source,
		&i.SyncStatus,
		&i.CreatedAt,
	)
	return i, err
}

func collectTransactions(rows *sql.Rows) ([]Transaction, error) {
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
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

const createTransaction = `-- name: CreateTransaction :exec
INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID,
		arg.UserID,
		arg.Description,
		arg.Amount,
		arg.OccurredOn,
		arg.Category,
		arg.GoalID,
		arg.ProjectID,
		arg.Kind,
		arg.Source,
		arg.SyncStatus,
		arg.CreatedAt,
	)
	return err
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + ` FROM transactions
WHERE user_id = ? AND id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, userID, id string) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, userID, id))
}

const listTransactions = `-- name: ListTransactions :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE user_id = ?
ORDER BY created_at DESC, rowid DESC
`

func (q *Queries) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, userID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const listTransactionsBetween = `-- name: ListTransactionsBetween :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE user_id = ? AND occurred_on >= ? AND occurred_on < ?
ORDER BY created_at DESC, rowid DESC
`

func (q *Queries) ListTransactionsBetween(ctx context.Context, userID, from, to string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsBetween, userID, from, to)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const updateTransactionCategory = `-- name: UpdateTransactionCategory :execrows
UPDATE transactions
SET category = ?, sync_status = 'pending'
WHERE user_id = ? AND id = ?
`

func (q *Queries) UpdateTransactionCategory(ctx context.Context, category, userID, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransactionCategory, category, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `-- name: DeleteTransaction :execrows
DELETE FROM transactions WHERE user_id = ? AND id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, userID, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getPendingSyncTransactions = `-- name: GetPendingSyncTransactions :many
SELECT id, user_id, created_at FROM transactions
WHERE sync_status IN ('pending', 'error')
ORDER BY created_at ASC
LIMIT ?
`

type GetPendingSyncTransactionsRow struct {
	ID        string
	UserID    string
	CreatedAt string
}

func (q *Queries) GetPendingSyncTransactions(ctx context.Context, limit int64) ([]GetPendingSyncTransactionsRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetPendingSyncTransactionsRow
	for rows.Next() {
		var i GetPendingSyncTransactionsRow
		if err := rows.Scan(&i.ID, &i.UserID, &i.CreatedAt); err != nil {
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

const setTransactionSyncStatus = `-- name: SetTransactionSyncStatus :execrows
UPDATE transactions SET sync_status = ? WHERE id = ?
`

func (q *Queries) SetTransactionSyncStatus(ctx context.Context, status, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, setTransactionSyncStatus, status, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
