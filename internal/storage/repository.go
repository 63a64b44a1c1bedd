package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finpulse/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository is the durable Repository.
type SQLiteRepository struct {
	*store
	db *sql.DB
}

// store implements Store over a Queries bound either to the pool or to one
// open transaction.
type store struct {
	queries *Queries
}

var (
	_ Repository = (*SQLiteRepository)(nil)
	_ Store      = (*store)(nil)
)

// dsn enables WAL, waits on a busy database instead of failing and takes the
// write lock when a transaction begins.
func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		store: &store{queries: New(db)},
		db:    db,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// WithinTx runs fn against a Store bound to a single database transaction.
// fn returning an error rolls everything back.
func (r *SQLiteRepository) WithinTx(ctx context.Context, fn func(Store) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&store{queries: r.queries.WithTx(tx)}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

func expectRow(n int64, err error, op, what string) error {
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func stamp(id uuid.UUID, created time.Time) (uuid.UUID, time.Time) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if created.IsZero() {
		created = time.Now()
	}
	return id, created.UTC()
}

func (s *store) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID, tx.CreatedAt = stamp(tx.ID, tx.CreatedAt)
	if err := s.queries.CreateTransaction(ctx, transactionToRow(tx)); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"user", tx.UserID,
		"amount", core.FormatAmount(tx.Amount),
		"category", tx.Category,
		"kind", tx.Kind)

	return tx, nil
}

func (s *store) GetTransaction(ctx context.Context, userID string, id uuid.UUID) (core.Transaction, error) {
	row, err := s.queries.GetTransaction(ctx, userID, id.String())
	if err != nil {
		return core.Transaction{}, notFound(err, "transaction")
	}
	return transactionFromRow(row)
}

func (s *store) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := s.queries.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactionsFromRows(rows)
}

func (s *store) ListTransactionsInPeriod(ctx context.Context, userID string, period core.Period) ([]core.Transaction, error) {
	rows, err := s.queries.ListTransactionsBetween(ctx, userID, period.Start.String(), period.End.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions in %s: %w", period, err)
	}
	return transactionsFromRows(rows)
}

func (s *store) UpdateTransactionCategory(ctx context.Context, userID string, id uuid.UUID, category string) error {
	n, err := s.queries.UpdateTransactionCategory(ctx, category, userID, id.String())
	return expectRow(n, err, "update", "transaction")
}

func (s *store) DeleteTransaction(ctx context.Context, userID string, id uuid.UUID) error {
	n, err := s.queries.DeleteTransaction(ctx, userID, id.String())
	return expectRow(n, err, "delete", "transaction")
}

// ListPendingSync returns transactions still waiting for their mirror row,
// oldest first. Entries that failed before are retried as well.
func (s *store) ListPendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := s.queries.GetPendingSyncTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}

	pending := make([]PendingSync, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, fmt.Errorf("parse pending id: %w", err)
		}
		created, err := parseTime(r.CreatedAt)
		if err != nil {
			return nil, err
		}
		pending = append(pending, PendingSync{ID: id, UserID: r.UserID, CreatedAt: created})
	}
	return pending, nil
}

// MarkSynced marks a transaction as successfully mirrored
func (s *store) MarkSynced(ctx context.Context, id uuid.UUID) error {
	n, err := s.queries.SetTransactionSyncStatus(ctx, SyncSynced, id.String())
	if err := expectRow(n, err, "mark synced", "transaction"); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction whose mirror write failed
func (s *store) MarkSyncError(ctx context.Context, id uuid.UUID) error {
	n, err := s.queries.SetTransactionSyncStatus(ctx, SyncError, id.String())
	if err := expectRow(n, err, "mark sync error", "transaction"); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func (s *store) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ID, b.CreatedAt = stamp(b.ID, b.CreatedAt)
	err := s.queries.CreateBudget(ctx, Budget{
		ID:          b.ID.String(),
		UserID:      b.UserID,
		Category:    b.Category,
		LimitAmount: core.FormatAmount(b.Limit),
		CreatedAt:   formatTime(b.CreatedAt),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, fmt.Errorf("budget for %q: %w", b.Category, ErrConflict)
		}
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

func (s *store) GetBudget(ctx context.Context, userID string, id uuid.UUID) (core.Budget, error) {
	row, err := s.queries.GetBudget(ctx, userID, id.String())
	if err != nil {
		return core.Budget{}, notFound(err, "budget")
	}
	return budgetFromRow(row)
}

func (s *store) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := s.queries.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, r := range rows {
		b, err := budgetFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *store) UpdateBudgetLimit(ctx context.Context, userID string, id uuid.UUID, limit decimal.Decimal) (core.Budget, error) {
	n, err := s.queries.UpdateBudgetLimit(ctx, core.FormatAmount(limit), userID, id.String())
	if err := expectRow(n, err, "update", "budget"); err != nil {
		return core.Budget{}, err
	}
	return s.GetBudget(ctx, userID, id)
}

func (s *store) DeleteBudget(ctx context.Context, userID string, id uuid.UUID) error {
	n, err := s.queries.DeleteBudget(ctx, userID, id.String())
	return expectRow(n, err, "delete", "budget")
}

func (s *store) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.ID, g.CreatedAt = stamp(g.ID, g.CreatedAt)
	g.UpdatedAt = g.CreatedAt
	g.Version = 1
	if err := s.queries.CreateGoal(ctx, goalToRow(g)); err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

func (s *store) GetGoal(ctx context.Context, userID string, id uuid.UUID) (core.Goal, error) {
	row, err := s.queries.GetGoal(ctx, userID, id.String())
	if err != nil {
		return core.Goal{}, notFound(err, "goal")
	}
	return goalFromRow(row)
}

func (s *store) ListGoals(ctx context.Context, userID string, status core.GoalStatus) ([]core.Goal, error) {
	rows, err := s.queries.ListGoals(ctx, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]core.Goal, 0, len(rows))
	for _, r := range rows {
		g, err := goalFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *store) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = time.Now()
	}
	g.UpdatedAt = g.UpdatedAt.UTC()
	n, err := s.queries.UpdateGoal(ctx, UpdateGoalParams{
		Title:         g.Title,
		CurrentAmount: core.FormatAmount(g.Current),
		TargetAmount:  core.FormatAmount(g.Target),
		Advice:        g.Advice,
		Status:        string(g.Status),
		UpdatedAt:     formatTime(g.UpdatedAt),
		UserID:        g.UserID,
		ID:            g.ID.String(),
		Version:       g.Version,
	})
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	if n == 0 {
		// Either gone or changed underneath us.
		if _, getErr := s.GetGoal(ctx, g.UserID, g.ID); getErr != nil {
			return core.Goal{}, getErr
		}
		return core.Goal{}, fmt.Errorf("goal %s version %d: %w", g.ID, g.Version, ErrConflict)
	}
	g.Version++
	return g, nil
}

func (s *store) DeleteGoal(ctx context.Context, userID string, id uuid.UUID) error {
	n, err := s.queries.DeleteGoal(ctx, userID, id.String())
	return expectRow(n, err, "delete", "goal")
}

func (s *store) CreateRecurring(ctx context.Context, re core.RecurringTransaction) (core.RecurringTransaction, error) {
	re.ID, re.CreatedAt = stamp(re.ID, re.CreatedAt)
	if err := s.queries.CreateRecurring(ctx, recurringToRow(re)); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}
	return re, nil
}

func (s *store) ListRecurring(ctx context.Context, userID string) ([]core.RecurringTransaction, error) {
	rows, err := s.queries.ListRecurringByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	return recurringFromRows(rows)
}

func (s *store) ListAllRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	rows, err := s.queries.ListAllRecurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all recurring transactions: %w", err)
	}
	return recurringFromRows(rows)
}

func recurringFromRows(rows []RecurringTransaction) ([]core.RecurringTransaction, error) {
	out := make([]core.RecurringTransaction, 0, len(rows))
	for _, r := range rows {
		re, err := recurringFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func (s *store) UpdateRecurringLastExecution(ctx context.Context, id uuid.UUID, at time.Time) error {
	n, err := s.queries.UpdateRecurringLastExecution(ctx, formatTime(at), id.String())
	return expectRow(n, err, "update", "recurring transaction")
}

func (s *store) DeleteRecurring(ctx context.Context, userID string, id uuid.UUID) error {
	n, err := s.queries.DeleteRecurring(ctx, userID, id.String())
	return expectRow(n, err, "delete", "recurring transaction")
}

func (s *store) GetSweep(ctx context.Context, userID, key string) (SweepRecord, error) {
	row, err := s.queries.GetSweep(ctx, userID, key)
	if err != nil {
		return SweepRecord{}, notFound(err, "sweep")
	}
	return sweepFromRow(row)
}

func (s *store) CreateSweep(ctx context.Context, rec SweepRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := s.queries.CreateSweep(ctx, sweepToRow(rec)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sweep %q: %w", rec.IdempotencyKey, ErrConflict)
		}
		return fmt.Errorf("create sweep: %w", err)
	}
	return nil
}

func (s *store) SweptInPeriod(ctx context.Context, userID string, budgetID uuid.UUID, periodStart core.Date) (decimal.Decimal, error) {
	amounts, err := s.queries.ListSweptAmounts(ctx, userID, budgetID.String(), periodStart.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("list swept amounts: %w", err)
	}
	total := decimal.Zero
	for _, a := range amounts {
		d, err := decimal.NewFromString(a)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse swept amount: %w", err)
		}
		total = total.Add(d)
	}
	return total, nil
}
