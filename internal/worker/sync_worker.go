// Package worker mirrors ledger entries into the external sheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finpulse/internal/amqp"
	"finpulse/internal/core"
	"finpulse/internal/sheets"
	"finpulse/internal/storage"

	"github.com/shopspring/decimal"
)

// ActionResync labels rows written by the pending scan rather than by an event.
const ActionResync = "resync"

// SyncWorker appends a mirror row for every ledger event and records the
// outcome on the transaction's sync status.
type SyncWorker struct {
	store     storage.Store
	mirror    sheets.LedgerMirror
	batchSize int
	now       func() time.Time
}

func NewSyncWorker(store storage.Store, mirror sheets.LedgerMirror, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		store:     store,
		mirror:    mirror,
		batchSize: batchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// HandleLedgerMessage processes one event from the queue. A returned error
// makes the consumer requeue the message.
func (w *SyncWorker) HandleLedgerMessage(ctx context.Context, msg *amqp.LedgerMessage) error {
	slog.InfoContext(ctx, "Processing ledger message",
		"transaction_id", msg.TransactionID,
		"action", msg.Action)

	switch msg.Action {
	case amqp.ActionCreated, amqp.ActionRecategorized:
		tx, err := w.store.GetTransaction(ctx, msg.UserID, msg.TransactionID)
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted before we got here; its deletion event carries the row.
			slog.WarnContext(ctx, "Transaction gone before mirroring",
				"transaction_id", msg.TransactionID,
				"action", msg.Action)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get transaction from storage: %w", err)
		}
		return w.SyncTransaction(ctx, msg.Action, tx)

	case amqp.ActionDeleted:
		return w.mirrorDeletion(ctx, msg)

	default:
		return fmt.Errorf("unknown ledger action %q", msg.Action)
	}
}

func (w *SyncWorker) mirrorDeletion(ctx context.Context, msg *amqp.LedgerMessage) error {
	if msg.Snapshot == nil {
		return errors.New("deletion message without snapshot")
	}
	tx, err := snapshotTransaction(msg)
	if err != nil {
		return err
	}
	ref, err := w.mirror.AppendRow(ctx, sheets.RowFromTransaction(amqp.ActionDeleted, tx, w.now()))
	if err != nil {
		return fmt.Errorf("append deletion row: %w", err)
	}
	slog.InfoContext(ctx, "Mirrored deletion",
		"transaction_id", msg.TransactionID,
		"sheets_ref", ref)
	return nil
}

func snapshotTransaction(msg *amqp.LedgerMessage) (core.Transaction, error) {
	snap := msg.Snapshot
	amount, err := decimal.NewFromString(snap.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("snapshot amount %q: %w", snap.Amount, err)
	}
	date, err := core.ParseDate(snap.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("snapshot date %q: %w", snap.Date, err)
	}
	return core.Transaction{
		ID:          msg.TransactionID,
		UserID:      msg.UserID,
		Date:        date,
		Description: snap.Description,
		Amount:      amount,
		Category:    snap.Category,
	}, nil
}

// SyncTransaction writes tx to the mirror and marks it synced, or marks it
// errored so the pending scan retries it.
func (w *SyncWorker) SyncTransaction(ctx context.Context, action string, tx core.Transaction) error {
	ref, err := w.mirror.AppendRow(ctx, sheets.RowFromTransaction(action, tx, w.now()))
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "transaction_id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to mirror: %w", err)
	}

	// The row is written; a failed status update only means a duplicate
	// row on the next scan.
	if err := w.store.MarkSynced(ctx, tx.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "transaction_id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully mirrored transaction",
		"transaction_id", tx.ID,
		"action", action,
		"sheets_ref", ref,
		"amount", core.FormatAmount(tx.Amount))
	return nil
}

// ProcessPending mirrors up to limit transactions still pending or errored.
// It is the fallback for lost or failed events and returns how many rows
// were written.
func (w *SyncWorker) ProcessPending(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = w.batchSize
	}
	pending, err := w.store.ListPendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	synced := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		tx, err := w.store.GetTransaction(ctx, p.UserID, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction", "transaction_id", p.ID, "error", err)
			if err := w.store.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "transaction_id", p.ID, "error", err)
			}
			continue
		}
		if err := w.SyncTransaction(ctx, ActionResync, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "transaction_id", p.ID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

// StartupSyncCheck drains a larger batch at worker start to recover from
// downtime or missed events.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	limit := w.batchSize * 5
	synced, err := w.ProcessPending(ctx, limit)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced, "limit", limit)
	return nil
}
