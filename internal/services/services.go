// Package services orchestrates the ledger, budgets, goals, sweeps, recurring
// templates and advice on top of a storage.Repository.
package services

import (
	"context"
	"log/slog"
	"time"

	"finpulse/internal/amqp"
	"finpulse/internal/core"

	"github.com/google/uuid"
)

// Publisher announces committed ledger writes to the mirror worker.
// amqp.Client satisfies it.
type Publisher interface {
	PublishTransaction(ctx context.Context, action, userID string, id uuid.UUID) error
	PublishDeletion(ctx context.Context, userID string, id uuid.UUID, snap amqp.TransactionSnapshot) error
}

var _ Publisher = (*amqp.Client)(nil)

func utcNow() time.Time { return time.Now().UTC() }

// announce publishes after the write is committed. A failed publish is only
// logged: the entry stays pending and the worker's periodic scan picks it up.
func announce(ctx context.Context, p Publisher, action string, tx core.Transaction) {
	if p == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping ledger event",
			"transaction_id", tx.ID, "action", action)
		return
	}
	if err := p.PublishTransaction(ctx, action, tx.UserID, tx.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"transaction_id", tx.ID,
			"action", action,
			"error", err)
	}
}

func snapshotOf(tx core.Transaction) amqp.TransactionSnapshot {
	return amqp.TransactionSnapshot{
		Description: tx.Description,
		Amount:      core.FormatAmount(tx.Amount),
		Date:        tx.Date.String(),
		Category:    tx.Category,
	}
}
