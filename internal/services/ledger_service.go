package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finpulse/internal/amqp"
	"finpulse/internal/core"
	"finpulse/internal/storage"

	"github.com/google/uuid"
)

// LedgerService records money movements and announces them to the mirror.
type LedgerService struct {
	repo      storage.Repository
	publisher Publisher
	now       func() time.Time
}

// NewLedgerService builds the service. publisher may be nil.
func NewLedgerService(repo storage.Repository, publisher Publisher) *LedgerService {
	return &LedgerService{
		repo:      repo,
		publisher: publisher,
		now:       utcNow,
	}
}

// Append validates tx and stores it for userID. Retrying after an error may
// record the entry twice; there is no idempotency key on plain appends.
func (s *LedgerService) Append(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	created, err := s.AppendIn(ctx, s.repo, userID, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	s.Announce(ctx, created)
	return created, nil
}

// AppendIn is Append against st, so callers can write the entry inside their
// own unit of work. Nothing is published; call Announce once st commits.
func (s *LedgerService) AppendIn(ctx context.Context, st storage.Store, userID string, tx core.Transaction) (core.Transaction, error) {
	tx.UserID = userID
	tx.ID = uuid.Nil
	tx.Amount = tx.Amount.Round(2)
	tx.Normalize()
	if tx.Kind != core.KindRegular {
		// period_close entries are written only by sweeps.
		return core.Transaction{}, core.Invalid("kind", core.ErrInvalidKind)
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.CreatedAt = s.now()

	created, err := st.CreateTransaction(ctx, tx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to append transaction", "user_id", userID, "error", err)
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction appended",
		"transaction_id", created.ID,
		"user_id", userID,
		"amount", core.FormatAmount(created.Amount),
		"category", created.Category)
	return created, nil
}

// Announce publishes a created event for tx.
func (s *LedgerService) Announce(ctx context.Context, tx core.Transaction) {
	announce(ctx, s.publisher, amqp.ActionCreated, tx)
}

// List returns the user's ledger, newest first.
func (s *LedgerService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *LedgerService) ListInPeriod(ctx context.Context, userID string, period core.Period) ([]core.Transaction, error) {
	txs, err := s.repo.ListTransactionsInPeriod(ctx, userID, period)
	if err != nil {
		return nil, fmt.Errorf("list transactions in %s: %w", period, err)
	}
	return txs, nil
}

// Recategorize is the only change allowed on a stored entry.
func (s *LedgerService) Recategorize(ctx context.Context, userID string, id uuid.UUID, category string) (core.Transaction, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return core.Transaction{}, core.Invalid("category", core.ErrEmptyCategory)
	}

	var updated core.Transaction
	err := s.repo.WithinTx(ctx, func(st storage.Store) error {
		tx, err := st.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}
		if tx.Kind == core.KindPeriodClose {
			return core.Invalid("kind", core.ErrInvalidKind)
		}
		if err := st.UpdateTransactionCategory(ctx, userID, id, category); err != nil {
			return err
		}
		tx.Category = category
		updated = tx
		return nil
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("recategorize transaction %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction recategorized",
		"transaction_id", id,
		"category", category)

	announce(ctx, s.publisher, amqp.ActionRecategorized, updated)
	return updated, nil
}

// Delete removes an entry permanently. The mirror receives the entry's last
// contents since the row is gone by the time the worker runs.
func (s *LedgerService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	var removed core.Transaction
	err := s.repo.WithinTx(ctx, func(st storage.Store) error {
		tx, err := st.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}
		removed = tx
		return st.DeleteTransaction(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id, "user_id", userID)

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishDeletion(ctx, userID, id, snapshotOf(removed)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"transaction_id", id,
			"action", amqp.ActionDeleted,
			"error", err)
	}
	return nil
}
