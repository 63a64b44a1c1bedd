package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finpulse/internal/amqp"
	"finpulse/internal/core"
	mirrormem "finpulse/internal/sheets/memory"
	storemem "finpulse/internal/storage/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errSheetDown = errors.New("sheet unavailable")

func seed(t *testing.T, store *storemem.Store, user, description, amount string) core.Transaction {
	t.Helper()
	tx, err := store.CreateTransaction(context.Background(), core.Transaction{
		UserID:      user,
		Date:        core.NewDate(2024, 1, 10),
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Category:    "Food",
		Kind:        core.KindRegular,
		CreatedAt:   time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return tx
}

func pendingCount(t *testing.T, store *storemem.Store) int {
	t.Helper()
	p, err := store.ListPendingSync(context.Background(), 100)
	if err != nil {
		t.Fatalf("ListPendingSync: %v", err)
	}
	return len(p)
}

func TestHandleLedgerMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("created entry is mirrored and marked synced", func(t *testing.T) {
		store, mirror := storemem.New(), mirrormem.New()
		w := NewSyncWorker(store, mirror, 10)
		tx := seed(t, store, "u1", "Coffee", "-4.50")

		msg := amqp.NewLedgerMessage(amqp.ActionCreated, "u1", tx.ID)
		if err := w.HandleLedgerMessage(ctx, msg); err != nil {
			t.Fatalf("HandleLedgerMessage: %v", err)
		}
		rows := mirror.Rows()
		if len(rows) != 1 || rows[0].Action != amqp.ActionCreated || rows[0].Amount != "-4.50" {
			t.Fatalf("rows = %+v", rows)
		}
		if n := pendingCount(t, store); n != 0 {
			t.Errorf("pending = %d, want 0", n)
		}
	})

	t.Run("mirror failure marks error and requeues", func(t *testing.T) {
		store, mirror := storemem.New(), mirrormem.New()
		w := NewSyncWorker(store, mirror, 10)
		tx := seed(t, store, "u1", "Coffee", "-4.50")
		mirror.FailWith(errSheetDown)

		err := w.HandleLedgerMessage(ctx, amqp.NewLedgerMessage(amqp.ActionCreated, "u1", tx.ID))
		if !errors.Is(err, errSheetDown) {
			t.Fatalf("err = %v, want %v", err, errSheetDown)
		}
		if n := pendingCount(t, store); n != 1 {
			t.Errorf("errored entry should stay in the pending scan, got %d", n)
		}
	})

	t.Run("entry deleted before mirroring is skipped", func(t *testing.T) {
		store, mirror := storemem.New(), mirrormem.New()
		w := NewSyncWorker(store, mirror, 10)

		err := w.HandleLedgerMessage(ctx, amqp.NewLedgerMessage(amqp.ActionCreated, "u1", uuid.New()))
		if err != nil {
			t.Fatalf("HandleLedgerMessage: %v", err)
		}
		if len(mirror.Rows()) != 0 {
			t.Error("no row expected for a missing entry")
		}
	})

	t.Run("deletion uses the snapshot", func(t *testing.T) {
		store, mirror := storemem.New(), mirrormem.New()
		w := NewSyncWorker(store, mirror, 10)

		msg := amqp.NewLedgerMessage(amqp.ActionDeleted, "u1", uuid.New())
		msg.Snapshot = &amqp.TransactionSnapshot{
			Description: "Rent",
			Amount:      "-900.00",
			Date:        "2024-01-01",
			Category:    "Housing",
		}
		if err := w.HandleLedgerMessage(ctx, msg); err != nil {
			t.Fatalf("HandleLedgerMessage: %v", err)
		}
		rows := mirror.Rows()
		if len(rows) != 1 {
			t.Fatalf("rows = %d, want 1", len(rows))
		}
		r := rows[0]
		if r.Action != amqp.ActionDeleted || r.Amount != "-900.00" || r.Category != "Housing" || r.TransactionID != msg.TransactionID {
			t.Errorf("unexpected deletion row: %+v", r)
		}
	})

	t.Run("malformed snapshot", func(t *testing.T) {
		w := NewSyncWorker(storemem.New(), mirrormem.New(), 10)
		msg := amqp.NewLedgerMessage(amqp.ActionDeleted, "u1", uuid.New())
		msg.Snapshot = &amqp.TransactionSnapshot{Amount: "abc", Date: "2024-01-01"}
		if err := w.HandleLedgerMessage(ctx, msg); err == nil {
			t.Fatal("expected error for malformed amount")
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		w := NewSyncWorker(storemem.New(), mirrormem.New(), 10)
		if err := w.HandleLedgerMessage(ctx, amqp.NewLedgerMessage("exploded", "u1", uuid.New())); err == nil {
			t.Fatal("expected error for unknown action")
		}
	})
}

func TestProcessPendingRetriesErrors(t *testing.T) {
	ctx := context.Background()
	store, mirror := storemem.New(), mirrormem.New()
	w := NewSyncWorker(store, mirror, 10)

	tx := seed(t, store, "u1", "Coffee", "-4.50")
	seed(t, store, "u2", "Salary", "2500")

	mirror.FailWith(errSheetDown)
	_ = w.HandleLedgerMessage(ctx, amqp.NewLedgerMessage(amqp.ActionCreated, "u1", tx.ID))

	n, err := w.ProcessPending(ctx, 0)
	if err != nil || n != 0 {
		t.Fatalf("ProcessPending while down = %d, %v; want 0, nil", n, err)
	}

	mirror.FailWith(nil)
	n, err = w.ProcessPending(ctx, 0)
	if err != nil || n != 2 {
		t.Fatalf("ProcessPending = %d, %v; want 2, nil", n, err)
	}
	for _, r := range mirror.Rows() {
		if r.Action != ActionResync {
			t.Errorf("row action = %q, want %q", r.Action, ActionResync)
		}
	}
	if p := pendingCount(t, store); p != 0 {
		t.Errorf("pending = %d, want 0", p)
	}
}

func TestProcessPendingHonoursLimit(t *testing.T) {
	store, mirror := storemem.New(), mirrormem.New()
	w := NewSyncWorker(store, mirror, 2)
	for i := 0; i < 5; i++ {
		seed(t, store, "u1", "Coffee", "-1")
	}

	n, err := w.ProcessPending(context.Background(), 0)
	if err != nil || n != 2 {
		t.Fatalf("ProcessPending = %d, %v; want 2 (batch size)", n, err)
	}
}

func TestStartupSyncCheck(t *testing.T) {
	store, mirror := storemem.New(), mirrormem.New()
	w := NewSyncWorker(store, mirror, 1)
	for i := 0; i < 7; i++ {
		seed(t, store, "u1", "Coffee", "-1")
	}

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}
	// The startup batch is five times the regular one.
	if got := len(mirror.Rows()); got != 5 {
		t.Errorf("rows = %d, want 5", got)
	}
	if p := pendingCount(t, store); p != 2 {
		t.Errorf("pending = %d, want 2", p)
	}
}

func TestRecategorizedEntryMirrorsNewCategory(t *testing.T) {
	ctx := context.Background()
	store, mirror := storemem.New(), mirrormem.New()
	w := NewSyncWorker(store, mirror, 10)
	tx := seed(t, store, "u1", "Coffee", "-4.50")

	if err := store.UpdateTransactionCategory(ctx, "u1", tx.ID, "Dining"); err != nil {
		t.Fatalf("UpdateTransactionCategory: %v", err)
	}
	if err := w.HandleLedgerMessage(ctx, amqp.NewLedgerMessage(amqp.ActionRecategorized, "u1", tx.ID)); err != nil {
		t.Fatalf("HandleLedgerMessage: %v", err)
	}
	rows := mirror.Rows()
	if len(rows) != 1 || rows[0].Category != "Dining" || rows[0].Action != amqp.ActionRecategorized {
		t.Fatalf("rows = %+v", rows)
	}
}
