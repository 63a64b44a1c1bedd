package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"finpulse/internal/core"
	"finpulse/internal/sheets"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestMirrorAppendAndRows(t *testing.T) {
	m := New()
	tx := core.Transaction{
		ID:          uuid.New(),
		UserID:      "u1",
		Date:        core.NewDate(2024, 1, 10),
		Description: "Coffee",
		Amount:      decimal.RequireFromString("-4.50"),
		Category:    "Food",
		Kind:        core.KindRegular,
	}
	at := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	for i, want := range []string{"mem:1", "mem:2"} {
		ref, err := m.AppendRow(context.Background(), sheets.RowFromTransaction("created", tx, at))
		if err != nil || ref != want {
			t.Fatalf("append %d: ref=%q err=%v", i, ref, err)
		}
	}

	rows := m.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Amount != "-4.50" || rows[0].TransactionID != tx.ID {
		t.Errorf("unexpected row: %+v", rows[0])
	}
}

func TestMirrorFailWith(t *testing.T) {
	m := New()
	boom := errors.New("sheet unavailable")
	m.FailWith(boom)

	if _, err := m.AppendRow(context.Background(), sheets.MirrorRow{}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if len(m.Rows()) != 0 {
		t.Fatal("failed append must not store a row")
	}

	m.FailWith(nil)
	if _, err := m.AppendRow(context.Background(), sheets.MirrorRow{}); err != nil {
		t.Fatalf("append after recovery: %v", err)
	}
}
