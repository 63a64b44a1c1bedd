// Package sheets defines the ledger mirror port and its row format.
package sheets

import (
	"context"
	"time"

	"finpulse/internal/core"

	"github.com/google/uuid"
)

// MirrorRow is one line of the append-only ledger mirror. Every create,
// recategorization and deletion of an entry appends its own row.
type MirrorRow struct {
	RecordedAt    time.Time
	Action        string
	TransactionID uuid.UUID
	UserID        string
	Date          core.Date
	Description   string
	Amount        string
	Category      string
	Kind          core.TransactionKind
	GoalID        uuid.UUID
}

// Header names the mirror columns in Values order.
var Header = []any{"Recorded at", "Action", "Transaction", "User", "Date", "Description", "Amount", "Category", "Kind", "Goal"}

// RowFromTransaction builds the row recording action on tx.
func RowFromTransaction(action string, tx core.Transaction, at time.Time) MirrorRow {
	return MirrorRow{
		RecordedAt:    at.UTC(),
		Action:        action,
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Date:          tx.Date,
		Description:   tx.Description,
		Amount:        core.FormatAmount(tx.Amount),
		Category:      tx.Category,
		Kind:          tx.Kind,
		GoalID:        tx.GoalID,
	}
}

// Values renders the row as sheet cells.
func (r MirrorRow) Values() []any {
	goal := ""
	if r.GoalID != uuid.Nil {
		goal = r.GoalID.String()
	}
	return []any{
		r.RecordedAt.Format(time.RFC3339),
		r.Action,
		r.TransactionID.String(),
		r.UserID,
		r.Date.String(),
		r.Description,
		r.Amount,
		r.Category,
		string(r.Kind),
		goal,
	}
}

// LedgerMirror appends rows to an external copy of the ledger.
type LedgerMirror interface {
	AppendRow(ctx context.Context, row MirrorRow) (rowRef string, err error)
}
