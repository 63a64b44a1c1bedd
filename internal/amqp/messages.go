package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageTypeLedger is the type of every event about a ledger entry.
const MessageTypeLedger = "ledger.transaction"

// Ledger event actions.
const (
	ActionCreated       = "created"
	ActionRecategorized = "recategorized"
	ActionDeleted       = "deleted"
)

// TransactionSnapshot carries the fields of an entry that no longer exists in
// the database by the time the worker sees the event.
type TransactionSnapshot struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Category    string `json:"category"`
}

// LedgerMessage is a lightweight pointer to a ledger entry. The worker loads
// the entry itself from the database, except for deletions.
type LedgerMessage struct {
	Type          string               `json:"type"`
	Action        string               `json:"action"`
	UserID        string               `json:"user_id"`
	TransactionID uuid.UUID            `json:"transaction_id"`
	Snapshot      *TransactionSnapshot `json:"snapshot,omitempty"`
	Timestamp     time.Time            `json:"timestamp"`
}

// NewLedgerMessage creates an event for one entry.
func NewLedgerMessage(action, userID string, id uuid.UUID) *LedgerMessage {
	return &LedgerMessage{
		Type:          MessageTypeLedger,
		Action:        action,
		UserID:        userID,
		TransactionID: id,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerMessageFromJSON decodes and checks a message body.
func LedgerMessageFromJSON(data []byte) (*LedgerMessage, error) {
	var msg LedgerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type != MessageTypeLedger {
		return nil, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	if msg.TransactionID == uuid.Nil || msg.UserID == "" {
		return nil, fmt.Errorf("message without transaction or user")
	}
	if msg.Action == ActionDeleted && msg.Snapshot == nil {
		return nil, fmt.Errorf("deletion message without snapshot")
	}
	return &msg, nil
}
