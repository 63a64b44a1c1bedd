package storage

import (
	"database/sql"
)

type Transaction struct {
	ID          string
	UserID      string
	Description string
	Amount      string
	OccurredOn  string
	Category    string
	GoalID      sql.NullString
	ProjectID   sql.NullString
	Kind        string
	Source      string
	SyncStatus  string
	CreatedAt   string
}

type Budget struct {
	ID          string
	UserID      string
	Category    string
	LimitAmount string
	CreatedAt   string
}

type Goal struct {
	ID            string
	UserID        string
	Title         string
	CurrentAmount string
	TargetAmount  string
	Advice        string
	Status        string
	Version       int64
	CreatedAt     string
	UpdatedAt     string
}

type RecurringTransaction struct {
	ID            string
	UserID        string
	StartDate     string
	EndDate       sql.NullString
	Every         string
	Description   string
	Amount        string
	Category      string
	LastExecution sql.NullString
	CreatedAt     string
}

type Sweep struct {
	UserID         string
	IdempotencyKey string
	BudgetID       string
	GoalID         string
	PeriodStart    string
	Amount         string
	SavingsTxID    string
	CloseTxID      sql.NullString
	CreatedAt      string
}
