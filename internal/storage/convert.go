package storage

import (
	"database/sql"
	"fmt"
	"time"

	"finpulse/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// timestampLayout is fixed width so TEXT ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullUUID(id uuid.UUID) sql.NullString {
	if id == uuid.Nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseNullUUID(ns sql.NullString) (uuid.UUID, error) {
	if !ns.Valid || ns.String == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(ns.String)
}

func transactionToRow(tx core.Transaction) Transaction {
	return Transaction{
		ID:          tx.ID.String(),
		UserID:      tx.UserID,
		Description: tx.Description,
		Amount:      core.FormatAmount(tx.Amount),
		OccurredOn:  tx.Date.String(),
		Category:    tx.Category,
		GoalID:      nullUUID(tx.GoalID),
		ProjectID:   nullString(tx.ProjectID),
		Kind:        string(tx.Kind),
		Source:      tx.Source,
		SyncStatus:  SyncPending,
		CreatedAt:   formatTime(tx.CreatedAt),
	}
}

func transactionFromRow(r Transaction) (core.Transaction, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction id: %w", err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount of %s: %w", r.ID, err)
	}
	date, err := core.ParseDate(r.OccurredOn)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date of %s: %w", r.ID, err)
	}
	goalID, err := parseNullUUID(r.GoalID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse goal id of %s: %w", r.ID, err)
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          id,
		UserID:      r.UserID,
		Description: r.Description,
		Amount:      amount,
		Date:        date,
		Category:    r.Category,
		GoalID:      goalID,
		ProjectID:   r.ProjectID.String,
		Kind:        core.TransactionKind(r.Kind),
		Source:      r.Source,
		CreatedAt:   created,
	}, nil
}

func transactionsFromRows(rows []Transaction) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		tx, err := transactionFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func budgetFromRow(r Budget) (core.Budget, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse budget id: %w", err)
	}
	limit, err := decimal.NewFromString(r.LimitAmount)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse limit of %s: %w", r.ID, err)
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{ID: id, UserID: r.UserID, Category: r.Category, Limit: limit, CreatedAt: created}, nil
}

func goalToRow(g core.Goal) Goal {
	return Goal{
		ID:            g.ID.String(),
		UserID:        g.UserID,
		Title:         g.Title,
		CurrentAmount: core.FormatAmount(g.Current),
		TargetAmount:  core.FormatAmount(g.Target),
		Advice:        g.Advice,
		Status:        string(g.Status),
		Version:       g.Version,
		CreatedAt:     formatTime(g.CreatedAt),
		UpdatedAt:     formatTime(g.UpdatedAt),
	}
}

func goalFromRow(r Goal) (core.Goal, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse goal id: %w", err)
	}
	current, err := decimal.NewFromString(r.CurrentAmount)
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse current of %s: %w", r.ID, err)
	}
	target, err := decimal.NewFromString(r.TargetAmount)
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse target of %s: %w", r.ID, err)
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return core.Goal{}, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return core.Goal{}, err
	}
	return core.Goal{
		ID:        id,
		UserID:    r.UserID,
		Title:     r.Title,
		Current:   current,
		Target:    target,
		Advice:    r.Advice,
		Status:    core.GoalStatus(r.Status),
		Version:   r.Version,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func recurringToRow(re core.RecurringTransaction) RecurringTransaction {
	row := RecurringTransaction{
		ID:          re.ID.String(),
		UserID:      re.UserID,
		StartDate:   re.StartDate.String(),
		EndDate:     nullString(re.EndDate.String()),
		Every:       string(re.Every),
		Description: re.Description,
		Amount:      core.FormatAmount(re.Amount),
		Category:    re.Category,
		CreatedAt:   formatTime(re.CreatedAt),
	}
	if !re.LastExecution.IsZero() {
		row.LastExecution = nullString(formatTime(re.LastExecution))
	}
	return row
}

func recurringFromRow(r RecurringTransaction) (core.RecurringTransaction, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("parse recurring id: %w", err)
	}
	start, err := core.ParseDate(r.StartDate)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("parse start date of %s: %w", r.ID, err)
	}
	var end core.Date
	if r.EndDate.Valid && r.EndDate.String != "" {
		if end, err = core.ParseDate(r.EndDate.String); err != nil {
			return core.RecurringTransaction{}, fmt.Errorf("parse end date of %s: %w", r.ID, err)
		}
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("parse amount of %s: %w", r.ID, err)
	}
	var last time.Time
	if r.LastExecution.Valid && r.LastExecution.String != "" {
		if last, err = parseTime(r.LastExecution.String); err != nil {
			return core.RecurringTransaction{}, err
		}
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	return core.RecurringTransaction{
		ID:            id,
		UserID:        r.UserID,
		StartDate:     start,
		EndDate:       end,
		Every:         core.RepetitionTypes(r.Every),
		Description:   r.Description,
		Amount:        amount,
		Category:      r.Category,
		LastExecution: last,
		CreatedAt:     created,
	}, nil
}

func sweepToRow(rec SweepRecord) Sweep {
	return Sweep{
		UserID:         rec.UserID,
		IdempotencyKey: rec.IdempotencyKey,
		BudgetID:       rec.BudgetID.String(),
		GoalID:         rec.GoalID.String(),
		PeriodStart:    rec.PeriodStart.String(),
		Amount:         core.FormatAmount(rec.Amount),
		SavingsTxID:    rec.SavingsTxID.String(),
		CloseTxID:      nullUUID(rec.CloseTxID),
		CreatedAt:      formatTime(rec.CreatedAt),
	}
}

func sweepFromRow(r Sweep) (SweepRecord, error) {
	budgetID, err := uuid.Parse(r.BudgetID)
	if err != nil {
		return SweepRecord{}, fmt.Errorf("parse sweep budget id: %w", err)
	}
	goalID, err := uuid.Parse(r.GoalID)
	if err != nil {
		return SweepRecord{}, fmt.Errorf("parse sweep goal id: %w", err)
	}
	savingsID, err := uuid.Parse(r.SavingsTxID)
	if err != nil {
		return SweepRecord{}, fmt.Errorf("parse sweep savings id: %w", err)
	}
	closeID, err := parseNullUUID(r.CloseTxID)
	if err != nil {
		return SweepRecord{}, fmt.Errorf("parse sweep close id: %w", err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return SweepRecord{}, fmt.Errorf("parse sweep amount: %w", err)
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return SweepRecord{}, err
	}
	var periodStart core.Date
	if r.PeriodStart != "" {
		if periodStart, err = core.ParseDate(r.PeriodStart); err != nil {
			return SweepRecord{}, fmt.Errorf("parse sweep period start: %w", err)
		}
	}
	return SweepRecord{
		UserID:         r.UserID,
		IdempotencyKey: r.IdempotencyKey,
		BudgetID:       budgetID,
		GoalID:         goalID,
		PeriodStart:    periodStart,
		Amount:         amount,
		SavingsTxID:    savingsID,
		CloseTxID:      closeID,
		CreatedAt:      created,
	}, nil
}
