package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finpulse/internal/core"
	"finpulse/internal/storage"
)

// RecurringProcessor turns due recurring templates into ledger entries.
type RecurringProcessor struct {
	repo   storage.Repository
	ledger *LedgerService
}

func NewRecurringProcessor(repo storage.Repository, ledger *LedgerService) *RecurringProcessor {
	return &RecurringProcessor{repo: repo, ledger: ledger}
}

// ProcessDue appends one entry for every template due at now and returns how
// many were appended. Each entry is written in one unit of work with its
// template's last execution. A failing template is logged and skipped so one
// bad template does not hold back the others.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.repo == nil || p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.repo.ListAllRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring transactions: %w", err)
	}

	today := core.DateOf(now)
	slog.InfoContext(ctx, "Processing recurring transactions",
		"templates", len(templates),
		"processing_date", today.String())

	processed := 0
	for _, re := range templates {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if !re.ActiveOn(today) {
			continue
		}

		checker, err := GetDuenessChecker(re.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Unknown recurring frequency",
				"recurring_id", re.ID,
				"every", re.Every)
			continue
		}
		if !checker.IsDue(re.LastExecution, now, re.StartDate) {
			continue
		}

		var tx core.Transaction
		err = p.repo.WithinTx(ctx, func(st storage.Store) error {
			var err error
			if tx, err = p.ledger.AppendIn(ctx, st, re.UserID, re.Materialize(today)); err != nil {
				return err
			}
			if err := st.UpdateRecurringLastExecution(ctx, re.ID, now); err != nil {
				return fmt.Errorf("update last execution: %w", err)
			}
			return nil
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to append transaction from recurring template",
				"recurring_id", re.ID,
				"description", re.Description,
				"error", err)
			continue
		}
		p.ledger.Announce(ctx, tx)

		processed++
		slog.InfoContext(ctx, "Appended transaction from recurring template",
			"recurring_id", re.ID,
			"transaction_id", tx.ID,
			"amount", core.FormatAmount(tx.Amount),
			"every", re.Every)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"processed", processed,
		"checked", len(templates))
	return processed, nil
}
