package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finpulse/internal/core"
	"finpulse/internal/storage"

	"github.com/google/uuid"
)

// RecurringService manages recurring templates for a user.
type RecurringService struct {
	repo storage.Repository
	now  func() time.Time
}

func NewRecurringService(repo storage.Repository) *RecurringService {
	return &RecurringService{repo: repo, now: utcNow}
}

func (s *RecurringService) Create(ctx context.Context, userID string, re core.RecurringTransaction) (core.RecurringTransaction, error) {
	re.ID = uuid.Nil
	re.UserID = userID
	re.Description = strings.TrimSpace(re.Description)
	re.Category = strings.TrimSpace(re.Category)
	if re.Category == "" && re.Amount.IsPositive() {
		re.Category = core.CategoryIncome
	}
	re.Amount = re.Amount.Round(2)
	re.LastExecution = time.Time{}
	if err := re.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	re.CreatedAt = s.now()

	created, err := s.repo.CreateRecurring(ctx, re)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}
	slog.InfoContext(ctx, "Recurring transaction created",
		"recurring_id", created.ID,
		"every", created.Every,
		"amount", core.FormatAmount(created.Amount))
	return created, nil
}

func (s *RecurringService) List(ctx context.Context, userID string) ([]core.RecurringTransaction, error) {
	list, err := s.repo.ListRecurring(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	return list, nil
}

func (s *RecurringService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.repo.DeleteRecurring(ctx, userID, id); err != nil {
		return fmt.Errorf("delete recurring transaction %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Recurring transaction deleted", "recurring_id", id)
	return nil
}
