package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Monthly RepetitionTypes = "monthly"
	Yearly  RepetitionTypes = "yearly"
	Weekly  RepetitionTypes = "weekly"
	Daily   RepetitionTypes = "daily"
)

const (
	KindRegular     TransactionKind = "regular"
	KindPeriodClose TransactionKind = "period_close"
)

const (
	// SourceManual marks entries typed in by the user; anything else is an
	// external account identifier.
	SourceManual = "manual"

	CategoryIncome  = "Income"
	CategorySavings = "Savings"

	maxDescriptionLen = 200
)

type (
	RepetitionTypes string

	TransactionKind string

	// Transaction is a signed monetary movement. Negative amounts are expenses,
	// positive amounts are income or credits.
	Transaction struct {
		ID          uuid.UUID
		UserID      string
		Description string
		Amount      decimal.Decimal
		Date        Date
		Category    string
		GoalID      uuid.UUID // uuid.Nil when not attributed to a goal
		ProjectID   string
		Kind        TransactionKind
		Source      string
		CreatedAt   time.Time
	}

	// RecurringTransaction is a template the recurring worker turns into ledger
	// entries when due.
	RecurringTransaction struct {
		ID            uuid.UUID
		UserID        string
		StartDate     Date
		EndDate       Date
		Every         RepetitionTypes
		Description   string
		Amount        decimal.Decimal
		Category      string
		LastExecution time.Time
		CreatedAt     time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyUser        = errors.New("empty user")
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrInvalidFrequency = errors.New("invalid repetition type")
	ErrInvalidEndDate   = errors.New("end date must be after start date")
)

// ValidationError ties a rejected field to the sentinel describing why.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps err as a validation failure of field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err was caused by rejected user input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func validateDescription(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return Invalid("description", ErrEmptyDescription)
	}
	if len(desc) > maxDescriptionLen {
		return Invalid("description", ErrDescriptionLong)
	}
	return nil
}

// Normalize fills defaults that do not need user input: income without a
// category is filed under "Income", entries without a kind or source are
// manual regular entries.
func (t *Transaction) Normalize() {
	t.Description = strings.TrimSpace(t.Description)
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" && t.Amount.IsPositive() {
		t.Category = CategoryIncome
	}
	if t.Kind == "" {
		t.Kind = KindRegular
	}
	if strings.TrimSpace(t.Source) == "" {
		t.Source = SourceManual
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return Invalid("user", ErrEmptyUser)
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if t.Amount.IsZero() {
		return Invalid("amount", ErrInvalidAmount)
	}
	if err := t.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	if t.Amount.IsNegative() && strings.TrimSpace(t.Category) == "" {
		return Invalid("category", ErrEmptyCategory)
	}
	switch t.Kind {
	case KindRegular, KindPeriodClose, "":
	default:
		return Invalid("kind", ErrInvalidKind)
	}
	return nil
}

// IsExpense reports whether the entry counts toward a budget's spend.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

func (re RecurringTransaction) Validate() error {
	if strings.TrimSpace(re.UserID) == "" {
		return Invalid("user", ErrEmptyUser)
	}
	if err := re.StartDate.Validate(); err != nil {
		return Invalid("start_date", err)
	}

	if !re.EndDate.IsZero() {
		if err := re.EndDate.Validate(); err != nil {
			return Invalid("end_date", err)
		}
		if re.EndDate.Before(re.StartDate.Time) {
			return Invalid("end_date", ErrInvalidEndDate)
		}
	}

	switch re.Every {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return Invalid("every", ErrInvalidFrequency)
	}

	if err := validateDescription(re.Description); err != nil {
		return err
	}
	if re.Amount.IsZero() {
		return Invalid("amount", ErrInvalidAmount)
	}
	if re.Amount.IsNegative() && strings.TrimSpace(re.Category) == "" {
		return Invalid("category", ErrEmptyCategory)
	}
	return nil
}

// ActiveOn reports whether the template still produces entries on day.
func (re RecurringTransaction) ActiveOn(day Date) bool {
	if day.Before(re.StartDate.Time) {
		return false
	}
	if !re.EndDate.IsZero() && day.After(re.EndDate.Time) {
		return false
	}
	return true
}

// Materialize builds the ledger entry for an execution on day.
func (re RecurringTransaction) Materialize(day Date) Transaction {
	tx := Transaction{
		UserID:      re.UserID,
		Description: re.Description,
		Amount:      re.Amount,
		Date:        day,
		Category:    re.Category,
		Kind:        KindRegular,
		Source:      "recurring:" + re.ID.String(),
	}
	tx.Normalize()
	return tx
}
