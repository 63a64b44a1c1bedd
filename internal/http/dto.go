package http

import (
	"time"

	"finpulse/internal/core"
	"finpulse/internal/services"

	"github.com/google/uuid"
)

// Amounts travel as strings with two decimals, as core.FormatAmount renders
// them.

type transactionRequest struct {
	Description string     `json:"description"`
	Amount      amountText `json:"amount"`
	Date        string     `json:"date"`
	Category    string     `json:"category"`
	GoalID      string     `json:"goal_id"`
	ProjectID   string     `json:"project_id"`
	Source      string     `json:"source"`
}

type categoryRequest struct {
	Category string `json:"category"`
}

type transactionResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Date        core.Date `json:"date"`
	Category    string    `json:"category"`
	GoalID      string    `json:"goal_id,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	Kind        string    `json:"kind"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

func newTransactionResponse(tx core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          tx.ID,
		Description: tx.Description,
		Amount:      core.FormatAmount(tx.Amount),
		Date:        tx.Date,
		Category:    tx.Category,
		ProjectID:   tx.ProjectID,
		Kind:        string(tx.Kind),
		Source:      tx.Source,
		CreatedAt:   tx.CreatedAt,
	}
	if tx.GoalID != uuid.Nil {
		resp.GoalID = tx.GoalID.String()
	}
	return resp
}

func newTransactionList(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, newTransactionResponse(tx))
	}
	return out
}

type budgetRequest struct {
	Category string     `json:"category"`
	Limit    amountText `json:"limit"`
}

type budgetLimitRequest struct {
	Limit amountText `json:"limit"`
}

type budgetResponse struct {
	ID        uuid.UUID `json:"id"`
	Category  string    `json:"category"`
	Limit     string    `json:"limit"`
	CreatedAt time.Time `json:"created_at"`
}

func newBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:        b.ID,
		Category:  b.Category,
		Limit:     core.FormatAmount(b.Limit),
		CreatedAt: b.CreatedAt,
	}
}

type periodResponse struct {
	Start core.Date `json:"start"`
	End   core.Date `json:"end"`
}

type budgetStatusResponse struct {
	budgetResponse
	Period     periodResponse `json:"period"`
	Spent      string         `json:"spent"`
	Remainder  string         `json:"remainder"`
	OverBudget bool           `json:"over_budget"`
}

func newBudgetStatusResponse(st core.BudgetStatus) budgetStatusResponse {
	return budgetStatusResponse{
		budgetResponse: newBudgetResponse(st.Budget),
		Period:         periodResponse{Start: st.Period.Start, End: st.Period.End},
		Spent:          core.FormatAmount(st.Spent),
		Remainder:      core.FormatAmount(st.Remainder),
		OverBudget:     st.OverBudget,
	}
}

type sweepRequest struct {
	GoalID         string `json:"goal_id"`
	IdempotencyKey string `json:"idempotency_key"`
	Month          string `json:"month"`
}

type sweepResponse struct {
	Swept     bool                 `json:"swept"`
	Replayed  bool                 `json:"replayed"`
	Spent     string               `json:"spent"`
	Remainder string               `json:"remainder"`
	Goal      goalResponse         `json:"goal"`
	Savings   *transactionResponse `json:"savings,omitempty"`
	Close     *transactionResponse `json:"close,omitempty"`
}

func newSweepResponse(res services.SweepResult) sweepResponse {
	resp := sweepResponse{
		Swept:     res.Swept,
		Replayed:  res.Replayed,
		Spent:     core.FormatAmount(res.Spent),
		Remainder: core.FormatAmount(res.Remainder),
		Goal:      newGoalResponse(res.Goal),
	}
	if res.Savings != nil {
		tx := newTransactionResponse(*res.Savings)
		resp.Savings = &tx
	}
	if res.Close != nil {
		tx := newTransactionResponse(*res.Close)
		resp.Close = &tx
	}
	return resp
}

type goalRequest struct {
	Title   string     `json:"title"`
	Target  amountText `json:"target"`
	Initial amountText `json:"initial"`
}

type goalEditRequest struct {
	Title   string     `json:"title"`
	Current amountText `json:"current"`
	Target  amountText `json:"target"`
	// Version, when set, must match the stored version.
	Version int64 `json:"version"`
}

type contributionRequest struct {
	Amount amountText `json:"amount"`
}

type goalResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Current   string    `json:"current"`
	Target    string    `json:"target"`
	Progress  string    `json:"progress"`
	Advice    string    `json:"advice,omitempty"`
	Status    string    `json:"status"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newGoalResponse(g core.Goal) goalResponse {
	return goalResponse{
		ID:        g.ID,
		Title:     g.Title,
		Current:   core.FormatAmount(g.Current),
		Target:    core.FormatAmount(g.Target),
		Progress:  core.FormatAmount(g.Progress()),
		Advice:    g.Advice,
		Status:    string(g.Status),
		Version:   g.Version,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

type recurringRequest struct {
	Description string     `json:"description"`
	Amount      amountText `json:"amount"`
	Category    string     `json:"category"`
	Every       string     `json:"every"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
}

type recurringResponse struct {
	ID            uuid.UUID  `json:"id"`
	Description   string     `json:"description"`
	Amount        string     `json:"amount"`
	Category      string     `json:"category"`
	Every         string     `json:"every"`
	StartDate     core.Date  `json:"start_date"`
	EndDate       core.Date  `json:"end_date"`
	LastExecution *time.Time `json:"last_execution,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func newRecurringResponse(re core.RecurringTransaction) recurringResponse {
	resp := recurringResponse{
		ID:          re.ID,
		Description: re.Description,
		Amount:      core.FormatAmount(re.Amount),
		Category:    re.Category,
		Every:       string(re.Every),
		StartDate:   re.StartDate,
		EndDate:     re.EndDate,
		CreatedAt:   re.CreatedAt,
	}
	if !re.LastExecution.IsZero() {
		last := re.LastExecution
		resp.LastExecution = &last
	}
	return resp
}
