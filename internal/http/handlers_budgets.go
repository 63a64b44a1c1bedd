package http

import (
	"net/http"

	"finpulse/internal/services"

	"github.com/google/uuid"
)

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "create_budget", err)
		return
	}
	limit, err := parsePositiveAmount("limit", req.Limit)
	if err != nil {
		writeError(w, r, "create_budget", err)
		return
	}

	b, err := s.svc.Budgets.Create(r.Context(), userID(r), req.Category, limit)
	if err != nil {
		writeError(w, r, "create_budget", err)
		return
	}
	NewJSONResponse().
		Created("/budgets/" + b.ID.String()).
		Body(newBudgetResponse(b)).
		Write(w)
}

// handleListBudgets returns every budget with its figures for ?month=YYYY-MM,
// the current month by default.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	period, err := ParseMonthParam(r, s.now())
	if err != nil {
		writeError(w, r, "list_budgets", err)
		return
	}
	statuses, err := s.svc.Budgets.Overview(r.Context(), userID(r), period)
	if err != nil {
		writeError(w, r, "list_budgets", err)
		return
	}

	out := make([]budgetStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, newBudgetStatusResponse(st))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "get_budget", err)
		return
	}
	period, err := ParseMonthParam(r, s.now())
	if err != nil {
		writeError(w, r, "get_budget", err)
		return
	}
	st, err := s.svc.Budgets.Status(r.Context(), userID(r), id, period)
	if err != nil {
		writeError(w, r, "get_budget", err)
		return
	}
	NewJSONResponse().Body(newBudgetStatusResponse(st)).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "update_budget", err)
		return
	}
	var req budgetLimitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "update_budget", err)
		return
	}
	limit, err := parsePositiveAmount("limit", req.Limit)
	if err != nil {
		writeError(w, r, "update_budget", err)
		return
	}

	b, err := s.svc.Budgets.UpdateLimit(r.Context(), userID(r), id, limit)
	if err != nil {
		writeError(w, r, "update_budget", err)
		return
	}
	NewJSONResponse().Body(newBudgetResponse(b)).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "delete_budget", err)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, "delete_budget", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleSweep moves the budget's unspent remainder into a goal. A sweep that
// wrote entries answers 201; a no-op or a replay answers 200.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	budgetID, err := pathID(r)
	if err != nil {
		writeError(w, r, "sweep", err)
		return
	}
	var req sweepRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "sweep", err)
		return
	}
	goalID, err := parseOptionalUUID("goal_id", req.GoalID)
	if err != nil {
		writeError(w, r, "sweep", err)
		return
	}
	if goalID == uuid.Nil {
		writeError(w, r, "sweep", badRequest("goal_id is required"))
		return
	}
	period, err := parseMonthOr(req.Month, s.now())
	if err != nil {
		writeError(w, r, "sweep", err)
		return
	}

	res, err := s.svc.Sweeps.Sweep(r.Context(), services.SweepRequest{
		UserID:         userID(r),
		BudgetID:       budgetID,
		GoalID:         goalID,
		Period:         period,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeError(w, r, "sweep", err)
		return
	}

	status := http.StatusOK
	if res.Swept && !res.Replayed {
		status = http.StatusCreated
	}
	NewJSONResponse().Status(status).Body(newSweepResponse(res)).Write(w)
}
