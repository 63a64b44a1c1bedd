package http

import (
	"net/http"
	"strings"

	"finpulse/internal/core"
)

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "create_recurring", err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, r, "create_recurring", err)
		return
	}
	start, err := parseDateOr("start_date", req.StartDate, core.DateOf(s.now()))
	if err != nil {
		writeError(w, r, "create_recurring", err)
		return
	}
	end, err := parseDateOr("end_date", req.EndDate, core.Date{})
	if err != nil {
		writeError(w, r, "create_recurring", err)
		return
	}

	re, err := s.svc.Recurring.Create(r.Context(), userID(r), core.RecurringTransaction{
		Description: req.Description,
		Amount:      amount,
		Category:    req.Category,
		Every:       core.RepetitionTypes(strings.ToLower(strings.TrimSpace(req.Every))),
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		writeError(w, r, "create_recurring", err)
		return
	}
	NewJSONResponse().
		Created("/recurring/" + re.ID.String()).
		Body(newRecurringResponse(re)).
		Write(w)
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Recurring.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, "list_recurring", err)
		return
	}

	out := make([]recurringResponse, 0, len(list))
	for _, re := range list {
		out = append(out, newRecurringResponse(re))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "delete_recurring", err)
		return
	}
	if err := s.svc.Recurring.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, "delete_recurring", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
