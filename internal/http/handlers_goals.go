package http

import (
	"context"
	"net/http"

	"finpulse/internal/core"

	"github.com/google/uuid"
)

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "create_goal", err)
		return
	}
	target, err := parsePositiveAmount("target", req.Target)
	if err != nil {
		writeError(w, r, "create_goal", err)
		return
	}
	initial, err := parseAmountOrZero("initial", req.Initial)
	if err != nil {
		writeError(w, r, "create_goal", err)
		return
	}

	g, err := s.svc.Goals.Create(r.Context(), userID(r), req.Title, target, initial)
	if err != nil {
		writeError(w, r, "create_goal", err)
		return
	}
	NewJSONResponse().
		Created("/goals/" + g.ID.String()).
		Body(newGoalResponse(g)).
		Write(w)
}

// handleListGoals accepts ?status=active|archived.
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	status := core.GoalStatus(r.URL.Query().Get("status"))
	goals, err := s.svc.Goals.List(r.Context(), userID(r), status)
	if err != nil {
		writeError(w, r, "list_goals", err)
		return
	}

	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalResponse(g))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	s.goalAction(w, r, "get_goal", s.svc.Goals.Get)
}

func (s *Server) handleEditGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "edit_goal", err)
		return
	}
	var req goalEditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "edit_goal", err)
		return
	}
	current, err := parseAmountOrZero("current", req.Current)
	if err != nil {
		writeError(w, r, "edit_goal", err)
		return
	}
	target, err := parsePositiveAmount("target", req.Target)
	if err != nil {
		writeError(w, r, "edit_goal", err)
		return
	}

	g, err := s.svc.Goals.Edit(r.Context(), userID(r), id, req.Title, current, target, req.Version)
	if err != nil {
		writeError(w, r, "edit_goal", err)
		return
	}
	NewJSONResponse().Body(newGoalResponse(g)).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "delete_goal", err)
		return
	}
	if err := s.svc.Goals.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, "delete_goal", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "contribute", err)
		return
	}
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "contribute", err)
		return
	}
	amount, err := parsePositiveAmount("amount", req.Amount)
	if err != nil {
		writeError(w, r, "contribute", err)
		return
	}

	g, err := s.svc.Goals.Contribute(r.Context(), userID(r), id, amount)
	if err != nil {
		writeError(w, r, "contribute", err)
		return
	}
	NewJSONResponse().Body(newGoalResponse(g)).Write(w)
}

func (s *Server) handleArchiveGoal(w http.ResponseWriter, r *http.Request) {
	s.goalAction(w, r, "archive_goal", s.svc.Goals.Archive)
}

func (s *Server) handleRestoreGoal(w http.ResponseWriter, r *http.Request) {
	s.goalAction(w, r, "restore_goal", s.svc.Goals.Restore)
}

func (s *Server) handleAdviseGoal(w http.ResponseWriter, r *http.Request) {
	if s.svc.Advice == nil {
		ErrorResponse(http.StatusServiceUnavailable, "advice is not configured").Write(w)
		return
	}
	s.goalAction(w, r, "advise_goal", s.svc.Advice.AdviseGoal)
}

// goalAction runs a bodiless operation on the goal named by {id}.
func (s *Server) goalAction(w http.ResponseWriter, r *http.Request, op string,
	fn func(ctx context.Context, userID string, id uuid.UUID) (core.Goal, error)) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	g, err := fn(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	NewJSONResponse().Body(newGoalResponse(g)).Write(w)
}
