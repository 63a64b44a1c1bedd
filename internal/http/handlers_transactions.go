package http

import (
	"net/http"

	"finpulse/internal/core"
	"finpulse/internal/log"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "create_transaction", err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, r, "create_transaction", err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		writeError(w, r, "create_transaction", err)
		return
	}
	goalID, err := parseOptionalUUID("goal_id", req.GoalID)
	if err != nil {
		writeError(w, r, "create_transaction", err)
		return
	}

	tx, err := s.svc.Ledger.Append(r.Context(), userID(r), core.Transaction{
		Description: req.Description,
		Amount:      amount,
		Date:        date,
		Category:    req.Category,
		GoalID:      goalID,
		ProjectID:   req.ProjectID,
		Source:      req.Source,
	})
	if err != nil {
		writeError(w, r, "create_transaction", err)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).LogLedgerWrite(r.Context(),
		"create_transaction", tx.UserID, tx.ID.String(), core.FormatAmount(tx.Amount), tx.Category)
	NewJSONResponse().
		Created("/transactions/" + tx.ID.String()).
		Body(newTransactionResponse(tx)).
		Write(w)
}

// handleListTransactions returns the whole ledger, or one month of it with
// ?month=YYYY-MM.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		txs []core.Transaction
		err error
	)
	if month := r.URL.Query().Get("month"); month != "" {
		var period core.Period
		if period, err = parseMonthOr(month, s.now()); err == nil {
			txs, err = s.svc.Ledger.ListInPeriod(r.Context(), userID(r), period)
		}
	} else {
		txs, err = s.svc.Ledger.List(r.Context(), userID(r))
	}
	if err != nil {
		writeError(w, r, "list_transactions", err)
		return
	}
	NewJSONResponse().Body(newTransactionList(txs)).Write(w)
}

func (s *Server) handleRecategorize(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "recategorize_transaction", err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "recategorize_transaction", err)
		return
	}

	tx, err := s.svc.Ledger.Recategorize(r.Context(), userID(r), id, req.Category)
	if err != nil {
		writeError(w, r, "recategorize_transaction", err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogLedgerWrite(r.Context(),
		"recategorize_transaction", tx.UserID, tx.ID.String(), core.FormatAmount(tx.Amount), tx.Category)
	NewJSONResponse().Body(newTransactionResponse(tx)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "delete_transaction", err)
		return
	}
	if err := s.svc.Ledger.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, "delete_transaction", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
