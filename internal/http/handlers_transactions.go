package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LuizHUlmi/life-planner-sub000/internal/auth"
	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
	applog "github.com/LuizHUlmi/life-planner-sub000/internal/log"
	"github.com/LuizHUlmi/life-planner-sub000/internal/storage"
)

var errInvalidPeriod = errors.New("invalid year/month parameters")

const dateLayout = "2006-01-02"

// transactionRequest is the write payload. Amount is an unsigned decimal
// string; flow carries the sign.
type transactionRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Flow        string `json:"flow"`
	Cost        string `json:"cost,omitempty"`
	Category    string `json:"category"`

	InstallmentIndex int `json:"installment_index,omitempty"`
	InstallmentCount int `json:"installment_count,omitempty"`
}

func (p transactionRequest) toTransaction(userID string) (core.LedgerTransaction, error) {
	date, err := time.Parse(dateLayout, p.Date)
	if err != nil {
		return core.LedgerTransaction{}, core.ErrInvalidDate
	}

	cents, err := core.ParseDecimalToCents(p.Amount)
	if err != nil {
		return core.LedgerTransaction{}, err
	}

	flow := core.FlowDirection(p.Flow)
	cost := core.CostKind(p.Cost)
	if flow == core.Expense && cost == "" {
		cost = core.Variable
	}

	tx := core.LedgerTransaction{
		UserID:           userID,
		Description:      sanitizeInput(p.Description),
		Amount:           core.Money{Cents: cents},
		Flow:             flow,
		Cost:             cost,
		Category:         sanitizeInput(p.Category),
		Date:             core.DateOf(date),
		InstallmentIndex: p.InstallmentIndex,
		InstallmentCount: p.InstallmentCount,
	}
	return tx, tx.Validate()
}

type transactionResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Flow        string `json:"flow"`
	Cost        string `json:"cost,omitempty"`
	Category    string `json:"category"`

	InstallmentIndex int    `json:"installment_index,omitempty"`
	InstallmentCount int    `json:"installment_count,omitempty"`
	ObligationID     string `json:"obligation_id,omitempty"`
}

func toTransactionResponse(tx core.LedgerTransaction) transactionResponse {
	return transactionResponse{
		ID:               tx.ID,
		Date:             tx.Date.Format(dateLayout),
		Description:      tx.Description,
		AmountCents:      tx.Amount.Cents,
		Flow:             string(tx.Flow),
		Cost:             string(tx.Cost),
		Category:         tx.Category,
		InstallmentIndex: tx.InstallmentIndex,
		InstallmentCount: tx.InstallmentCount,
		ObligationID:     tx.ObligationID,
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserID(r.Context())

	period, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.ledger.ListMonth(r.Context(), userID, period)
	if err != nil {
		s.slog.LogError(r.Context(), "List transactions failed", err, applog.ComponentHTTP, applog.OpList, applog.NewFields())
		writeError(w, http.StatusInternalServerError, "could not list transactions")
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period":       period.String(),
		"transactions": out,
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserID(r.Context())

	var payload transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := payload.toTransaction(userID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.ledger.CreateTransaction(r.Context(), tx)
	if err != nil {
		s.slog.LogError(r.Context(), "Create transaction failed", err, applog.ComponentHTTP, applog.OpCreate, applog.NewFields())
		writeError(w, http.StatusInternalServerError, "could not save transaction")
		return
	}

	s.slog.LogTransactionCreated(r.Context(), id, tx.Description, tx.Amount.Cents, string(tx.Flow), tx.Category)

	tx.ID = id
	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	tx, err := s.store.GetTransaction(r.Context(), id)
	if err != nil || tx.UserID != userID {
		// Other users' rows look identical to missing ones.
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		s.slog.LogError(r.Context(), "Delete transaction failed", err, applog.ComponentHTTP, applog.OpDelete, applog.NewFields())
		writeError(w, http.StatusInternalServerError, "could not delete transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
