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
	"github.com/LuizHUlmi/life-planner-sub000/internal/services"
)

type obligationRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	DayOfMonth  int    `json:"day_of_month"`
}

type obligationResponse struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	AmountCents   int64  `json:"amount_cents"`
	Category      string `json:"category"`
	DayOfMonth    int    `json:"day_of_month"`
	Active        bool   `json:"active"`
	LastGenerated string `json:"last_generated,omitempty"`
}

func toObligationResponse(o core.RecurringObligation) obligationResponse {
	resp := obligationResponse{
		ID:          o.ID,
		Description: o.Description,
		AmountCents: o.Amount.Cents,
		Category:    o.Category,
		DayOfMonth:  o.DayOfMonth,
		Active:      o.Active,
	}
	if !o.LastGenerated.IsZero() {
		resp.LastGenerated = o.LastGenerated.Format(dateLayout)
	}
	return resp
}

func (s *Server) handleListObligations(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserID(r.Context())

	obligations, err := s.store.ListObligations(r.Context(), userID)
	if err != nil {
		s.slog.LogError(r.Context(), "List obligations failed", err, applog.ComponentHTTP, applog.OpList, applog.NewFields())
		writeError(w, http.StatusInternalServerError, "could not list obligations")
		return
	}

	out := make([]obligationResponse, 0, len(obligations))
	for _, o := range obligations {
		out = append(out, toObligationResponse(o))
	}

	writeJSON(w, http.StatusOK, map[string]any{"obligations": out})
}

func (s *Server) handleCreateObligation(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserID(r.Context())

	var payload obligationRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(payload.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	o := core.RecurringObligation{
		UserID:      userID,
		Description: sanitizeInput(payload.Description),
		Amount:      core.Money{Cents: cents},
		Category:    sanitizeInput(payload.Category),
		DayOfMonth:  payload.DayOfMonth,
		Active:      true,
	}
	if err := o.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.store.InsertObligation(r.Context(), o)
	if err != nil {
		s.slog.LogError(r.Context(), "Create obligation failed", err, applog.ComponentHTTP, applog.OpCreate, applog.NewFields())
		writeError(w, http.StatusInternalServerError, "could not save obligation")
		return
	}

	o.ID = id
	writeJSON(w, http.StatusCreated, toObligationResponse(o))
}

func (s *Server) handleDeleteObligation(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	obligations, err := s.store.ListObligations(r.Context(), userID)
	if err != nil {
		s.slog.LogError(r.Context(), "List obligations failed", err, applog.ComponentHTTP, applog.OpDelete, applog.NewFields())
		writeError(w, http.StatusInternalServerError, "could not delete obligation")
		return
	}

	owned := false
	for _, o := range obligations {
		if o.ID == id {
			owned = true
			break
		}
	}
	if !owned {
		writeError(w, http.StatusNotFound, "obligation not found")
		return
	}

	if err := s.store.DeactivateObligation(r.Context(), id); err != nil {
		s.slog.LogError(r.Context(), "Deactivate obligation failed", err, applog.ComponentHTTP, applog.OpDelete, applog.NewFields())
		writeError(w, http.StatusInternalServerError, "could not delete obligation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type reconcileResponse struct {
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserID(r.Context())

	result, err := s.reconciler.Reconcile(r.Context(), userID, time.Now())

	resp := reconcileResponse{
		Generated: result.Generated,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
	}
	for _, oe := range result.Errors {
		resp.Errors = append(resp.Errors, oe.Error())
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, services.ErrPartialReconciliation):
		writeJSON(w, http.StatusMultiStatus, resp)
	default:
		s.slog.LogError(r.Context(), "Reconciliation failed", err, applog.ComponentHTTP, applog.OpReconcile, applog.NewFields())
		writeError(w, http.StatusInternalServerError, "reconciliation failed")
	}
}
