package http

import (
	"net/http"

	"github.com/LuizHUlmi/life-planner-sub000/internal/auth"
	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
	"github.com/LuizHUlmi/life-planner-sub000/internal/ledger"
	applog "github.com/LuizHUlmi/life-planner-sub000/internal/log"
)

type categoryTotalResponse struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
}

type summaryResponse struct {
	Period string `json:"period"`

	TotalIncomeCents  int64 `json:"total_income_cents"`
	TotalExpenseCents int64 `json:"total_expense_cents"`
	BalanceCents      int64 `json:"balance_cents"`

	FixedCents    int64   `json:"fixed_cents"`
	VariableCents int64   `json:"variable_cents"`
	FixedPct      float64 `json:"fixed_pct"`
	VariablePct   float64 `json:"variable_pct"`

	ByCategory  []categoryTotalResponse `json:"by_category"`
	TopCategory string                  `json:"top_category,omitempty"`

	// Previous month's expense total, for the trend display.
	PreviousExpenseCents int64 `json:"previous_expense_cents"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserID(r.Context())

	period, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.ledger.ListMonth(r.Context(), userID, period)
	if err != nil {
		s.slog.LogError(r.Context(), "Summary read failed", err, applog.ComponentHTTP, applog.OpRead, applog.NewFields())
		writeError(w, http.StatusInternalServerError, "could not compute summary")
		return
	}

	prevTxs, err := s.ledger.ListMonth(r.Context(), userID, period.Previous())
	if err != nil {
		s.slog.LogError(r.Context(), "Summary previous-month read failed", err, applog.ComponentHTTP, applog.OpRead, applog.NewFields())
		writeError(w, http.StatusInternalServerError, "could not compute summary")
		return
	}

	summary := ledger.Summarize(txs, period)
	_, previous := ledger.MonthTotals(append(txs, prevTxs...), period)

	writeJSON(w, http.StatusOK, toSummaryResponse(summary, previous))
}

func toSummaryResponse(s core.PeriodSummary, previous core.Money) summaryResponse {
	resp := summaryResponse{
		Period:               s.Period.String(),
		TotalIncomeCents:     s.TotalIncome.Cents,
		TotalExpenseCents:    s.TotalExpense.Cents,
		BalanceCents:         s.Balance,
		FixedCents:           s.FixedTotal.Cents,
		VariableCents:        s.VariableTotal.Cents,
		FixedPct:             s.FixedPct,
		VariablePct:          s.VariablePct,
		TopCategory:          s.TopCategory,
		PreviousExpenseCents: previous.Cents,
	}
	resp.ByCategory = make([]categoryTotalResponse, 0, len(s.ByCategory))
	for _, ct := range s.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryTotalResponse{
			Name:        ct.Name,
			AmountCents: ct.Amount.Cents,
		})
	}
	return resp
}

type importResponse struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// handleImport ingests a CSV statement posted as the request body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserID(r.Context())

	result, err := s.importer.Import(r.Context(), userID, r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := importResponse{
		Imported: result.Imported,
		Skipped:  result.Skipped,
	}
	for _, re := range result.Errors {
		resp.Errors = append(resp.Errors, re.Error())
	}

	writeJSON(w, http.StatusOK, resp)
}
