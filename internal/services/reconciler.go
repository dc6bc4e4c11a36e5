// Package services provides business logic over the ledger store.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
	"github.com/LuizHUlmi/life-planner-sub000/internal/storage"
)

// ErrPartialReconciliation is returned when some obligations materialized
// and others failed. The result carries per-obligation detail; callers decide
// whether to retry or surface the counts.
var ErrPartialReconciliation = errors.New("partial reconciliation")

// Reconciler materializes active recurring obligations into ledger
// transactions, at most once per obligation per calendar month.
type Reconciler struct {
	store storage.LedgerStore
}

func NewReconciler(store storage.LedgerStore) *Reconciler {
	return &Reconciler{store: store}
}

// ObligationError records which obligation failed and why.
type ObligationError struct {
	ObligationID string
	Description  string
	Err          error
}

func (e ObligationError) Error() string {
	return fmt.Sprintf("obligation %s (%s): %v", e.ObligationID, e.Description, e.Err)
}

func (e ObligationError) Unwrap() error { return e.Err }

// ReconcileResult reports what one run did. Generated+Skipped+Failed equals
// the number of active obligations examined.
type ReconcileResult struct {
	Generated int
	Skipped   int
	Failed    int
	Errors    []ObligationError
}

// Reconcile runs one pass for the user at the given instant. Running it
// twice inside the same calendar month is a no-op the second time; each
// obligation's insert-and-stamp pair is atomic in the store, so a failure
// leaves that obligation untouched and reported, never half done.
func (r *Reconciler) Reconcile(ctx context.Context, userID string, now time.Time) (ReconcileResult, error) {
	var result ReconcileResult

	period := core.PeriodOf(now)

	obligations, err := r.store.ListActiveObligations(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("list active obligations: %w", err)
	}

	slog.InfoContext(ctx, "Reconciling recurring obligations",
		"total_active", len(obligations),
		"period", period.String())

	for _, o := range obligations {
		if o.LastGenerated.Period() == period {
			result.Skipped++
			continue
		}

		// Day-of-month past the month's end clamps to the last day, so a
		// day-31 obligation lands on April 30 rather than being skipped.
		tx := core.LedgerTransaction{
			UserID:       o.UserID,
			Description:  o.Description,
			Amount:       o.Amount,
			Flow:         core.Expense,
			Cost:         core.Fixed,
			Category:     o.Category,
			Date:         period.DateAt(o.DayOfMonth),
			ObligationID: o.ID,
		}

		id, err := r.store.GenerateFromObligation(ctx, o.ID, tx)
		if err != nil {
			if errors.Is(err, storage.ErrMarkerConflict) {
				// Another run stamped this period first; nothing to do.
				result.Skipped++
				continue
			}
			result.Failed++
			result.Errors = append(result.Errors, ObligationError{
				ObligationID: o.ID,
				Description:  o.Description,
				Err:          err,
			})
			slog.ErrorContext(ctx, "Failed to materialize obligation",
				"obligation_id", o.ID,
				"description", o.Description,
				"error", err)
			continue
		}

		result.Generated++
		slog.InfoContext(ctx, "Materialized obligation",
			"obligation_id", o.ID,
			"transaction_id", id,
			"description", o.Description,
			"amount_cents", o.Amount.Cents,
			"date", tx.Date.Format("2006-01-02"))
	}

	slog.InfoContext(ctx, "Reconciliation complete",
		"generated", result.Generated,
		"skipped", result.Skipped,
		"failed", result.Failed)

	if result.Failed > 0 {
		return result, fmt.Errorf("%w: %d of %d obligations failed",
			ErrPartialReconciliation, result.Failed, len(obligations))
	}
	return result, nil
}
