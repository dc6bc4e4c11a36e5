package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
	"github.com/LuizHUlmi/life-planner-sub000/internal/storage"
)

const testUser = "user-1"

func seedObligation(t *testing.T, store *storage.MemoryStore, o core.RecurringObligation) string {
	t.Helper()
	o.UserID = testUser
	id, err := store.InsertObligation(context.Background(), o)
	if err != nil {
		t.Fatalf("seed obligation: %v", err)
	}
	return id
}

func rentObligation() core.RecurringObligation {
	return core.RecurringObligation{
		Description: "Rent",
		Amount:      core.Money{Cents: 220000},
		Category:    "Housing",
		DayOfMonth:  10,
		Active:      true,
	}
}

func monthTransactions(t *testing.T, store *storage.MemoryStore, period core.PeriodKey) []core.LedgerTransaction {
	t.Helper()
	from, to := period.Bounds()
	txs, err := store.ListTransactions(context.Background(), testUser, from, to)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	return txs
}

func TestReconcileGeneratesTransaction(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	oid := seedObligation(t, store, rentObligation())

	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	result, err := NewReconciler(store).Reconcile(ctx, testUser, now)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Generated != 1 || result.Skipped != 0 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 1 generated", result)
	}

	txs := monthTransactions(t, store, core.PeriodKey{Year: 2024, Month: 3})
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	tx := txs[0]
	if tx.Amount.Cents != 220000 {
		t.Errorf("amount = %d, want 220000", tx.Amount.Cents)
	}
	if !tx.Date.Equal(core.NewDate(2024, 3, 10).Time) {
		t.Errorf("date = %v, want 2024-03-10", tx.Date)
	}
	if tx.Flow != core.Expense || tx.Cost != core.Fixed {
		t.Errorf("flow/cost = %s/%s, want expense/fixed", tx.Flow, tx.Cost)
	}
	if tx.Category != "Housing" {
		t.Errorf("category = %q", tx.Category)
	}
	if tx.ObligationID != oid {
		t.Errorf("obligation trace = %q, want %q", tx.ObligationID, oid)
	}

	obls, _ := store.ListActiveObligations(ctx, testUser)
	if got := obls[0].LastGenerated.Period(); got != (core.PeriodKey{Year: 2024, Month: 3}) {
		t.Errorf("marker period = %v, want 2024-03", got)
	}
}

func TestReconcileIsIdempotentWithinMonth(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedObligation(t, store, rentObligation())
	reconciler := NewReconciler(store)

	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	if _, err := reconciler.Reconcile(ctx, testUser, now); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Second run later the same month: zero new transactions.
	later := time.Date(2024, 3, 28, 17, 0, 0, 0, time.UTC)
	result, err := reconciler.Reconcile(ctx, testUser, later)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Generated != 0 || result.Skipped != 1 {
		t.Fatalf("second run result = %+v, want 0 generated / 1 skipped", result)
	}
	if txs := monthTransactions(t, store, core.PeriodKey{Year: 2024, Month: 3}); len(txs) != 1 {
		t.Fatalf("got %d transactions after double run, want 1", len(txs))
	}
}

func TestReconcileAdvancesMonthly(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedObligation(t, store, rentObligation())
	reconciler := NewReconciler(store)

	for _, month := range []int{1, 2, 3} {
		now := time.Date(2024, time.Month(month), 20, 8, 0, 0, 0, time.UTC)
		result, err := reconciler.Reconcile(ctx, testUser, now)
		if err != nil {
			t.Fatalf("month %d: %v", month, err)
		}
		if result.Generated != 1 {
			t.Fatalf("month %d generated %d, want exactly 1", month, result.Generated)
		}
	}

	for _, month := range []int{1, 2, 3} {
		txs := monthTransactions(t, store, core.PeriodKey{Year: 2024, Month: month})
		if len(txs) != 1 {
			t.Fatalf("month %d has %d transactions, want 1", month, len(txs))
		}
	}
}

func TestReconcileSkipsInactive(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	o := rentObligation()
	o.Active = false
	seedObligation(t, store, o)

	result, err := NewReconciler(store).Reconcile(ctx, testUser, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Generated != 0 || result.Skipped != 0 || result.Failed != 0 {
		t.Fatalf("inactive obligation produced activity: %+v", result)
	}
	if txs := monthTransactions(t, store, core.PeriodKey{Year: 2024, Month: 3}); len(txs) != 0 {
		t.Fatalf("inactive obligation generated %d transactions", len(txs))
	}
}

func TestReconcileClampsDayOfMonth(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	o := rentObligation()
	o.DayOfMonth = 31
	seedObligation(t, store, o)

	// April has 30 days: the transaction lands on the 30th.
	result, err := NewReconciler(store).Reconcile(ctx, testUser, time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Generated != 1 {
		t.Fatalf("result = %+v", result)
	}
	txs := monthTransactions(t, store, core.PeriodKey{Year: 2024, Month: 4})
	if len(txs) != 1 || !txs[0].Date.Equal(core.NewDate(2024, 4, 30).Time) {
		t.Fatalf("clamped date = %v, want 2024-04-30", txs[0].Date)
	}
}

func TestReconcilePartialFailure(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedObligation(t, store, rentObligation())

	broken := rentObligation()
	broken.Description = "Gym"
	brokenID := seedObligation(t, store, broken)
	store.FailMarkerUpdates(brokenID, true)

	result, err := NewReconciler(store).Reconcile(ctx, testUser, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrPartialReconciliation) {
		t.Fatalf("err = %v, want ErrPartialReconciliation", err)
	}
	if result.Generated != 1 || result.Failed != 1 {
		t.Fatalf("result = %+v, want 1 generated / 1 failed", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].ObligationID != brokenID {
		t.Fatalf("errors = %+v", result.Errors)
	}

	// The failed obligation left no orphan transaction behind.
	txs := monthTransactions(t, store, core.PeriodKey{Year: 2024, Month: 3})
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want only the healthy obligation's", len(txs))
	}

	// Once the store heals, the failed obligation catches up and the healthy
	// one stays idempotent.
	store.FailMarkerUpdates(brokenID, false)
	result, err = NewReconciler(store).Reconcile(ctx, testUser, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if result.Generated != 1 || result.Skipped != 1 {
		t.Fatalf("retry result = %+v, want 1 generated / 1 skipped", result)
	}
}
