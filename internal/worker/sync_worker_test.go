package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/LuizHUlmi/life-planner-sub000/internal/amqp"
	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
	"github.com/LuizHUlmi/life-planner-sub000/internal/sheets/memory"
	"github.com/LuizHUlmi/life-planner-sub000/internal/storage"
)

type failingAppender struct{}

func (failingAppender) Append(context.Context, core.LedgerTransaction) (string, error) {
	return "", errors.New("quota exceeded")
}

func seedTransaction(t *testing.T, store *storage.MemoryStore) string {
	t.Helper()
	id, err := store.InsertTransaction(context.Background(), core.LedgerTransaction{
		UserID:      "user-1",
		Description: "Rent",
		Amount:      core.Money{Cents: 220000},
		Flow:        core.Expense,
		Cost:        core.Fixed,
		Category:    "Housing",
		Date:        core.NewDate(2024, 3, 10),
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return id
}

func TestHandleSyncMessageUpsert(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sheet := memory.New()
	w := NewSyncWorker(store, sheet, sheet, 10)

	id := seedTransaction(t, store)

	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(id)); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	rows := sheet.Rows()
	if len(rows) != 1 || rows[0].ID != id {
		t.Fatalf("sheet rows = %+v", rows)
	}

	// Exported rows leave the pending queue.
	pending, err := store.ListUnsyncedTransactions(ctx, 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("pending after sync = %v, %v", pending, err)
	}
}

func TestHandleSyncMessageDelete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sheet := memory.New()
	w := NewSyncWorker(store, sheet, sheet, 10)

	id := seedTransaction(t, store)
	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(id)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionDeleteMessage(id)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rows := sheet.Rows(); len(rows) != 0 {
		t.Fatalf("sheet rows after delete = %+v", rows)
	}
}

func TestHandleSyncMessageVanishedTransaction(t *testing.T) {
	store := storage.NewMemoryStore()
	sheet := memory.New()
	w := NewSyncWorker(store, sheet, sheet, 10)

	// Acked, not requeued: the row is gone for good.
	if err := w.HandleSyncMessage(context.Background(), amqp.NewTransactionSyncMessage("missing")); err != nil {
		t.Fatalf("HandleSyncMessage for missing transaction = %v, want nil", err)
	}
}

func TestHandleSyncMessageUnknownAction(t *testing.T) {
	store := storage.NewMemoryStore()
	sheet := memory.New()
	w := NewSyncWorker(store, sheet, sheet, 10)

	msg := &amqp.TransactionSyncMessage{ID: "tx-1", Action: "compact"}
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("unknown action = %v, want nil", err)
	}
}

func TestProcessPending(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sheet := memory.New()
	w := NewSyncWorker(store, sheet, sheet, 10)

	seedTransaction(t, store)
	seedTransaction(t, store)

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if rows := sheet.Rows(); len(rows) != 2 {
		t.Fatalf("sheet rows = %d, want 2", len(rows))
	}

	// Second sweep finds nothing to do.
	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("second ProcessPending: %v", err)
	}
	if rows := sheet.Rows(); len(rows) != 2 {
		t.Fatalf("sweep re-exported rows: %d", len(rows))
	}
}

func TestSyncFailureMarksError(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	w := NewSyncWorker(store, failingAppender{}, nil, 10)

	id := seedTransaction(t, store)

	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(id)); err == nil {
		t.Fatal("expected append failure")
	}

	// The row stays pending so the sweep retries it.
	pending, err := store.ListUnsyncedTransactions(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending after failure = %v, %v", pending, err)
	}
}

func TestStartupSyncCheck(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sheet := memory.New()
	w := NewSyncWorker(store, sheet, sheet, 2)

	for i := 0; i < 5; i++ {
		seedTransaction(t, store)
	}

	// Startup check uses a 5x batch, so one pass drains all five.
	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}
	if rows := sheet.Rows(); len(rows) != 5 {
		t.Fatalf("sheet rows = %d, want 5", len(rows))
	}
}
