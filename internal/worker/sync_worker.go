// Package worker exports ledger transactions to the configured spreadsheet,
// driven by AMQP messages with a periodic catch-up sweep.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LuizHUlmi/life-planner-sub000/internal/amqp"
	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
	"github.com/LuizHUlmi/life-planner-sub000/internal/sheets"
	"github.com/LuizHUlmi/life-planner-sub000/internal/storage"
)

// SyncWorker moves ledger transactions from the local store to the
// spreadsheet export.
type SyncWorker struct {
	store     storage.LedgerStore
	appender  sheets.LedgerAppender
	deleter   sheets.LedgerRowDeleter
	batchSize int
}

func NewSyncWorker(store storage.LedgerStore, appender sheets.LedgerAppender, deleter sheets.LedgerRowDeleter, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		appender:  appender,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single message from the sync queue.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"transaction_id", msg.ID,
		"action", msg.Action)

	switch msg.Action {
	case amqp.ActionDelete:
		return w.handleDelete(ctx, msg.ID)
	case amqp.ActionUpsert, "":
		return w.handleUpsert(ctx, msg.ID)
	default:
		// Unknown actions are acked, requeueing them can never succeed.
		slog.WarnContext(ctx, "Ignoring sync message with unknown action",
			"transaction_id", msg.ID, "action", msg.Action)
		return nil
	}
}

func (w *SyncWorker) handleUpsert(ctx context.Context, id string) error {
	tx, err := w.store.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted between publish and consume; nothing to export.
			slog.WarnContext(ctx, "Transaction vanished before sync", "transaction_id", id)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	return w.syncTransaction(ctx, tx.ID, tx)
}

func (w *SyncWorker) handleDelete(ctx context.Context, id string) error {
	if w.deleter == nil {
		slog.WarnContext(ctx, "No row deleter configured, skipping spreadsheet deletion",
			"transaction_id", id)
		return nil
	}

	if err := w.deleter.DeleteRow(ctx, id); err != nil {
		return fmt.Errorf("delete spreadsheet row: %w", err)
	}

	slog.InfoContext(ctx, "Deleted spreadsheet row", "transaction_id", id)
	return nil
}

// ProcessPending exports transactions that have no spreadsheet row yet. This
// is the backup path for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListUnsyncedTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unsynced transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, tx := range pending {
		if err := w.syncTransaction(ctx, tx.ID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction",
				"transaction_id", tx.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains a larger pending batch once at worker startup to
// recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.store.ListUnsyncedTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list unsynced transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, tx := range pending {
		if err := w.syncTransaction(ctx, tx.ID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"transaction_id", tx.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

// Run consumes sync messages and sweeps for pending rows until the context
// ends. Either loop failing stops both.
func (w *SyncWorker) Run(ctx context.Context, client *amqp.Client, sweepInterval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.ConsumeTransactionSync(ctx, func(msg *amqp.TransactionSyncMessage) error {
			return w.HandleSyncMessage(ctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ProcessPending(ctx); err != nil {
					slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *SyncWorker) syncTransaction(ctx context.Context, id string, tx core.LedgerTransaction) error {
	ref, err := w.appender.Append(ctx, tx)
	if err != nil {
		if markErr := w.store.MarkTransactionSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"transaction_id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.store.MarkTransactionSynced(ctx, id); err != nil {
		// The row is on the sheet; the sweep may export it twice, which the
		// ID column makes harmless.
		slog.ErrorContext(ctx, "Failed to mark as synced",
			"transaction_id", id, "error", err)
	}

	slog.InfoContext(ctx, "Synced transaction",
		"transaction_id", id,
		"sheet_ref", ref,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents)

	return nil
}
