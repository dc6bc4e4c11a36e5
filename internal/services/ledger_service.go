package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
	"github.com/LuizHUlmi/life-planner-sub000/internal/storage"
)

// SyncPublisher is the message-broker port the service publishes to after
// local writes. A nil publisher disables sync without changing call sites.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id string) error
	PublishTransactionDelete(ctx context.Context, id string) error
	Close() error
}

// LedgerService orchestrates transaction writes: persist locally first, then
// publish a sync message for the export worker. Publish failures never fail
// the request; the worker's catch-up sweep picks the row up later.
type LedgerService struct {
	store     storage.LedgerStore
	publisher SyncPublisher
}

func NewLedgerService(store storage.LedgerStore, publisher SyncPublisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

func (s *LedgerService) CreateTransaction(ctx context.Context, tx core.LedgerTransaction) (string, error) {
	id, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionSync(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message",
				"transaction_id", id, "error", err)
		}
	}

	return id, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionDelete(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete message",
				"transaction_id", id, "error", err)
		}
	}

	return nil
}

// ListMonth returns the user's transactions for one calendar month.
func (s *LedgerService) ListMonth(ctx context.Context, userID string, period core.PeriodKey) ([]core.LedgerTransaction, error) {
	from, to := period.Bounds()
	txs, err := s.store.ListTransactions(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", period, err)
	}
	return txs, nil
}

// Close releases the store and the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
