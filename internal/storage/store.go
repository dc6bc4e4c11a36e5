// Package storage defines the ledger store port and its implementations.
package storage

import (
	"context"
	"errors"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrMarkerConflict is returned by GenerateFromObligation when the
	// obligation was already stamped for the target period by another run.
	ErrMarkerConflict = errors.New("obligation marker already advanced")
)

// LedgerStore is the persistence port every backend implements. Core
// components receive it as an interface and never see driver types.
type LedgerStore interface {
	// Obligations.
	InsertObligation(ctx context.Context, o core.RecurringObligation) (string, error)
	ListObligations(ctx context.Context, userID string) ([]core.RecurringObligation, error)
	ListActiveObligations(ctx context.Context, userID string) ([]core.RecurringObligation, error)
	// DeactivateObligation is the logical delete: rows are never removed.
	DeactivateObligation(ctx context.Context, id string) error
	UpdateObligationMarker(ctx context.Context, obligationID string, generated core.Date) error

	// Transactions.
	InsertTransaction(ctx context.Context, tx core.LedgerTransaction) (string, error)
	GetTransaction(ctx context.Context, id string) (core.LedgerTransaction, error)
	ListTransactions(ctx context.Context, userID string, from, to core.Date) ([]core.LedgerTransaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	// GenerateFromObligation inserts the materialized transaction and stamps
	// the obligation marker as one atomic unit. Either both land or neither
	// does.
	GenerateFromObligation(ctx context.Context, obligationID string, tx core.LedgerTransaction) (string, error)

	// Sync queue for the sheet export worker.
	ListUnsyncedTransactions(ctx context.Context, limit int) ([]core.LedgerTransaction, error)
	MarkTransactionSynced(ctx context.Context, id string) error
	MarkTransactionSyncError(ctx context.Context, id string) error

	Close() error
}
