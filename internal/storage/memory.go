package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
)

// MemoryStore is a mutex-guarded in-memory LedgerStore. It is the default
// backend and the one the test suites run against.
type MemoryStore struct {
	mu           sync.Mutex
	transactions map[string]core.LedgerTransaction
	obligations  map[string]core.RecurringObligation
	synced       map[string]bool
	syncErrors   map[string]bool

	// failMarkerFor lets tests force a marker-update failure for one
	// obligation to exercise the reconciler's rollback path.
	failMarkerFor map[string]bool
}

var _ LedgerStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions:  make(map[string]core.LedgerTransaction),
		obligations:   make(map[string]core.RecurringObligation),
		synced:        make(map[string]bool),
		syncErrors:    make(map[string]bool),
		failMarkerFor: make(map[string]bool),
	}
}

func (m *MemoryStore) InsertObligation(ctx context.Context, o core.RecurringObligation) (string, error) {
	if err := o.Validate(); err != nil {
		return "", fmt.Errorf("validate obligation: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	m.obligations[o.ID] = o
	return o.ID, nil
}

func (m *MemoryStore) ListObligations(ctx context.Context, userID string) ([]core.RecurringObligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.RecurringObligation
	for _, o := range m.obligations {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListActiveObligations(ctx context.Context, userID string) ([]core.RecurringObligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.RecurringObligation
	for _, o := range m.obligations {
		if o.UserID == userID && o.Active {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MemoryStore) DeactivateObligation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.obligations[id]
	if !ok {
		return fmt.Errorf("obligation %s: %w", id, ErrNotFound)
	}
	o.Active = false
	m.obligations[id] = o
	return nil
}

func (m *MemoryStore) UpdateObligationMarker(ctx context.Context, obligationID string, generated core.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateMarkerLocked(obligationID, generated)
}

func (m *MemoryStore) updateMarkerLocked(obligationID string, generated core.Date) error {
	if m.failMarkerFor[obligationID] {
		return fmt.Errorf("obligation %s: simulated marker failure", obligationID)
	}
	o, ok := m.obligations[obligationID]
	if !ok {
		return fmt.Errorf("obligation %s: %w", obligationID, ErrNotFound)
	}
	o.LastGenerated = generated
	m.obligations[obligationID] = o
	return nil
}

func (m *MemoryStore) InsertTransaction(ctx context.Context, tx core.LedgerTransaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertTransactionLocked(tx), nil
}

func (m *MemoryStore) insertTransactionLocked(tx core.LedgerTransaction) string {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	m.transactions[tx.ID] = tx
	return tx.ID
}

func (m *MemoryStore) GetTransaction(ctx context.Context, id string) (core.LedgerTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return core.LedgerTransaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return tx, nil
}

func (m *MemoryStore) ListTransactions(ctx context.Context, userID string, from, to core.Date) ([]core.LedgerTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.LedgerTransaction
	for _, tx := range m.transactions {
		if tx.UserID != userID {
			continue
		}
		if tx.Date.Before(from.Time) || !tx.Date.Before(to.Time) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (m *MemoryStore) DeleteTransaction(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	delete(m.transactions, id)
	delete(m.synced, id)
	delete(m.syncErrors, id)
	return nil
}

// GenerateFromObligation applies the insert and the marker stamp under one
// lock so no observer sees the transaction without the marker or vice versa.
func (m *MemoryStore) GenerateFromObligation(ctx context.Context, obligationID string, tx core.LedgerTransaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if o, ok := m.obligations[obligationID]; ok && o.LastGenerated.Period() == tx.Date.Period() {
		return "", fmt.Errorf("obligation %s: %w", obligationID, ErrMarkerConflict)
	}

	id := m.insertTransactionLocked(tx)
	if err := m.updateMarkerLocked(obligationID, tx.Date); err != nil {
		delete(m.transactions, id)
		return "", err
	}
	return id, nil
}

func (m *MemoryStore) ListUnsyncedTransactions(ctx context.Context, limit int) ([]core.LedgerTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.LedgerTransaction
	for id, tx := range m.transactions {
		if m.synced[id] {
			continue
		}
		out = append(out, tx)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) MarkTransactionSynced(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	m.synced[id] = true
	delete(m.syncErrors, id)
	return nil
}

func (m *MemoryStore) MarkTransactionSyncError(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	m.syncErrors[id] = true
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// FailMarkerUpdates makes marker updates for the given obligation fail until
// reset. Test hook for the reconciler's compensation path.
func (m *MemoryStore) FailMarkerUpdates(obligationID string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failMarkerFor[obligationID] = fail
}
