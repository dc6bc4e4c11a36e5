// Package memory is an in-process spreadsheet stand-in for tests and local
// development without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.LedgerTransaction
}

func New() *Store {
	return &Store{}
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, tx core.LedgerTransaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, tx)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// DeleteRow removes the stored transaction with the given ID. Unknown IDs are
// ignored, matching the spreadsheet adapter.
func (s *Store) DeleteRow(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.items {
		if tx.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.LedgerTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.LedgerTransaction(nil), s.items...)
}
