// Package memory is a process-local ledger used for development and tests.
// Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
)

type Store struct {
	mu    sync.Mutex
	clock *ledger.Clock
	items []core.Transaction
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock lets tests control RecordedAt.
func NewWithClock(now func() time.Time) *Store {
	return &Store{clock: ledger.NewClock(now)}
}

// Append stores the transaction and assigns the next sequential id.
func (s *Store) Append(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = int64(len(s.items) + 1)
	tx.RecordedAt = s.clock.Next()
	s.items = append(s.items, tx)
	return tx, nil
}

// QueryRange returns a copy of the transactions inside the period. Items
// are kept in append order, which is also RecordedAt order.
func (s *Store) QueryRange(_ context.Context, period core.Period) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, tx := range s.items {
		if period.Contains(tx.RecordedAt) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 1 || id > int64(len(s.items)) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ledger.ErrNotFound)
	}
	return s.items[id-1], nil
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) Close() error { return nil }
