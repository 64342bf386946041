package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"ledgerbot/internal/amqp"
	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
)

type fakeSyncStore struct {
	mu     sync.Mutex
	txs    map[int64]core.Transaction
	synced map[int64]string
	errs   map[int64]string
}

func newFakeSyncStore(txs ...core.Transaction) *fakeSyncStore {
	s := &fakeSyncStore{
		txs:    make(map[int64]core.Transaction),
		synced: make(map[int64]string),
		errs:   make(map[int64]string),
	}
	for _, tx := range txs {
		s.txs[tx.ID] = tx
	}
	return s
}

func (s *fakeSyncStore) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return tx, nil
}

func (s *fakeSyncStore) PendingSync(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for id, tx := range s.txs {
		if _, ok := s.synced[id]; !ok {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeSyncStore) IsSynced(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return false, ledger.ErrNotFound
	}
	_, ok := s.synced[id]
	return ok, nil
}

func (s *fakeSyncStore) MarkSynced(_ context.Context, id int64, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced[id] = ref
	delete(s.errs, id)
	return nil
}

func (s *fakeSyncStore) MarkSyncError(_ context.Context, id int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[id] = reason
	return nil
}

func (s *fakeSyncStore) Close() error { return nil }

type fakeSheet struct {
	mu      sync.Mutex
	rows    []int64
	failIDs map[int64]bool
}

func (f *fakeSheet) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[tx.ID] {
		return "", errors.New("quota exceeded")
	}
	f.rows = append(f.rows, tx.ID)
	return fmt.Sprintf("2025 Transactions!A%d:G%d", len(f.rows)+1, len(f.rows)+1), nil
}

func tx(id int64) core.Transaction {
	return core.Transaction{
		ID:         id,
		Amount:     core.MoneyFromCents(id * 100),
		Kind:       core.Expense,
		Category:   "Food",
		Author:     "alice",
		RecordedAt: time.Date(2025, 6, 18, 12, 0, int(id), 0, time.UTC),
	}
}

func TestMirror_HandleRecorded(t *testing.T) {
	ctx := context.Background()
	store := newFakeSyncStore(tx(1))
	sheet := &fakeSheet{}
	m := NewMirror(store, sheet, 10, nil)

	msg := amqp.NewTransactionRecordedMessage(1, time.Now())
	if err := m.HandleRecorded(ctx, msg); err != nil {
		t.Fatalf("HandleRecorded() error = %v", err)
	}
	if len(sheet.rows) != 1 || store.synced[1] == "" {
		t.Fatalf("expected one mirrored row, rows=%v synced=%v", sheet.rows, store.synced)
	}

	// Redelivery must not append a second row.
	if err := m.HandleRecorded(ctx, msg); err != nil {
		t.Fatalf("redelivery error = %v", err)
	}
	if len(sheet.rows) != 1 {
		t.Fatalf("redelivered message appended again: %v", sheet.rows)
	}
}

func TestMirror_HandleRecordedUnknownID(t *testing.T) {
	m := NewMirror(newFakeSyncStore(), &fakeSheet{}, 10, nil)
	if err := m.HandleRecorded(context.Background(), amqp.NewTransactionRecordedMessage(42, time.Now())); err != nil {
		t.Fatalf("unknown id should be acknowledged, got %v", err)
	}
}

func TestMirror_HandleRecordedSheetFailure(t *testing.T) {
	store := newFakeSyncStore(tx(1))
	sheet := &fakeSheet{failIDs: map[int64]bool{1: true}}
	m := NewMirror(store, sheet, 10, nil)

	err := m.HandleRecorded(context.Background(), amqp.NewTransactionRecordedMessage(1, time.Now()))
	if err == nil {
		t.Fatal("expected error when the sheet rejects the row")
	}
	if store.errs[1] == "" {
		t.Fatal("sync error should be recorded")
	}
	if _, ok := store.synced[1]; ok {
		t.Fatal("failed row must stay pending")
	}
}

func TestMirror_ProcessPending(t *testing.T) {
	ctx := context.Background()
	store := newFakeSyncStore(tx(1), tx(2), tx(3), tx(4))
	sheet := &fakeSheet{failIDs: map[int64]bool{2: true}}
	m := NewMirror(store, sheet, 3, nil)

	if err := m.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}
	if got := len(store.synced); got != 2 {
		t.Fatalf("synced %d rows, want 2 (batch of 3 with one failure)", got)
	}

	delete(sheet.failIDs, 2)
	if err := m.ProcessPending(ctx); err != nil {
		t.Fatalf("second ProcessPending() error = %v", err)
	}
	if got := len(store.synced); got != 4 {
		t.Fatalf("synced %d rows, want 4", got)
	}
	if len(sheet.rows) != 4 {
		t.Fatalf("each transaction must be appended once, rows=%v", sheet.rows)
	}
}

func TestMirror_StartupSyncCheckUsesLargerBatch(t *testing.T) {
	var txs []core.Transaction
	for i := int64(1); i <= 12; i++ {
		txs = append(txs, tx(i))
	}
	store := newFakeSyncStore(txs...)
	m := NewMirror(store, &fakeSheet{}, 2, nil)

	if err := m.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("StartupSyncCheck() error = %v", err)
	}
	if got := len(store.synced); got != 10 {
		t.Fatalf("synced %d rows, want 10", got)
	}
}

func TestMirror_RunSweepStopsOnCancel(t *testing.T) {
	store := newFakeSyncStore(tx(1))
	m := NewMirror(store, &fakeSheet{}, 10, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.RunSweep(ctx, 5*time.Millisecond) }()

	deadline := time.After(2 * time.Second)
	for {
		if ok, _ := store.IsSynced(context.Background(), 1); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("sweep did not mirror the pending row")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunSweep() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunSweep did not return after cancel")
	}
}
