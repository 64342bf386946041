package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/ledger/memory"
)

type fakePublisher struct {
	err      error
	ids      []int64
	closed   bool
	closeErr error
}

func (p *fakePublisher) PublishTransactionRecorded(_ context.Context, id int64, _ time.Time) error {
	p.ids = append(p.ids, id)
	return p.err
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return p.closeErr
}

type brokenStore struct{ *memory.Store }

func (brokenStore) Append(context.Context, core.Transaction) (core.Transaction, error) {
	return core.Transaction{}, ledger.ErrPersistence
}

func (brokenStore) Close() error { return errors.New("already closed") }

func lunch() core.Transaction {
	return core.Transaction{
		Amount:   core.MoneyFromCents(25000),
		Kind:     core.Expense,
		Category: "Food",
		Author:   "alice",
	}
}

func TestTransactionService_Append(t *testing.T) {
	tests := []struct {
		name       string
		publishErr error
	}{
		{"publishes event", nil},
		{"publish failure does not fail the write", errors.New("circuit breaker is open")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			pub := &fakePublisher{err: tt.publishErr}
			svc := NewTransactionService(store, pub, nil)

			saved, err := svc.Append(context.Background(), lunch())
			if err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			if saved.ID != 1 || store.Len() != 1 {
				t.Fatalf("transaction not stored: %+v", saved)
			}
			if len(pub.ids) != 1 || pub.ids[0] != saved.ID {
				t.Fatalf("published %v, want [%d]", pub.ids, saved.ID)
			}
		})
	}
}

func TestTransactionService_AppendWithoutPublisher(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil, nil)
	if _, err := svc.Append(context.Background(), lunch()); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
}

func TestTransactionService_StoreFailure(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewTransactionService(brokenStore{memory.New()}, pub, nil)

	_, err := svc.Append(context.Background(), lunch())
	if !errors.Is(err, ledger.ErrPersistence) {
		t.Fatalf("error = %v, want ErrPersistence", err)
	}
	if len(pub.ids) != 0 {
		t.Fatalf("nothing should be published for a failed write")
	}
}

func TestTransactionService_Close(t *testing.T) {
	t.Run("closes publisher", func(t *testing.T) {
		pub := &fakePublisher{}
		svc := NewTransactionService(memory.New(), pub, nil)
		if err := svc.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if !pub.closed {
			t.Fatal("publisher should be closed")
		}
	})

	t.Run("aggregates errors", func(t *testing.T) {
		pub := &fakePublisher{closeErr: errors.New("channel closed")}
		svc := NewTransactionService(brokenStore{memory.New()}, pub, nil)
		err := svc.Close()
		if err == nil {
			t.Fatal("expected aggregated error")
		}
		if !pub.closed {
			t.Fatal("publisher must be closed even when the store fails")
		}
	})
}
