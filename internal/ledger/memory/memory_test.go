package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
)

func expense(cents int64, category string) core.Transaction {
	return core.Transaction{
		Amount:   core.MoneyFromCents(cents),
		Kind:     core.Expense,
		Category: category,
		Author:   "alice",
	}
}

func TestMemoryStoreAppendAndQuery(t *testing.T) {
	now := time.Date(2025, 6, 18, 9, 0, 0, 0, time.Local)
	s := NewWithClock(func() time.Time { return now })
	ctx := context.Background()

	saved, err := s.Append(ctx, expense(10000, "Food"))
	if err != nil || saved.ID != 1 || !saved.RecordedAt.Equal(now) {
		t.Fatalf("unexpected append: %+v err=%v", saved, err)
	}

	now = now.Add(-24 * time.Hour) // clock stepped back
	second, _ := s.Append(ctx, expense(5000, "Travel"))
	if !second.RecordedAt.After(saved.RecordedAt) {
		t.Fatalf("RecordedAt must not go backwards")
	}

	today := core.Today(saved.RecordedAt)
	first, err := s.QueryRange(ctx, today)
	if err != nil || len(first) != 2 {
		t.Fatalf("QueryRange = %v err=%v", first, err)
	}
	again, _ := s.QueryRange(ctx, today)
	if len(again) != len(first) || again[0].ID != first[0].ID {
		t.Fatalf("repeated QueryRange must be stable")
	}
	if first[0].Category != "Food" || first[1].Category != "Travel" {
		t.Fatalf("results must be oldest first: %+v", first)
	}
}

func TestMemoryStorePeriodBoundaries(t *testing.T) {
	stamps := []time.Time{
		time.Date(2025, 6, 30, 23, 59, 59, 0, time.Local),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.Local),
		time.Date(2025, 7, 2, 0, 0, 0, 0, time.Local),
	}
	i := 0
	s := NewWithClock(func() time.Time { t := stamps[i]; i++; return t })
	ctx := context.Background()
	for range stamps {
		if _, err := s.Append(ctx, expense(100, "Food")); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := s.QueryRange(ctx, core.Today(stamps[1]))
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected only the midnight record, got %+v", got)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New()
	if _, err := s.Append(context.Background(), core.Transaction{Kind: core.Expense}); err == nil {
		t.Fatalf("expected validation error")
	}
	if s.Len() != 0 {
		t.Fatalf("invalid transaction must not be stored")
	}
	if _, err := s.GetTransaction(context.Background(), 1); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
