package session

import (
	"testing"
	"time"

	"ledgerbot/internal/core"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestStore_BeginReportsResume(t *testing.T) {
	c := &clock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	s := NewStore(10, 30*time.Minute, c.now)

	sess, resumed := s.Begin(1)
	if resumed {
		t.Fatalf("first Begin must be fresh")
	}
	if sess.State != AwaitingAmount || !sess.StartedAt.Equal(c.t) {
		t.Fatalf("unexpected session %+v", sess)
	}

	sess.Amount = core.MoneyFromCents(500)
	sess.State = AwaitingCategory
	s.Save(sess)

	again, resumed := s.Begin(1)
	if !resumed {
		t.Fatalf("Begin over an active session must report resume")
	}
	if again.State != AwaitingAmount || !again.Amount.IsZero() {
		t.Fatalf("Begin must discard previous fields, got %+v", again)
	}
}

func TestStore_ClearAndIsolation(t *testing.T) {
	s := NewStore(10, time.Hour, nil)
	s.Begin(1)
	s.Begin(2)

	if !s.Clear(1) {
		t.Fatalf("Clear should report active session")
	}
	if _, ok := s.Get(1); ok {
		t.Fatalf("session 1 should be gone")
	}
	if _, ok := s.Get(2); !ok {
		t.Fatalf("session 2 must be unaffected")
	}
	if s.Clear(1) {
		t.Fatalf("second Clear should report nothing")
	}
}

func TestStore_IdleTimeout(t *testing.T) {
	c := &clock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	s := NewStore(10, 30*time.Minute, c.now)

	sess, _ := s.Begin(1)
	c.t = c.t.Add(20 * time.Minute)
	sess.State = AwaitingCategory
	s.Save(sess)

	c.t = c.t.Add(20 * time.Minute)
	if got, ok := s.Get(1); !ok || got.State != AwaitingCategory {
		t.Fatalf("Save must restart the idle timer, got %+v %v", got, ok)
	}
	if !got(s, 1).UpdatedAt.Equal(c.t.Add(-20 * time.Minute)) {
		t.Fatalf("UpdatedAt should be the save time")
	}

	c.t = c.t.Add(31 * time.Minute)
	if n := s.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
	if _, resumed := s.Begin(1); resumed {
		t.Fatalf("expired session must not count as resumed")
	}
}

func TestSession_Transaction(t *testing.T) {
	sess := Session{
		Amount:      core.MoneyFromCents(25000),
		Kind:        core.Expense,
		Category:    "Food",
		Description: "lunch",
	}
	tx := sess.Transaction("alice")
	if tx.Author != "alice" || tx.Category != "Food" || tx.Amount.String() != "250.00" {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if err := tx.Validate(); err != nil {
		t.Fatalf("assembled transaction invalid: %v", err)
	}
}

func got(s *Store, userID int64) Session {
	sess, _ := s.Get(userID)
	return sess
}
