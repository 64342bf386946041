// Package session keeps the per-user scratch state of an in-progress
// conversation. Each entry is written only by the dispatcher shard that owns
// the user, so callers never share a Session value across goroutines.
package session

import (
	"strconv"
	"time"

	"ledgerbot/internal/cache"
	"ledgerbot/internal/core"
)

// State is the step a conversation is waiting on.
type State string

const (
	Idle                State = "idle"
	AwaitingAmount      State = "awaiting_amount"
	AwaitingKind        State = "awaiting_kind"
	AwaitingCategory    State = "awaiting_category"
	AwaitingDescription State = "awaiting_description"
)

func (s State) String() string {
	return string(s)
}

// Session accumulates the fields of one transaction across turns.
type Session struct {
	UserID      int64
	State       State
	Amount      core.Money
	Kind        core.Kind
	Category    string
	Description string
	StartedAt   time.Time
	UpdatedAt   time.Time
}

// Transaction assembles the record to persist from the collected fields.
func (s Session) Transaction(author string) core.Transaction {
	return core.Transaction{
		Amount:      s.Amount,
		Kind:        s.Kind,
		Category:    s.Category,
		Description: s.Description,
		Author:      author,
	}
}

// Store holds at most one session per user. Sessions not saved for longer
// than the idle timeout disappear.
type Store struct {
	entries *cache.LRUCache[Session]
	now     func() time.Time
}

// NewStore creates a store bounded to maxEntries sessions.
func NewStore(maxEntries int, idleTimeout time.Duration, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		entries: cache.NewLRUCache[Session](maxEntries, idleTimeout, cache.WithClock(now)),
		now:     now,
	}
}

// Get returns the active session of a user.
func (s *Store) Get(userID int64) (Session, bool) {
	return s.entries.Get(key(userID))
}

// Begin discards any session of the user and starts a fresh one waiting for
// an amount. resumed reports whether a live session was discarded.
func (s *Store) Begin(userID int64) (sess Session, resumed bool) {
	resumed = s.entries.Delete(key(userID))
	now := s.now()
	sess = Session{
		UserID:    userID,
		State:     AwaitingAmount,
		StartedAt: now,
		UpdatedAt: now,
	}
	s.entries.Set(key(userID), sess)
	return sess, resumed
}

// Save stores the session and restarts its idle timer.
func (s *Store) Save(sess Session) {
	sess.UpdatedAt = s.now()
	s.entries.Set(key(sess.UserID), sess)
}

// Clear ends the session of a user. It reports whether one was active.
func (s *Store) Clear(userID int64) bool {
	return s.entries.Delete(key(userID))
}

// CleanExpired purges idle sessions; it lets a cache.Manager reclaim them.
func (s *Store) CleanExpired() int {
	return s.entries.CleanExpired()
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
