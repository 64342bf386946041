// Package ledger declares the persistence ports of the bot. Adapters live in
// ledger/memory and storage.
package ledger

import (
	"context"
	"errors"
	"time"

	"ledgerbot/internal/core"
)

var (
	// ErrPersistence wraps any failure of the underlying store.
	ErrPersistence = errors.New("ledger: persistence failed")
	// ErrNotFound is returned when a transaction id is unknown.
	ErrNotFound = errors.New("ledger: transaction not found")
)

// Ports for outbound adapters.
type (
	// Writer durably appends a transaction. The returned copy carries the
	// assigned ID and RecordedAt.
	Writer interface {
		Append(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	}

	// RangeReader returns the transactions recorded within a period, oldest
	// first.
	RangeReader interface {
		QueryRange(ctx context.Context, period core.Period) ([]core.Transaction, error)
	}

	// Getter loads a single transaction.
	Getter interface {
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	}

	// SyncTracker records which transactions were mirrored to the
	// spreadsheet.
	SyncTracker interface {
		PendingSync(ctx context.Context, limit int) ([]core.Transaction, error)
		IsSynced(ctx context.Context, id int64) (bool, error)
		MarkSynced(ctx context.Context, id int64, ref string) error
		MarkSyncError(ctx context.Context, id int64, reason string) error
	}

	// Store is what a backend must provide to the bot.
	Store interface {
		Writer
		RangeReader
		Getter
		Close() error
	}

	// SyncStore is what the mirror worker needs.
	SyncStore interface {
		Getter
		SyncTracker
		Close() error
	}
)

// Clock yields strictly increasing timestamps so that records appended in
// sequence keep their order even when the wall clock stalls or steps back.
type Clock struct {
	now  func() time.Time
	last time.Time
}

// NewClock wraps now, defaulting to time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Next returns max(now, last+1ns). Callers serialize access.
func (c *Clock) Next() time.Time {
	t := c.now()
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}

// Observe advances the clock past t, used after loading existing records.
func (c *Clock) Observe(t time.Time) {
	if t.After(c.last) {
		c.last = t
	}
}
