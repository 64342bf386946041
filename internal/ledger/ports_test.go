package ledger

import (
	"testing"
	"time"
)

func TestClockIsStrictlyIncreasing(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewClock(func() time.Time { return fixed })

	a := c.Next()
	b := c.Next()
	if !b.After(a) {
		t.Fatalf("second stamp %v not after first %v", b, a)
	}

	c.Observe(fixed.Add(time.Hour))
	if got := c.Next(); !got.After(fixed.Add(time.Hour)) {
		t.Fatalf("Observe must advance the clock, got %v", got)
	}
}

func TestClockFollowsWallTimeWhenAhead(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewClock(func() time.Time { return now })
	c.Next()
	now = now.Add(time.Minute)
	if got := c.Next(); !got.Equal(now) {
		t.Fatalf("Next = %v, want %v", got, now)
	}
}
