package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter provides per-user rate limiting over token buckets
type Limiter struct {
	mu           sync.Mutex
	users        map[int64]*userInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
	now          func() time.Time

	// Configuration
	limit           rate.Limit
	burst           int
	cleanupInterval time.Duration
	idleAfter       time.Duration
}

type userInfo struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	notified bool // a "slow down" notice was sent for the current streak
}

// Config holds rate limiter configuration
type Config struct {
	// PerMinute is the sustained number of updates a user may send; it is
	// also the burst size. Zero disables limiting.
	PerMinute       int
	CleanupInterval time.Duration
	Now             func() time.Time
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		PerMinute:       30,
		CleanupInterval: 5 * time.Minute,
	}
}

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed bool
	// Notify is true on the first rejected update of a streak.
	Notify bool
}

// NewLimiter creates a new rate limiter. Call Stop to release the cleanup goroutine.
func NewLimiter(config Config) *Limiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	limit := rate.Inf
	if config.PerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(config.PerMinute))
	}

	rl := &Limiter{
		users:           make(map[int64]*userInfo),
		stopCleanup:     make(chan struct{}),
		now:             config.Now,
		limit:           limit,
		burst:           max(config.PerMinute, 1),
		cleanupInterval: config.CleanupInterval,
		idleAfter:       10 * time.Minute,
	}
	go rl.startCleanup()
	return rl
}

// Allow checks whether the user may send another update now
func (rl *Limiter) Allow(userID int64) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	user, exists := rl.users[userID]
	if !exists {
		user = &userInfo{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.users[userID] = user
	}
	user.lastSeen = now

	if user.limiter.AllowN(now, 1) {
		user.notified = false
		return Decision{Allowed: true}
	}

	notify := !user.notified
	user.notified = true
	return Decision{Notify: notify}
}

// startCleanup runs periodic cleanup to remove idle user entries
func (rl *Limiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes users not seen for idleAfter
func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleAfter)
	for id, user := range rl.users {
		if user.lastSeen.Before(cutoff) {
			delete(rl.users, id)
		}
	}
}

// ActiveUsers returns the number of currently tracked users
func (rl *Limiter) ActiveUsers() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.users)
}

// Stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}
