package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ledgerbot/internal/ratelimit"
)

type recordingProcessor struct {
	mu      sync.Mutex
	seen    map[int64][]string
	active  map[int64]bool
	overlap bool
	total   int
}

func newRecordingProcessor() *recordingProcessor {
	return &recordingProcessor{seen: make(map[int64][]string), active: make(map[int64]bool)}
}

func (p *recordingProcessor) Process(_ context.Context, upd Update) error {
	p.mu.Lock()
	if p.active[upd.UserID] {
		p.overlap = true
	}
	p.active[upd.UserID] = true
	p.mu.Unlock()

	time.Sleep(time.Millisecond)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[upd.UserID] = false
	p.seen[upd.UserID] = append(p.seen[upd.UserID], upd.Text)
	p.total++
	return nil
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestDispatcher_PerUserOrdering(t *testing.T) {
	proc := newRecordingProcessor()
	d := NewDispatcher(proc, &fakeTransport{}, DispatcherConfig{Workers: 4, QueueSize: 8}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	const users, perUser = 10, 20
	var wg sync.WaitGroup
	for u := int64(1); u <= users; u++ {
		u := u
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perUser; i++ {
				upd := Update{Kind: UpdateText, UserID: u, ChatID: u, Text: string(rune('a' + i))}
				if err := d.Submit(ctx, upd); err != nil {
					t.Errorf("Submit() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	waitFor(t, func() bool { return proc.count() == users*perUser })

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if proc.overlap {
		t.Fatal("updates of one user were processed concurrently")
	}
	for u := int64(1); u <= users; u++ {
		got := proc.seen[u]
		for i, s := range got {
			if s != string(rune('a'+i)) {
				t.Fatalf("user %d order broken at %d: %v", u, i, got)
			}
		}
	}
}

func TestDispatcher_RateLimitNotice(t *testing.T) {
	proc := newRecordingProcessor()
	transport := &fakeTransport{}
	limiter := ratelimit.NewLimiter(ratelimit.Config{PerMinute: 2, CleanupInterval: time.Hour})
	defer limiter.Stop()
	d := NewDispatcher(proc, transport, DispatcherConfig{Workers: 2, Limiter: limiter}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	for i := 0; i < 5; i++ {
		if err := d.Submit(ctx, Update{Kind: UpdateText, UserID: 1, ChatID: 10, Text: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	waitFor(t, func() bool { return proc.count() == 2 && len(transport.texts()) == 1 })
	if got := transport.texts()[0]; got != msgSlowDown {
		t.Fatalf("notice = %q", got)
	}

	// Give stray updates a chance to show up before asserting none were processed.
	time.Sleep(20 * time.Millisecond)
	if proc.count() != 2 || len(transport.texts()) != 1 {
		t.Fatalf("processed=%d notices=%d, want 2 and 1", proc.count(), len(transport.texts()))
	}
}

func TestDispatcher_SubmitAfterRun(t *testing.T) {
	d := NewDispatcher(newRecordingProcessor(), &fakeTransport{}, DispatcherConfig{Workers: 1, QueueSize: 1}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := d.Submit(context.Background(), Update{UserID: 1}); !errors.Is(err, ErrDispatcherClosed) {
			t.Fatalf("Submit() after Run = %v, want ErrDispatcherClosed", err)
		}
	}
}

func TestDispatcher_Shard(t *testing.T) {
	d := NewDispatcher(newRecordingProcessor(), &fakeTransport{}, DispatcherConfig{Workers: 3}, nil)
	for _, id := range []int64{0, 1, 2, 3, -1, -4, 1 << 40} {
		s := d.shard(id)
		if s < 0 || s >= 3 {
			t.Fatalf("shard(%d) = %d out of range", id, s)
		}
		if s != d.shard(id) {
			t.Fatalf("shard(%d) not stable", id)
		}
	}
}
