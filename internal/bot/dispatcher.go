package bot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ledgerbot/internal/conversation"
	"ledgerbot/internal/log"
	"ledgerbot/internal/ratelimit"
)

// ErrDispatcherClosed is returned by Submit once Run has returned.
var ErrDispatcherClosed = errors.New("dispatcher closed")

type envelope struct {
	upd       Update
	throttled bool
}

// Dispatcher fans updates out to a fixed set of workers. Updates of one user
// always land on the same worker, so they are processed in arrival order
// while different users proceed in parallel.
type Dispatcher struct {
	processor Processor
	transport Transport
	limiter   *ratelimit.Limiter
	queues    []chan envelope
	done      chan struct{}
	logger    *log.Logger
}

// DispatcherConfig holds dispatcher configuration
type DispatcherConfig struct {
	Workers   int
	QueueSize int
	// Limiter is optional; nil disables rate limiting.
	Limiter *ratelimit.Limiter
}

func NewDispatcher(processor Processor, transport Transport, cfg DispatcherConfig, logger *log.Logger) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 64
	}
	if logger == nil {
		logger = log.Discard()
	}

	queues := make([]chan envelope, cfg.Workers)
	for i := range queues {
		queues[i] = make(chan envelope, cfg.QueueSize)
	}

	return &Dispatcher{
		processor: processor,
		transport: transport,
		limiter:   cfg.Limiter,
		queues:    queues,
		done:      make(chan struct{}),
		logger:    logger.WithComponent(log.ComponentBot),
	}
}

// Submit queues upd on its user's worker. It blocks while that queue is full.
func (d *Dispatcher) Submit(ctx context.Context, upd Update) error {
	select {
	case <-d.done:
		return ErrDispatcherClosed
	default:
	}

	env := envelope{upd: upd}
	if d.limiter != nil {
		decision := d.limiter.Allow(upd.UserID)
		if !decision.Allowed {
			if !decision.Notify {
				d.logger.DebugContext(ctx, "Update dropped by rate limit", log.FieldUserID, upd.UserID)
				return nil
			}
			env.throttled = true
		}
	}

	select {
	case d.queues[d.shard(upd.UserID)] <- env:
		return nil
	case <-d.done:
		return ErrDispatcherClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the workers and blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)

	d.logger.InfoContext(ctx, "Dispatcher started", "workers", len(d.queues))

	g, ctx := errgroup.WithContext(ctx)
	for i, queue := range d.queues {
		i, queue := i, queue
		g.Go(func() error {
			return d.work(ctx, i, queue)
		})
	}
	return g.Wait()
}

func (d *Dispatcher) work(ctx context.Context, worker int, queue <-chan envelope) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-queue:
			d.dispatch(ctx, worker, env)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, worker int, env envelope) {
	upd := env.upd
	logger := d.logger.With(
		log.FieldUpdateID, uuid.NewString(),
		log.FieldUserID, upd.UserID,
		log.FieldChatID, upd.ChatID,
		"worker", worker,
		log.FieldInput, upd.Kind.String(),
	)
	ctx = log.WithContext(ctx, logger)

	if env.throttled {
		logger.WarnContext(ctx, "Rate limit exceeded")
		if err := d.transport.Send(ctx, upd.ChatID, conversation.Plain(msgSlowDown)); err != nil {
			logger.ErrorContext(ctx, "Failed to send rate limit notice", log.FieldError, err)
		}
		return
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Panic while processing update", "panic", r)
		}
	}()

	if err := d.processor.Process(ctx, upd); err != nil {
		logger.ErrorContext(ctx, "Failed to process update", log.FieldError, err)
		return
	}
	logger.DebugContext(ctx, "Update processed", log.FieldDuration, time.Since(start).Milliseconds())
}

func (d *Dispatcher) shard(userID int64) int {
	n := int64(len(d.queues))
	s := userID % n
	if s < 0 {
		s += n
	}
	return int(s)
}
