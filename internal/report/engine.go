// Package report lists and summarizes the transactions of a period.
package report

import (
	"context"
	"fmt"
	"time"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/log"
)

// Engine reads a period from the ledger and shapes it for chat output.
type Engine struct {
	reader   ledger.RangeReader
	currency string
	now      func() time.Time
	logger   *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now when resolving period shortcuts.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger.WithComponent(log.ComponentReport) }
}

// NewEngine creates an engine rendering amounts with currency as prefix.
func NewEngine(reader ledger.RangeReader, currency string, opts ...Option) *Engine {
	e := &Engine{
		reader:   reader,
		currency: currency,
		now:      time.Now,
		logger:   log.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ListTransactions returns the period's transactions, oldest first.
func (e *Engine) ListTransactions(ctx context.Context, period core.Period) ([]core.Transaction, error) {
	txs, err := e.reader.QueryRange(ctx, period)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to query transactions",
			log.FieldOperation, log.OpQuery,
			log.FieldPeriodStart, period.Start.String(),
			log.FieldPeriodEnd, period.End.String(),
			log.FieldError, err)
		return nil, fmt.Errorf("%w: query range: %w", ledger.ErrPersistence, err)
	}
	e.logger.DebugContext(ctx, "Queried transactions",
		log.FieldPeriodStart, period.Start.String(),
		log.FieldPeriodEnd, period.End.String(),
		log.FieldCount, len(txs))
	return txs, nil
}

// Summarize aggregates the period's transactions by category.
func (e *Engine) Summarize(ctx context.Context, period core.Period) (core.Summary, error) {
	txs, err := e.ListTransactions(ctx, period)
	if err != nil {
		return core.Summary{}, err
	}
	return Aggregate(period, txs), nil
}

// Aggregate groups txs by their raw category string, keeping the order in
// which categories first appear. Sums are exact decimals.
func Aggregate(period core.Period, txs []core.Transaction) core.Summary {
	s := core.Summary{Period: period, Count: len(txs)}
	index := make(map[string]int)
	for _, tx := range txs {
		i, ok := index[tx.Category]
		if !ok {
			i = len(s.ByCategory)
			index[tx.Category] = i
			s.ByCategory = append(s.ByCategory, core.CategoryAmount{Name: tx.Category})
		}
		s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(tx.Amount)
		s.Total = s.Total.Add(tx.Amount)
	}
	return s
}

// Listing renders the table report for a named period, split into as many
// messages as MaxMessageLength requires.
func (e *Engine) Listing(ctx context.Context, name PeriodName) ([]string, error) {
	txs, err := e.ListTransactions(ctx, name.Resolve(e.now()))
	if err != nil {
		return nil, err
	}
	return RenderListing(name.ListingTitle(), txs, MaxMessageLength), nil
}

// Summary renders the category summary for a named period.
func (e *Engine) Summary(ctx context.Context, name PeriodName) (string, error) {
	s, err := e.Summarize(ctx, name.Resolve(e.now()))
	if err != nil {
		return "", err
	}
	return e.RenderSummary(name.SummaryTitle(), s), nil
}
