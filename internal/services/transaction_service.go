package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/log"
)

// EventPublisher announces stored transactions to other processes.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, id int64, recordedAt time.Time) error
}

// TransactionService stores transactions and publishes an event for each
// one. The store is the source of truth; a failed publish is logged and the
// mirror worker's sweep picks the row up later.
type TransactionService struct {
	store     ledger.Store
	publisher EventPublisher
	logger    *log.Logger
}

// NewTransactionService wires a store with an optional publisher.
func NewTransactionService(store ledger.Store, publisher EventPublisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentStorage),
	}
}

// Append implements ledger.Writer.
func (s *TransactionService) Append(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	saved, err := s.store.Append(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publish(ctx, saved); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldOperation, log.OpPublish,
			log.FieldTxID, saved.ID,
			log.FieldError, err)
	}

	return saved, nil
}

func (s *TransactionService) publish(ctx context.Context, tx core.Transaction) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping event", log.FieldTxID, tx.ID)
		return nil
	}
	return s.publisher.PublishTransactionRecorded(ctx, tx.ID, tx.RecordedAt)
}

// QueryRange implements ledger.RangeReader.
func (s *TransactionService) QueryRange(ctx context.Context, period core.Period) ([]core.Transaction, error) {
	return s.store.QueryRange(ctx, period)
}

// GetTransaction implements ledger.Getter.
func (s *TransactionService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// Close closes the store and the publisher connection
func (s *TransactionService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %w", errors.Join(errs...))
	}

	return nil
}
