package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ledgerbot/internal/amqp"
	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/log"
	"ledgerbot/internal/sheets"
)

// Mirror copies recorded transactions into the spreadsheet. Each row is
// written at most once: a transaction already marked synced is skipped.
type Mirror struct {
	store     ledger.SyncStore
	sheets    sheets.TransactionWriter
	batchSize int
	logger    *log.Logger

	// serializes the check-append-mark sequence between the consumer and the sweep
	mu sync.Mutex
}

func NewMirror(store ledger.SyncStore, sheets sheets.TransactionWriter, batchSize int, logger *log.Logger) *Mirror {
	if batchSize < 1 {
		batchSize = 10
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Mirror{
		store:     store,
		sheets:    sheets,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRecorded processes a single transaction.recorded message from AMQP.
func (m *Mirror) HandleRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	m.logger.InfoContext(ctx, "Processing recorded message",
		log.FieldTxID, msg.ID,
		"recorded_at", msg.RecordedAt)

	m.mu.Lock()
	defer m.mu.Unlock()

	synced, err := m.store.IsSynced(ctx, msg.ID)
	if errors.Is(err, ledger.ErrNotFound) {
		// Nothing to mirror; acknowledging avoids redelivering a message forever.
		m.logger.WarnContext(ctx, "Recorded message for unknown transaction", log.FieldTxID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("check sync state: %w", err)
	}
	if synced {
		m.logger.DebugContext(ctx, "Transaction already mirrored", log.FieldTxID, msg.ID)
		return nil
	}

	tx, err := m.store.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := m.mirror(ctx, tx); err != nil {
		return fmt.Errorf("mirror transaction: %w", err)
	}
	return nil
}

// ProcessPending mirrors one batch of transactions that have no row yet.
// This is a backup mechanism in case AMQP messages are lost.
func (m *Mirror) ProcessPending(ctx context.Context) error {
	synced, failed, err := m.processBatch(ctx, m.batchSize)
	if err != nil {
		return err
	}
	if synced+failed > 0 {
		m.logger.InfoContext(ctx, "Processed pending transactions",
			"synced", synced,
			"errors", failed)
	}
	return nil
}

// StartupSyncCheck mirrors a larger batch at worker startup, to recover from
// worker downtime.
func (m *Mirror) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := m.processBatch(ctx, m.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced+failed == 0 {
		m.logger.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}
	m.logger.InfoContext(ctx, "Startup sync completed",
		"total", synced+failed,
		"synced", synced,
		"errors", failed)
	return nil
}

// RunSweep calls ProcessPending every interval until ctx is done.
func (m *Mirror) RunSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.ProcessPending(ctx); err != nil {
				m.logger.ErrorContext(ctx, "Periodic sync failed", log.FieldError, err)
			}
		}
	}
}

func (m *Mirror) processBatch(ctx context.Context, limit int) (synced, failed int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending, err := m.store.PendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending transactions: %w", err)
	}

	for _, tx := range pending {
		if ctx.Err() != nil {
			break
		}
		if err := m.mirror(ctx, tx); err != nil {
			m.logger.ErrorContext(ctx, "Failed to mirror transaction",
				log.FieldTxID, tx.ID,
				log.FieldError, err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

// mirror appends tx and records the outcome. Callers hold m.mu.
func (m *Mirror) mirror(ctx context.Context, tx core.Transaction) error {
	ref, err := m.sheets.AppendTransaction(ctx, tx)
	if err != nil {
		if markErr := m.store.MarkSyncError(ctx, tx.ID, err.Error()); markErr != nil {
			m.logger.ErrorContext(ctx, "Failed to mark sync error", log.FieldTxID, tx.ID, log.FieldError, markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The row exists now; a failure here only means the sweep may append it again.
	if err := m.store.MarkSynced(ctx, tx.ID, ref); err != nil {
		m.logger.ErrorContext(ctx, "Failed to mark as synced", log.FieldTxID, tx.ID, log.FieldError, err)
	}

	m.logger.InfoContext(ctx, "Successfully mirrored transaction",
		log.FieldTxID, tx.ID,
		log.FieldSheetsRef, ref,
		log.FieldKind, tx.Kind,
		log.FieldAmount, tx.Amount.String())
	return nil
}
