package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/log"
)

const pgTransactionColumns = `id, amount::text, kind, COALESCE(category, ''), COALESCE(description, ''), author, recorded_at`

// PostgresRepository persists transactions in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	mu     sync.Mutex
	clock  *ledger.Clock
	logger *log.Logger
}

var (
	_ ledger.Store     = (*PostgresRepository)(nil)
	_ ledger.SyncStore = (*PostgresRepository)(nil)
)

// NewPostgresRepository connects to dsn and applies the embedded schema.
func NewPostgresRepository(ctx context.Context, dsn string, opts ...Option) (*PostgresRepository, error) {
	o := buildOptions(opts)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunPostgresMigrations(dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &PostgresRepository{
		pool:   pool,
		clock:  ledger.NewClock(o.now),
		logger: o.logger,
	}

	var last *time.Time
	if err := pool.QueryRow(ctx, `SELECT MAX(recorded_at) FROM transactions`).Scan(&last); err != nil {
		pool.Close()
		return nil, fmt.Errorf("read last recorded_at: %w", err)
	}
	if last != nil {
		repo.clock.Observe(*last)
	}

	return repo, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Ping reports whether the database answers.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Append implements ledger.Writer. Timestamps are truncated to the
// microsecond precision of TIMESTAMPTZ, so equal stamps are ordered by id.
func (r *PostgresRepository) Append(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	recordedAt := r.clock.Next().Truncate(time.Microsecond)
	err := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (amount, kind, category, description, author, recorded_at)
		VALUES ($1::numeric, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
		RETURNING id
	`, tx.Amount.String(), string(tx.Kind), tx.Category, tx.Description, tx.Author, recordedAt).Scan(&tx.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: insert transaction: %w", ledger.ErrPersistence, err)
	}
	tx.RecordedAt = recordedAt.Local()

	r.logger.InfoContext(ctx, "Transaction saved to PostgreSQL",
		log.NewFields().
			WithOperation(log.OpAppend).
			WithTransaction(tx.ID, tx.Amount.String(), string(tx.Kind), tx.Category).
			ToSlice()...)

	return tx, nil
}

// QueryRange implements ledger.RangeReader.
func (r *PostgresRepository) QueryRange(ctx context.Context, period core.Period) ([]core.Transaction, error) {
	from, to := period.Bounds()
	rows, err := r.pool.Query(ctx, `
		SELECT `+pgTransactionColumns+`
		FROM transactions
		WHERE recorded_at >= $1 AND recorded_at < $2
		ORDER BY recorded_at, id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: query range: %w", ledger.ErrPersistence, err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanPostgresTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate range: %w", ledger.ErrPersistence, err)
	}
	return out, nil
}

// GetTransaction implements ledger.Getter.
func (r *PostgresRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+pgTransactionColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanPostgresTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ledger.ErrNotFound)
	}
	return tx, err
}

// PendingSync returns up to limit transactions not yet mirrored, oldest first.
func (r *PostgresRepository) PendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+pgTransactionColumns+`
		FROM transactions
		WHERE synced_at IS NULL
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query pending sync: %w", ledger.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanPostgresTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) MarkSynced(ctx context.Context, id int64, ref string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE transactions SET synced_at = now(), sync_ref = $2, sync_error = NULL WHERE id = $1
	`, id, ref)
	if err != nil {
		return fmt.Errorf("%w: mark transaction synced: %w", ledger.ErrPersistence, err)
	}
	r.logger.InfoContext(ctx, "Transaction marked as synced", log.FieldTxID, id, log.FieldSheetsRef, ref)
	return nil
}

// IsSynced reports whether the transaction already has a spreadsheet row.
func (r *PostgresRepository) IsSynced(ctx context.Context, id int64) (bool, error) {
	var synced bool
	err := r.pool.QueryRow(ctx,
		`SELECT synced_at IS NOT NULL FROM transactions WHERE id = $1`, id).Scan(&synced)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ledger.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("%w: check sync state: %w", ledger.ErrPersistence, err)
	}
	return synced, nil
}

// MarkSyncError keeps the transaction pending and stores the last failure.
func (r *PostgresRepository) MarkSyncError(ctx context.Context, id int64, reason string) error {
	_, err := r.pool.Exec(ctx, `UPDATE transactions SET sync_error = $2 WHERE id = $1`, id, reason)
	if err != nil {
		return fmt.Errorf("%w: mark transaction sync error: %w", ledger.ErrPersistence, err)
	}
	r.logger.WarnContext(ctx, "Transaction marked with sync error", log.FieldTxID, id, log.FieldError, reason)
	return nil
}

func scanPostgresTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		tx                                  core.Transaction
		amount, kind, category, description string
		recordedAt                          time.Time
	)
	if err := row.Scan(&tx.ID, &amount, &kind, &category, &description, &tx.Author, &recordedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tx, err
		}
		return tx, fmt.Errorf("%w: scan transaction: %w", ledger.ErrPersistence, err)
	}
	return finishScan(tx, amount, kind, category, description, recordedAt.Local())
}
