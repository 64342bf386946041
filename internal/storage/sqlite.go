package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/log"

	_ "modernc.org/sqlite"
)

const transactionColumns = `id, amount, kind, category, description, author, recorded_at`

// SQLiteRepository persists transactions in a single SQLite file. Inserts
// are serialized so that recorded_at follows insert order.
type SQLiteRepository struct {
	db     *sql.DB
	mu     sync.Mutex
	clock  *ledger.Clock
	logger *log.Logger
}

var (
	_ ledger.Store     = (*SQLiteRepository)(nil)
	_ ledger.SyncStore = (*SQLiteRepository)(nil)
)

// NewSQLiteRepository opens dbPath in WAL mode and applies migrations.
func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	o := buildOptions(opts)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:     db,
		clock:  ledger.NewClock(o.now),
		logger: o.logger,
	}

	var last sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(recorded_at) FROM transactions`).Scan(&last); err != nil {
		db.Close()
		return nil, fmt.Errorf("read last recorded_at: %w", err)
	}
	if last.Valid {
		repo.clock.Observe(time.Unix(0, last.Int64))
	}

	return repo, nil
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Append implements ledger.Writer.
func (r *SQLiteRepository) Append(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	recordedAt := r.clock.Next()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (amount, kind, category, description, author, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tx.Amount.String(), string(tx.Kind), nullString(tx.Category), nullString(tx.Description),
		tx.Author, recordedAt.UnixNano())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: insert transaction: %w", ledger.ErrPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: read inserted id: %w", ledger.ErrPersistence, err)
	}

	tx.ID = id
	tx.RecordedAt = time.Unix(0, recordedAt.UnixNano())

	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		log.NewFields().
			WithOperation(log.OpAppend).
			WithTransaction(tx.ID, tx.Amount.String(), string(tx.Kind), tx.Category).
			ToSlice()...)

	return tx, nil
}

// QueryRange implements ledger.RangeReader.
func (r *SQLiteRepository) QueryRange(ctx context.Context, period core.Period) ([]core.Transaction, error) {
	from, to := period.Bounds()
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE recorded_at >= ? AND recorded_at < ?
		 ORDER BY recorded_at, id`,
		from.UnixNano(), to.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("%w: query range: %w", ledger.ErrPersistence, err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanSQLiteTransaction(rows)
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
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanSQLiteTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ledger.ErrNotFound)
	}
	return tx, err
}

// PendingSync returns up to limit transactions not yet mirrored, oldest first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE synced_at IS NULL
		 ORDER BY id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query pending sync: %w", ledger.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanSQLiteTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// MarkSynced records the spreadsheet row a transaction was mirrored to.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64, ref string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET synced_at = ?, sync_ref = ?, sync_error = NULL WHERE id = ?`,
		time.Now().UnixNano(), ref, id)
	if err != nil {
		return fmt.Errorf("%w: mark transaction synced: %w", ledger.ErrPersistence, err)
	}

	r.logger.InfoContext(ctx, "Transaction marked as synced", log.FieldTxID, id, log.FieldSheetsRef, ref)
	return nil
}

// IsSynced reports whether the transaction already has a spreadsheet row.
func (r *SQLiteRepository) IsSynced(ctx context.Context, id int64) (bool, error) {
	var synced bool
	err := r.db.QueryRowContext(ctx,
		`SELECT synced_at IS NOT NULL FROM transactions WHERE id = ?`, id).Scan(&synced)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ledger.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("%w: check sync state: %w", ledger.ErrPersistence, err)
	}
	return synced, nil
}

// MarkSyncError keeps the transaction pending and stores the last failure.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET sync_error = ? WHERE id = ?`, reason, id)
	if err != nil {
		return fmt.Errorf("%w: mark transaction sync error: %w", ledger.ErrPersistence, err)
	}

	r.logger.WarnContext(ctx, "Transaction marked with sync error", log.FieldTxID, id, log.FieldError, reason)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                    core.Transaction
		amount, kind          string
		category, description sql.NullString
		recordedAt            int64
	)
	if err := row.Scan(&tx.ID, &amount, &kind, &category, &description, &tx.Author, &recordedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tx, err
		}
		return tx, fmt.Errorf("%w: scan transaction: %w", ledger.ErrPersistence, err)
	}
	return finishScan(tx, amount, kind, category.String, description.String, time.Unix(0, recordedAt))
}

func finishScan(tx core.Transaction, amount, kind, category, description string, recordedAt time.Time) (core.Transaction, error) {
	money, err := core.ParseMoney(amount)
	if err != nil {
		return tx, fmt.Errorf("%w: transaction %d amount %q: %w", ledger.ErrPersistence, tx.ID, amount, err)
	}
	tx.Amount = money
	tx.Kind = core.Kind(kind)
	tx.Category = category
	tx.Description = description
	tx.RecordedAt = recordedAt
	return tx, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
