package backend

import (
	"context"

	"ledgerbot/internal/ledger"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// PingFunc checks that the backend is reachable
type PingFunc func(ctx context.Context) error

// BackendResult contains the store instance, a readiness probe and a cleanup function
type BackendResult struct {
	Store   ledger.Store
	Ping    PingFunc
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the bot's store, publishing events when AMQP is configured
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateSyncStore opens the store the mirror worker reads
	CreateSyncStore(ctx context.Context, config Config) (ledger.SyncStore, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Event publishing (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Shared reports whether another process can read what this backend stores
func (bt BackendType) Shared() bool {
	return bt == SQLiteBackend || bt == PostgresBackend
}
