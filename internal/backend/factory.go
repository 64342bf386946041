package backend

import (
	"context"
	"fmt"

	"ledgerbot/internal/amqp"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/ledger/memory"
	"ledgerbot/internal/log"
	"ledgerbot/internal/services"
	"ledgerbot/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store ledger.Store
		ping  PingFunc
	)
	switch config.Type {
	case SQLiteBackend:
		repo, err := f.openSQLite(config)
		if err != nil {
			return nil, err
		}
		store, ping = repo, repo.Ping
	case PostgresBackend:
		repo, err := f.openPostgres(ctx, config)
		if err != nil {
			return nil, err
		}
		store, ping = repo, repo.Ping
	case MemoryBackend:
		store = memory.New()
		ping = func(context.Context) error { return nil }
		f.logger.Warn("Initialized memory backend: transactions are lost on restart")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	publisher := f.createPublisher(config)
	service := services.NewTransactionService(store, publisher, f.logger)

	f.logger.Info("Initialized backend",
		"type", config.Type.String(),
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Store:   service,
		Ping:    ping,
		Cleanup: service.Close,
	}, nil
}

// CreateSyncStore implements Factory.CreateSyncStore
func (f *DefaultFactory) CreateSyncStore(ctx context.Context, config Config) (ledger.SyncStore, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.openSQLite(config)
	case PostgresBackend:
		return f.openPostgres(ctx, config)
	default:
		return nil, fmt.Errorf("backend %s cannot be shared with the worker", config.Type)
	}
}

func (f *DefaultFactory) openSQLite(config Config) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, storage.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite repository", "db_path", config.SQLiteDBPath)
	return repo, nil
}

func (f *DefaultFactory) openPostgres(ctx context.Context, config Config) (*storage.PostgresRepository, error) {
	repo, err := storage.NewPostgresRepository(ctx, config.DatabaseURL, storage.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
	}
	f.logger.Info("Initialized Postgres repository")
	return repo, nil
}

// createPublisher returns nil when events are disabled or the broker is unusable.
func (f *DefaultFactory) createPublisher(config Config) services.EventPublisher {
	if config.AMQPURL == "" {
		return nil
	}
	if !config.Type.Shared() {
		f.logger.Warn("AMQP configured with the memory backend: the worker cannot read these transactions, events disabled")
		return nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
