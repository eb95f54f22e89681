package backend

import (
	"context"
	"fmt"

	"cafeledger/internal/config"
	"cafeledger/internal/log"
	"cafeledger/internal/settings"
	"cafeledger/internal/storage"
	"cafeledger/internal/storage/postgres"
	"cafeledger/internal/store/memory"

	"github.com/go-redis/redis/v8"
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
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	repo.WithLogger(f.logger)

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{Ledger: repo, Ping: repo.Ping, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*Result, error) {
	repo, err := postgres.Open(ctx, config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}

	f.logger.Info("Initialized postgres backend")

	return &Result{Ledger: repo, Ping: repo.Ping, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Result, error) {
	st := memory.New()
	if config.DataDirectory != "" {
		var err error
		st, err = memory.NewFromFiles(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to seed memory backend: %w", err)
		}
	}

	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)

	return &Result{
		Ledger:  st,
		Ping:    func(context.Context) error { return nil },
		Cleanup: func() error { return nil },
	}, nil
}

// CreateSettings implements Factory.CreateSettings
func (f *DefaultFactory) CreateSettings(ctx context.Context, cfg Config) (*SettingsResult, error) {
	if cfg.SettingsType == config.SettingsRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rs, err := settings.NewRedisStore(ctx, client, 0)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		f.logger.Info("Initialized redis settings", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return &SettingsResult{Store: rs, Ping: rs.Ping, Cleanup: rs.Close}, nil
	}

	fs, err := settings.NewFileStore(cfg.SettingsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize settings directory: %w", err)
	}
	f.logger.Info("Initialized file settings", "dir", cfg.SettingsDir)
	return &SettingsResult{
		Store:   fs,
		Ping:    func(context.Context) error { return nil },
		Cleanup: func() error { return nil },
	}, nil
}
