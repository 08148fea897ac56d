package backend

import (
	"context"
	"fmt"

	"salonledger/internal/log"
	"salonledger/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case JSONBackend:
		return f.createJSONStore(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteStore(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createJSONStore(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewFileRepository(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JSON store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized JSON store", "data_dir", config.DataDir)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSQLiteStore(ctx context.Context, config Config) (*BackendResult, error) {
	path := config.sqlitePath()
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite store", "db_path", path)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}
