package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendtrack/internal/config"
	"spendtrack/internal/records/memory"
	"spendtrack/internal/storage"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:          t,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		DataDirectory: appConfig.DataDir,
	}, nil
}

// Factory creates backends.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the backend described by cfg.
func (f *Factory) Create(cfg Config) (*Result, error) {
	switch cfg.Type {
	case SQLite:
		return f.createSQLite(cfg)
	case Memory:
		return f.createMemory(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func (f *Factory) createSQLite(cfg Config) (*Result, error) {
	if cfg.SQLiteDBPath == "" {
		return nil, fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	if err := f.seedCategories(repo, dataDir(cfg)); err != nil {
		_ = repo.Close()
		return nil, err
	}
	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &Result{
		Store:      repo,
		Categories: repo,
		Ping:       repo.Ping,
		Cleanup:    repo.Close,
	}, nil
}

// seedCategories upserts the seed file into the categories table. The
// migration already inserts the defaults, so a missing file changes nothing.
func (f *Factory) seedCategories(repo *storage.SQLiteRepository, dir string) error {
	cats := memory.ReadSeedFile(dir)
	if len(cats) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.UpsertCategories(ctx, cats); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	f.logger.Info("Seeded categories", "count", len(cats), "data_directory", dir)
	return nil
}

func dataDir(cfg Config) string {
	if cfg.DataDirectory == "" {
		return "data"
	}
	return cfg.DataDirectory
}

func (f *Factory) createMemory(cfg Config) *Result {
	dir := dataDir(cfg)
	store := memory.NewFromFiles(dir)
	f.logger.Info("Initialized memory backend", "data_directory", dir)
	return &Result{
		Store:      store,
		Categories: store,
		Ping:       func(context.Context) error { return nil },
		Cleanup:    func() error { return nil },
	}
}
