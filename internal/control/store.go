package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/vietddude/slmhealth/internal/core/config"
	redisclient "github.com/vietddude/slmhealth/internal/infra/redis"
	"github.com/vietddude/slmhealth/internal/infra/storage"
	"github.com/vietddude/slmhealth/internal/infra/storage/memory"
	"github.com/vietddude/slmhealth/internal/infra/storage/postgres"
)

// Store is the lifecycle repository selected by configuration.
type Store struct {
	storage.LifecycleRepository

	backend   string
	db        *postgres.DB
	mem       *memory.LifecycleRepo
	stateFile string
}

// OpenStore connects to the configured backend. PostgreSQL schemas are migrated on open.
func OpenStore(ctx context.Context, cfg *config.AppConfig) (*Store, error) {
	s := &Store{backend: cfg.Storage.Backend}

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		var db *postgres.DB
		err := connectWithRetry(ctx, config.BackendPostgres, DefaultRetryConfig, func(ctx context.Context) error {
			var err error
			db, err = postgres.NewDB(ctx, cfg.Database)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		s.db = db
		s.LifecycleRepository = postgres.NewLifecycleRepo(db)
		slog.Info("Using PostgreSQL storage", "driver", cfg.Database.Driver)

	case config.BackendRedis:
		var client *redisclient.Client
		err := connectWithRetry(ctx, config.BackendRedis, DefaultRetryConfig, func(ctx context.Context) error {
			var err error
			client, err = redisclient.NewClient(cfg.Redis)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		s.LifecycleRepository = redisclient.NewLifecycleRepo(client)
		slog.Info("Using Redis storage")

	default:
		mem, err := openMemory(cfg.Storage.StateFile)
		if err != nil {
			return nil, err
		}
		s.mem = mem
		s.stateFile = cfg.Storage.StateFile
		s.LifecycleRepository = mem
		slog.Info("Using Memory storage", "state_file", cfg.Storage.StateFile)
	}

	return s, nil
}

func openMemory(path string) (*memory.LifecycleRepo, error) {
	if path == "" {
		return memory.NewLifecycleRepo(), nil
	}
	repo, err := memory.LoadStateFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// Created on first Persist.
		return memory.NewLifecycleRepo(), nil
	}
	return repo, err
}

// Backend returns the configured backend name.
func (s *Store) Backend() string { return s.backend }

// DB returns the PostgreSQL handle, or nil for other backends.
func (s *Store) DB() *postgres.DB { return s.db }

// Persist flushes in-memory state to its state file. Other backends write through.
func (s *Store) Persist() error {
	if s.mem == nil || s.stateFile == "" {
		return nil
	}
	return s.mem.SaveStateFile(s.stateFile)
}
