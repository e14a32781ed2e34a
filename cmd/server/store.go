package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/protrack/production-engine/config"
	"github.com/protrack/production-engine/production"
	"github.com/protrack/production-engine/production/store"
	"github.com/protrack/production-engine/store/kv"
	"github.com/protrack/production-engine/store/postgres"
	"github.com/protrack/production-engine/store/sqlite"
)

// postgresConnectAttempts covers a database container that starts after us.
const postgresConnectAttempts = 10

// backend is a store the process owns and must close.
type backend interface {
	production.Store
	Reset(ctx context.Context) error
}

type memoryBackend struct{ *store.Memory }

func (memoryBackend) Close() error { return nil }

// openStore opens the configured backend. Schemas are migrated on open.
func openStore(cfg config.StoreConfig, logger *zap.Logger) (backend, func() error, error) {
	logger = logger.With(zap.String("driver", cfg.Driver))

	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite %s: %w", cfg.Path, err)
		}
		logger.Info("store opened", zap.String("path", cfg.Path))
		return s, s.Close, nil

	case config.DriverPostgres:
		s, err := postgres.Open(cfg.GetDSN(), postgresConnectAttempts, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, nil, err
		}
		logger.Info("store opened")
		return s, s.Close, nil

	case config.DriverBadger:
		s, err := kv.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening badger %s: %w", cfg.Path, err)
		}
		logger.Info("store opened", zap.String("path", cfg.Path))
		return s, s.Close, nil

	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		m := memoryBackend{store.NewMemory()}
		return m, m.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
