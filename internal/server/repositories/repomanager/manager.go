// Package repomanager opens the configured task store, applies its schema
// and hands back the repository together with a way to release it.
package repomanager

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/logging"
	"github.com/dmitrijs2005/todovault/internal/server/config"
	"github.com/dmitrijs2005/todovault/internal/server/repositories/tasks"
)

// Manager owns an opened store.
type Manager struct {
	Driver  string
	Tasks   tasks.Repository
	closers []func(context.Context) error
}

// Close releases every resource opened for the store.
func (m *Manager) Close(ctx context.Context) error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open connects to the store selected by cfg.StoreDriver and prepares its
// schema. Connection failures wrap common.ErrStoreUnavailable.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Manager, error) {
	logger = logger.With("module", "repomanager", "driver", cfg.StoreDriver)

	var (
		m   *Manager
		err error
	)
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		m, err = openPostgres(ctx, cfg.DatabaseDSN)
	case config.DriverMongo:
		m, err = openMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverSQLite:
		m, err = openSQLite(ctx, cfg.SQLitePath, logger)
	case config.DriverMemory:
		m = &Manager{Tasks: tasks.NewMemoryRepository()}
	default:
		return nil, common.NewFieldError("store_driver", fmt.Sprintf("unknown driver %q", cfg.StoreDriver))
	}
	if err != nil {
		return nil, err
	}

	m.Driver = cfg.StoreDriver
	logger.Info(ctx, "task store opened")
	return m, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrStoreUnavailable, op, err)
}
