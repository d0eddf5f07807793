package repomanager

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dmitrijs2005/todovault/internal/filex"
	"github.com/dmitrijs2005/todovault/internal/logging"
	"github.com/dmitrijs2005/todovault/internal/server/repositories/tasks"
)

// gormWriter routes gorm's printf-style log lines into the service logger.
type gormWriter struct {
	logger logging.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.logger.Warn(context.Background(), fmt.Sprintf(format, args...))
}

func openSQLite(ctx context.Context, path string, logger logging.Logger) (*Manager, error) {
	if !strings.Contains(path, ":memory:") && !strings.Contains(path, "mode=memory") {
		if _, err := filex.EnsureParentDir(strings.Split(strings.TrimPrefix(path, "file:"), "?")[0]); err != nil {
			return nil, unavailable("create sqlite dir", err)
		}
	}

	dbLogger := gormlogger.New(gormWriter{logger: logger}, gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, unavailable("open sqlite", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, unavailable("open sqlite", err)
	}

	repo := tasks.NewGormRepository(db)
	if err := repo.AutoMigrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &Manager{
		Tasks:   repo,
		closers: []func(context.Context) error{func(context.Context) error { return sqlDB.Close() }},
	}, nil
}
