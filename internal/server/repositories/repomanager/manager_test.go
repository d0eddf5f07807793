package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/logging"
	"github.com/dmitrijs2005/todovault/internal/server/config"
	"github.com/dmitrijs2005/todovault/internal/server/repositories/tasks"
)

func cfgWith(driver string) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.StoreDriver = driver
	return c
}

func stubSQL(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	origOpen := sqlOpen
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) {
		if driverName != "pgx" {
			return nil, errors.New("unexpected driver " + driverName)
		}
		return db, nil
	}
	t.Cleanup(func() { sqlOpen = origOpen })
	return mock
}

func stubGoose(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := gooseUpContext
	gooseUpContext = fn
	t.Cleanup(func() { gooseUpContext = orig })
}

func TestOpen_Memory(t *testing.T) {
	m, err := Open(context.Background(), cfgWith(config.DriverMemory), logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &tasks.MemoryRepository{}, m.Tasks)
	assert.Equal(t, config.DriverMemory, m.Driver)
	assert.NoError(t, m.Close(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), cfgWith("redis"), logging.Nop())
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestOpen_PostgresRunsMigrations(t *testing.T) {
	mock := stubSQL(t)
	mock.ExpectPing()
	mock.ExpectClose()

	migrated := false
	stubGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		migrated = dir == "."
		return nil
	})

	m, err := Open(context.Background(), cfgWith(config.DriverPostgres), logging.Nop())
	require.NoError(t, err)
	assert.True(t, migrated)
	assert.IsType(t, &tasks.PostgresRepository{}, m.Tasks)

	require.NoError(t, m.Close(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_PostgresPingFails(t *testing.T) {
	mock := stubSQL(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	_, err := Open(context.Background(), cfgWith(config.DriverPostgres), logging.Nop())
	assert.True(t, errors.Is(err, common.ErrStoreUnavailable))
}

func TestOpen_PostgresMigrationFails(t *testing.T) {
	mock := stubSQL(t)
	mock.ExpectPing()
	mock.ExpectClose()
	stubGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	})

	_, err := Open(context.Background(), cfgWith(config.DriverPostgres), logging.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStoreUnavailable))
	assert.Contains(t, err.Error(), "boom")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_SQLiteCreatesDirectoryAndSchema(t *testing.T) {
	cfg := cfgWith(config.DriverSQLite)
	cfg.SQLitePath = filepath.Join(t.TempDir(), "nested", "tasks.db")

	m, err := Open(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	list, err := m.Tasks.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, m.Tasks.Ping(context.Background()))
}

func TestOpen_MongoIsLazy(t *testing.T) {
	cfg := cfgWith(config.DriverMongo)
	cfg.MongoURI = "mongodb://127.0.0.1:1"

	m, err := Open(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &tasks.MongoRepository{}, m.Tasks)
	assert.NoError(t, m.Close(context.Background()))
}

func TestManager_CloseJoinsErrors(t *testing.T) {
	m := &Manager{closers: []func(context.Context) error{
		func(context.Context) error { return errors.New("first") },
		func(context.Context) error { return errors.New("second") },
	}}
	err := m.Close(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
}
