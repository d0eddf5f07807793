package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/todovault/internal/server/migrations"
	"github.com/dmitrijs2005/todovault/internal/server/repositories/tasks"
)

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func openPostgres(ctx context.Context, dsn string) (*Manager, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, unavailable("open postgres", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, unavailable("ping postgres", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, unavailable("migrate postgres", err)
	}

	return &Manager{
		Tasks:   tasks.NewPostgresRepository(db),
		closers: []func(context.Context) error{func(context.Context) error { return db.Close() }},
	}, nil
}
