package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// addCurrencyColumn adds the currency column to tables created before it existed. Some of
// those already carry it, and SQLite has no ADD COLUMN IF NOT EXISTS, so it is a Go migration.
// It runs on goose's transaction: SQLite stores hold a single connection.
func addCurrencyColumn(dialect database.Dialect) *goose.Migration {
	up := func(ctx context.Context, tx *sql.Tx) error {
		if dialect == database.DialectPostgres {
			_, err := tx.ExecContext(ctx, `ALTER TABLE receipts ADD COLUMN IF NOT EXISTS currency TEXT`)
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM pragma_table_info('receipts') WHERE name = 'currency'`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx, `ALTER TABLE receipts ADD COLUMN currency TEXT`)
		return err
	}
	down := func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `ALTER TABLE receipts DROP COLUMN currency`)
		return err
	}
	return goose.NewGoMigration(2, &goose.GoFunc{RunTx: up}, &goose.GoFunc{RunTx: down})
}

// Migrate brings the receipts schema up to date.
func Migrate(ctx context.Context, db *sql.DB, dialect database.Dialect, logger *slog.Logger) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys, goose.WithGoMigrations(addCurrencyColumn(dialect)))
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		logger.Error("db.migrate.failed", "dialect", dialect, "error", err)
		return fmt.Errorf("migrate: %w", err)
	}
	for _, r := range results {
		logger.Info("db.migrate.applied",
			"version", r.Source.Version,
			"path", r.Source.Path,
			"elapsed_ms", r.Duration.Milliseconds(),
		)
	}
	return nil
}
