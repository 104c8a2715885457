package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3/database"

	"github.com/joseph-ayodele/spendify/internal/common"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ConfigFrom maps the application database settings onto a repository Config.
func ConfigFrom(c common.DatabaseConfig) Config {
	return Config{
		DSN:              c.DSN,
		MaxConns:         c.MaxConns,
		MinConns:         c.MinConns,
		MaxConnLifetime:  c.MaxConnLifetime,
		MaxConnIdleTime:  c.MaxConnIdleTime,
		DialTimeout:      c.DialTimeout,
		StatementTimeout: c.StatementTimeout,
	}
}

func (c Config) isPostgres() bool {
	return common.DatabaseConfig{DSN: c.DSN}.IsPostgres()
}

// Open connects to the configured store, migrates it, and returns the repository.
// Postgres URLs get a pgx pool; anything else is treated as a SQLite path.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (ReceiptRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.isPostgres() {
		return openPostgres(ctx, cfg, logger)
	}
	return openSQLite(ctx, cfg, logger)
}

func openSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*SQLiteStore, error) {
	path := strings.TrimPrefix(cfg.DSN, "sqlite://")
	logger.Info("connecting to database", "driver", "sqlite", "path", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time; also keeps :memory: databases on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	if err := Migrate(ctx, db, database.DialectSQLite3, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("successfully connected to database")
	return NewSQLiteStore(db, logger), nil
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*PostgresStore, error) {
	logger.Info("connecting to database", "driver", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database url", "error", err)
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "spendify"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	dialCtx, cancel := common.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, fmt.Errorf("connect: %w", err)
	}

	// goose works on database/sql
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()
	if err := Migrate(ctx, db, database.DialectPostgres, logger); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("successfully connected to database")
	return NewPostgresStore(pool, logger), nil
}

// HealthCheck pings the store, bounded by timeout when positive.
func HealthCheck(ctx context.Context, repo ReceiptRepository, timeout time.Duration, logger *slog.Logger) error {
	ctx, cancel := common.WithTimeout(ctx, timeout)
	defer cancel()
	if err := repo.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
