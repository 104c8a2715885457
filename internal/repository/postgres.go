package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/entity"
)

// PgxPool abstracts the subset of pgxpool.Pool the store uses so tests can mock it.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var _ PgxPool = (*pgxpool.Pool)(nil)

// PostgresStore keeps receipts in Postgres.
type PostgresStore struct {
	pool   PgxPool
	logger *slog.Logger
}

var _ ReceiptRepository = (*PostgresStore)(nil)

var (
	pgListReceiptsQuery   = rebind(listReceiptsQuery)
	pgGetReceiptQuery     = rebind(getReceiptQuery)
	pgInsertReceiptQuery  = rebind(insertReceiptQuery)
	pgUpdateReceiptQuery  = rebind(updateReceiptQuery)
	pgDeleteReturningFile = rebind(`DELETE FROM receipts WHERE id = ? RETURNING COALESCE(filename, '')`)
)

func NewPostgresStore(pool PgxPool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

func scanPgReceipt(row pgx.Row) (entity.Receipt, error) {
	var r entity.Receipt
	var createdAt time.Time
	if err := row.Scan(&r.ID, &r.Filename, &r.Merchant, &r.Date, &r.Total, &r.Tax, &r.Category,
		&r.TaxRate, &r.Currency, &r.Status, &r.ImageURL, &createdAt); err != nil {
		return entity.Receipt{}, err
	}
	r.CreatedAt = createdAt.UTC()
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]entity.Receipt, error) {
	rows, err := s.pool.Query(ctx, pgListReceiptsQuery)
	if err != nil {
		s.logger.Error("failed to list receipts", "error", err)
		return nil, fmt.Errorf("list receipts: %w", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	out := make([]entity.Receipt, 0)
	for rows.Next() {
		r, err := scanPgReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list receipts: %w", errors.Join(common.ErrDatabase, err))
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (entity.Receipt, error) {
	r, err := scanPgReceipt(s.pool.QueryRow(ctx, pgGetReceiptQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.Receipt{}, common.NotFoundError("receipt not found")
	}
	if err != nil {
		return entity.Receipt{}, fmt.Errorf("get receipt: %w", errors.Join(common.ErrDatabase, err))
	}
	return r, nil
}

func (s *PostgresStore) Create(ctx context.Context, r entity.Receipt) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if _, err := s.pool.Exec(ctx, pgInsertReceiptQuery, insertArgs(r, r.CreatedAt.UTC())...); err != nil {
		s.logger.Error("failed to insert receipt", "id", r.ID, "error", err)
		return fmt.Errorf("insert receipt: %w", errors.Join(common.ErrDatabase, err))
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, patch entity.ReceiptPatch) error {
	tag, err := s.pool.Exec(ctx, pgUpdateReceiptQuery, updateArgs(id, patch)...)
	if err != nil {
		s.logger.Error("failed to update receipt", "id", id, "error", err)
		return fmt.Errorf("update receipt: %w", errors.Join(common.ErrDatabase, err))
	}
	if tag.RowsAffected() == 0 {
		return common.NotFoundError("receipt not found")
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (string, error) {
	var filename string
	err := s.pool.QueryRow(ctx, pgDeleteReturningFile, id).Scan(&filename)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", common.NotFoundError("receipt not found")
	}
	if err != nil {
		return "", fmt.Errorf("delete receipt: %w", errors.Join(common.ErrDatabase, err))
	}
	return filename, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
