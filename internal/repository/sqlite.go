package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/entity"
)

// SQLiteStore keeps receipts in a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ ReceiptRepository = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteStore{db: db, logger: logger}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteReceipt(row scanner) (entity.Receipt, error) {
	var r entity.Receipt
	var createdAt any
	if err := row.Scan(&r.ID, &r.Filename, &r.Merchant, &r.Date, &r.Total, &r.Tax, &r.Category,
		&r.TaxRate, &r.Currency, &r.Status, &r.ImageURL, &createdAt); err != nil {
		return entity.Receipt{}, err
	}
	ts, err := parseCreatedAt(createdAt)
	if err != nil {
		return entity.Receipt{}, err
	}
	r.CreatedAt = ts
	return r, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]entity.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, listReceiptsQuery)
	if err != nil {
		s.logger.Error("failed to list receipts", "error", err)
		return nil, fmt.Errorf("list receipts: %w", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	out := make([]entity.Receipt, 0)
	for rows.Next() {
		r, err := scanSQLiteReceipt(rows)
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

func (s *SQLiteStore) Get(ctx context.Context, id string) (entity.Receipt, error) {
	r, err := scanSQLiteReceipt(s.db.QueryRowContext(ctx, getReceiptQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Receipt{}, common.NotFoundError("receipt not found")
	}
	if err != nil {
		return entity.Receipt{}, fmt.Errorf("get receipt: %w", errors.Join(common.ErrDatabase, err))
	}
	return r, nil
}

func (s *SQLiteStore) Create(ctx context.Context, r entity.Receipt) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if _, err := s.db.ExecContext(ctx, insertReceiptQuery, insertArgs(r, r.CreatedAt.UTC().Format(sqliteTimeLayout))...); err != nil {
		s.logger.Error("failed to insert receipt", "id", r.ID, "error", err)
		return fmt.Errorf("insert receipt: %w", errors.Join(common.ErrDatabase, err))
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, patch entity.ReceiptPatch) error {
	res, err := s.db.ExecContext(ctx, updateReceiptQuery, updateArgs(id, patch)...)
	if err != nil {
		s.logger.Error("failed to update receipt", "id", id, "error", err)
		return fmt.Errorf("update receipt: %w", errors.Join(common.ErrDatabase, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update receipt: %w", errors.Join(common.ErrDatabase, err))
	}
	if n == 0 {
		return common.NotFoundError("receipt not found")
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", errors.Join(common.ErrDatabase, err))
	}
	defer func() { _ = tx.Rollback() }()

	var filename string
	if err := tx.QueryRowContext(ctx, selectFilenameQuery, id).Scan(&filename); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.NotFoundError("receipt not found")
		}
		return "", fmt.Errorf("lookup receipt: %w", errors.Join(common.ErrDatabase, err))
	}
	if _, err := tx.ExecContext(ctx, deleteReceiptQuery, id); err != nil {
		return "", fmt.Errorf("delete receipt: %w", errors.Join(common.ErrDatabase, err))
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", errors.Join(common.ErrDatabase, err))
	}
	return filename, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
