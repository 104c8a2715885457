package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/spendify/internal/entity"
)

// ReceiptRepository stores confirmed receipts.
type ReceiptRepository interface {
	// List returns every receipt, newest first.
	List(ctx context.Context) ([]entity.Receipt, error)
	Get(ctx context.Context, id string) (entity.Receipt, error)
	Create(ctx context.Context, r entity.Receipt) error
	// Update applies the non-nil patch fields; common.ErrNotFound when id is unknown.
	Update(ctx context.Context, id string, patch entity.ReceiptPatch) error
	// Delete removes the row and returns its stored filename; common.ErrNotFound when id is unknown.
	Delete(ctx context.Context, id string) (string, error)
	Ping(ctx context.Context) error
	Close() error
}

const receiptColumns = `id, COALESCE(filename, ''), COALESCE(merchant, ''), COALESCE(date, ''),
	COALESCE(total, ''), COALESCE(tax, ''), COALESCE(category, ''), COALESCE(tax_rate, ''),
	COALESCE(currency, ''), COALESCE(status, ''), COALESCE(image_url, ''), created_at`

var (
	listReceiptsQuery = `SELECT ` + receiptColumns + ` FROM receipts ORDER BY created_at DESC`
	getReceiptQuery   = `SELECT ` + receiptColumns + ` FROM receipts WHERE id = ?`

	insertReceiptQuery = `INSERT INTO receipts
	(id, filename, merchant, date, total, tax, category, tax_rate, currency, status, image_url, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	updateReceiptQuery = `UPDATE receipts SET
	merchant = COALESCE(?, merchant),
	date = COALESCE(?, date),
	total = COALESCE(?, total),
	tax = COALESCE(?, tax),
	category = COALESCE(?, category),
	tax_rate = COALESCE(?, tax_rate),
	currency = COALESCE(?, currency)
	WHERE id = ?`

	selectFilenameQuery = `SELECT COALESCE(filename, '') FROM receipts WHERE id = ?`
	deleteReceiptQuery  = `DELETE FROM receipts WHERE id = ?`
)

func insertArgs(r entity.Receipt, createdAt any) []any {
	return []any{r.ID, r.Filename, r.Merchant, r.Date, r.Total, r.Tax, r.Category, r.TaxRate,
		r.Currency, r.Status, r.ImageURL, createdAt}
}

func updateArgs(id string, p entity.ReceiptPatch) []any {
	return []any{p.Merchant, p.Date, p.Total, p.Tax, p.Category, p.TaxRate, p.Currency, id}
}

// rebind rewrites ? placeholders into $1..$n for Postgres.
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqliteTimeLayout matches what CURRENT_TIMESTAMP writes, plus milliseconds so rows
// created within one second still sort.
const sqliteTimeLayout = "2006-01-02 15:04:05.000"

var createdAtLayouts = []string{
	sqliteTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05Z07:00",
	time.RFC3339Nano,
}

// parseCreatedAt converts whatever the driver produced for created_at into a UTC time.
func parseCreatedAt(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case []byte:
		return parseCreatedAt(string(t))
	case string:
		for _, layout := range createdAtLayouts {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized created_at %q", t)
	case int64:
		return time.Unix(t, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported created_at type %T", v)
	}
}
