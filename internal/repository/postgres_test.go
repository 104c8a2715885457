package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/entity"
)

var receiptRowColumns = []string{
	"id", "filename", "merchant", "date", "total", "tax", "category",
	"tax_rate", "currency", "status", "image_url", "created_at",
}

func TestPostgresStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(pgListReceiptsQuery)).
		WillReturnRows(pgxmock.NewRows(receiptRowColumns).
			AddRow("b", "b.jpg", "BIM", "13.03.2024", "10.00", "1.00", "Market", "", "₺", "Tamamlandı", "/static/b.jpg", now.Add(time.Hour)).
			AddRow("a", "a.jpg", "ACME", "12.03.2024", "20.00", "2.00", "Market", "", "€", "Tamamlandı", "/static/a.jpg", now))

	list, err := NewPostgresStore(mock, quietLogger()).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "€", list[1].Currency)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := sampleReceipt("a", time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC))
	mock.ExpectExec(regexp.QuoteMeta(pgInsertReceiptQuery)).
		WithArgs("a", "a.jpg", "ACME MARKET", "12.03.2024", "1234.56", "3.63", "Market", "", "€",
			"Tamamlandı", "/static/a.jpg", r.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPostgresStore(mock, quietLogger()).Create(context.Background(), r))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(pgGetReceiptQuery)).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(receiptRowColumns))

	_, err = NewPostgresStore(mock, quietLogger()).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(pgUpdateReceiptQuery)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	merchant := "X"
	err = NewPostgresStore(mock, quietLogger()).Update(context.Background(), "missing", entity.ReceiptPatch{Merchant: &merchant})
	assert.ErrorIs(t, err, common.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(pgDeleteReturningFile)).
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows([]string{"filename"}).AddRow("a.jpg"))
	mock.ExpectQuery(regexp.QuoteMeta(pgDeleteReturningFile)).
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows([]string{"filename"}))

	store := NewPostgresStore(mock, quietLogger())
	filename, err := store.Delete(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", filename)

	_, err = store.Delete(context.Background(), "a")
	assert.ErrorIs(t, err, common.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
