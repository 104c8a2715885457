package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/spendify/internal/entity"
)

type staticLister struct {
	recs []entity.Receipt
	err  error
}

func (l staticLister) List(context.Context) ([]entity.Receipt, error) {
	return l.recs, l.err
}

func testReceipts() []entity.Receipt {
	return []entity.Receipt{
		{ID: "1", Merchant: "ACME", Date: "12.03.2024", Total: "1234.56", Tax: "3.63", Category: "Grocery", Currency: "€", Status: "Tamamlandı", ImageURL: "/static/1.jpg"},
		{ID: "2", Merchant: "BIM", Date: "13.03.2024", Total: "10.00", Tax: "1.00", Category: "Grocery", Currency: "", Status: "Tamamlandı"},
		{ID: "3", Merchant: "Shell", Date: "01.04.2024", Total: "bad", Tax: "", Category: "Fuel", Currency: "₺", Status: "Tamamlandı"},
		{ID: "4", Merchant: "Opet", Date: "02.04.2024", Total: "5.50", Tax: "0.50", Category: "Fuel", Currency: "₺", TaxRate: "%10"},
	}
}

func readRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	return rows
}

func TestExportXLSX_AllReceipts(t *testing.T) {
	svc := NewService(staticLister{recs: testReceipts()}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	data, err := svc.ExportXLSX(context.Background(), Filter{})
	require.NoError(t, err)
	rows := readRows(t, data)

	assert.Equal(t, Headers, rows[0])
	require.GreaterOrEqual(t, len(rows), 5)
	assert.Equal(t, []string{"12.03.2024", "ACME", "Grocery", "1234.56", "3.63", "", "€", "Tamamlandı", "/static/1.jpg"}, rows[1])
	assert.Equal(t, "₺", rows[2][6], "missing currency exported as the default")
	assert.Equal(t, "bad", rows[3][3])

	// blank row, then the totals block
	assert.Equal(t, "Totals", rows[6][0])
	assert.Equal(t, "₺", rows[7][0])
	assert.Equal(t, "15.5", rows[7][3])
	assert.Equal(t, "€", rows[8][0])
	assert.Equal(t, "1234.56", rows[8][3])
}

func TestExportXLSX_Filtered(t *testing.T) {
	svc := NewService(staticLister{recs: testReceipts()}, nil)
	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	data, err := svc.ExportXLSX(context.Background(), Filter{Currency: "₺", From: &from})
	require.NoError(t, err)
	rows := readRows(t, data)

	assert.Equal(t, "Shell", rows[1][1])
	assert.Equal(t, "Opet", rows[2][1])
	assert.Equal(t, "Totals", rows[4][0])
	assert.Equal(t, "5.5", rows[5][3])
}

func TestExportXLSX_ListError(t *testing.T) {
	svc := NewService(staticLister{err: errors.New("boom")}, nil)
	_, err := svc.ExportXLSX(context.Background(), Filter{})
	assert.ErrorContains(t, err, "boom")
}

func TestSortedCurrencies(t *testing.T) {
	got := sortedCurrencies(map[string]decimal.Decimal{"£": {}, "X": {}, "₺": {}, "$": {}})
	assert.Equal(t, []string{"₺", "$", "£", "X"}, got)
}
