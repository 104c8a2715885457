package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/spendify/constants"
	"github.com/joseph-ayodele/spendify/internal/entity"
	"github.com/joseph-ayodele/spendify/internal/receipts"
)

const SheetName = "Receipts"

// Headers are the column titles of the receipts sheet, in order.
var Headers = []string{"Date", "Merchant", "Category", "Total", "Tax", "Tax Rate", "Currency", "Status", "Image"}

// ReceiptLister is the slice of the receipt store the exporter reads from.
type ReceiptLister interface {
	List(ctx context.Context) ([]entity.Receipt, error)
}

// Service produces XLSX bytes for receipt exports.
type Service struct {
	receipts ReceiptLister
	logger   *slog.Logger
}

func NewService(lister ReceiptLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{receipts: lister, logger: logger}
}

// Filter selects receipts for export. An empty Currency exports every currency;
// with a date range, receipts whose date cannot be read are left out.
type Filter = receipts.SummaryFilter

func matches(r entity.Receipt, f Filter) bool {
	if f.Currency != "" {
		cur := r.Currency
		if cur == "" {
			cur = string(constants.DefaultCurrency)
		}
		if cur != f.Currency {
			return false
		}
	}
	if f.From == nil && f.To == nil {
		return true
	}
	day, err := receipts.ParseReceiptDate(r.Date)
	if err != nil {
		return false
	}
	if f.From != nil && day.Before(*f.From) {
		return false
	}
	if f.To != nil && day.After(*f.To) {
		return false
	}
	return true
}

// ExportXLSX returns an XLSX workbook (as bytes) with one row per matching receipt
// followed by a per-currency totals block.
func (s *Service) ExportXLSX(ctx context.Context, filter Filter) ([]byte, error) {
	start := time.Now()

	all, err := s.receipts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	recs := make([]entity.Receipt, 0, len(all))
	for _, r := range all {
		if matches(r, filter) {
			recs = append(recs, r)
		}
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(SheetName, cell, v)
	}

	for i, h := range Headers {
		write(i+1, 1, h)
	}
	_ = f.SetCellStyle(SheetName, "A1", "I1", bold)

	totals := map[string]decimal.Decimal{}
	row := 2
	for _, r := range recs {
		currency := r.Currency
		if currency == "" {
			currency = string(constants.DefaultCurrency)
		}
		write(1, row, r.Date)
		write(2, row, r.Merchant)
		write(3, row, r.Category)
		write(4, row, amountCell(r.Total))
		write(5, row, amountCell(r.Tax))
		write(6, row, r.TaxRate)
		write(7, row, currency)
		write(8, row, r.Status)
		write(9, row, r.ImageURL)

		if d, err := decimal.NewFromString(strings.TrimSpace(r.Total)); err == nil {
			totals[currency] = totals[currency].Add(d)
		}
		row++
	}

	// totals block, one blank row below the data
	row++
	write(1, row, "Totals")
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetCellStyle(SheetName, cell, cell, bold)
	row++
	for _, cur := range sortedCurrencies(totals) {
		write(1, row, cur)
		v, _ := totals[cur].Round(2).Float64()
		write(4, row, v)
		row++
	}

	_ = f.SetColWidth(SheetName, "A", "A", 14)
	_ = f.SetColWidth(SheetName, "B", "B", 28)
	_ = f.SetColWidth(SheetName, "C", "C", 18)
	_ = f.SetColWidth(SheetName, "D", "F", 12)
	_ = f.SetColWidth(SheetName, "G", "H", 12)
	_ = f.SetColWidth(SheetName, "I", "I", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"currency", filter.Currency,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// amountCell writes numeric amounts as numbers and keeps anything else as the text the user saved.
func amountCell(s string) any {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return s
	}
	v, _ := d.Float64()
	return v
}

// sortedCurrencies orders the canonical currencies first, then anything else alphabetically.
func sortedCurrencies(totals map[string]decimal.Decimal) []string {
	rank := map[string]int{}
	for i, c := range constants.CurrencyStrings() {
		rank[c] = i
	}
	out := make([]string, 0, len(totals))
	for c := range totals {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := rank[out[i]]
		rj, jok := rank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}
