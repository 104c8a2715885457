package receipts

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/spendify/constants"
	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/entity"
)

const largestLimit = 5

// SummaryFilter narrows the receipts a Summary covers. From and To are inclusive days.
type SummaryFilter struct {
	Currency string
	From     *time.Time
	To       *time.Time
}

type CategoryTotal struct {
	Category string `json:"category"`
	Total    string `json:"total"`
	Percent  string `json:"percent"`
}

// Summary aggregates spending for one currency.
type Summary struct {
	Currency   string           `json:"currency"`
	From       string           `json:"from,omitempty"`
	To         string           `json:"to,omitempty"`
	Count      int              `json:"count"`
	Total      string           `json:"total"`
	Average    string           `json:"average"`
	Categories []CategoryTotal  `json:"categories"`
	Largest    []entity.Receipt `json:"largest"`
	// Skipped counts receipts of the currency left out for an unreadable amount or date.
	Skipped int `json:"skipped"`
}

// ParseSummaryFilter builds a filter from query-string style values. Empty values are ignored.
func ParseSummaryFilter(currency, from, to string) (SummaryFilter, error) {
	f := SummaryFilter{Currency: strings.TrimSpace(currency)}
	if f.Currency != "" && !constants.IsCanonicalCurrency(f.Currency) {
		return SummaryFilter{}, common.InvalidInputErrorf("currency must be one of %s", strings.Join(constants.CurrencyStrings(), " "))
	}
	if from != "" {
		t, err := ParseReceiptDate(from)
		if err != nil {
			return SummaryFilter{}, common.InvalidInputErrorf("from: %v", err)
		}
		f.From = &t
	}
	if to != "" {
		t, err := ParseReceiptDate(to)
		if err != nil {
			return SummaryFilter{}, common.InvalidInputErrorf("to: %v", err)
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return SummaryFilter{}, common.InvalidInputError("to must not be before from")
	}
	return f, nil
}

// receiptCurrency treats receipts saved without a currency as the default currency.
func receiptCurrency(r entity.Receipt) string {
	if r.Currency == "" {
		return string(constants.DefaultCurrency)
	}
	return r.Currency
}

func (f SummaryFilter) hasRange() bool {
	return f.From != nil || f.To != nil
}

func (f SummaryFilter) inRange(day time.Time) bool {
	if f.From != nil && day.Before(*f.From) {
		return false
	}
	if f.To != nil && day.After(*f.To) {
		return false
	}
	return true
}

// Summary totals the receipts matching filter.
func (s *Service) Summary(ctx context.Context, filter SummaryFilter) (Summary, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum := Summarize(recs, filter)
	s.logger.Debug("receipts.summary.ok", "currency", sum.Currency, "count", sum.Count, "skipped", sum.Skipped)
	return sum, nil
}

type amountedReceipt struct {
	receipt entity.Receipt
	amount  decimal.Decimal
}

// Summarize aggregates recs without touching storage.
func Summarize(recs []entity.Receipt, filter SummaryFilter) Summary {
	currency := filter.Currency
	if currency == "" {
		currency = string(constants.DefaultCurrency)
	}

	out := Summary{Currency: currency, Categories: []CategoryTotal{}, Largest: []entity.Receipt{}}
	if filter.From != nil {
		out.From = filter.From.Format("2006-01-02")
	}
	if filter.To != nil {
		out.To = filter.To.Format("2006-01-02")
	}

	total := decimal.Zero
	byCategory := map[string]decimal.Decimal{}
	var matched []amountedReceipt

	for _, r := range recs {
		if receiptCurrency(r) != currency {
			continue
		}
		if filter.hasRange() {
			day, err := ParseReceiptDate(r.Date)
			if err != nil {
				out.Skipped++
				continue
			}
			if !filter.inRange(day) {
				continue
			}
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(r.Total))
		if err != nil {
			out.Skipped++
			continue
		}

		out.Count++
		total = total.Add(amount)
		category := categoryLabel(r.Category)
		byCategory[category] = byCategory[category].Add(amount)
		matched = append(matched, amountedReceipt{receipt: r, amount: amount})
	}

	out.Total = total.StringFixed(2)
	out.Average = decimal.Zero.StringFixed(2)
	if out.Count > 0 {
		out.Average = total.Div(decimal.NewFromInt(int64(out.Count))).StringFixed(2)
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if c := byCategory[names[i]].Cmp(byCategory[names[j]]); c != 0 {
			return c > 0
		}
		return names[i] < names[j]
	})
	hundred := decimal.NewFromInt(100)
	for _, name := range names {
		percent := decimal.Zero
		if total.IsPositive() {
			percent = byCategory[name].Div(total).Mul(hundred)
		}
		out.Categories = append(out.Categories, CategoryTotal{
			Category: name,
			Total:    byCategory[name].StringFixed(2),
			Percent:  percent.StringFixed(1),
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].amount.GreaterThan(matched[j].amount)
	})
	for i := 0; i < len(matched) && i < largestLimit; i++ {
		out.Largest = append(out.Largest, matched[i].receipt)
	}
	return out
}

// categoryLabel folds synonyms and case variants onto the known categories so
// "market", "Grocery" and "grocery" share one bucket. Unknown labels keep their text.
func categoryLabel(raw string) string {
	if cat, ok := constants.Canonicalize(raw); ok {
		return string(cat)
	}
	if label := strings.TrimSpace(raw); label != "" {
		return label
	}
	return string(constants.Other)
}
