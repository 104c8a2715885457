package receipts

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date")

// receiptDateLayouts covers what receipts print and what users type into the edit form.
// Day-first layouts come before month-first ones.
var receiptDateLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.06",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"02.01.2006 15:04",
	"02/01/2006 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseReceiptDate parses a receipt date string in any of the supported layouts, as a UTC day.
func ParseReceiptDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range receiptDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}
