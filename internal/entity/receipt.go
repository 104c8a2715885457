package entity

import (
	"time"
)

// Receipt is a stored receipt row as it travels between layers. Amounts stay text,
// exactly as the user confirmed them.
type Receipt struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Merchant  string    `json:"merchant"`
	Date      string    `json:"date"`
	Total     string    `json:"total"`
	Tax       string    `json:"tax"`
	Category  string    `json:"category"`
	TaxRate   string    `json:"tax_rate"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// ReceiptPatch carries the editable fields of a receipt; nil leaves the column unchanged.
type ReceiptPatch struct {
	Merchant *string `json:"merchant"`
	Date     *string `json:"date"`
	Total    *string `json:"total"`
	Tax      *string `json:"tax"`
	Category *string `json:"category"`
	TaxRate  *string `json:"tax_rate"`
	Currency *string `json:"currency"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ReceiptPatch) IsEmpty() bool {
	return p.Merchant == nil && p.Date == nil && p.Total == nil && p.Tax == nil &&
		p.Category == nil && p.TaxRate == nil && p.Currency == nil
}

// Apply returns r with the patch's non-nil fields written over it.
func (p ReceiptPatch) Apply(r Receipt) Receipt {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&r.Merchant, p.Merchant)
	set(&r.Date, p.Date)
	set(&r.Total, p.Total)
	set(&r.Tax, p.Tax)
	set(&r.Category, p.Category)
	set(&r.TaxRate, p.TaxRate)
	set(&r.Currency, p.Currency)
	return r
}
