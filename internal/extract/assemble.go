package extract

import (
	"github.com/joseph-ayodele/spendify/constants"
)

// Receipt is the structured record produced for one uploaded receipt.
type Receipt struct {
	Merchant    string             `json:"merchant"`
	Date        string             `json:"date"`
	TotalAmount string             `json:"total_amount"`
	Tax         string             `json:"tax"`
	TaxRate     string             `json:"tax_rate"`
	Currency    constants.Currency `json:"currency"`
}

// Assembly is a Receipt plus a report of which fallbacks were taken to build it.
type Assembly struct {
	Receipt Receipt
	// Degraded is set when the completion held no usable object and the
	// unknown-merchant record was substituted.
	Degraded        bool
	Total           Amount
	Tax             Amount
	CurrencyMatched bool
	// Missing lists the expected keys absent from the source fields.
	Missing []string
}

var expectedKeys = []string{KeyMerchant, KeyDate, KeyTotalAmount, KeyTax, KeyTaxRate, KeyCurrency}

// Assemble turns a raw completion into a receipt. It is total: any input,
// including the empty string, yields a fully populated Receipt.
func Assemble(raw string) Assembly {
	fields, ok := ParseCompletion(raw)
	if !ok || len(fields) == 0 {
		a := AssembleFields(DegradedFields())
		a.Degraded = true
		return a
	}
	return AssembleFields(fields)
}

// AssembleFields normalizes already-decoded fields.
func AssembleFields(fields Fields) Assembly {
	var a Assembly
	for _, k := range expectedKeys {
		if _, ok := fields.Lookup(k); !ok {
			a.Missing = append(a.Missing, k)
		}
	}

	a.Total = amountField(fields, KeyTotalAmount)
	a.Tax = amountField(fields, KeyTax)

	hint, present := fields.Lookup(KeyCurrency)
	if !present {
		hint = string(constants.DefaultCurrency)
	}
	currency, matched := ClassifyCurrency(hint)
	a.CurrencyMatched = present && matched

	a.Receipt = Receipt{
		Merchant:    fields.Get(KeyMerchant, constants.UnknownMerchant),
		Date:        fields.Get(KeyDate, ""),
		TotalAmount: a.Total.Value,
		Tax:         a.Tax.Value,
		TaxRate:     fields.Get(KeyTaxRate, ""),
		Currency:    currency,
	}
	return a
}

func amountField(fields Fields, key string) Amount {
	v, ok := fields.Lookup(key)
	if !ok {
		return Amount{Value: zeroAmount, Outcome: AmountAbsent}
	}
	return ParseAmount(v)
}
