package extract

import (
	"encoding/json"
	"strings"

	"github.com/joseph-ayodele/spendify/constants"
)

// Keys the language model is prompted to emit.
const (
	KeyMerchant    = "merchant"
	KeyDate        = "date"
	KeyTotalAmount = "total_amount"
	KeyTax         = "tax"
	KeyTaxRate     = "tax_rate"
	KeyCurrency    = "currency"
)

// Fields is the loosely-typed mapping decoded from a completion. No key is guaranteed.
type Fields map[string]string

// Lookup returns the value stored under key and whether the key was present.
func (f Fields) Lookup(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f[key]
	return v, ok
}

// Get returns the value under key, or def when the key is absent.
func (f Fields) Get(key, def string) string {
	if v, ok := f.Lookup(key); ok {
		return v
	}
	return def
}

// DegradedFields is the record substituted when a completion carries no usable object.
// Currency and tax rate are intentionally left unset.
func DegradedFields() Fields {
	return Fields{
		KeyMerchant:    constants.UnknownMerchant,
		KeyDate:        "",
		KeyTotalAmount: zeroAmount,
		KeyTax:         zeroAmount,
	}
}

// MockFields is what the pipeline assembles when no language model is configured.
func MockFields() Fields {
	return Fields{
		KeyMerchant:    "MOCK MARKET",
		KeyDate:        "01.01.2024",
		KeyTotalAmount: "150.00",
		KeyTax:         "25.00",
		KeyCurrency:    string(constants.TurkishLira),
	}
}

// fieldsFromJSON flattens a decoded JSON object into Fields.
// Numbers keep their literal text, null drops the key, and nested values
// are kept as compact JSON so pass-through fields never lose information.
func fieldsFromJSON(m map[string]any) Fields {
	out := make(Fields, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			out[k] = t
		case json.Number:
			out[k] = t.String()
		case bool:
			if t {
				out[k] = "true"
			} else {
				out[k] = "false"
			}
		default:
			b, err := json.Marshal(t)
			if err != nil {
				continue
			}
			out[k] = strings.TrimSpace(string(b))
		}
	}
	return out
}
