package constants

// Currency is one of the canonical currency symbols a receipt can carry.
type Currency string

const (
	TurkishLira  Currency = "₺"
	USDollar     Currency = "$"
	Euro         Currency = "€"
	BritishPound Currency = "£"
)

// DefaultCurrency is used whenever a currency hint is missing or unrecognized.
const DefaultCurrency = TurkishLira

var allCurrencies = []Currency{TurkishLira, USDollar, Euro, BritishPound}

// Currencies returns the canonical currencies in classification priority order.
func Currencies() []Currency {
	out := make([]Currency, len(allCurrencies))
	copy(out, allCurrencies)
	return out
}

// IsCanonicalCurrency reports whether s is exactly one of the canonical symbols.
func IsCanonicalCurrency(s string) bool {
	for _, c := range allCurrencies {
		if string(c) == s {
			return true
		}
	}
	return false
}

// CurrencyStrings returns the canonical symbols as plain strings.
func CurrencyStrings() []string {
	out := make([]string, 0, len(allCurrencies))
	for _, c := range allCurrencies {
		out = append(out, string(c))
	}
	return out
}
