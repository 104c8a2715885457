package extract

import (
	"strings"

	"github.com/joseph-ayodele/spendify/constants"
)

type currencyRule struct {
	currency constants.Currency
	keywords []string
}

// Order matters: lira is checked first, so a hint naming lira alongside another
// currency always resolves to lira.
var currencyRules = []currencyRule{
	{constants.TurkishLira, []string{"TL", "TRY", "TURK", "LIRA", "₺"}},
	{constants.USDollar, []string{"USD", "DOLLAR", "$"}},
	{constants.Euro, []string{"EUR", "EURO", "€"}},
	{constants.BritishPound, []string{"GBP", "POUND", "£"}},
}

// ClassifyCurrency maps a free-form currency hint onto a canonical symbol.
// matched is false when the default was applied.
func ClassifyCurrency(hint string) (c constants.Currency, matched bool) {
	text := strings.ToUpper(strings.TrimSpace(hint))
	if text == "" {
		return constants.DefaultCurrency, false
	}
	for _, rule := range currencyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.currency, true
			}
		}
	}
	return constants.DefaultCurrency, false
}

// NormalizeCurrency is ClassifyCurrency without the match flag.
func NormalizeCurrency(hint string) constants.Currency {
	c, _ := ClassifyCurrency(hint)
	return c
}
