package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/spendify/constants"
)

func TestClassifyCurrency(t *testing.T) {
	tests := []struct {
		hint    string
		want    constants.Currency
		matched bool
	}{
		{"TRY", constants.TurkishLira, true},
		{"tl", constants.TurkishLira, true},
		{"Türk Lirası", constants.TurkishLira, true},
		{"₺", constants.TurkishLira, true},
		{"usd", constants.USDollar, true},
		{"US Dollar", constants.USDollar, true},
		{"$", constants.USDollar, true},
		{"€", constants.Euro, true},
		{"eur", constants.Euro, true},
		{"Euro", constants.Euro, true},
		{"gbp", constants.BritishPound, true},
		{"£", constants.BritishPound, true},
		{"  pound sterling ", constants.BritishPound, true},
		{"USD LIRA", constants.TurkishLira, true},
		{"EUR/TRY", constants.TurkishLira, true},
		{"", constants.TurkishLira, false},
		{"   ", constants.TurkishLira, false},
		{"JPY", constants.TurkishLira, false},
		{"yen", constants.TurkishLira, false},
	}

	for _, tc := range tests {
		got, matched := ClassifyCurrency(tc.hint)
		assert.Equal(t, tc.want, got, "hint %q", tc.hint)
		assert.Equal(t, tc.matched, matched, "hint %q", tc.hint)
	}
}

func TestNormalizeCurrency_AlwaysCanonical(t *testing.T) {
	for _, hint := range []string{"", "x", "Dollar", "₺₺", "£ and $", "????"} {
		got := NormalizeCurrency(hint)
		assert.True(t, constants.IsCanonicalCurrency(string(got)), "hint %q gave %q", hint, got)
	}
}
