package extract

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const zeroAmount = "0.00"

// AmountOutcome tells how an Amount was produced.
type AmountOutcome int

const (
	// AmountParsed means a numeric token was found and parsed.
	AmountParsed AmountOutcome = iota
	// AmountAbsent means the source field was missing altogether.
	AmountAbsent
	// AmountNoDigits means the input held no numeric token.
	AmountNoDigits
	// AmountUnparseable means a token was selected but did not parse after separator cleanup.
	AmountUnparseable
)

func (o AmountOutcome) String() string {
	switch o {
	case AmountParsed:
		return "parsed"
	case AmountAbsent:
		return "absent"
	case AmountNoDigits:
		return "no_digits"
	case AmountUnparseable:
		return "unparseable"
	default:
		return "unknown"
	}
}

// Amount is a canonical two-decimal amount together with how it was obtained.
// Value always matches `\d+\.\d{2}`.
type Amount struct {
	Value   string
	Outcome AmountOutcome
	// Token is the numeric run the value was taken from, if any.
	Token string
}

// Defaulted reports whether Value is the zero fallback rather than a parsed number.
func (a Amount) Defaulted() bool { return a.Outcome != AmountParsed }

func (a Amount) String() string { return a.Value }

var reNumericRun = regexp.MustCompile(`[\p{Nd}.,]+`)

// NormalizeAmount reduces free-form text to a two-decimal amount, "0.00" on failure.
func NormalizeAmount(s string) string {
	return ParseAmount(s).Value
}

// ParseAmount extracts the last numeric token of s and canonicalizes it.
//
// Receipts commonly print a percentage ahead of the amount ("Tax: 20% 3.63"), so the
// trailing token wins, even when it is separator noise. Within the token, when both '.'
// and ',' appear the one that first shows up later is the decimal separator; a lone ','
// is a decimal separator. Any Unicode decimal digit counts as a digit.
func ParseAmount(s string) Amount {
	runs := reNumericRun.FindAllString(s, -1)
	if !slices.ContainsFunc(runs, hasDigit) {
		return Amount{Value: zeroAmount, Outcome: AmountNoDigits}
	}

	candidate := runs[len(runs)-1]
	cleaned := disambiguateSeparators(asciiDigits(candidate))
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return Amount{Value: zeroAmount, Outcome: AmountUnparseable, Token: candidate}
	}
	return Amount{
		Value:   strconv.FormatFloat(f, 'f', 2, 64),
		Outcome: AmountParsed,
		Token:   candidate,
	}
}

func disambiguateSeparators(s string) string {
	comma := strings.IndexByte(s, ',')
	dot := strings.IndexByte(s, '.')
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		return strings.ReplaceAll(s, ",", ".")
	default:
		return s
	}
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// asciiDigits rewrites non-ASCII decimal digits ("１２３") as ASCII. Unicode encodes every
// decimal digit set as ten contiguous code points starting at zero, so a digit's value is
// its offset from the start of its run, modulo ten.
func asciiDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf || !unicode.IsDigit(r) {
			return r
		}
		k := 0
		for unicode.IsDigit(r - rune(k) - 1) {
			k++
		}
		return '0' + rune(k%10)
	}, s)
}
