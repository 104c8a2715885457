package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\b\d{1,2}[./-]\d{1,2}[./-](\d{4}|\d{2})\b|\b20\d{2}-\d{2}-\d{2}\b`)
	reCurr   = regexp.MustCompile(`\b(try|tl|usd|eur|gbp|kdv|toplam|total)\b|[₺$£€]`)
	reAmount = regexp.MustCompile(`\b\d{1,3}([.,]\d{3})*[.,]\d{2}\b`)
)

func hasDatePattern(s string) bool     { return reDate.MatchString(s) }
func hasCurrencyPattern(s string) bool { return reCurr.MatchString(s) }
func hasAmountPattern(s string) bool   { return reAmount.MatchString(s) }

// heuristicConfidence scores decoded text by the receipt artifacts it contains.
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2)
	if hasDatePattern(txtL) {
		score += 0.2
	}
	if hasCurrencyPattern(txtL) {
		score += 0.15
	}
	if hasAmountPattern(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// blendConfidence weights engine confidence over the heuristic when tesseract reported one.
func blendConfidence(engine, heuristic float32) float32 {
	conf := heuristic
	if engine > 0 {
		conf = 0.7*engine + 0.3*heuristic
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
