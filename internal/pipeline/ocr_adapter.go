package pipeline

import (
	"context"

	"github.com/joseph-ayodele/spendify/internal/ocr"
)

// OCRAdapter exposes an ocr.Extractor as a TextExtractor.
type OCRAdapter struct {
	extractor *ocr.Extractor
}

func NewOCRAdapter(e *ocr.Extractor) *OCRAdapter {
	return &OCRAdapter{extractor: e}
}

func (a *OCRAdapter) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	r, err := a.extractor.Extract(ctx, path)
	if err != nil {
		return TextExtractionResult{Warnings: r.Warnings, Duration: r.Duration}, err
	}
	return TextExtractionResult{
		Text:       r.Text,
		Method:     r.Method,
		Language:   r.Language,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
		Confidence: r.Confidence,
	}, nil
}
