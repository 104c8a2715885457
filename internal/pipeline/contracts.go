package pipeline

import (
	"context"
	"time"
)

// TextExtractionResult is what the pipeline needs from an OCR engine.
type TextExtractionResult struct {
	Text       string
	Method     string
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// TextExtractor reads text out of a receipt image.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}
