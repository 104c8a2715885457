package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/spendify/constants"
	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/observability"
)

// OCRStage reads text from an image. It never fails: when the extractor is missing
// or errors, the configured fallback text is returned instead.
type OCRStage struct {
	TextExtractor TextExtractor
	FallbackText  string
	Timeout       time.Duration
	Logger        *slog.Logger
}

func NewOCRStage(tx TextExtractor, fallbackText string, timeout time.Duration, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	if fallbackText == "" {
		fallbackText = constants.MockOCRText
	}
	return &OCRStage{TextExtractor: tx, FallbackText: fallbackText, Timeout: timeout, Logger: logger}
}

// Run returns the extracted text and whether the fallback text was substituted.
func (s *OCRStage) Run(ctx context.Context, path string) (TextExtractionResult, bool) {
	if s.TextExtractor == nil {
		s.Logger.Warn("pipeline.ocr.fallback", "path", path, "reason", "no ocr engine configured")
		observability.PipelineFallbacks.WithLabelValues("ocr_text").Inc()
		return TextExtractionResult{Text: s.FallbackText, Method: "fallback"}, true
	}

	ctx, cancel := common.WithTimeout(ctx, s.Timeout)
	defer cancel()

	res, err := s.TextExtractor.Extract(ctx, path)
	if err != nil {
		s.Logger.Warn("pipeline.ocr.fallback", "path", path, "error", err)
		observability.PipelineFallbacks.WithLabelValues("ocr_text").Inc()
		return TextExtractionResult{
			Text:     s.FallbackText,
			Method:   "fallback",
			Duration: res.Duration,
			Warnings: append(res.Warnings, err.Error()),
		}, true
	}
	return res, false
}
