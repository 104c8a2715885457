package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/extract"
	"github.com/joseph-ayodele/spendify/internal/llm"
	"github.com/joseph-ayodele/spendify/internal/observability"
)

// ParseStage prompts the model with OCR text and assembles the completion into a receipt.
type ParseStage struct {
	Completer llm.Completer
	Debug     *llm.DebugLog
	Timeout   time.Duration
	Logger    *slog.Logger
}

func NewParseStage(c llm.Completer, debug *llm.DebugLog, timeout time.Duration, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Completer: c, Debug: debug, Timeout: timeout, Logger: logger}
}

// ParseOutcome is the parse stage result.
type ParseOutcome struct {
	Completion string
	Mocked     bool
	Assembly   extract.Assembly
}

// Run returns the assembled receipt. A nil Completer yields the mock record; a transport
// failure is reported as common.ErrUpstream. Malformed completions never error: they
// assemble into the degraded record.
func (s *ParseStage) Run(ctx context.Context, ocrText string) (ParseOutcome, error) {
	if s.Completer == nil {
		s.Logger.Info("pipeline.parse.mock", "ocr_chars", len(ocrText))
		observability.PipelineFallbacks.WithLabelValues("mock_llm").Inc()
		return ParseOutcome{Mocked: true, Assembly: extract.AssembleFields(extract.MockFields())}, nil
	}

	ctx, cancel := common.WithTimeout(ctx, s.Timeout)
	defer cancel()

	raw, err := s.Completer.Complete(ctx, llm.BuildPrompt(ocrText))
	if err != nil {
		s.Logger.Error("pipeline.parse.llm_failed", "error", err)
		return ParseOutcome{}, common.UpstreamError("language model request failed", err)
	}
	if err := s.Debug.Record(ocrText, raw); err != nil {
		s.Logger.Warn("pipeline.parse.debug_log_failed", "error", err)
	}

	if fields, ok := extract.ParseCompletion(raw); ok && len(fields) > 0 {
		if err := llm.CheckFields(fields); err != nil {
			s.Logger.Warn("pipeline.parse.schema_mismatch", "error", err)
		}
	}

	a := extract.Assemble(raw)
	if a.Degraded {
		s.Logger.Warn("pipeline.parse.degraded", "completion_chars", len(raw))
	}
	return ParseOutcome{Completion: raw, Assembly: a}, nil
}
