package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/joseph-ayodele/spendify/internal/extract"
	"github.com/joseph-ayodele/spendify/internal/observability"
)

// Result is everything one pass over a receipt image produced.
type Result struct {
	OCRText       string
	OCRFallback   bool
	OCRConfidence float32
	Completion    string
	Mocked        bool
	Assembly      extract.Assembly
	OCRDuration   time.Duration
	ParseDuration time.Duration
}

// Receipt is the normalized record for the result.
func (r Result) Receipt() extract.Receipt { return r.Assembly.Receipt }

// Processor coordinates OCR (text extract) then LLM parse (fields).
type Processor struct {
	Logger *slog.Logger
	OCR    *OCRStage
	Parse  *ParseStage
	tracer trace.Tracer
}

func NewProcessor(logger *slog.Logger, ocr *OCRStage, parse *ParseStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, OCR: ocr, Parse: parse, tracer: observability.Tracer("spendify/pipeline")}
}

// Process runs OCR over imagePath, then completion and assembly. The only error it
// returns is an upstream model failure; OCR problems fall back to placeholder text.
func (p *Processor) Process(ctx context.Context, imagePath string) (Result, error) {
	ctx, span := observability.StartSpan(ctx, p.tracer, "pipeline.process",
		attribute.String("receipt.file", filepath.Base(imagePath)))

	start := time.Now()
	ocrRes, fallback := p.OCR.Run(ctx, imagePath)
	ocrDur := time.Since(start)
	observability.PipelineStageDuration.WithLabelValues("ocr").Observe(ocrDur.Seconds())
	p.Logger.Info("processor.ocr.ok",
		"file", filepath.Base(imagePath),
		"fallback", fallback,
		"chars", len(ocrRes.Text),
		"confidence", ocrRes.Confidence,
		"elapsed_ms", ocrDur.Milliseconds(),
	)

	start = time.Now()
	out, err := p.Parse.Run(ctx, ocrRes.Text)
	parseDur := time.Since(start)
	observability.PipelineStageDuration.WithLabelValues("parse").Observe(parseDur.Seconds())
	if err != nil {
		p.Logger.Error("processor.parse.failed", "file", filepath.Base(imagePath), "err", err)
		observability.EndSpan(span, err)
		return Result{OCRText: ocrRes.Text, OCRFallback: fallback, OCRDuration: ocrDur, ParseDuration: parseDur}, err
	}
	observability.RecordAssembly(out.Assembly)

	rec := out.Assembly.Receipt
	span.SetAttributes(
		attribute.Bool("receipt.degraded", out.Assembly.Degraded),
		attribute.Bool("receipt.mocked", out.Mocked),
		attribute.String("receipt.currency", string(rec.Currency)),
	)
	observability.EndSpan(span, nil)

	p.Logger.Info("processor.parse.ok",
		"file", filepath.Base(imagePath),
		"merchant", rec.Merchant,
		"date", rec.Date,
		"total", rec.TotalAmount,
		"currency", string(rec.Currency),
		"degraded", out.Assembly.Degraded,
		"mocked", out.Mocked,
		"elapsed_ms", parseDur.Milliseconds(),
	)
	return Result{
		OCRText:       ocrRes.Text,
		OCRFallback:   fallback,
		OCRConfidence: ocrRes.Confidence,
		Completion:    out.Completion,
		Mocked:        out.Mocked,
		Assembly:      out.Assembly,
		OCRDuration:   ocrDur,
		ParseDuration: parseDur,
	}, nil
}
