package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/spendify/constants"
	"github.com/joseph-ayodele/spendify/internal/common"
)

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string

	EnableTSVConfidence bool
	PSM                 int // e.g., 6 is good for uniform block of text
	OEM                 int // 1 = LSTM; leave 0 to use default
}

type ExtractionResult struct {
	Text       string
	Method     string
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Extractor)

// WithRunner swaps the command runner, mostly for tests.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	e := &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract runs OCR over a receipt image. Non-image extensions are rejected.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)
	if !constants.IsAllowedExt(ext) {
		e.logger.Error("ocr.extract.unsupported", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("ocr %q: %w", ext, common.ErrUnsupported)
	}
	res, err := e.extractImage(ctx, path)
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}
	e.logger.Debug("ocr.extract.ok",
		"path", path,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
