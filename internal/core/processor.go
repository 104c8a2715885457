package core

import (
	"log/slog"

	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/llm"
	"github.com/joseph-ayodele/spendify/internal/llm/llamacpp"
	"github.com/joseph-ayodele/spendify/internal/ocr"
	"github.com/joseph-ayodele/spendify/internal/pipeline"
)

// NewProcessor builds the OCR then parse pipeline from configuration.
// An empty LLM_URL leaves the completer unset, which makes the parse stage return mock fields.
func NewProcessor(cfg *common.Config, logger *slog.Logger) *pipeline.Processor {
	if logger == nil {
		logger = slog.Default()
	}

	ocrx := ocr.NewExtractor(OCRConfig(cfg.OCR), logger)
	ocrStage := pipeline.NewOCRStage(pipeline.NewOCRAdapter(ocrx), cfg.OCR.FallbackText, cfg.OCR.Timeout, logger)

	parseStage := pipeline.NewParseStage(NewCompleter(cfg.LLM, logger), llm.NewDebugLog(cfg.LLM.DebugLog), cfg.LLM.Timeout, logger)

	logger.Info("processor.configured",
		"tesseract", cfg.OCR.TesseractBin,
		"lang", cfg.OCR.TesseractLang,
		"mock_llm", cfg.LLM.MockLLM(),
		"debug_log", cfg.LLM.DebugLog != "",
	)
	return pipeline.NewProcessor(logger, ocrStage, parseStage)
}

// OCRConfig maps the environment settings onto the tesseract extractor.
func OCRConfig(c common.OCRConfig) ocr.Config {
	return ocr.Config{
		Tesseract:           c.TesseractBin,
		TesseractLang:       c.TesseractLang,
		TessdataDir:         c.TessdataDir,
		EnableTSVConfidence: c.EnableTSVConfidence,
		PSM:                 c.PSM,
	}
}

// NewCompleter returns the llama.cpp client, or nil in mock mode.
func NewCompleter(c common.LLMConfig, logger *slog.Logger) llm.Completer {
	if c.MockLLM() {
		return nil
	}
	return llamacpp.NewClient(llamacpp.Config{
		BaseURL:     c.URL,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		TopP:        c.TopP,
		Timeout:     c.Timeout,
		LoadRetries: c.LoadRetries,
	}, logger)
}
