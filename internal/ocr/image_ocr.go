package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const ImageConfidenceThreshold = 0.6

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	txt, warn, err := e.tesseractOCR(ctx, path)
	if err != nil {
		return ExtractionResult{Warnings: warn}, err
	}
	txt = Normalize(txt)

	var ocrConf float32
	if e.cfg.EnableTSVConfidence {
		c, err := e.tesseractTSVConfidence(ctx, path)
		if err != nil {
			warn = append(warn, err.Error())
		}
		ocrConf = c
	}
	conf := blendConfidence(ocrConf, heuristicConfidence(txt))
	if conf < ImageConfidenceThreshold {
		e.logger.Warn("ocr.extract.low_confidence", "path", path, "confidence", conf)
	}

	return ExtractionResult{
		Text:       txt,
		Method:     "image-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warn,
		Confidence: conf,
	}, nil
}

func (e *Extractor) baseArgs(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

// tesseract runs the engine with args and returns stdout. Stderr goes into the warnings.
func (e *Extractor) tesseract(ctx context.Context, args []string) ([]byte, []string, error) {
	out, err := e.runner.Run(ctx, Command{Name: e.cfg.Tesseract, Args: args})
	var warn []string
	if msg := strings.TrimSpace(string(out.Stderr)); msg != "" {
		warn = append(warn, msg)
	}
	return out.Stdout, warn, err
}

// tesseractOCR runs `tesseract <file> stdout -l <lang>` and strips box-drawing noise.
func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	out, warn, err := e.tesseract(ctx, e.baseArgs(path))
	if err != nil {
		return "", warn, fmt.Errorf("tesseract: %w", err)
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil, nil
}

// tesseractTSVConfidence reruns tesseract in TSV mode for the mean word confidence in 0..1.
func (e *Extractor) tesseractTSVConfidence(ctx context.Context, path string) (float32, error) {
	out, _, err := e.tesseract(ctx, append(e.baseArgs(path), "tsv"))
	if err != nil {
		return 0, fmt.Errorf("tesseract TSV: %w", err)
	}
	return meanTSVConfidence(string(out)), nil
}

// meanTSVConfidence averages the conf column (11th) skipping the header and -1 rows.
func meanTSVConfidence(tsv string) float32 {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || len(ln) == 0 {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := strings.TrimSpace(cols[10])
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float32(sum / n / 100.0)
}
