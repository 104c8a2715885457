package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/core"
	"github.com/joseph-ayodele/spendify/internal/extract"
	"github.com/joseph-ayodele/spendify/internal/ocr"
)

func newOCRCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocr <image>",
		Short: "Run tesseract over an image and print the text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			cfg := common.LoadConfig()

			ctx, cancel := common.WithTimeout(cmd.Context(), cfg.OCR.Timeout)
			defer cancel()

			start := time.Now()
			res, err := ocr.NewExtractor(core.OCRConfig(cfg.OCR), logger).Extract(ctx, args[0])
			if err != nil {
				return fmt.Errorf("ocr %s: %w", args[0], err)
			}
			logger.Info("ocr.extract.ok",
				"method", res.Method,
				"lang", res.Language,
				"confidence", res.Confidence,
				"chars", len(res.Text),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return err
		},
	}
	return cmd
}

type scanOutput struct {
	OCRText        string          `json:"ocr_text,omitempty"`
	Completion     string          `json:"completion,omitempty"`
	StructuredData extract.Receipt `json:"structured_data"`
}

func newScanCommand() *cobra.Command {
	var showText bool

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Extract a structured receipt from an image without saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			proc := core.NewProcessor(common.LoadConfig(), logger)

			res, err := proc.Process(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := scanOutput{StructuredData: res.Receipt()}
			if showText {
				out.OCRText = res.OCRText
				out.Completion = res.Completion
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&showText, "show-text", false, "include OCR text and the raw completion")

	return cmd
}
