package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/spendify/internal/buildinfo"
	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/core"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:     "receiptctl",
		Short:   "Receipt digitization toolkit",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newParseCommand(),
		newAmountCommand(),
		newCurrencyCommand(),
		newOCRCommand(),
		newScanCommand(),
		newImportCommand(),
		newSeedCommand(),
		newExportCommand(),
		newWatchCommand(),
		newPingCommand(),
	)

	return rootCmd
}

// newLogger writes text logs to the command's stderr so stdout stays machine readable.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func openApp(ctx context.Context, logger *slog.Logger) (*core.App, error) {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return core.Open(ctx, cfg, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
