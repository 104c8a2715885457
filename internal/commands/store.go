package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/spendify/internal/async"
	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/ingest"
	"github.com/joseph-ayodele/spendify/internal/receipts"
	"github.com/joseph-ayodele/spendify/internal/repository"
)

func newImportCommand() *cobra.Command {
	var skipHidden bool
	var workers int

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Store, extract and save every receipt image under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			app, err := openApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			q := async.NewWorkerQueue(app.Importer.Handle, logger,
				async.WithWorkers(workers),
				async.WithJobTimeout(app.Config.OCR.Timeout+app.Config.LLM.Timeout),
			)
			_, stats, err := app.Importer.EnqueueDirectory(cmd.Context(), q, args[0], skipHidden)
			q.Shutdown(context.Background())
			if err != nil {
				return err
			}

			saved, failed := q.Stats()
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"scanned=%d matched=%d stored=%d duplicates=%d failed=%d saved=%d extract_failed=%d\n",
				stats.Scanned, stats.Matched, stats.Succeeded, stats.Deduplicated, stats.Failed,
				saved, failed)
			return err
		},
	}

	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip dot files and dot directories")
	cmd.Flags().IntVar(&workers, "workers", 2, "concurrent extractions")

	return cmd
}

func newWatchCommand() *cobra.Command {
	var initialScan bool
	var workers int

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Import receipt images as they are dropped into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := openApp(ctx, logger)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if workers <= 0 {
				workers = app.Config.Watch.Workers
			}
			q := async.NewWorkerQueue(app.Importer.Handle, logger, async.WithWorkers(workers))
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
				defer cancel()
				q.Shutdown(sctx)
			}()

			logger.Info("watch.start", "dir", args[0], "upload_dir", app.Config.Storage.UploadDir)
			return app.Importer.Watch(ctx, q, ingest.WatchConfig{
				Roots:       []string{args[0]},
				InitialScan: initialScan,
				Debounce:    app.Config.Watch.Debounce,
			})
		},
	}

	cmd.Flags().BoolVar(&initialScan, "initial-scan", false, "import images already in the directory")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent extractions (default WATCH_WORKERS)")

	return cmd
}

func newSeedCommand() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert random demo receipts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			app, err := openApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			n, err := app.Receipts.Seed(cmd.Context(), count)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d receipts\n", n)
			return err
		},
	}

	cmd.Flags().IntVar(&count, "count", receipts.DefaultSeedCount, "number of receipts")

	return cmd
}

func newExportCommand() *cobra.Command {
	var out, currency, from, to string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write saved receipts to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := receipts.ParseSummaryFilter(currency, from, to)
			if err != nil {
				return err
			}
			logger := newLogger(cmd)
			app, err := openApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			data, err := app.Exporter.ExportXLSX(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), out, data)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "receipts.xlsx", "output file, - for stdout")
	cmd.Flags().StringVar(&currency, "currency", "", "only receipts in this currency symbol")
	cmd.Flags().StringVar(&from, "from", "", "first receipt date to include")
	cmd.Flags().StringVar(&to, "to", "", "last receipt date to include")

	return cmd
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	_, err := fmt.Fprintf(stdout, "wrote %s (%d bytes)\n", path, len(data))
	return err
}

func newPingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the receipt store is reachable and migrated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			cfg := common.LoadConfig()

			start := time.Now()
			repo, err := repository.Open(cmd.Context(), repository.ConfigFrom(cfg.Database), logger)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close() }()

			if err := repository.HealthCheck(cmd.Context(), repo, time.Second, logger); err != nil {
				return fmt.Errorf("database health: %w", err)
			}
			recs, err := repo.List(cmd.Context())
			if err != nil {
				return err
			}
			driver := "sqlite"
			if cfg.Database.IsPostgres() {
				driver = "postgres"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok driver=%s receipts=%d elapsed_ms=%d\n",
				driver, len(recs), time.Since(start).Milliseconds())
			return err
		},
	}
	return cmd
}
