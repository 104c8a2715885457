package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joseph-ayodele/spendify/internal/async"
	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/core"
	"github.com/joseph-ayodele/spendify/internal/ingest"
	"github.com/joseph-ayodele/spendify/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if cfg.Watch.Dir != "" && samePath(cfg.Watch.Dir, cfg.Storage.UploadDir) {
		logger.Error("WATCH_DIR must differ from UPLOAD_DIR", "dir", cfg.Watch.Dir)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := core.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open application", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	handler, err := server.NewRouter(server.Dependencies{
		Receipts:  app.Receipts,
		Exporter:  app.Exporter,
		Processor: app.Processor,
		Ingestor:  app.Ingestor,
		DB:        app.Repo,
		UploadDir: cfg.Storage.UploadDir,
		Config:    cfg.Server,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}
	httpServer := server.NewHTTPServer(cfg.Server.HTTPAddr, handler)

	var healthServer *server.HealthServer
	if cfg.Server.HealthGRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.HealthGRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.HealthGRPCAddr, "error", err)
			os.Exit(1)
		}
		healthServer = server.NewHealthServer(logger)
		go func() {
			if err := healthServer.Serve(lis); err != nil {
				logger.Error("grpc health serve error", "error", err)
			}
		}()
	}

	var queue *async.WorkerQueue
	if cfg.Watch.Dir != "" {
		queue = async.NewWorkerQueue(app.Importer.Handle, logger,
			async.WithWorkers(cfg.Watch.Workers),
			async.WithJobTimeout(cfg.OCR.Timeout+cfg.LLM.Timeout),
		)
		go func() {
			err := app.Importer.Watch(ctx, queue, ingest.WatchConfig{
				Roots:       []string{cfg.Watch.Dir},
				InitialScan: true,
				Debounce:    cfg.Watch.Debounce,
			})
			if err != nil {
				logger.Error("watcher stopped", "dir", cfg.Watch.Dir, "error", err)
			}
		}()
	}

	logger.Info("spendify listening", "addr", cfg.Server.HTTPAddr, "mock_llm", cfg.LLM.MockLLM(), "watch_dir", cfg.Watch.Dir)
	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown.start")
	case err := <-serveErr:
		logger.Error("http serve error", "error", err)
	}
	stop()

	if healthServer != nil {
		healthServer.SetServing(false)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	start := time.Now()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}
	if healthServer != nil {
		healthServer.Stop()
	}
	logger.Info("shutdown.ok", "elapsed_ms", time.Since(start).Milliseconds())
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
