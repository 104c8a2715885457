package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/export"
	"github.com/joseph-ayodele/spendify/internal/ingest"
	"github.com/joseph-ayodele/spendify/internal/pipeline"
	"github.com/joseph-ayodele/spendify/internal/receipts"
	"github.com/joseph-ayodele/spendify/internal/repository"
)

// App is the set of services shared by the daemon and the CLI.
type App struct {
	Config    *common.Config
	Repo      repository.ReceiptRepository
	Receipts  *receipts.Service
	Exporter  *export.Service
	Processor *pipeline.Processor
	Ingestor  *ingest.FSIngestor
	Importer  *ingest.Importer
	Logger    *slog.Logger
}

// Open creates the upload directory, connects and migrates the store, and wires the services.
func Open(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	repo, err := repository.Open(ctx, repository.ConfigFrom(cfg.Database), logger)
	if err != nil {
		return nil, err
	}
	if err := repository.HealthCheck(ctx, repo, cfg.Database.DialTimeout, logger); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("database health: %w", err)
	}

	svc := receipts.NewService(repo, cfg.Storage.UploadDir, logger)
	proc := NewProcessor(cfg, logger)
	ing := ingest.NewFSIngestor(cfg.Storage.UploadDir, logger)

	return &App{
		Config:    cfg,
		Repo:      repo,
		Receipts:  svc,
		Exporter:  export.NewService(svc, logger),
		Processor: proc,
		Ingestor:  ing,
		Importer:  ingest.NewImporter(ing, proc, svc, logger),
		Logger:    logger,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Repo.Close()
}
