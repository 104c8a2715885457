package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/spendify/constants"
	"github.com/joseph-ayodele/spendify/internal/async"
	"github.com/joseph-ayodele/spendify/internal/pipeline"
	"github.com/joseph-ayodele/spendify/internal/receipts"
)

// Processor extracts a receipt from a stored image.
type Processor interface {
	Process(ctx context.Context, imagePath string) (pipeline.Result, error)
}

// ReceiptCreator persists an extracted receipt.
type ReceiptCreator interface {
	Create(ctx context.Context, req receipts.CreateRequest) (string, error)
}

// Importer turns stored images into saved receipts without a review step.
type Importer struct {
	ingestor *FSIngestor
	proc     Processor
	store    ReceiptCreator
	logger   *slog.Logger
}

func NewImporter(ingestor *FSIngestor, proc Processor, store ReceiptCreator, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{ingestor: ingestor, proc: proc, store: store, logger: logger}
}

// ImageURL is the public path of a stored upload.
func ImageURL(filename string) string {
	return "/static/" + filename
}

// Handle is an async.Handler: it processes an already stored image and saves the receipt.
func (im *Importer) Handle(ctx context.Context, job async.Job) error {
	_, err := im.ProcessStored(ctx, job.Filename)
	return err
}

// ProcessStored runs the pipeline over a file in the upload directory and saves the result.
func (im *Importer) ProcessStored(ctx context.Context, filename string) (string, error) {
	path := filepath.Join(im.ingestor.UploadDir(), filename)
	res, err := im.proc.Process(ctx, path)
	if err != nil {
		return "", fmt.Errorf("process %s: %w", filename, err)
	}
	rec := res.Receipt()
	merchant := strings.TrimSpace(rec.Merchant)
	if merchant == "" {
		merchant = constants.UnknownMerchant
	}
	id, err := im.store.Create(ctx, receipts.CreateRequest{
		Merchant: merchant,
		Date:     rec.Date,
		Total:    rec.TotalAmount,
		Tax:      rec.Tax,
		TaxRate:  rec.TaxRate,
		Currency: string(rec.Currency),
		Filename: filename,
		ImageURL: ImageURL(filename),
	})
	if err != nil {
		return "", fmt.Errorf("save %s: %w", filename, err)
	}
	im.logger.Info("import.receipt.ok", "id", id, "filename", filename, "merchant", rec.Merchant)
	return id, nil
}

// ImportFile stores path, then processes and saves it. Content already imported
// by this importer is skipped and reported as deduplicated.
func (im *Importer) ImportFile(ctx context.Context, path string) (IngestionResult, string, error) {
	res, err := im.ingestor.IngestPath(ctx, path)
	if err != nil {
		return res, "", err
	}
	if res.Deduplicated {
		return res, "", nil
	}
	id, err := im.ProcessStored(ctx, res.Filename)
	return res, id, err
}

// EnqueueDirectory stores every image under root and queues the new ones for processing.
func (im *Importer) EnqueueDirectory(ctx context.Context, q async.Queue, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	results, stats, err := im.ingestor.IngestDirectory(ctx, root, skipHidden)
	if err != nil {
		return results, stats, err
	}
	for _, r := range results {
		if r.Err != "" || r.Deduplicated {
			continue
		}
		if err := q.Enqueue(ctx, async.Job{Path: r.StoredPath, Filename: r.Filename}); err != nil {
			return results, stats, fmt.Errorf("enqueue %s: %w", r.Filename, err)
		}
	}
	return results, stats, nil
}

// Watch enqueues every settled image that appears under cfg.Roots until ctx is done.
func (im *Importer) Watch(ctx context.Context, q async.Queue, cfg WatchConfig) error {
	events, errs, err := StartWatcher(ctx, cfg, im.logger)
	if err != nil {
		return err
	}
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return nil
			}
			res, err := im.ingestor.IngestPath(ctx, path)
			if err != nil {
				im.logger.Warn("import.watch.ingest_failed", "path", path, "error", err)
				continue
			}
			if res.Deduplicated {
				continue
			}
			if err := q.Enqueue(ctx, async.Job{Path: res.StoredPath, Filename: res.Filename}); err != nil {
				im.logger.Warn("import.watch.enqueue_failed", "filename", res.Filename, "error", err)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				im.logger.Warn("import.watch.error", "error", err)
			}
			if !ok {
				errs = nil
			}
		}
	}
}
