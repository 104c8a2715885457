package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/spendify/constants"
	"github.com/joseph-ayodele/spendify/internal/common"
)

// FSIngestor copies images from the local filesystem into the upload directory.
// Content hashes seen by this ingestor are remembered, so a file dropped twice is stored once.
type FSIngestor struct {
	uploadDir string
	logger    *slog.Logger

	mu   sync.Mutex
	seen map[string]string // sha256 hex -> stored filename
}

var _ Ingestor = (*FSIngestor)(nil)

func NewFSIngestor(uploadDir string, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{uploadDir: uploadDir, logger: logger, seen: map[string]string{}}
}

// UploadDir is where stored images live.
func (i *FSIngestor) UploadDir() string { return i.uploadDir }

func (i *FSIngestor) Store(ctx context.Context, r io.Reader, ext string) (IngestionResult, error) {
	return i.store(ctx, r, ext, false)
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return IngestionResult{}, fmt.Errorf("abs path: %w", err)
	}

	f, err := os.Open(abs)
	if err != nil {
		i.logger.Error("ingest.open.failed", "path", abs, "error", err)
		return IngestionResult{}, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	out, err := i.store(ctx, f, filepath.Ext(abs), true)
	out.SourcePath = abs
	return out, err
}

// store hashes r while writing it to a temporary file, then either renames it to
// <uuid>.<ext> or, when dedupe is on and the content was seen before, drops it.
func (i *FSIngestor) store(ctx context.Context, r io.Reader, ext string, dedupe bool) (IngestionResult, error) {
	ext = constants.NormalizeExt(ext)
	if ext == "" || !constants.IsAllowedExt(ext) {
		return IngestionResult{}, common.NewAppError("UNSUPPORTED", fmt.Sprintf("unsupported file type %q", ext), common.ErrUnsupported)
	}
	if err := ctx.Err(); err != nil {
		return IngestionResult{}, err
	}
	if err := os.MkdirAll(i.uploadDir, 0o755); err != nil {
		return IngestionResult{}, fmt.Errorf("upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(i.uploadDir, ".ingest-*")
	if err != nil {
		return IngestionResult{}, fmt.Errorf("temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), r); err != nil {
		_ = tmp.Close()
		cleanup()
		return IngestionResult{}, fmt.Errorf("copy: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return IngestionResult{}, fmt.Errorf("close: %w", err)
	}
	sum := hex.EncodeToString(h.Sum(nil))

	out := IngestionResult{HashHex: sum, FileExt: ext}

	i.mu.Lock()
	defer i.mu.Unlock()
	if dedupe {
		if existing, ok := i.seen[sum]; ok {
			cleanup()
			out.Filename = existing
			out.StoredPath = filepath.Join(i.uploadDir, existing)
			out.Deduplicated = true
			i.logger.Info("ingest.store.dedup", "hash", sum, "filename", existing)
			return out, nil
		}
	}

	out.Filename = uuid.NewString() + "." + ext
	out.StoredPath = filepath.Join(i.uploadDir, out.Filename)
	if err := os.Rename(tmpName, out.StoredPath); err != nil {
		cleanup()
		return IngestionResult{}, fmt.Errorf("rename: %w", err)
	}
	if dedupe {
		i.seen[sum] = out.Filename
	}
	i.logger.Info("ingest.store.ok", "filename", out.Filename, "hash", sum)
	return out, nil
}

// Forget drops a stored filename from the dedupe index, e.g. after its receipt was deleted.
func (i *FSIngestor) Forget(filename string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for h, f := range i.seen {
		if f == filename {
			delete(i.seen, h)
		}
	}
}

// IsUnsupported reports whether err came from an extension outside the allowed set.
func IsUnsupported(err error) bool {
	return errors.Is(err, common.ErrUnsupported)
}
