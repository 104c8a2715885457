package ingest

import (
	"context"
	"io"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath string
	// Filename is the stored copy's name inside the upload directory.
	Filename     string
	StoredPath   string
	Deduplicated bool
	HashHex      string
	FileExt      string
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor copies receipt images into the upload directory.
type Ingestor interface {
	// Store saves an uploaded stream under a fresh name, without dedupe.
	Store(ctx context.Context, r io.Reader, ext string) (IngestionResult, error)
	// IngestPath copies a single file, skipping content already ingested.
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	// IngestDirectory ingests all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
