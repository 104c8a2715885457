package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

)

// IngestDirectory walks root, skips hidden entries if requested, and calls IngestPath
// for each allowed image. Returns per-file results plus aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []IngestionResult
	var stats DirStats

	uploadAbs, _ := filepath.Abs(i.uploadDir)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if d.IsDir() {
			// never re-ingest our own output
			if abs, err := filepath.Abs(path); err == nil && abs == uploadAbs {
				return filepath.SkipDir
			}
			if skipHidden && path != root && IsHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if skipHidden && IsHidden(path) {
			return nil
		}
		if !IsReceiptImage(path) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	i.logger.Info("ingest.directory.ok",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}
