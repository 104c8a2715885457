package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/extract"
	"github.com/joseph-ayodele/spendify/internal/ingest"
)

type uploadResponse struct {
	Filename       string          `json:"filename"`
	ImageURL       string          `json:"image_url"`
	StructuredData extract.Receipt `json:"structured_data"`
}

// handleUpload stores the image, extracts a receipt from it and returns the draft
// for review. Nothing is persisted in the receipts table.
func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(a.deps.Config.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Detail: "file too large"})
			return
		}
		writeError(w, common.InvalidInputError("file is required"))
		return
	}
	defer func() { _ = file.Close() }()

	stored, err := a.deps.Ingestor.Store(r.Context(), file, filepath.Ext(header.Filename))
	if err != nil {
		if !ingest.IsUnsupported(err) {
			a.logger.Error("upload.store.failed", "filename", header.Filename, "error", err)
		}
		writeError(w, err)
		return
	}

	res, err := a.deps.Processor.Process(r.Context(), stored.StoredPath)
	if err != nil {
		common.LogWith(r.Context(), a.logger).Error("upload.process.failed",
			"filename", stored.Filename,
			"error", err,
		)
		_ = os.Remove(stored.StoredPath)
		writeError(w, err)
		return
	}

	common.LogWith(r.Context(), a.logger).Info("upload.ok",
		"filename", stored.Filename,
		"degraded", res.Assembly.Degraded,
		"mocked", res.Mocked,
	)
	writeJSON(w, http.StatusOK, uploadResponse{
		Filename:       stored.Filename,
		ImageURL:       ingest.ImageURL(stored.Filename),
		StructuredData: res.Receipt(),
	})
}
