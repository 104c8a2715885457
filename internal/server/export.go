package server

import (
	"net/http"
	"strconv"

	"github.com/joseph-ayodele/spendify/internal/receipts"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := receipts.ParseSummaryFilter(q.Get("currency"), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := a.deps.Exporter.ExportXLSX(r.Context(), filter)
	if err != nil {
		a.logger.Error("export.xlsx.failed", "error", err)
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="receipts.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
