package server

import (
	"net/http"

	"github.com/joseph-ayodele/spendify/internal/entity"
	"github.com/joseph-ayodele/spendify/internal/receipts"
)

func (a *API) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	recs, err := a.deps.Receipts.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (a *API) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := a.deps.Receipts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req receipts.CreateRequest
	if err := decodeValidated(r.Body, a.createSchema, &req); err != nil {
		writeError(w, err)
		return
	}
	id, err := a.deps.Receipts.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusBody{Status: "created", ID: id})
}

func (a *API) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	var patch entity.ReceiptPatch
	if err := decodeValidated(r.Body, a.updateSchema, &patch); err != nil {
		writeError(w, err)
		return
	}
	if err := a.deps.Receipts.Update(r.Context(), r.PathValue("id"), patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusBody{Status: "updated"})
}

func (a *API) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := a.deps.Receipts.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusBody{Status: "deleted"})
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := receipts.ParseSummaryFilter(q.Get("currency"), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	sum, err := a.deps.Receipts.Summary(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
