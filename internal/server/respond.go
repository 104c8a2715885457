package server

import (
	"encoding/json"
	"net/http"

	"github.com/joseph-ayodele/spendify/internal/common"
)

type errorBody struct {
	Detail string `json:"detail"`
}

type statusBody struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, common.HTTPStatus(err), errorBody{Detail: common.PublicMessage(err)})
}
