package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/barcoder/internal/identity"
)

// handleState reports the last issued barcode and, for a category, the base
// ID and start number the next run would use.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	last, _, err := s.orchestrator.Runner().Store().Load(r.Context())
	if err != nil {
		jsonError(w, "failed to read state: "+err.Error(), http.StatusBadGateway)
		return
	}

	resp := map[string]any{"last": last}
	if v := r.URL.Query().Get("category"); v != "" {
		category, err := identity.ParseCategory(v)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		base, err := identity.BaseID(s.now(), category)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp["base_id"] = base
		resp["suggested_start"] = identity.SuggestStart(last, base)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
