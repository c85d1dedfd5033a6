package marketdata

import (
	"encoding/json"
	"net/http"

	"mna_valuation/pkg/core/marketdata"
)

// Handler serves market data endpoints.
type Handler struct {
	service *marketdata.Service
}

func NewHandler(service *marketdata.Service) *Handler {
	return &Handler{service: service}
}

func cors(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

// HandleCurrent runs GET /api/marketdata/current. Never errors: when the
// provider is down the response carries defaults with is_default set.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}

	snap := h.service.LatestSnapshot(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// HandleRefresh runs POST /api/marketdata/refresh: forces a live fetch
// regardless of snapshot age.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	snap := h.service.FetchCurrentMarketData(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}
