package handler

import (
	"net/http"
)

// StreamStats reports publish activity; AlgoStreamingService satisfies it.
type StreamStats interface {
	Published() int64
	Len() int
}

// StatusHandler serves the pipeline status.
type StatusHandler struct {
	mode       string
	productIDs []string
	stats      StreamStats
}

// NewStatusHandler creates a StatusHandler for the configured products.
func NewStatusHandler(mode string, productIDs []string, stats StreamStats) *StatusHandler {
	if productIDs == nil {
		productIDs = []string{}
	}
	return &StatusHandler{mode: mode, productIDs: productIDs, stats: stats}
}

// GetStatus responds with the run mode, the configured products and the
// publish counters.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":        h.mode,
		"products":    len(h.productIDs),
		"product_ids": h.productIDs,
		"streams":     h.stats.Len(),
		"published":   h.stats.Published(),
	})
}
