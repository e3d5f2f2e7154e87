// internal/handler/stats_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/pixelsolve/coldmailer-backend/internal/reporting"
)

// StatsHandler holds the dependencies for the stats HTTP handler.
type StatsHandler struct {
	Reporter *reporting.Reporter
	Logger   *zap.Logger
}

// NewStatsHandler creates a new StatsHandler with the given reporter.
func NewStatsHandler(reporter *reporting.Reporter, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{Reporter: reporter, Logger: logger}
}

// GetStatsHandler serves the aggregate send statistics.
func (h *StatsHandler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Reporter.Build()
	if err != nil {
		h.Logger.Error("failed to build stats", zap.Error(err))
		http.Error(w, "failed to build stats: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
