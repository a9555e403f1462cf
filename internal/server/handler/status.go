package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/dexhunter/internal/engine"
)

// StatusHandler exposes the driver's live counters and the latest ranked
// opportunity list.
type StatusHandler struct {
	driver *engine.Driver
	logger *slog.Logger
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(driver *engine.Driver, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{driver: driver, logger: logger}
}

// GetStats returns the process-lifetime counters.
// GET /api/stats
func (h *StatusHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.driver.Stats().Snapshot())
}

// GetLatestScan returns the most recent completed scan with its ranked
// opportunities, or 404 before the first cycle finishes.
// GET /api/scans/latest
func (h *StatusHandler) GetLatestScan(w http.ResponseWriter, r *http.Request) {
	res := h.driver.Latest()
	if res == nil {
		writeError(w, http.StatusNotFound, "no scan completed yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scan_id":        res.ScanID,
		"started_at":     res.StartedAt,
		"duration_ms":    res.Duration.Milliseconds(),
		"pairs_fetched":  res.PairsFetched,
		"pairs_filtered": res.PairsFiltered,
		"weird_count":    res.WeirdCount,
		"opportunities":  res.Opportunities,
	})
}
