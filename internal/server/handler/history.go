package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// HistoryHandler serves persisted scan and execution history. Both stores
// are optional; endpoints answer 503 when persistence is disabled.
type HistoryHandler struct {
	scans      domain.ScanStore
	executions domain.ExecutionStore
	logger     *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler. Either store may be nil.
func NewHistoryHandler(scans domain.ScanStore, executions domain.ExecutionStore, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{scans: scans, executions: executions, logger: logger}
}

// ListScans returns persisted scan summaries, newest first.
// GET /api/scans
func (h *HistoryHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	if h.scans == nil {
		writeError(w, http.StatusServiceUnavailable, "scan history is not enabled")
		return
	}

	list, err := h.scans.ListScans(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.Error("list scans failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list scans")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scans": list})
}

// ListExecutions returns persisted execution outcomes, newest first.
// GET /api/executions
func (h *HistoryHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	if h.executions == nil {
		writeError(w, http.StatusServiceUnavailable, "execution history is not enabled")
		return
	}

	list, err := h.executions.ListRecent(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.Error("list executions failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list executions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"executions": list})
}
