package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// snapshotPrefix is the object-storage key prefix the archiver writes under.
const snapshotPrefix = "snapshots"

// SnapshotsHandler serves archived per-scan snapshot artifacts from object
// storage. The reader is optional; endpoints answer 503 when archiving is
// disabled.
type SnapshotsHandler struct {
	blobs  domain.BlobReader
	logger *slog.Logger
}

// NewSnapshotsHandler creates a SnapshotsHandler. The reader may be nil.
func NewSnapshotsHandler(blobs domain.BlobReader, logger *slog.Logger) *SnapshotsHandler {
	return &SnapshotsHandler{blobs: blobs, logger: logger}
}

// ListSnapshots returns metadata for archived snapshot artifacts, optionally
// narrowed to one upload date (?date=YYYY-MM-DD).
// GET /api/snapshots
func (h *SnapshotsHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot archive is not enabled")
		return
	}

	prefix := snapshotPrefix + "/"
	if date := r.URL.Query().Get("date"); date != "" {
		if !validKeyPart(date) {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		prefix += date + "/"
	}

	infos, err := h.blobs.List(r.Context(), prefix)
	if err != nil {
		h.logger.Error("list snapshots failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": infos})
}

// GetSnapshot streams one archived snapshot artifact.
// GET /api/snapshots/{date}/{name}
func (h *SnapshotsHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot archive is not enabled")
		return
	}

	date := r.PathValue("date")
	name := r.PathValue("name")
	if !validKeyPart(date) || !validKeyPart(name) {
		writeError(w, http.StatusBadRequest, "invalid snapshot key")
		return
	}

	body, err := h.blobs.Get(r.Context(), path.Join(snapshotPrefix, date, name))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found")
			return
		}
		h.logger.Error("get snapshot failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to get snapshot")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("snapshot stream interrupted", slog.String("error", err.Error()))
	}
}

// validKeyPart rejects path segments that could escape the snapshot prefix.
func validKeyPart(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, "/\\")
}
