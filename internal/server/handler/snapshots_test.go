package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// fakeBlobReader serves a fixed set of objects keyed by path.
type fakeBlobReader struct {
	objects    map[string]string
	lastPrefix string
}

func (f *fakeBlobReader) Get(_ context.Context, path string) (io.ReadCloser, error) {
	body, ok := f.objects[path]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", path, domain.ErrNotFound)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeBlobReader) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	f.lastPrefix = prefix
	var infos []domain.BlobInfo
	for path, body := range f.objects {
		if strings.HasPrefix(path, prefix) {
			infos = append(infos, domain.BlobInfo{
				Path:         path,
				Size:         int64(len(body)),
				LastModified: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
			})
		}
	}
	return infos, nil
}

func snapshotsMux(blobs domain.BlobReader) *http.ServeMux {
	h := NewSnapshotsHandler(blobs, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/snapshots", h.ListSnapshots)
	mux.HandleFunc("GET /api/snapshots/{date}/{name}", h.GetSnapshot)
	return mux
}

func TestListSnapshots(t *testing.T) {
	blobs := &fakeBlobReader{objects: map[string]string{
		"snapshots/2026-08-28/scan-1.json": `{"opportunities":[]}`,
		"snapshots/2026-08-27/scan-0.json": `{"opportunities":[]}`,
	}}
	mux := snapshotsMux(blobs)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "snapshots/", blobs.lastPrefix)
	assert.Contains(t, rec.Body.String(), "scan-1.json")
	assert.Contains(t, rec.Body.String(), "scan-0.json")
}

func TestListSnapshotsDateFilter(t *testing.T) {
	blobs := &fakeBlobReader{objects: map[string]string{
		"snapshots/2026-08-28/scan-1.json": `{}`,
		"snapshots/2026-08-27/scan-0.json": `{}`,
	}}
	mux := snapshotsMux(blobs)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots?date=2026-08-28", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "snapshots/2026-08-28/", blobs.lastPrefix)
	assert.Contains(t, rec.Body.String(), "scan-1.json")
	assert.NotContains(t, rec.Body.String(), "scan-0.json")
}

func TestGetSnapshotStreamsArtifact(t *testing.T) {
	blobs := &fakeBlobReader{objects: map[string]string{
		"snapshots/2026-08-28/scan-1.json": `{"scan_id":"scan-1"}`,
	}}
	mux := snapshotsMux(blobs)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/2026-08-28/scan-1.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"scan_id":"scan-1"}`, rec.Body.String())
}

func TestGetSnapshotNotFound(t *testing.T) {
	mux := snapshotsMux(&fakeBlobReader{objects: map[string]string{}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/2026-08-28/missing.json", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSnapshotRejectsTraversal(t *testing.T) {
	mux := snapshotsMux(&fakeBlobReader{objects: map[string]string{}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/../secrets.json", nil))

	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestSnapshotsDisabled(t *testing.T) {
	mux := snapshotsMux(nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}