package s3blob

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// SnapshotArchiver implements domain.SnapshotArchiver by copying the local
// per-scan artifact file into object storage. The local file is overwritten
// every scan, so the upload is what preserves scan history.
type SnapshotArchiver struct {
	writer domain.BlobWriter
}

// NewSnapshotArchiver creates a SnapshotArchiver backed by the given writer.
func NewSnapshotArchiver(writer domain.BlobWriter) *SnapshotArchiver {
	return &SnapshotArchiver{writer: writer}
}

// ArchiveSnapshot uploads the snapshot file at localPath to
// snapshots/YYYY-MM-DD/{scanID}.json, partitioned by upload date.
func (a *SnapshotArchiver) ArchiveSnapshot(ctx context.Context, scanID string, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("s3blob: open snapshot %s: %w", localPath, err)
	}
	defer f.Close()

	key := path.Join("snapshots", time.Now().UTC().Format("2006-01-02"), scanID+".json")
	if err := a.writer.Put(ctx, key, f, "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive snapshot %s: %w", scanID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SnapshotArchiver = (*SnapshotArchiver)(nil)
