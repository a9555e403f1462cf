package scanner

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// Snapshot is the flat ranked-opportunity artifact written once per scan.
// The file is overwritten each run; downstream consumers only ever want the
// latest view.
type Snapshot struct {
	ScanID        string               `json:"scan_id"`
	GeneratedAt   time.Time            `json:"generated_at"`
	Chain         string               `json:"chain"`
	PairsFetched  int                  `json:"pairs_fetched"`
	PairsFiltered int                  `json:"pairs_filtered"`
	Opportunities []domain.Opportunity `json:"opportunities"`
}

// WriteSnapshot serializes the top-N ranked opportunities to path,
// overwriting any previous scan's artifact.
func WriteSnapshot(path string, snap Snapshot, topN int) error {
	if topN > 0 && len(snap.Opportunities) > topN {
		snap.Opportunities = snap.Opportunities[:topN]
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("scanner: encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("scanner: write snapshot %s: %w", path, err)
	}
	return nil
}
