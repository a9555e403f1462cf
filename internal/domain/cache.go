package domain

import "context"

// PairCache provides short-lived storage for fetched pair snapshots so that
// repeated queries for the same token within one cache window do not hit the
// market-data feed again.
type PairCache interface {
	Set(ctx context.Context, query string, records []PairRecord) error
	Get(ctx context.Context, query string) ([]PairRecord, bool, error)
}
