package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// ScanRecord summarizes one completed scan cycle.
type ScanRecord struct {
	ID            string
	StartedAt     time.Time
	DurationMs    int64
	PairsFetched  int
	PairsFiltered int
	Opportunities int
	WeirdCount    int
}

// ExecutionRecord is the persisted form of an ExecutionResult together with
// the plan figures that produced it.
type ExecutionRecord struct {
	ID           string
	ScanID       string
	TokenPairKey string
	BuyVenue     string
	SellVenue    string
	PriceDiffPct float64
	ProfitUSD    float64
	Via          ExecutionPath
	TxHash       string
	BundleID     string
	Success      bool
	Failure      FailureKind
	SubmittedAt  time.Time
}

// ScanStore persists scan summaries and their ranked opportunities.
type ScanStore interface {
	CreateScan(ctx context.Context, scan ScanRecord, top []Opportunity) error
	ListScans(ctx context.Context, opts ListOpts) ([]ScanRecord, error)
}

// ExecutionStore persists trade execution outcomes.
type ExecutionStore interface {
	Create(ctx context.Context, rec ExecutionRecord) error
	ListRecent(ctx context.Context, opts ListOpts) ([]ExecutionRecord, error)
}
