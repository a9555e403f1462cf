package scanner

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/dexhunter/internal/config"
	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// Fetcher supplies raw pair snapshots for a scan cycle. It fails open: a feed
// outage yields an empty slice, never an error.
type Fetcher interface {
	Fetch(ctx context.Context, addresses, searchTerms []string) []domain.PairRecord
}

// Result summarizes one completed scan cycle: the ranked opportunity list
// plus the counters logged and persisted alongside it.
type Result struct {
	ScanID        string
	StartedAt     time.Time
	Duration      time.Duration
	PairsFetched  int
	PairsFiltered int
	Opportunities []domain.Opportunity
	WeirdCount    int
}

// Scanner runs the detection pipeline for one cycle: fetch, filter, cross-join,
// score, rank, and write the snapshot artifact.
type Scanner struct {
	fetcher  Fetcher
	filter   *Filter
	scorer   *Scorer
	feed     config.FeedConfig
	engine   config.EngineConfig
	chain    string
	weird    config.WeirdConfig
	archiver domain.SnapshotArchiver
	logger   *slog.Logger
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithArchiver attaches an object-storage archiver that receives a copy of
// each scan's snapshot artifact.
func WithArchiver(a domain.SnapshotArchiver) Option {
	return func(s *Scanner) { s.archiver = a }
}

// New creates a Scanner.
func New(fetcher Fetcher, cfg *config.Config, logger *slog.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		fetcher: fetcher,
		filter:  NewFilter(cfg.Filter, cfg.Weird),
		scorer:  NewScorer(cfg.Weird),
		feed:    cfg.Feed,
		engine:  cfg.Engine,
		chain:   cfg.Chain.Chain,
		weird:   cfg.Weird,
		logger:  logger.With(slog.String("component", "scanner")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan executes one detection cycle and returns its result. Feed outages
// degrade to an empty opportunity list; only snapshot-artifact write problems
// surface as warnings, never as errors, so the cycle always completes.
func (s *Scanner) Scan(ctx context.Context) *Result {
	started := time.Now()
	res := &Result{
		ScanID:    uuid.NewString(),
		StartedAt: started,
	}

	records := s.fetcher.Fetch(ctx, s.feed.TokenAddresses, s.feed.SearchTerms)
	res.PairsFetched = len(records)

	filtered := s.filter.LowCompetition(records)
	res.PairsFiltered = len(filtered)

	opps := Synthesize(filtered)
	s.scorer.Score(opps)
	if s.weird.PrioritizeWeird {
		SortWeirdFirst(opps)
	} else {
		SortByCompetition(opps)
	}
	res.Opportunities = opps
	for _, o := range opps {
		if o.IsWeirdPair {
			res.WeirdCount++
		}
	}
	res.Duration = time.Since(started)

	s.logger.Info("scan complete",
		slog.String("scan_id", res.ScanID),
		slog.Int("pairs_fetched", res.PairsFetched),
		slog.Int("pairs_filtered", res.PairsFiltered),
		slog.Int("opportunities", len(res.Opportunities)),
		slog.Int("weird", res.WeirdCount),
		slog.Duration("took", res.Duration),
	)

	s.writeArtifact(ctx, res)
	return res
}

// writeArtifact persists the ranked top-N list locally and, when configured,
// uploads a copy to object storage.
func (s *Scanner) writeArtifact(ctx context.Context, res *Result) {
	if s.engine.SnapshotPath == "" {
		return
	}

	snap := Snapshot{
		ScanID:        res.ScanID,
		GeneratedAt:   res.StartedAt,
		Chain:         s.chain,
		PairsFetched:  res.PairsFetched,
		PairsFiltered: res.PairsFiltered,
		Opportunities: res.Opportunities,
	}
	if err := WriteSnapshot(s.engine.SnapshotPath, snap, s.engine.SnapshotTopN); err != nil {
		s.logger.Warn("snapshot write failed", slog.String("error", err.Error()))
		return
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveSnapshot(ctx, res.ScanID, s.engine.SnapshotPath); err != nil {
			s.logger.Warn("snapshot archive failed", slog.String("error", err.Error()))
		}
	}
}
