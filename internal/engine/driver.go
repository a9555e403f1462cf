package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/dexhunter/internal/config"
	"github.com/alanyoungcy/dexhunter/internal/domain"
	"github.com/alanyoungcy/dexhunter/internal/scanner"
)

// Stats carries the process-lifetime counters exposed by the status API.
type Stats struct {
	ScansRun       atomic.Uint64
	Opportunities  atomic.Uint64
	WeirdFound     atomic.Uint64
	TradesExecuted atomic.Uint64
	TradesFailed   atomic.Uint64
}

// StatsSnapshot is the JSON-friendly view of Stats.
type StatsSnapshot struct {
	ScansRun       uint64 `json:"scans_run"`
	Opportunities  uint64 `json:"opportunities"`
	WeirdFound     uint64 `json:"weird_found"`
	TradesExecuted uint64 `json:"trades_executed"`
	TradesFailed   uint64 `json:"trades_failed"`
}

// Snapshot reads all counters at once.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		ScansRun:       s.ScansRun.Load(),
		Opportunities:  s.Opportunities.Load(),
		WeirdFound:     s.WeirdFound.Load(),
		TradesExecuted: s.TradesExecuted.Load(),
		TradesFailed:   s.TradesFailed.Load(),
	}
}

// Publisher receives completed scan results for live consumers.
type Publisher interface {
	Publish(res *scanner.Result)
}

// Driver coordinates the two periodic tasks: the scan cycle and the
// much-longer-period route rotation. A running-flag guard keeps scan cycles
// from overlapping; a tick firing while the previous cycle still runs is
// skipped, not queued.
type Driver struct {
	scanner  *scanner.Scanner
	decision *DecisionEngine
	executor *Executor
	rotator  *Rotator

	scanStore domain.ScanStore
	execStore domain.ExecutionStore
	publisher Publisher

	scanInterval   time.Duration
	rotationPeriod time.Duration

	trading bool
	running atomic.Bool

	stats  Stats
	latest atomic.Pointer[scanner.Result]

	logger *slog.Logger
}

// DriverOption customizes a Driver.
type DriverOption func(*Driver)

// WithTrading attaches the execution side. Without it the driver only
// detects and ranks.
func WithTrading(decision *DecisionEngine, executor *Executor) DriverOption {
	return func(d *Driver) {
		d.decision = decision
		d.executor = executor
		d.trading = true
	}
}

// WithScanStore persists scan summaries.
func WithScanStore(store domain.ScanStore) DriverOption {
	return func(d *Driver) { d.scanStore = store }
}

// WithExecutionStore persists execution outcomes.
func WithExecutionStore(store domain.ExecutionStore) DriverOption {
	return func(d *Driver) { d.execStore = store }
}

// WithPublisher streams scan results to live consumers.
func WithPublisher(p Publisher) DriverOption {
	return func(d *Driver) { d.publisher = p }
}

// NewDriver creates a Driver.
func NewDriver(sc *scanner.Scanner, rotator *Rotator, cfg *config.Config, logger *slog.Logger, opts ...DriverOption) *Driver {
	d := &Driver{
		scanner:        sc,
		rotator:        rotator,
		scanInterval:   cfg.Engine.ScanInterval.Duration,
		rotationPeriod: cfg.Rotation.Period.Duration,
		logger:         logger.With(slog.String("component", "driver")),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stats returns the live counters.
func (d *Driver) Stats() *Stats {
	return &d.stats
}

// Latest returns the most recent completed scan result, or nil before the
// first cycle finishes.
func (d *Driver) Latest() *scanner.Result {
	return d.latest.Load()
}

// statsLogPeriod is how often the lifetime counters are written to the log.
const statsLogPeriod = 5 * time.Minute

// Run drives the periodic tasks until the context is cancelled. The first
// scan fires immediately; rotation and stats logging wait a full period.
func (d *Driver) Run(ctx context.Context) error {
	scanTicker := time.NewTicker(d.scanInterval)
	defer scanTicker.Stop()
	rotationTicker := time.NewTicker(d.rotationPeriod)
	defer rotationTicker.Stop()
	statsTicker := time.NewTicker(statsLogPeriod)
	defer statsTicker.Stop()

	d.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-scanTicker.C:
			d.RunCycle(ctx)
		case <-rotationTicker.C:
			d.rotator.Rotate()
		case <-statsTicker.C:
			d.logStats()
		}
	}
}

// logStats writes the lifetime counters to the log.
func (d *Driver) logStats() {
	s := d.stats.Snapshot()
	d.logger.Info("stats",
		slog.Uint64("scans_run", s.ScansRun),
		slog.Uint64("opportunities", s.Opportunities),
		slog.Uint64("weird_found", s.WeirdFound),
		slog.Uint64("trades_executed", s.TradesExecuted),
		slog.Uint64("trades_failed", s.TradesFailed),
	)
}

// RunCycle executes one scan cycle unless the previous one is still running,
// in which case the tick is coalesced and reported false.
func (d *Driver) RunCycle(ctx context.Context) bool {
	if !d.running.CompareAndSwap(false, true) {
		d.logger.Warn("scan cycle still running, skipping tick")
		return false
	}
	defer d.running.Store(false)

	res := d.scanner.Scan(ctx)
	d.latest.Store(res)
	d.stats.ScansRun.Add(1)
	d.stats.Opportunities.Add(uint64(len(res.Opportunities)))
	d.stats.WeirdFound.Add(uint64(res.WeirdCount))

	if d.publisher != nil {
		d.publisher.Publish(res)
	}
	d.persistScan(ctx, res)

	if d.trading {
		d.processOpportunities(ctx, res)
	}
	return true
}

// processOpportunities walks the ranked list front-to-back and stops after
// the first executed trade, keeping at most one trade in flight per cycle.
func (d *Driver) processOpportunities(ctx context.Context, res *scanner.Result) {
	for i := range res.Opportunities {
		if ctx.Err() != nil {
			return
		}
		opp := res.Opportunities[i]

		route := d.rotator.RouteFor(opp.BaseToken.Address, opp.QuoteToken.Address)
		plan := d.decision.Evaluate(ctx, opp, route)
		if plan.Decision != domain.DecisionExecute {
			continue
		}

		result := d.executor.Execute(ctx, plan)
		if result.Success {
			d.stats.TradesExecuted.Add(1)
		} else {
			d.stats.TradesFailed.Add(1)
		}
		d.persistExecution(ctx, res.ScanID, plan, result)

		if result.Success {
			return
		}
	}
}

func (d *Driver) persistScan(ctx context.Context, res *scanner.Result) {
	if d.scanStore == nil {
		return
	}
	rec := domain.ScanRecord{
		ID:            res.ScanID,
		StartedAt:     res.StartedAt,
		DurationMs:    res.Duration.Milliseconds(),
		PairsFetched:  res.PairsFetched,
		PairsFiltered: res.PairsFiltered,
		Opportunities: len(res.Opportunities),
		WeirdCount:    res.WeirdCount,
	}
	top := res.Opportunities
	if len(top) > 10 {
		top = top[:10]
	}
	if err := d.scanStore.CreateScan(ctx, rec, top); err != nil {
		d.logger.Warn("persist scan failed", slog.String("error", err.Error()))
	}
}

func (d *Driver) persistExecution(ctx context.Context, scanID string, plan *domain.ExecutionPlan, result domain.ExecutionResult) {
	if d.execStore == nil {
		return
	}
	rec := domain.ExecutionRecord{
		ID:           uuid.NewString(),
		ScanID:       scanID,
		TokenPairKey: plan.Opportunity.TokenPairKey,
		BuyVenue:     plan.Opportunity.BuyVenue,
		SellVenue:    plan.Opportunity.SellVenue,
		PriceDiffPct: plan.Opportunity.PriceDiffPct,
		ProfitUSD:    plan.ProfitUSD,
		Via:          result.Via,
		TxHash:       result.TxHash,
		BundleID:     result.BundleID,
		Success:      result.Success,
		Failure:      result.Failure,
		SubmittedAt:  result.SubmittedAt,
	}
	if err := d.execStore.Create(ctx, rec); err != nil {
		d.logger.Warn("persist execution failed", slog.String("error", err.Error()))
	}
}
