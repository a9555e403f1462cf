package engine

import (
	"bytes"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/dexhunter/internal/config"
	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// UsageLedger counts how often each route has been executed, keyed by the
// route's content hash. The executor records usage on successful submissions
// and the rotation scheduler discards the most-used entries, so the ledger
// carries its own lock.
type UsageLedger struct {
	mu     sync.Mutex
	counts map[common.Hash]uint64
}

// NewUsageLedger creates an empty ledger.
func NewUsageLedger() *UsageLedger {
	return &UsageLedger{counts: make(map[common.Hash]uint64)}
}

// RecordUse increments the usage counter for a route.
func (l *UsageLedger) RecordUse(route domain.TradeRoute) {
	h := route.Hash()
	l.mu.Lock()
	l.counts[h]++
	l.mu.Unlock()
}

// Count returns the usage counter for a route hash.
func (l *UsageLedger) Count(h common.Hash) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[h]
}

// Track registers a route hash with a zero count if it is not yet tracked.
func (l *UsageLedger) Track(h common.Hash) {
	l.mu.Lock()
	if _, ok := l.counts[h]; !ok {
		l.counts[h] = 0
	}
	l.mu.Unlock()
}

// Drop removes a route hash and its accumulated count.
func (l *UsageLedger) Drop(h common.Hash) {
	l.mu.Lock()
	delete(l.counts, h)
	l.mu.Unlock()
}

// Len returns the number of tracked routes.
func (l *UsageLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counts)
}

// Rotator owns the route population the bot trades over. On each rotation it
// retires the most-used fraction of routes (their usage fingerprint is
// discarded to reduce predictability) and injects untracked higher-complexity
// routes with fresh zero counts. The rotator never executes trades itself.
type Rotator struct {
	mu           sync.Mutex
	universe     []string
	dropFraction float64
	routes       map[common.Hash]domain.TradeRoute
	ledger       *UsageLedger
	lastRotation time.Time
	logger       *slog.Logger
}

// NewRotator creates a Rotator seeded with the full combinatorial route set
// from the token universe.
func NewRotator(cfg config.RotationConfig, ledger *UsageLedger, logger *slog.Logger) *Rotator {
	r := &Rotator{
		universe:     cfg.TokenUniverse,
		dropFraction: cfg.DropFraction,
		routes:       make(map[common.Hash]domain.TradeRoute),
		ledger:       ledger,
		lastRotation: time.Now(),
		logger:       logger.With(slog.String("component", "rotation")),
	}
	for _, route := range r.Generate() {
		h := route.Hash()
		r.routes[h] = route
		ledger.Track(h)
	}
	return r
}

// Generate builds every 2-hop and 3-hop path over distinct tokens from the
// universe. Order matters: A->B and B->A are different routes.
func (r *Rotator) Generate() []domain.TradeRoute {
	var routes []domain.TradeRoute
	for _, a := range r.universe {
		for _, b := range r.universe {
			if b == a {
				continue
			}
			routes = append(routes, domain.NewTradeRoute(a, b))
			for _, c := range r.universe {
				if c == a || c == b {
					continue
				}
				routes = append(routes, domain.NewTradeRoute(a, b, c))
			}
		}
	}
	return routes
}

// Rotate retires the top dropFraction most-used routes and inserts any
// untracked 3-hop-or-deeper generated route with a zero count. It returns
// the number of dropped and inserted routes.
func (r *Rotator) Rotate() (dropped, inserted int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type usage struct {
		hash  common.Hash
		count uint64
	}
	entries := make([]usage, 0, len(r.routes))
	for h := range r.routes {
		entries = append(entries, usage{hash: h, count: r.ledger.Count(h)})
	}
	// Descending by count; hash order breaks ties so rotation is
	// deterministic for a given ledger state.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return bytes.Compare(entries[i].hash[:], entries[j].hash[:]) < 0
	})

	dropN := int(math.Floor(float64(len(entries)) * r.dropFraction))
	for _, e := range entries[:dropN] {
		delete(r.routes, e.hash)
		r.ledger.Drop(e.hash)
		dropped++
	}

	for _, route := range r.Generate() {
		if route.HopCount < 3 {
			continue
		}
		h := route.Hash()
		if _, tracked := r.routes[h]; tracked {
			continue
		}
		r.routes[h] = route
		r.ledger.Track(h)
		inserted++
	}

	r.lastRotation = time.Now()
	r.logger.Info("routes rotated",
		slog.Int("dropped", dropped),
		slog.Int("inserted", inserted),
		slog.Int("population", len(r.routes)),
	)
	return dropped, inserted
}

// LastRotation returns when the population was last rotated.
func (r *Rotator) LastRotation() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRotation
}

// Routes returns a copy of the current population.
func (r *Rotator) Routes() []domain.TradeRoute {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TradeRoute, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route)
	}
	return out
}

// RouteFor returns the least-used tracked route from tokenIn to tokenOut,
// falling back to the direct pair route (tracked from then on) when the
// population has none. Both endpoints must match: a route ending elsewhere
// would trade a different pair than the opportunity's venues quote.
func (r *Rotator) RouteFor(tokenIn, tokenOut string) domain.TradeRoute {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best domain.TradeRoute
	var bestCount uint64
	found := false
	for h, route := range r.routes {
		if route.First() != tokenIn || route.Last() != tokenOut {
			continue
		}
		count := r.ledger.Count(h)
		if !found || count < bestCount {
			best = route
			bestCount = count
			found = true
		}
	}
	if found {
		return best
	}

	direct := domain.NewTradeRoute(tokenIn, tokenOut)
	h := direct.Hash()
	r.routes[h] = direct
	r.ledger.Track(h)
	return direct
}
