package engine

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexhunter/internal/config"
	"github.com/alanyoungcy/dexhunter/internal/domain"
	"github.com/alanyoungcy/dexhunter/internal/scanner"
)

type staticFetcher struct {
	records []domain.PairRecord
}

func (s staticFetcher) Fetch(context.Context, []string, []string) []domain.PairRecord {
	return s.records
}

type memScanStore struct {
	mu    sync.Mutex
	scans []domain.ScanRecord
	tops  [][]domain.Opportunity
}

func (m *memScanStore) CreateScan(_ context.Context, scan domain.ScanRecord, top []domain.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans = append(m.scans, scan)
	m.tops = append(m.tops, top)
	return nil
}

func (m *memScanStore) ListScans(context.Context, domain.ListOpts) ([]domain.ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scans, nil
}

type memPublisher struct {
	mu      sync.Mutex
	results []*scanner.Result
}

func (m *memPublisher) Publish(res *scanner.Result) {
	m.mu.Lock()
	m.results = append(m.results, res)
	m.mu.Unlock()
}

func arbitragePair(exchange string, price float64) domain.PairRecord {
	return domain.PairRecord{
		ExchangeID:        exchange,
		PairAddress:       "0xpool-" + exchange,
		BaseToken:         domain.Token{Address: "0xaaa", Symbol: "OBSC", Name: "Obscure Token"},
		QuoteToken:        domain.Token{Address: "0xbbb", Symbol: "MYST", Name: "Mystery"},
		PriceUSD:          price,
		LiquidityUSD:      10_000,
		Volume24h:         5_000,
		TxCount24h:        30,
		PriceChange24hPct: 4,
		ChainID:           "base",
	}
}

func newTestDriver(t *testing.T, opts ...DriverOption) *Driver {
	t.Helper()
	cfg := config.Defaults()
	cfg.Engine.SnapshotPath = filepath.Join(t.TempDir(), "opportunities.json")

	sc := scanner.New(staticFetcher{records: []domain.PairRecord{
		arbitragePair("uniswap", 100),
		arbitragePair("aerodrome", 103),
	}}, &cfg, discardLogger())
	rotator := NewRotator(cfg.Rotation, NewUsageLedger(), discardLogger())
	return NewDriver(sc, rotator, &cfg, discardLogger(), opts...)
}

func TestRunCycleUpdatesStatsAndLatest(t *testing.T) {
	d := newTestDriver(t)

	ok := d.RunCycle(context.Background())
	require.True(t, ok)

	stats := d.Stats().Snapshot()
	assert.Equal(t, uint64(1), stats.ScansRun)
	assert.Equal(t, uint64(1), stats.Opportunities)
	assert.Equal(t, uint64(1), stats.WeirdFound)

	latest := d.Latest()
	require.NotNil(t, latest)
	assert.Len(t, latest.Opportunities, 1)
}

func TestRunCycleSkipsWhenAlreadyRunning(t *testing.T) {
	d := newTestDriver(t)

	d.running.Store(true)
	assert.False(t, d.RunCycle(context.Background()))
	assert.Zero(t, d.Stats().Snapshot().ScansRun)

	d.running.Store(false)
	assert.True(t, d.RunCycle(context.Background()))
}

func TestRunCyclePersistsAndPublishes(t *testing.T) {
	store := &memScanStore{}
	pub := &memPublisher{}
	d := newTestDriver(t, WithScanStore(store), WithPublisher(pub))

	require.True(t, d.RunCycle(context.Background()))

	require.Len(t, store.scans, 1)
	assert.Equal(t, 1, store.scans[0].Opportunities)
	require.Len(t, store.tops, 1)
	assert.Len(t, store.tops[0], 1)

	require.Len(t, pub.results, 1)
	assert.Equal(t, store.scans[0].ID, pub.results[0].ScanID)
}

func TestLogStatsWritesCounters(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Defaults()
	cfg.Engine.SnapshotPath = filepath.Join(t.TempDir(), "opportunities.json")

	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sc := scanner.New(staticFetcher{records: []domain.PairRecord{
		arbitragePair("uniswap", 100),
		arbitragePair("aerodrome", 103),
	}}, &cfg, logger)
	d := NewDriver(sc, NewRotator(cfg.Rotation, NewUsageLedger(), logger), &cfg, logger)

	require.True(t, d.RunCycle(context.Background()))
	buf.Reset()
	d.logStats()

	out := buf.String()
	assert.Contains(t, out, `"msg":"stats"`)
	assert.Contains(t, out, `"scans_run":1`)
	assert.Contains(t, out, `"opportunities":1`)
	assert.Contains(t, out, `"trades_executed":0`)
}
