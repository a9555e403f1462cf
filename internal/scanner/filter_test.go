package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexhunter/internal/config"
	"github.com/alanyoungcy/dexhunter/internal/domain"
)

func testFilter() *Filter {
	cfg := config.Defaults()
	return NewFilter(cfg.Filter, cfg.Weird)
}

func quietRecord() domain.PairRecord {
	return domain.PairRecord{
		ExchangeID:        "uniswap",
		PairAddress:       "0xpool",
		BaseToken:         domain.Token{Address: "0xaaa", Symbol: "OBSC", Name: "Obscure Token"},
		QuoteToken:        domain.Token{Address: "0xbbb", Symbol: "MYST", Name: "Mystery"},
		PriceUSD:          1.5,
		LiquidityUSD:      10_000,
		Volume24h:         5_000,
		TxCount24h:        30,
		PriceChange24hPct: 4,
		ChainID:           "base",
	}
}

func TestLowCompetitionAcceptsQuietPool(t *testing.T) {
	f := testFilter()

	out := f.LowCompetition([]domain.PairRecord{quietRecord()})
	require.Len(t, out, 1)
}

func TestLowCompetitionRejections(t *testing.T) {
	f := testFilter()

	cases := map[string]func(*domain.PairRecord){
		"volume above cap":     func(r *domain.PairRecord) { r.Volume24h = 100_001 },
		"too many txns":        func(r *domain.PairRecord) { r.TxCount24h = 201 },
		"liquidity too low":    func(r *domain.PairRecord) { r.LiquidityUSD = 99 },
		"liquidity too high":   func(r *domain.PairRecord) { r.LiquidityUSD = 500_001 },
		"price swing too wide": func(r *domain.PairRecord) { r.PriceChange24hPct = -150 },
		"unknown venue":        func(r *domain.PairRecord) { r.ExchangeID = "cexclone" },
		"missing base address": func(r *domain.PairRecord) { r.BaseToken.Address = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := quietRecord()
			mutate(&r)
			assert.Empty(t, f.LowCompetition([]domain.PairRecord{r}))
		})
	}
}

func TestLowCompetitionVenueMatchIsSubstring(t *testing.T) {
	f := testFilter()

	r := quietRecord()
	r.ExchangeID = "UniswapV3"
	require.Len(t, f.LowCompetition([]domain.PairRecord{r}), 1)
}

func TestIsWeirdAcceptsObscurePair(t *testing.T) {
	f := testFilter()
	assert.True(t, f.IsWeird(quietRecord()))
}

func TestIsWeirdRejections(t *testing.T) {
	f := testFilter()

	cases := map[string]func(*domain.PairRecord){
		"zero volume":       func(r *domain.PairRecord) { r.Volume24h = 0 },
		"volume above cap":  func(r *domain.PairRecord) { r.Volume24h = 50_001 },
		"too many txns":     func(r *domain.PairRecord) { r.TxCount24h = 51 },
		"liquidity too low": func(r *domain.PairRecord) { r.LiquidityUSD = 499 },
		"wrapped marker": func(r *domain.PairRecord) {
			r.BaseToken.Name = "Wrapped Something"
		},
		"stablecoin marker": func(r *domain.PairRecord) {
			r.QuoteToken.Name = "Super Stablecoin"
		},
		"both symbols common": func(r *domain.PairRecord) {
			r.BaseToken.Symbol = "WETH"
			r.QuoteToken.Symbol = "USDC"
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := quietRecord()
			mutate(&r)
			assert.False(t, f.IsWeird(r))
		})
	}
}

func TestIsWeirdOneCommonSymbolStillQualifies(t *testing.T) {
	f := testFilter()

	r := quietRecord()
	r.QuoteToken.Symbol = "WETH"
	r.QuoteToken.Name = "Ether" // keep the name free of wrapped markers
	assert.True(t, f.IsWeird(r))
}
