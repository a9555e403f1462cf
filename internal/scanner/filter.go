// Package scanner turns raw pair snapshots into a ranked list of arbitrage
// opportunities: it filters for low-competition pools, flags obscure
// ("weird") pairs that automated traders tend to ignore, cross-joins the
// same token pair across venues, and scores the resulting candidates.
package scanner

import (
	"strings"

	"github.com/alanyoungcy/dexhunter/internal/config"
	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// Filter applies the low-competition and obscure-pair predicate sets to pair
// records. Records failing a predicate set are dropped, not flagged.
type Filter struct {
	competition config.FilterConfig
	weird       config.WeirdConfig
}

// NewFilter creates a Filter from the two threshold sets.
func NewFilter(competition config.FilterConfig, weird config.WeirdConfig) *Filter {
	return &Filter{competition: competition, weird: weird}
}

// LowCompetition returns the records that pass every low-competition
// predicate: bounded volume, transaction count, liquidity window, bounded
// price movement, an allow-listed venue, and both token addresses present.
func (f *Filter) LowCompetition(records []domain.PairRecord) []domain.PairRecord {
	out := make([]domain.PairRecord, 0, len(records))
	for _, r := range records {
		if f.passesCompetition(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f *Filter) passesCompetition(r domain.PairRecord) bool {
	c := f.competition
	change := r.PriceChange24hPct
	if change < 0 {
		change = -change
	}
	return r.Volume24h <= c.MaxVolume24h &&
		r.TxCount24h <= c.MaxTxCount24h &&
		r.LiquidityUSD >= c.MinLiquidityUSD &&
		r.LiquidityUSD <= c.MaxLiquidityUSD &&
		change <= c.MaxPriceChangePct &&
		f.allowedVenue(r.ExchangeID) &&
		r.BaseToken.Address != "" &&
		r.QuoteToken.Address != ""
}

// allowedVenue matches the venue identifier against the exchange
// allow-list by substring, case-insensitively.
func (f *Filter) allowedVenue(exchangeID string) bool {
	id := strings.ToLower(exchangeID)
	for _, allowed := range f.competition.AllowedExchanges {
		if strings.Contains(id, allowed) {
			return true
		}
	}
	return false
}

// Weird returns the records that qualify as obscure pairs: some but little
// activity, a modest liquidity window, no common-token pair, and display
// names free of wrapped/stablecoin markers.
func (f *Filter) Weird(records []domain.PairRecord) []domain.PairRecord {
	out := make([]domain.PairRecord, 0, len(records))
	for _, r := range records {
		if f.IsWeird(r) {
			out = append(out, r)
		}
	}
	return out
}

// IsWeird reports whether a single record passes the obscure-pair
// predicates.
func (f *Filter) IsWeird(r domain.PairRecord) bool {
	w := f.weird
	if r.Volume24h <= 0 || r.Volume24h > w.MaxVolume24h {
		return false
	}
	if r.TxCount24h > w.MaxTxCount24h {
		return false
	}
	if r.LiquidityUSD < w.MinLiquidityUSD || r.LiquidityUSD > w.MaxLiquidityUSD {
		return false
	}
	// The common-pair exclusion needs BOTH symbols on the allow-list.
	if f.isCommonSymbol(r.BaseToken.Symbol) && f.isCommonSymbol(r.QuoteToken.Symbol) {
		return false
	}
	if hasStandardName(r.BaseToken.Name) || hasStandardName(r.QuoteToken.Name) {
		return false
	}
	return true
}

func (f *Filter) isCommonSymbol(symbol string) bool {
	s := strings.ToLower(symbol)
	for _, common := range f.weird.CommonSymbols {
		if s == common {
			return true
		}
	}
	return false
}

// hasStandardName reports whether a token display name carries a
// wrapped/stablecoin marker, which signals a token every bot already knows.
func hasStandardName(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "wrapped") || strings.Contains(n, "stablecoin")
}
