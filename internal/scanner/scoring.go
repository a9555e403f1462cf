package scanner

import (
	"sort"
	"strings"
	"unicode"

	"github.com/alanyoungcy/dexhunter/internal/config"
	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// Scorer computes competition and weirdness scores and ranks opportunities.
// Both scores are pure functions of the two constituent pair records, so
// scoring the same snapshot twice always yields the same numbers.
type Scorer struct {
	weird config.WeirdConfig
}

// NewScorer creates a Scorer using the obscure-pair configuration for the
// commonality checks and the weird threshold.
func NewScorer(weird config.WeirdConfig) *Scorer {
	return &Scorer{weird: weird}
}

// Score fills in CompetitionScore, WeirdnessScore, and IsWeirdPair for every
// opportunity in place.
func (s *Scorer) Score(opps []domain.Opportunity) {
	for i := range opps {
		opps[i].CompetitionScore = s.CompetitionScore(opps[i])
		opps[i].WeirdnessScore = s.WeirdnessScore(opps[i])
		opps[i].IsWeirdPair = opps[i].WeirdnessScore >= s.weird.WeirdThreshold
	}
}

// CompetitionScore estimates how contested an opportunity already is. It
// penalizes volume and transaction count summed across both venues; lower
// means safer.
func (s *Scorer) CompetitionScore(o domain.Opportunity) float64 {
	totalVolume := o.VenueA.Volume24h + o.VenueB.Volume24h
	totalTxns := o.VenueA.TxCount24h + o.VenueB.TxCount24h
	return totalVolume/1000 + float64(totalTxns)*10
}

// WeirdnessScore estimates how likely an opportunity is to be unnoticed by
// other bots. Each venue's record earns tiered bonuses for low activity and
// liquidity plus bonuses for uncommon or oddly named tokens; the two records'
// scores are summed. The tier cutoffs and bonus magnitudes are tuned values
// carried over unchanged.
func (s *Scorer) WeirdnessScore(o domain.Opportunity) int {
	return s.recordScore(o, o.VenueA) + s.recordScore(o, o.VenueB)
}

func (s *Scorer) recordScore(o domain.Opportunity, v domain.Venue) int {
	score := 0

	switch {
	case v.Volume24h < 10_000:
		score += 30
	case v.Volume24h < 25_000:
		score += 20
	case v.Volume24h < 50_000:
		score += 10
	}

	switch {
	case v.TxCount24h < 20:
		score += 30
	case v.TxCount24h < 50:
		score += 20
	case v.TxCount24h < 100:
		score += 10
	}

	switch {
	case v.LiquidityUSD < 5_000:
		score += 20
	case v.LiquidityUSD < 20_000:
		score += 15
	case v.LiquidityUSD < 50_000:
		score += 10
	}

	baseCommon := s.isCommonSymbol(o.BaseToken.Symbol)
	quoteCommon := s.isCommonSymbol(o.QuoteToken.Symbol)
	switch {
	case !baseCommon && !quoteCommon:
		score += 20
	case !baseCommon || !quoteCommon:
		score += 10
	}

	if len(o.BaseToken.Name) > 20 || len(o.QuoteToken.Name) > 20 {
		score += 10
	}
	if hasDigit(o.BaseToken.Symbol) || hasDigit(o.QuoteToken.Symbol) {
		score += 5
	}

	return score
}

func (s *Scorer) isCommonSymbol(symbol string) bool {
	lower := strings.ToLower(symbol)
	for _, common := range s.weird.CommonSymbols {
		if lower == common {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// SortWeirdFirst ranks opportunities with weird pairs ahead of plain ones,
// then by descending weirdness, then by ascending competition. The sort is
// stable, so remaining ties keep discovery order.
func SortWeirdFirst(opps []domain.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		a, b := opps[i], opps[j]
		if a.IsWeirdPair != b.IsWeirdPair {
			return a.IsWeirdPair
		}
		if a.WeirdnessScore != b.WeirdnessScore {
			return a.WeirdnessScore > b.WeirdnessScore
		}
		return a.CompetitionScore < b.CompetitionScore
	})
}

// SortByCompetition ranks opportunities by ascending competition score only.
// Stable, so ties keep discovery order.
func SortByCompetition(opps []domain.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].CompetitionScore < opps[j].CompetitionScore
	})
}
