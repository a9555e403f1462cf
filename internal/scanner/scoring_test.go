package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/dexhunter/internal/config"
	"github.com/alanyoungcy/dexhunter/internal/domain"
)

func testScorer() *Scorer {
	return NewScorer(config.Defaults().Weird)
}

func opportunity(volumeA, volumeB float64, txA, txB int) domain.Opportunity {
	return domain.Opportunity{
		BaseToken:  domain.Token{Address: "0xaaa", Symbol: "OBSC", Name: "Obscure Token"},
		QuoteToken: domain.Token{Address: "0xbbb", Symbol: "WETH", Name: "Ether"},
		VenueA:     domain.Venue{ExchangeID: "uniswap", Volume24h: volumeA, TxCount24h: txA, LiquidityUSD: 10_000},
		VenueB:     domain.Venue{ExchangeID: "aerodrome", Volume24h: volumeB, TxCount24h: txB, LiquidityUSD: 10_000},
	}
}

func TestCompetitionScore(t *testing.T) {
	s := testScorer()

	// totalVolume/1000 + totalTxns*10 = 30000/1000 + 15*10.
	got := s.CompetitionScore(opportunity(10_000, 20_000, 5, 10))
	assert.InDelta(t, 180.0, got, 1e-9)
}

func TestCompetitionScoreZeroActivity(t *testing.T) {
	s := testScorer()
	assert.Zero(t, s.CompetitionScore(opportunity(0, 0, 0, 0)))
}

func TestWeirdnessScoreTiers(t *testing.T) {
	s := testScorer()

	// Per venue: volume 5k (+30), tx 10 (+30), liquidity 10k (+15),
	// one uncommon symbol (+10, WETH is common and OBSC is not).
	o := opportunity(5_000, 5_000, 10, 10)
	assert.Equal(t, 2*(30+30+15+10), s.WeirdnessScore(o))
}

func TestWeirdnessScoreBothUncommonAndDigits(t *testing.T) {
	s := testScorer()

	o := opportunity(5_000, 5_000, 10, 10)
	o.QuoteToken = domain.Token{Address: "0xbbb", Symbol: "X42", Name: "An Experimental Token Name"}
	// Per venue: volume +30, tx +30, liquidity +15, both uncommon +20,
	// long name +10, digit in symbol +5.
	assert.Equal(t, 2*(30+30+15+20+10+5), s.WeirdnessScore(o))
}

func TestScoreIsDeterministic(t *testing.T) {
	s := testScorer()
	o := opportunity(12_345, 678, 9, 87)

	first := s.WeirdnessScore(o)
	second := s.WeirdnessScore(o)
	assert.Equal(t, first, second)
	assert.Equal(t, s.CompetitionScore(o), s.CompetitionScore(o))
}

func TestScoreFlagsWeirdPairAtThreshold(t *testing.T) {
	s := testScorer()
	opps := []domain.Opportunity{opportunity(5_000, 5_000, 10, 10)}

	s.Score(opps)
	assert.True(t, opps[0].IsWeirdPair)
	assert.GreaterOrEqual(t, opps[0].WeirdnessScore, 50)
}

func TestSortWeirdFirst(t *testing.T) {
	opps := []domain.Opportunity{
		{TokenPairKey: "plain-low", IsWeirdPair: false, CompetitionScore: 10},
		{TokenPairKey: "weird-low", IsWeirdPair: true, WeirdnessScore: 60, CompetitionScore: 100},
		{TokenPairKey: "weird-high", IsWeirdPair: true, WeirdnessScore: 90, CompetitionScore: 150},
		{TokenPairKey: "plain-high", IsWeirdPair: false, CompetitionScore: 50},
	}

	SortWeirdFirst(opps)

	keys := []string{opps[0].TokenPairKey, opps[1].TokenPairKey, opps[2].TokenPairKey, opps[3].TokenPairKey}
	assert.Equal(t, []string{"weird-high", "weird-low", "plain-low", "plain-high"}, keys)
}

func TestSortWeirdFirstTieBreaksByCompetition(t *testing.T) {
	opps := []domain.Opportunity{
		{TokenPairKey: "a", IsWeirdPair: true, WeirdnessScore: 70, CompetitionScore: 120},
		{TokenPairKey: "b", IsWeirdPair: true, WeirdnessScore: 70, CompetitionScore: 40},
	}

	SortWeirdFirst(opps)
	assert.Equal(t, "b", opps[0].TokenPairKey)
}

func TestSortWeirdFirstIsStable(t *testing.T) {
	opps := []domain.Opportunity{
		{TokenPairKey: "first", IsWeirdPair: true, WeirdnessScore: 70, CompetitionScore: 40},
		{TokenPairKey: "second", IsWeirdPair: true, WeirdnessScore: 70, CompetitionScore: 40},
	}

	SortWeirdFirst(opps)
	SortWeirdFirst(opps)
	assert.Equal(t, "first", opps[0].TokenPairKey)
	assert.Equal(t, "second", opps[1].TokenPairKey)
}

func TestSortByCompetition(t *testing.T) {
	opps := []domain.Opportunity{
		{TokenPairKey: "high", CompetitionScore: 199, IsWeirdPair: true, WeirdnessScore: 100},
		{TokenPairKey: "low", CompetitionScore: 5},
	}

	SortByCompetition(opps)
	assert.Equal(t, "low", opps[0].TokenPairKey)
}
