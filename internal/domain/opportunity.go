package domain

// Venue is one side of an opportunity: a DEX listing the token pair, with the
// figures the scorer needs.
type Venue struct {
	ExchangeID   string  `json:"exchange_id"`
	PairAddress  string  `json:"pair_address"`
	PriceUSD     float64 `json:"price_usd"`
	LiquidityUSD float64 `json:"liquidity_usd"`
	Volume24h    float64 `json:"volume_24h"`
	TxCount24h   int     `json:"tx_count_24h"`
}

// Opportunity is a detected price divergence for one token pair across two
// venues. Opportunities are recomputed from scratch every scan and never
// mutated after creation; their position in the ranked list determines
// processing order, but they carry no cross-scan identity.
//
// Invariants: PriceDiffPct >= 0 and VenueA.ExchangeID != VenueB.ExchangeID.
type Opportunity struct {
	TokenPairKey string `json:"token_pair_key"`
	BaseToken    Token  `json:"base_token"`
	QuoteToken   Token  `json:"quote_token"`

	VenueA Venue `json:"venue_a"`
	VenueB Venue `json:"venue_b"`

	PriceDiffAbs float64 `json:"price_diff_abs"`
	PriceDiffPct float64 `json:"price_diff_pct"`

	// BuyVenue is the exchange ID with the lower price; SellVenue the other.
	BuyVenue  string `json:"buy_venue"`
	SellVenue string `json:"sell_venue"`

	CompetitionScore float64 `json:"competition_score"`
	WeirdnessScore   int     `json:"weirdness_score"`
	IsWeirdPair      bool    `json:"is_weird_pair"`
}

// TotalLiquidityUSD sums the pool liquidity on both venues.
func (o Opportunity) TotalLiquidityUSD() float64 {
	return o.VenueA.LiquidityUSD + o.VenueB.LiquidityUSD
}

// TotalVolume24h sums the 24h volume on both venues.
func (o Opportunity) TotalVolume24h() float64 {
	return o.VenueA.Volume24h + o.VenueB.Volume24h
}
