// Package domain defines the core data model of the dexhunter bot: pair
// snapshots fetched from the market-data feed, synthesized opportunities,
// trade routes with their usage ledger, and execution plans. Types here are
// plain data; behavior lives in the scanner and engine packages.
package domain

// Token identifies an ERC-20 token as reported by the market-data feed.
type Token struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

// PairRecord is an immutable snapshot of one exchange's view of one pool at
// fetch time. Records are created per fetch cycle, consumed by the filter and
// synthesizer, and discarded after scoring; they are never persisted.
type PairRecord struct {
	ExchangeID        string  `json:"exchange_id"`
	PairAddress       string  `json:"pair_address"`
	BaseToken         Token   `json:"base_token"`
	QuoteToken        Token   `json:"quote_token"`
	PriceUSD          float64 `json:"price_usd"`
	LiquidityUSD      float64 `json:"liquidity_usd"`
	Volume24h         float64 `json:"volume_24h"`
	TxCount24h        int     `json:"tx_count_24h"`
	PriceChange24hPct float64 `json:"price_change_24h_pct"`
	ChainID           string  `json:"chain_id"`
}

// PairKey returns the token-pair grouping key (baseAddr-quoteAddr) used by
// the synthesizer to match the same pair across venues.
func (p PairRecord) PairKey() string {
	return p.BaseToken.Address + "-" + p.QuoteToken.Address
}
