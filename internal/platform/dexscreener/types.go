package dexscreener

import (
	"strconv"

	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// pairsResponse is the top-level shape of both the /tokens and /search
// endpoints.
type pairsResponse struct {
	Pairs []APIPair `json:"pairs"`
}

// APIPair mirrors one pair object from the DexScreener API. Numeric fields
// arrive as strings or nested objects; ToDomain normalizes them.
type APIPair struct {
	ChainID     string   `json:"chainId"`
	DexID       string   `json:"dexId"`
	PairAddress string   `json:"pairAddress"`
	BaseToken   APIToken `json:"baseToken"`
	QuoteToken  APIToken `json:"quoteToken"`
	PriceUSD    string   `json:"priceUsd"`
	Liquidity   struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Txns struct {
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
}

// APIToken mirrors a token object from the DexScreener API.
type APIToken struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

// ToDomain converts the API pair into an immutable PairRecord snapshot.
// Unparseable numeric strings become zero, matching the feed's own habit of
// omitting fields for dead pools; downstream filters drop such records.
func (p APIPair) ToDomain() domain.PairRecord {
	price, _ := strconv.ParseFloat(p.PriceUSD, 64)
	return domain.PairRecord{
		ExchangeID:  p.DexID,
		PairAddress: p.PairAddress,
		BaseToken: domain.Token{
			Address: p.BaseToken.Address,
			Symbol:  p.BaseToken.Symbol,
			Name:    p.BaseToken.Name,
		},
		QuoteToken: domain.Token{
			Address: p.QuoteToken.Address,
			Symbol:  p.QuoteToken.Symbol,
			Name:    p.QuoteToken.Name,
		},
		PriceUSD:          price,
		LiquidityUSD:      p.Liquidity.USD,
		Volume24h:         p.Volume.H24,
		TxCount24h:        p.Txns.H24.Buys + p.Txns.H24.Sells,
		PriceChange24hPct: p.PriceChange.H24,
		ChainID:           p.ChainID,
	}
}
