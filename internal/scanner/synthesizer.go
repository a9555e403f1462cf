package scanner

import (
	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// minPriceDiffPct is the divergence floor below which two quotes are treated
// as the same price. It also guards the percentage computation against
// near-identical prices.
const minPriceDiffPct = 0.5

// Synthesize cross-joins records that quote the same token pair on different
// venues and emits an opportunity for every pairing whose price divergence
// clears the floor. Groups are small (a handful of venues per pair), so the
// quadratic pass inside each group is fine.
//
// Output order is deterministic: groups are visited in first-seen order and
// pairings in record order, so identical input always yields identical output.
func Synthesize(records []domain.PairRecord) []domain.Opportunity {
	groups := make(map[string][]domain.PairRecord)
	var keys []string
	for _, r := range records {
		key := r.PairKey()
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], r)
	}

	var opps []domain.Opportunity
	for _, key := range keys {
		group := groups[key]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if opp, ok := synthesizePair(key, group[i], group[j]); ok {
					opps = append(opps, opp)
				}
			}
		}
	}
	return opps
}

// synthesizePair evaluates one unordered record pairing. Same-venue pairings
// and non-positive prices never produce an opportunity.
func synthesizePair(key string, a, b domain.PairRecord) (domain.Opportunity, bool) {
	if a.ExchangeID == b.ExchangeID {
		return domain.Opportunity{}, false
	}
	if a.PriceUSD <= 0 || b.PriceUSD <= 0 {
		return domain.Opportunity{}, false
	}

	low, high := a.PriceUSD, b.PriceUSD
	buy, sell := a, b
	if b.PriceUSD < a.PriceUSD {
		low, high = b.PriceUSD, a.PriceUSD
		buy, sell = b, a
	}

	diffPct := (high - low) / low * 100
	if diffPct < minPriceDiffPct {
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		TokenPairKey: key,
		BaseToken:    a.BaseToken,
		QuoteToken:   a.QuoteToken,
		VenueA:       venueOf(a),
		VenueB:       venueOf(b),
		PriceDiffAbs: high - low,
		PriceDiffPct: diffPct,
		BuyVenue:     buy.ExchangeID,
		SellVenue:    sell.ExchangeID,
	}, true
}

func venueOf(r domain.PairRecord) domain.Venue {
	return domain.Venue{
		ExchangeID:   r.ExchangeID,
		PairAddress:  r.PairAddress,
		PriceUSD:     r.PriceUSD,
		LiquidityUSD: r.LiquidityUSD,
		Volume24h:    r.Volume24h,
		TxCount24h:   r.TxCount24h,
	}
}
