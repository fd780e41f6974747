package strategy

import (
	"time"

	"github.com/eddiefleurent/income_radar/internal/options"
)

// Fixed "today" so fixtures are reproducible.
var testDay = time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)

func testLeg(typ options.OptionType, strike, bid, ask, delta float64) options.Leg {
	return options.Leg{
		ChainRow: options.ChainRow{
			Strike:            strike,
			Bid:               bid,
			Ask:               ask,
			ImpliedVolatility: 0.25,
			OpenInterest:      200,
			Volume:            40,
		},
		Type:  typ,
		Delta: delta,
	}
}

// testChain stamps expiration timing onto handcrafted legs. Legs should
// arrive strike-sorted, matching what Normalize produces.
func testChain(spot float64, dte int, calls, puts []options.Leg) options.Chain {
	exp := testDay.AddDate(0, 0, dte)
	for i := range calls {
		calls[i].Expiration = exp
		calls[i].DaysToExpiry = dte
	}
	for i := range puts {
		puts[i].Expiration = exp
		puts[i].DaysToExpiry = dte
	}
	return options.Chain{
		Symbol:       "SPY",
		Spot:         spot,
		Expiration:   exp,
		DaysToExpiry: dte,
		Calls:        calls,
		Puts:         puts,
	}
}

func testSet(spot float64, chains ...options.Chain) *options.ChainSet {
	set := &options.ChainSet{Symbol: "SPY", Spot: spot, Chains: chains}
	set.SortByExpiration()
	return set
}

func byVariant(cands []options.Candidate, variant string) []options.Candidate {
	var out []options.Candidate
	for _, c := range cands {
		if c.Variant == variant {
			out = append(out, c)
		}
	}
	return out
}
