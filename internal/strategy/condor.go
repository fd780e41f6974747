package strategy

import (
	"math"
	"sort"

	"github.com/eddiefleurent/income_radar/internal/options"
)

// IronCondorBuilder pairs put credit spreads below spot with call credit
// spreads above it. Only the top spreads per side by ROI are cross-joined
// to keep the pairing bounded on dense chains.
type IronCondorBuilder struct{}

// Kind implements Builder.
func (IronCondorBuilder) Kind() options.StrategyKind { return options.KindIronCondor }

// Build implements Builder.
func (IronCondorBuilder) Build(set *options.ChainSet, p Params) []options.Candidate {
	p = p.WithDefaults()

	var out []options.Candidate
	for i := range set.Chains {
		out = append(out, condors(&set.Chains[i], set.Spot, p)...)
	}
	return out
}

func condors(ch *options.Chain, spot float64, p Params) []options.Candidate {
	putSides := topByROI(collectCreditSpreads(ch.Puts, spot, MatchBelow, p), p.CondorTopK)
	callSides := topByROI(collectCreditSpreads(ch.Calls, spot, MatchAbove, p), p.CondorTopK)

	var out []options.Candidate
	for _, ps := range putSides {
		for _, cs := range callSides {
			net := ps.net + cs.net
			maxLoss := math.Max(ps.width, cs.width) - net
			if maxLoss <= 0 {
				continue
			}

			putBE := ps.short.Strike - net
			callBE := cs.short.Strike + net
			if putBE >= spot || callBE <= spot {
				continue
			}

			roi := net / maxLoss
			out = append(out, options.Candidate{
				Strategy: options.KindIronCondor,
				Variant:  options.VariantIronCondor,
				Symbol:   ch.Symbol,
				Legs: []options.CandidateLeg{
					{Side: options.Sell, Type: options.Put, Strike: ps.short.Strike, Quantity: 1, Expiration: ch.Expiration},
					{Side: options.Buy, Type: options.Put, Strike: ps.long.Strike, Quantity: 1, Expiration: ch.Expiration},
					{Side: options.Sell, Type: options.Call, Strike: cs.short.Strike, Quantity: 1, Expiration: ch.Expiration},
					{Side: options.Buy, Type: options.Call, Strike: cs.long.Strike, Quantity: 1, Expiration: ch.Expiration},
				},
				Expiration:       ch.Expiration,
				DaysToExpiry:     ch.DaysToExpiry,
				NetPrice:         net,
				CapitalAtRisk:    maxLoss * 100,
				ROI:              roi,
				AnnualizedReturn: options.Annualize(roi, ch.DaysToExpiry),
				AnnualizedValid:  true,
				Breakevens:       []float64{putBE, callBE},
				NetDelta:         -ps.short.Delta + ps.long.Delta - cs.short.Delta + cs.long.Delta,
				DistancePct: math.Min(
					(spot-ps.short.Strike)/spot,
					(cs.short.Strike-spot)/spot,
				) * 100,
			})
		}
	}
	return out
}

// topByROI returns the k best spreads by return on max loss, leaving the
// input untouched. Ties keep their original chain order so rebuilds are
// reproducible.
func topByROI(spreads []creditSpread, k int) []creditSpread {
	sorted := make([]creditSpread, len(spreads))
	copy(sorted, spreads)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].roi() > sorted[j].roi()
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}
