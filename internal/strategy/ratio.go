package strategy

import (
	"math"

	"github.com/eddiefleurent/income_radar/internal/options"
)

// RatioSpreadBuilder emits 1x2 call ratio spreads: one long call near the
// money financed by two short calls a width higher. Risk above the short
// strike is unbounded, so candidates carry no capital figure and are
// flagged instead of annualized.
type RatioSpreadBuilder struct{}

// Kind implements Builder.
func (RatioSpreadBuilder) Kind() options.StrategyKind { return options.KindRatioSpread }

// Build implements Builder.
func (RatioSpreadBuilder) Build(set *options.ChainSet, p Params) []options.Candidate {
	p = p.WithDefaults()

	var out []options.Candidate
	for i := range set.Chains {
		out = append(out, ratioSpreads(&set.Chains[i], set.Spot, p)...)
	}
	return out
}

func ratioSpreads(ch *options.Chain, spot float64, p Params) []options.Candidate {
	var out []options.Candidate
	for _, long := range ch.Calls {
		if !p.RatioLongDelta.ContainsAbs(long.Delta) || long.Ask <= 0 {
			continue
		}

		// Strike grids thin out away from the money, so the short pair
		// matches under the wider tolerance.
		short, ok := MatchLeg(long, ch.Calls, p.Width, MatchAbove, p.SparseTolerance)
		if !ok || short.Bid <= 0 {
			continue
		}

		net := 2*short.Bid - long.Ask
		width := math.Abs(short.Strike - long.Strike)

		// Past the profit peak the position is net short one call, so the
		// upper breakeven sits a full width plus the credit above the
		// short strike. A lower breakeven only exists when the structure
		// opened for a debit.
		breakevens := []float64{short.Strike + width + net}
		if net < 0 {
			breakevens = append([]float64{long.Strike - net}, breakevens...)
		}

		c := options.Candidate{
			Strategy: options.KindRatioSpread,
			Variant:  options.VariantRatioCall,
			Symbol:   ch.Symbol,
			Legs: []options.CandidateLeg{
				{Side: options.Buy, Type: options.Call, Strike: long.Strike, Quantity: 1, Expiration: ch.Expiration},
				{Side: options.Sell, Type: options.Call, Strike: short.Strike, Quantity: 2, Expiration: ch.Expiration},
			},
			Expiration:      ch.Expiration,
			DaysToExpiry:    ch.DaysToExpiry,
			NetPrice:        net,
			RiskUnbounded:   true,
			AnnualizedValid: false,
			Breakevens:      breakevens,
			NetDelta:        long.Delta - 2*short.Delta,
			DistancePct:     (short.Strike - spot) / spot * 100,
		}
		c.AddFlag(options.FlagUnboundedRisk)
		c.AddFlag(options.FlagAnnualizedNA)
		out = append(out, c)
	}
	return out
}
