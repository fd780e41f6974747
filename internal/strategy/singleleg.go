package strategy

import (
	"math"

	"github.com/eddiefleurent/income_radar/internal/options"
)

// SingleLegBuilder emits cash-secured puts and covered calls for income,
// plus long calls and long puts for directional exposure.
type SingleLegBuilder struct{}

// Kind implements Builder.
func (SingleLegBuilder) Kind() options.StrategyKind { return options.KindSingleLeg }

// Build implements Builder.
func (SingleLegBuilder) Build(set *options.ChainSet, p Params) []options.Candidate {
	p = p.WithDefaults()

	var out []options.Candidate
	for i := range set.Chains {
		ch := &set.Chains[i]
		out = append(out, cashSecuredPuts(ch, set.Spot, p)...)
		out = append(out, coveredCalls(ch, set.Spot, p)...)
		out = append(out, longOptions(ch, set.Spot, p)...)
	}
	return out
}

// cashSecuredPuts anchors on out-of-the-money puts inside the strike
// range. The credit is the resting bid, and the full strike is reserved
// as capital.
func cashSecuredPuts(ch *options.Chain, spot float64, p Params) []options.Candidate {
	lo, _ := strikeBounds(spot, p.StrikeRangePct)

	var out []options.Candidate
	for _, leg := range ch.Puts {
		if leg.Strike < lo || leg.Strike > spot || leg.Bid <= 0 {
			continue
		}

		credit := leg.Bid
		roi := credit / leg.Strike
		out = append(out, options.Candidate{
			Strategy: options.KindSingleLeg,
			Variant:  options.VariantCashSecuredPut,
			Symbol:   ch.Symbol,
			Legs: []options.CandidateLeg{
				{Side: options.Sell, Type: options.Put, Strike: leg.Strike, Quantity: 1, Expiration: ch.Expiration},
			},
			Expiration:       ch.Expiration,
			DaysToExpiry:     ch.DaysToExpiry,
			NetPrice:         credit,
			CapitalAtRisk:    leg.Strike * 100,
			ROI:              roi,
			AnnualizedReturn: options.Annualize(roi, ch.DaysToExpiry),
			AnnualizedValid:  true,
			Breakevens:       []float64{leg.Strike - credit},
			NetDelta:         -leg.Delta,
			DistancePct:      (spot - leg.Strike) / spot * 100,
		})
	}
	return out
}

// coveredCalls anchors on out-of-the-money calls, assuming the shares are
// already held: capital is the share position, and the breakeven is the
// share cost reduced by the credit.
func coveredCalls(ch *options.Chain, spot float64, p Params) []options.Candidate {
	_, hi := strikeBounds(spot, p.StrikeRangePct)

	var out []options.Candidate
	for _, leg := range ch.Calls {
		if leg.Strike < spot || leg.Strike > hi || leg.Bid <= 0 {
			continue
		}

		credit := leg.Bid
		roi := credit / spot
		out = append(out, options.Candidate{
			Strategy: options.KindSingleLeg,
			Variant:  options.VariantCoveredCall,
			Symbol:   ch.Symbol,
			Legs: []options.CandidateLeg{
				{Side: options.Sell, Type: options.Call, Strike: leg.Strike, Quantity: 1, Expiration: ch.Expiration},
			},
			Expiration:       ch.Expiration,
			DaysToExpiry:     ch.DaysToExpiry,
			NetPrice:         credit,
			CapitalAtRisk:    spot * 100,
			ROI:              roi,
			AnnualizedReturn: options.Annualize(roi, ch.DaysToExpiry),
			AnnualizedValid:  true,
			Breakevens:       []float64{spot - credit},
			NetDelta:         -leg.Delta,
			DistancePct:      (leg.Strike - spot) / spot * 100,
		})
	}
	return out
}

// longOptions emits outright long calls and puts anchored near the
// half-delta band. ROI has no bounded ceiling for these, so ranking runs
// on leverage instead: delta exposure in underlying dollars per premium
// dollar.
func longOptions(ch *options.Chain, spot float64, p Params) []options.Candidate {
	lo, hi := strikeBounds(spot, p.StrikeRangePct)

	var out []options.Candidate
	emit := func(leg options.Leg, variant string, breakeven float64) {
		c := options.Candidate{
			Strategy: options.KindSingleLeg,
			Variant:  variant,
			Symbol:   ch.Symbol,
			Legs: []options.CandidateLeg{
				{Side: options.Buy, Type: leg.Type, Strike: leg.Strike, Quantity: 1, Expiration: ch.Expiration},
			},
			Expiration:      ch.Expiration,
			DaysToExpiry:    ch.DaysToExpiry,
			NetPrice:        -leg.Ask,
			CapitalAtRisk:   leg.Ask * 100,
			AnnualizedValid: false,
			Breakevens:      []float64{breakeven},
			NetDelta:        leg.Delta,
			Leverage:        math.Abs(leg.Delta) * spot / leg.Ask,
		}
		c.AddFlag(options.FlagAnnualizedNA)
		out = append(out, c)
	}

	for _, leg := range ch.Calls {
		if leg.Strike < lo || leg.Strike > hi || leg.Ask <= 0 {
			continue
		}
		if !p.LongDelta.ContainsAbs(leg.Delta) {
			continue
		}
		emit(leg, options.VariantLongCall, leg.Strike+leg.Ask)
	}
	for _, leg := range ch.Puts {
		if leg.Strike < lo || leg.Strike > hi || leg.Ask <= 0 {
			continue
		}
		if !p.LongDelta.ContainsAbs(leg.Delta) {
			continue
		}
		emit(leg, options.VariantLongPut, leg.Strike-leg.Ask)
	}
	return out
}
