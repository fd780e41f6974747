package strategy

import (
	"math"

	"github.com/eddiefleurent/income_radar/internal/options"
)

// StraddleBuilder buys the call nearest 0.5 delta and the put nearest
// -0.5 delta. Both legs must land on the same strike: if the nearest
// deltas sit on different strikes, no straddle exists for that
// expiration.
type StraddleBuilder struct{}

// Kind implements Builder.
func (StraddleBuilder) Kind() options.StrategyKind { return options.KindStraddle }

// Build implements Builder.
func (StraddleBuilder) Build(set *options.ChainSet, p Params) []options.Candidate {
	var out []options.Candidate
	for i := range set.Chains {
		if c, ok := straddle(&set.Chains[i]); ok {
			out = append(out, c)
		}
	}
	return out
}

func straddle(ch *options.Chain) (options.Candidate, bool) {
	call, okCall := nearestDelta(ch.Calls, 0.5)
	put, okPut := nearestDelta(ch.Puts, -0.5)
	if !okCall || !okPut {
		return options.Candidate{}, false
	}
	if math.Abs(call.Strike-put.Strike) > strikeEpsilon {
		return options.Candidate{}, false
	}
	if call.Ask <= 0 || put.Ask <= 0 {
		return options.Candidate{}, false
	}

	debit := call.Ask + put.Ask
	strike := call.Strike
	c := options.Candidate{
		Strategy: options.KindStraddle,
		Variant:  options.VariantStraddle,
		Symbol:   ch.Symbol,
		Legs: []options.CandidateLeg{
			{Side: options.Buy, Type: options.Call, Strike: strike, Quantity: 1, Expiration: ch.Expiration},
			{Side: options.Buy, Type: options.Put, Strike: strike, Quantity: 1, Expiration: ch.Expiration},
		},
		Expiration:      ch.Expiration,
		DaysToExpiry:    ch.DaysToExpiry,
		NetPrice:        -debit,
		CapitalAtRisk:   debit * 100,
		AnnualizedValid: false,
		Breakevens:      []float64{strike - debit, strike + debit},
		NetDelta:        call.Delta + put.Delta,
	}
	c.AddFlag(options.FlagAnnualizedNA)
	return c, true
}

// nearestDelta picks the leg whose delta is closest to target. Ties keep
// the lower strike since legs arrive strike-sorted.
func nearestDelta(legs []options.Leg, target float64) (options.Leg, bool) {
	if len(legs) == 0 {
		return options.Leg{}, false
	}

	best := legs[0]
	bestDist := math.Abs(legs[0].Delta - target)
	for _, leg := range legs[1:] {
		if dist := math.Abs(leg.Delta - target); dist < bestDist {
			best, bestDist = leg, dist
		}
	}
	return best, true
}
