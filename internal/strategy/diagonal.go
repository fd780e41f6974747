package strategy

import (
	"math"

	"github.com/eddiefleurent/income_radar/internal/options"
)

// DiagonalBuilder spans two expirations. It emits poor-man's covered
// calls (deep in-the-money far call financed by a near short call at a
// higher strike) and same-strike call calendars. Neither shape has a
// closed-form return at the near expiration, so ROI stays zero and
// ranking runs on net price.
type DiagonalBuilder struct{}

// Kind implements Builder.
func (DiagonalBuilder) Kind() options.StrategyKind { return options.KindDiagonal }

// Build implements Builder.
func (DiagonalBuilder) Build(set *options.ChainSet, p Params) []options.Candidate {
	p = p.WithDefaults()

	nears := set.NearTerm(p.NearMinDays, p.NearMaxDays)
	fars := set.FarTerm(p.FarMinDays)
	if len(nears) == 0 || len(fars) == 0 {
		return nil
	}

	var out []options.Candidate
	for i := range fars {
		for j := range nears {
			out = append(out, pmccs(&nears[j], &fars[i], set.Spot, p)...)
			out = append(out, calendars(&nears[j], &fars[i], set.Spot, p)...)
		}
	}
	return out
}

// pmccs pairs far-dated stock-replacement calls with near-dated short
// calls. The short strike must sit above the long strike; a structure
// whose debit exceeds the strike separation cannot be closed for its
// width and is flagged inverted rather than dropped.
func pmccs(near, far *options.Chain, spot float64, p Params) []options.Candidate {
	var out []options.Candidate
	for _, long := range far.Calls {
		if long.Delta <= p.FarMinDelta || long.Ask <= 0 {
			continue
		}
		for _, short := range near.Calls {
			if !p.NearDelta.ContainsAbs(short.Delta) || short.Bid <= 0 {
				continue
			}
			if short.Strike <= long.Strike {
				continue
			}

			debit := long.Ask - short.Bid
			if debit <= 0 {
				continue
			}

			c := options.Candidate{
				Strategy: options.KindDiagonal,
				Variant:  options.VariantPMCC,
				Symbol:   near.Symbol,
				Legs: []options.CandidateLeg{
					{Side: options.Buy, Type: options.Call, Strike: long.Strike, Quantity: 1, Expiration: far.Expiration},
					{Side: options.Sell, Type: options.Call, Strike: short.Strike, Quantity: 1, Expiration: near.Expiration},
				},
				Expiration:      near.Expiration,
				FarExpiration:   far.Expiration,
				DaysToExpiry:    near.DaysToExpiry,
				NetPrice:        -debit,
				CapitalAtRisk:   debit * 100,
				AnnualizedValid: false,
				Breakevens:      []float64{long.Strike + debit},
				NetDelta:        long.Delta - short.Delta,
				DistancePct:     (short.Strike - spot) / spot * 100,
			}
			c.AddFlag(options.FlagAnnualizedNA)
			if debit >= short.Strike-long.Strike {
				c.AddFlag(options.FlagInvertedDiagonal)
			}
			out = append(out, c)
		}
	}
	return out
}

// calendars pairs same-strike calls across the two expirations, strikes
// restricted to the configured range around spot. The position's value at
// the near expiration is volatility-dependent, so no breakevens are
// recorded.
func calendars(near, far *options.Chain, spot float64, p Params) []options.Candidate {
	lo, hi := strikeBounds(spot, p.StrikeRangePct)

	var out []options.Candidate
	for _, long := range far.Calls {
		if long.Strike < lo || long.Strike > hi || long.Ask <= 0 {
			continue
		}
		for _, short := range near.Calls {
			if math.Abs(short.Strike-long.Strike) > strikeEpsilon {
				continue
			}
			if short.Bid <= 0 {
				break
			}

			debit := long.Ask - short.Bid
			if debit <= 0 {
				break
			}

			c := options.Candidate{
				Strategy: options.KindDiagonal,
				Variant:  options.VariantCalendar,
				Symbol:   near.Symbol,
				Legs: []options.CandidateLeg{
					{Side: options.Buy, Type: options.Call, Strike: long.Strike, Quantity: 1, Expiration: far.Expiration},
					{Side: options.Sell, Type: options.Call, Strike: long.Strike, Quantity: 1, Expiration: near.Expiration},
				},
				Expiration:      near.Expiration,
				FarExpiration:   far.Expiration,
				DaysToExpiry:    near.DaysToExpiry,
				NetPrice:        -debit,
				CapitalAtRisk:   debit * 100,
				AnnualizedValid: false,
				NetDelta:        long.Delta - short.Delta,
			}
			c.AddFlag(options.FlagAnnualizedNA)
			out = append(out, c)
			break
		}
	}
	return out
}
