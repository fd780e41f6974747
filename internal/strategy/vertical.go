package strategy

import (
	"math"

	"github.com/eddiefleurent/income_radar/internal/options"
)

// VerticalSpreadBuilder emits two-leg verticals: bull put and bear call
// credit spreads anchored on the short delta band, plus bull call and
// bear put debit spreads anchored on the long delta band.
type VerticalSpreadBuilder struct{}

// Kind implements Builder.
func (VerticalSpreadBuilder) Kind() options.StrategyKind { return options.KindVerticalSpread }

// Build implements Builder.
func (VerticalSpreadBuilder) Build(set *options.ChainSet, p Params) []options.Candidate {
	p = p.WithDefaults()

	var out []options.Candidate
	for i := range set.Chains {
		ch := &set.Chains[i]
		out = append(out, creditVerticals(ch, set.Spot, p)...)
		out = append(out, debitVerticals(ch, set.Spot, p)...)
	}
	return out
}

func creditVerticals(ch *options.Chain, spot float64, p Params) []options.Candidate {
	var out []options.Candidate
	for _, cs := range collectCreditSpreads(ch.Puts, spot, MatchBelow, p) {
		out = append(out, creditVerticalCandidate(ch, spot, cs, options.Put))
	}
	for _, cs := range collectCreditSpreads(ch.Calls, spot, MatchAbove, p) {
		out = append(out, creditVerticalCandidate(ch, spot, cs, options.Call))
	}
	return out
}

func creditVerticalCandidate(ch *options.Chain, spot float64, cs creditSpread, typ options.OptionType) options.Candidate {
	variant := options.VariantBullPut
	breakeven := cs.short.Strike - cs.net
	distance := (spot - cs.short.Strike) / spot * 100
	if typ == options.Call {
		variant = options.VariantBearCall
		breakeven = cs.short.Strike + cs.net
		distance = (cs.short.Strike - spot) / spot * 100
	}

	roi := cs.roi()
	return options.Candidate{
		Strategy: options.KindVerticalSpread,
		Variant:  variant,
		Symbol:   ch.Symbol,
		Legs: []options.CandidateLeg{
			{Side: options.Sell, Type: typ, Strike: cs.short.Strike, Quantity: 1, Expiration: ch.Expiration},
			{Side: options.Buy, Type: typ, Strike: cs.long.Strike, Quantity: 1, Expiration: ch.Expiration},
		},
		Expiration:       ch.Expiration,
		DaysToExpiry:     ch.DaysToExpiry,
		NetPrice:         cs.net,
		CapitalAtRisk:    cs.maxLoss * 100,
		ROI:              roi,
		AnnualizedReturn: options.Annualize(roi, ch.DaysToExpiry),
		AnnualizedValid:  true,
		Breakevens:       []float64{breakeven},
		NetDelta:         -cs.short.Delta + cs.long.Delta,
		DistancePct:      distance,
	}
}

// debitVerticals anchors a long leg near the half-delta band and sells a
// further-out leg against it. The debit is paid at worst-case fill (buy
// the ask, sell the bid) and must stay below the strike width or the
// spread cannot profit.
func debitVerticals(ch *options.Chain, spot float64, p Params) []options.Candidate {
	lo, hi := strikeBounds(spot, p.StrikeRangePct)

	var out []options.Candidate
	emit := func(long, short options.Leg, typ options.OptionType) {
		debit := long.Ask - short.Bid
		width := math.Abs(long.Strike - short.Strike)
		if debit <= 0 || debit >= width {
			return
		}

		variant := options.VariantBullCall
		breakeven := long.Strike + debit
		if typ == options.Put {
			variant = options.VariantBearPut
			breakeven = long.Strike - debit
		}

		maxProfit := width - debit
		roi := maxProfit / debit
		out = append(out, options.Candidate{
			Strategy: options.KindVerticalSpread,
			Variant:  variant,
			Symbol:   ch.Symbol,
			Legs: []options.CandidateLeg{
				{Side: options.Buy, Type: typ, Strike: long.Strike, Quantity: 1, Expiration: ch.Expiration},
				{Side: options.Sell, Type: typ, Strike: short.Strike, Quantity: 1, Expiration: ch.Expiration},
			},
			Expiration:       ch.Expiration,
			DaysToExpiry:     ch.DaysToExpiry,
			NetPrice:         -debit,
			CapitalAtRisk:    debit * 100,
			ROI:              roi,
			AnnualizedReturn: options.Annualize(roi, ch.DaysToExpiry),
			AnnualizedValid:  true,
			Breakevens:       []float64{breakeven},
			NetDelta:         long.Delta - short.Delta,
		})
	}

	for _, long := range ch.Calls {
		if long.Strike < lo || long.Strike > hi || long.Ask <= 0 {
			continue
		}
		if !p.LongDelta.ContainsAbs(long.Delta) {
			continue
		}
		short, ok := MatchLeg(long, ch.Calls, p.Width, MatchAbove, p.Tolerance)
		if !ok || short.Bid <= 0 {
			continue
		}
		emit(long, short, options.Call)
	}
	for _, long := range ch.Puts {
		if long.Strike < lo || long.Strike > hi || long.Ask <= 0 {
			continue
		}
		if !p.LongDelta.ContainsAbs(long.Delta) {
			continue
		}
		short, ok := MatchLeg(long, ch.Puts, p.Width, MatchBelow, p.Tolerance)
		if !ok || short.Bid <= 0 {
			continue
		}
		emit(long, short, options.Put)
	}
	return out
}
