package strategy

import (
	"github.com/eddiefleurent/income_radar/internal/options"
)

// JadeLizardBuilder combines a short put with a call credit spread. When
// the total credit covers the call spread width the structure has no risk
// above the short call, which is the point of the shape; a shortfall is
// surfaced as minor upside risk rather than dropped.
type JadeLizardBuilder struct{}

// Kind implements Builder.
func (JadeLizardBuilder) Kind() options.StrategyKind { return options.KindJadeLizard }

// Build implements Builder.
func (JadeLizardBuilder) Build(set *options.ChainSet, p Params) []options.Candidate {
	p = p.WithDefaults()

	var out []options.Candidate
	for i := range set.Chains {
		out = append(out, jadeLizards(&set.Chains[i], set.Spot, p)...)
	}
	return out
}

func jadeLizards(ch *options.Chain, spot float64, p Params) []options.Candidate {
	// One call spread pairs with every qualifying put: the one collecting
	// the most credit, since credit is what buys out the upside risk.
	callSpread, ok := bestCallSpread(ch, spot, p)
	if !ok {
		return nil
	}

	lo, _ := strikeBounds(spot, p.StrikeRangePct)

	var out []options.Candidate
	for _, put := range ch.Puts {
		if put.Strike < lo || put.Strike > spot || put.Bid <= 0 {
			continue
		}
		if !p.JadeDelta.ContainsAbs(put.Delta) {
			continue
		}

		totalCredit := put.Bid + callSpread.net
		upsideRisk := callSpread.width - totalCredit
		roi := totalCredit / put.Strike

		breakevens := []float64{put.Strike - totalCredit}
		if upsideRisk > 0 {
			breakevens = append(breakevens, callSpread.short.Strike+totalCredit)
		}

		c := options.Candidate{
			Strategy: options.KindJadeLizard,
			Variant:  options.VariantJadeLizard,
			Symbol:   ch.Symbol,
			Legs: []options.CandidateLeg{
				{Side: options.Sell, Type: options.Put, Strike: put.Strike, Quantity: 1, Expiration: ch.Expiration},
				{Side: options.Sell, Type: options.Call, Strike: callSpread.short.Strike, Quantity: 1, Expiration: ch.Expiration},
				{Side: options.Buy, Type: options.Call, Strike: callSpread.long.Strike, Quantity: 1, Expiration: ch.Expiration},
			},
			Expiration:       ch.Expiration,
			DaysToExpiry:     ch.DaysToExpiry,
			NetPrice:         totalCredit,
			CapitalAtRisk:    put.Strike * 100,
			ROI:              roi,
			AnnualizedReturn: options.Annualize(roi, ch.DaysToExpiry),
			AnnualizedValid:  true,
			Breakevens:       breakevens,
			NetDelta:         -put.Delta - callSpread.short.Delta + callSpread.long.Delta,
			DistancePct:      (spot - put.Strike) / spot * 100,
			UpsideRisk:       upsideRisk,
		}
		if upsideRisk > 0 {
			c.AddFlag(options.FlagMinorUpsideRisk)
		}
		out = append(out, c)
	}
	return out
}

// bestCallSpread picks the call credit spread collecting the highest net
// credit among anchors in the jade delta band.
func bestCallSpread(ch *options.Chain, spot float64, p Params) (creditSpread, bool) {
	jp := p
	jp.ShortDelta = p.JadeDelta

	var best creditSpread
	found := false
	for _, cs := range collectCreditSpreads(ch.Calls, spot, MatchAbove, jp) {
		if !found || cs.net > best.net {
			best, found = cs, true
		}
	}
	return best, found
}
