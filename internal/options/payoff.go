package options

import "math"

// PayoffAt returns the per-contract profit or loss of a candidate if the
// underlying settles at terminalPrice on the reference expiration. Each leg
// contributes its intrinsic value (long legs pay the holder, short legs are
// owed), and the net open price is added back, so credits cushion losses
// and debits must be earned back. The result is scaled by the 100-share
// contract multiplier.
//
// For diagonal and calendar candidates the far leg has time remaining at
// the reference expiration; it is valued at intrinsic here, which
// understates its worth. The curve is a lower bound for those shapes.
func PayoffAt(c *Candidate, terminalPrice float64) float64 {
	perShare := c.NetPrice
	for _, leg := range c.Legs {
		var intrinsic float64
		switch leg.Type {
		case Call:
			intrinsic = math.Max(0, terminalPrice-leg.Strike)
		case Put:
			intrinsic = math.Max(0, leg.Strike-terminalPrice)
		}

		qty := float64(leg.Quantity)
		if leg.Quantity == 0 {
			qty = 1
		}
		if leg.Side == Sell {
			qty = -qty
		}
		perShare += qty * intrinsic
	}
	return perShare * 100
}

// PayoffPoint is one sample of a payoff curve.
type PayoffPoint struct {
	Price      float64 `json:"price"`
	ProfitLoss float64 `json:"profit_loss"`
}

// PayoffSeries samples the payoff curve over [lo, hi] at steps+1 evenly
// spaced prices, for charting. Degenerate ranges collapse to a single
// sample at lo.
func PayoffSeries(c *Candidate, lo, hi float64, steps int) []PayoffPoint {
	if steps < 1 || hi <= lo {
		return []PayoffPoint{{Price: lo, ProfitLoss: PayoffAt(c, lo)}}
	}

	out := make([]PayoffPoint, 0, steps+1)
	step := (hi - lo) / float64(steps)
	for i := 0; i <= steps; i++ {
		price := lo + float64(i)*step
		out = append(out, PayoffPoint{Price: price, ProfitLoss: PayoffAt(c, price)})
	}
	return out
}

// PriceRange guesses a sensible charting window for a candidate: the span
// of its strikes padded by 20% on each side.
func PriceRange(c *Candidate) (lo, hi float64) {
	if len(c.Legs) == 0 {
		return 0, 0
	}
	lo, hi = c.Legs[0].Strike, c.Legs[0].Strike
	for _, leg := range c.Legs[1:] {
		lo = math.Min(lo, leg.Strike)
		hi = math.Max(hi, leg.Strike)
	}
	return lo * 0.8, hi * 1.2
}
