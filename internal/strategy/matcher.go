package strategy

import (
	"math"

	"github.com/eddiefleurent/income_radar/internal/options"
)

// MatchDirection says which side of the anchor the complementary leg
// should sit on.
type MatchDirection int

const (
	// MatchBelow targets anchorStrike - width (protective puts).
	MatchBelow MatchDirection = iota
	// MatchAbove targets anchorStrike + width (protective calls).
	MatchAbove
)

// MatchLeg finds the pool leg whose strike is closest to the anchor's
// strike offset by width in the given direction. The false return means no
// leg landed within tolerance of the target, which is a frequent, expected
// outcome on discrete strike grids: the caller simply builds no spread at
// that anchor.
func MatchLeg(anchor options.Leg, pool []options.Leg, width float64,
	dir MatchDirection, tolerance float64) (options.Leg, bool) {
	target := anchor.Strike - width
	if dir == MatchAbove {
		target = anchor.Strike + width
	}

	var best options.Leg
	bestDist := math.MaxFloat64
	for _, cand := range pool {
		if math.Abs(cand.Strike-anchor.Strike) < strikeEpsilon {
			continue
		}
		if dist := math.Abs(cand.Strike - target); dist < bestDist {
			best, bestDist = cand, dist
		}
	}

	if bestDist > tolerance {
		return options.Leg{}, false
	}
	return best, true
}

// creditSpread is a priced short/long vertical pair before it becomes a
// candidate. width and maxLoss reflect the actual matched strikes, not the
// requested width.
type creditSpread struct {
	short   options.Leg
	long    options.Leg
	net     float64
	width   float64
	maxLoss float64
}

func (s creditSpread) roi() float64 {
	return s.net / s.maxLoss
}

// buildCreditSpread matches a protective leg for the short anchor and
// prices the pair at worst-case fill: sell the bid, buy the ask. Spreads
// collecting less than the minimum credit, or whose credit swallows the
// whole width, are rejected.
func buildCreditSpread(anchor options.Leg, pool []options.Leg, dir MatchDirection, p Params) (creditSpread, bool) {
	long, ok := MatchLeg(anchor, pool, p.Width, dir, p.Tolerance)
	if !ok || long.Ask <= 0 {
		return creditSpread{}, false
	}

	net := anchor.Bid - long.Ask
	if net <= p.MinCredit {
		return creditSpread{}, false
	}
	width := math.Abs(anchor.Strike - long.Strike)
	maxLoss := width - net
	if maxLoss <= 0 {
		return creditSpread{}, false
	}

	return creditSpread{short: anchor, long: long, net: net, width: width, maxLoss: maxLoss}, true
}

// collectCreditSpreads builds every credit spread anchored on legs whose
// delta sits in the short band and whose strike is on the out-of-the-money
// side of spot, inside the configured strike range.
func collectCreditSpreads(legs []options.Leg, spot float64, dir MatchDirection, p Params) []creditSpread {
	lo, hi := strikeBounds(spot, p.StrikeRangePct)

	var out []creditSpread
	for _, anchor := range legs {
		if !p.ShortDelta.ContainsAbs(anchor.Delta) {
			continue
		}
		if dir == MatchBelow && (anchor.Strike < lo || anchor.Strike >= spot) {
			continue
		}
		if dir == MatchAbove && (anchor.Strike > hi || anchor.Strike <= spot) {
			continue
		}
		if cs, ok := buildCreditSpread(anchor, legs, dir, p); ok {
			out = append(out, cs)
		}
	}
	return out
}
