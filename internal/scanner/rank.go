package scanner

import (
	"math"
	"sort"
	"time"

	"github.com/eddiefleurent/income_radar/internal/options"
	"github.com/eddiefleurent/income_radar/internal/strategy"
)

// Family groups variants that share a ranking metric. Families order a
// mixed candidate list: yield plays first, then directional, volatility,
// and structural shapes.
type Family int

const (
	FamilyIncome Family = iota
	FamilyDirectional
	FamilyVolatility
	FamilyStructural
)

// String returns the display name of the family.
func (f Family) String() string {
	switch f {
	case FamilyIncome:
		return "income"
	case FamilyDirectional:
		return "directional"
	case FamilyVolatility:
		return "volatility"
	case FamilyStructural:
		return "structural"
	default:
		return "unknown"
	}
}

// FamilyOf classifies a candidate into its ranking family by variant.
func FamilyOf(c *options.Candidate) Family {
	switch c.Variant {
	case options.VariantLongCall, options.VariantLongPut:
		return FamilyDirectional
	case options.VariantStraddle:
		return FamilyVolatility
	case options.VariantRatioCall, options.VariantPMCC, options.VariantCalendar:
		return FamilyStructural
	default:
		return FamilyIncome
	}
}

// SortCandidates orders candidates by family policy: income shapes by
// annualized return descending, long options by leverage descending,
// straddles by absolute net delta ascending, structural shapes (ratio,
// PMCC, calendar) by net price descending so credits and small debits lead.
// Ties break on days to expiry then first-leg strike, keeping the order
// deterministic for identical inputs.
func SortCandidates(cands []options.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return rankLess(&cands[i], &cands[j])
	})
}

func rankLess(a, b *options.Candidate) bool {
	fa, fb := FamilyOf(a), FamilyOf(b)
	if fa != fb {
		return fa < fb
	}

	switch fa {
	case FamilyIncome:
		if a.AnnualizedReturn != b.AnnualizedReturn {
			return a.AnnualizedReturn > b.AnnualizedReturn
		}
	case FamilyDirectional:
		if a.Leverage != b.Leverage {
			return a.Leverage > b.Leverage
		}
	case FamilyVolatility:
		da, db := math.Abs(a.NetDelta), math.Abs(b.NetDelta)
		if da != db {
			return da < db
		}
	case FamilyStructural:
		if a.NetPrice != b.NetPrice {
			return a.NetPrice > b.NetPrice
		}
	}

	if a.DaysToExpiry != b.DaysToExpiry {
		return a.DaysToExpiry < b.DaysToExpiry
	}
	return firstStrike(a) < firstStrike(b)
}

func firstStrike(c *options.Candidate) float64 {
	if len(c.Legs) == 0 {
		return 0
	}
	return c.Legs[0].Strike
}

// BestPick returns the highest-ranked candidate whose absolute net delta
// falls in the given band, or the top candidate when none does. The input
// must already be sorted.
func BestPick(cands []options.Candidate, band strategy.DeltaBand) (*options.Candidate, bool) {
	if len(cands) == 0 {
		return nil, false
	}
	for i := range cands {
		if band.ContainsAbs(cands[i].NetDelta) {
			return &cands[i], true
		}
	}
	return &cands[0], true
}

// TierBands configures the distance-percent cut points for three-tier
// selection.
type TierBands struct {
	// MinDistancePct is the floor below which a candidate is too close to
	// spot to be picked at all.
	MinDistancePct float64 `json:"min_distance_pct"`
	// AggressiveMax is the exclusive upper bound of the aggressive tier.
	AggressiveMax float64 `json:"aggressive_max"`
	// BalancedMax is the exclusive upper bound of the balanced tier;
	// conservative is everything at or above it.
	BalancedMax float64 `json:"balanced_max"`
}

// DefaultTierBands returns the standard cushion tiers.
func DefaultTierBands() TierBands {
	return TierBands{MinDistancePct: 0.5, AggressiveMax: 4, BalancedMax: 8}
}

// TierPicks holds the best income candidate per cushion tier.
type TierPicks struct {
	Aggressive   *options.Candidate `json:"aggressive,omitempty"`
	Balanced     *options.Candidate `json:"balanced,omitempty"`
	Conservative *options.Candidate `json:"conservative,omitempty"`
}

// ThreeTierPicks partitions candidates with a valid annualized return by
// their spot cushion and keeps the best annualized return in each tier.
// Candidates at or below the minimum cushion are skipped entirely.
func ThreeTierPicks(cands []options.Candidate, bands TierBands) TierPicks {
	var picks TierPicks
	for i := range cands {
		c := &cands[i]
		if !c.AnnualizedValid || c.DistancePct <= bands.MinDistancePct {
			continue
		}
		switch {
		case c.DistancePct < bands.AggressiveMax:
			picks.Aggressive = better(picks.Aggressive, c)
		case c.DistancePct < bands.BalancedMax:
			picks.Balanced = better(picks.Balanced, c)
		default:
			picks.Conservative = better(picks.Conservative, c)
		}
	}
	return picks
}

// Horizons holds the best income candidate per expiry horizon.
type Horizons struct {
	Short  *options.Candidate `json:"short,omitempty"`  // <= 14 days
	Medium *options.Candidate `json:"medium,omitempty"` // 15 to 45 days
	Long   *options.Candidate `json:"long,omitempty"`   // > 45 days
}

// PickByHorizon splits candidates clearing the minimum cushion into short,
// medium, and long expiry horizons and keeps the best annualized return in
// each.
func PickByHorizon(cands []options.Candidate, minDistancePct float64) Horizons {
	var h Horizons
	for i := range cands {
		c := &cands[i]
		if !c.AnnualizedValid || c.DistancePct < minDistancePct {
			continue
		}
		switch {
		case c.DaysToExpiry <= 14:
			h.Short = better(h.Short, c)
		case c.DaysToExpiry <= 45:
			h.Medium = better(h.Medium, c)
		default:
			h.Long = better(h.Long, c)
		}
	}
	return h
}

func better(have, candidate *options.Candidate) *options.Candidate {
	if have == nil || candidate.AnnualizedReturn > have.AnnualizedReturn {
		return candidate
	}
	return have
}

// TagEarningsRisk marks candidates whose position would still be open when
// earnings hit: next earnings on or before the (nearer) expiration.
func TagEarningsRisk(cands []options.Candidate, earnings time.Time) {
	for i := range cands {
		exp := cands[i].Expiration
		if !exp.IsZero() && !earnings.After(exp) {
			cands[i].HasEarningsRisk = true
		}
	}
}
