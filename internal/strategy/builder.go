// Package strategy constructs opportunity candidates from normalized option
// chains. Each strategy family has one builder; dispatch goes through a
// closed registry so every supported kind is handled exactly once.
package strategy

import (
	"math"

	"github.com/eddiefleurent/income_radar/internal/options"
)

// strikeEpsilon is the tolerance for treating two strikes as identical
// when pairing legs that must share a strike.
const strikeEpsilon = 1e-4

// DeltaBand is an inclusive range of absolute delta values.
type DeltaBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ContainsAbs reports whether |delta| falls inside the band.
func (b DeltaBand) ContainsAbs(delta float64) bool {
	a := math.Abs(delta)
	return a >= b.Min && a <= b.Max
}

func (b DeltaBand) isZero() bool {
	return b.Min == 0 && b.Max == 0
}

// Params are the tunables shared by all builders. Zero values are replaced
// with the reference defaults via WithDefaults, so a partially filled
// Params is always safe to pass.
type Params struct {
	// Width is the target strike distance between a spread's legs.
	Width float64
	// StrikeRangePct bounds anchor strikes to spot*(1±pct).
	StrikeRangePct float64
	// MinCredit is the smallest net credit a spread may collect.
	MinCredit float64
	// Tolerance is how far from the target strike a matched leg may sit.
	Tolerance float64
	// SparseTolerance widens the match tolerance for strategies that
	// tolerate coarse strike grids (ratio spreads).
	SparseTolerance float64

	// ShortDelta bounds short anchors for income strategies.
	ShortDelta DeltaBand
	// LongDelta bounds long anchors for debit verticals and long options.
	LongDelta DeltaBand
	// RatioLongDelta bounds the near-ATM long leg of a ratio spread.
	RatioLongDelta DeltaBand
	// JadeDelta bounds both the short put and short call of a jade lizard.
	JadeDelta DeltaBand
	// NearDelta bounds the short near-term call of a diagonal.
	NearDelta DeltaBand

	// CondorTopK caps how many spreads per side are cross-joined.
	CondorTopK int

	// FarMinDays and FarMinDelta qualify the long leg of a diagonal.
	FarMinDays  int
	FarMinDelta float64
	// NearMinDays and NearMaxDays window the short leg of a diagonal.
	NearMinDays int
	NearMaxDays int
}

// DefaultParams returns the reference tunables.
func DefaultParams() Params {
	return Params{
		Width:           5,
		StrikeRangePct:  0.15,
		MinCredit:       0.01,
		Tolerance:       0.5,
		SparseTolerance: 2.0,
		ShortDelta:      DeltaBand{Min: 0.15, Max: 0.40},
		LongDelta:       DeltaBand{Min: 0.45, Max: 0.65},
		RatioLongDelta:  DeltaBand{Min: 0.55, Max: 0.65},
		JadeDelta:       DeltaBand{Min: 0.20, Max: 0.35},
		NearDelta:       DeltaBand{Min: 0.20, Max: 0.40},
		CondorTopK:      5,
		FarMinDays:      150,
		FarMinDelta:     0.80,
		NearMinDays:     20,
		NearMaxDays:     45,
	}
}

// WithDefaults fills zero-valued fields with the reference defaults.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.Width <= 0 {
		p.Width = d.Width
	}
	if p.StrikeRangePct <= 0 {
		p.StrikeRangePct = d.StrikeRangePct
	}
	if p.MinCredit <= 0 {
		p.MinCredit = d.MinCredit
	}
	if p.Tolerance <= 0 {
		p.Tolerance = d.Tolerance
	}
	if p.SparseTolerance <= 0 {
		p.SparseTolerance = d.SparseTolerance
	}
	if p.ShortDelta.isZero() {
		p.ShortDelta = d.ShortDelta
	}
	if p.LongDelta.isZero() {
		p.LongDelta = d.LongDelta
	}
	if p.RatioLongDelta.isZero() {
		p.RatioLongDelta = d.RatioLongDelta
	}
	if p.JadeDelta.isZero() {
		p.JadeDelta = d.JadeDelta
	}
	if p.NearDelta.isZero() {
		p.NearDelta = d.NearDelta
	}
	if p.CondorTopK <= 0 {
		p.CondorTopK = d.CondorTopK
	}
	if p.FarMinDays <= 0 {
		p.FarMinDays = d.FarMinDays
	}
	if p.FarMinDelta <= 0 {
		p.FarMinDelta = d.FarMinDelta
	}
	if p.NearMinDays <= 0 {
		p.NearMinDays = d.NearMinDays
	}
	if p.NearMaxDays <= 0 {
		p.NearMaxDays = d.NearMaxDays
	}
	return p
}

// strikeBounds returns the anchor strike window around spot.
func strikeBounds(spot, rangePct float64) (lo, hi float64) {
	return spot * (1 - rangePct), spot * (1 + rangePct)
}

// Builder assembles candidates of one strategy kind from a chain set.
// Builders are pure: same chains and params in, same candidates out.
type Builder interface {
	Kind() options.StrategyKind
	Build(set *options.ChainSet, p Params) []options.Candidate
}

// Compile-time checks that every builder satisfies the interface.
var (
	_ Builder = SingleLegBuilder{}
	_ Builder = VerticalSpreadBuilder{}
	_ Builder = IronCondorBuilder{}
	_ Builder = StraddleBuilder{}
	_ Builder = RatioSpreadBuilder{}
	_ Builder = DiagonalBuilder{}
	_ Builder = JadeLizardBuilder{}
)

// ForKind returns the builder for a strategy kind. The false return means
// the kind is unknown, which callers should treat as a caller bug.
func ForKind(kind options.StrategyKind) (Builder, bool) {
	switch kind {
	case options.KindSingleLeg:
		return SingleLegBuilder{}, true
	case options.KindVerticalSpread:
		return VerticalSpreadBuilder{}, true
	case options.KindIronCondor:
		return IronCondorBuilder{}, true
	case options.KindStraddle:
		return StraddleBuilder{}, true
	case options.KindRatioSpread:
		return RatioSpreadBuilder{}, true
	case options.KindDiagonal:
		return DiagonalBuilder{}, true
	case options.KindJadeLizard:
		return JadeLizardBuilder{}, true
	default:
		return nil, false
	}
}

// All returns one builder per supported strategy kind, in display order.
func All() []Builder {
	kinds := options.AllStrategyKinds()
	out := make([]Builder, 0, len(kinds))
	for _, k := range kinds {
		if b, ok := ForKind(k); ok {
			out = append(out, b)
		}
	}
	return out
}
