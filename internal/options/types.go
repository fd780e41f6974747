// Package options defines the domain model for option chain screening:
// normalized legs, opportunity candidates, the Black-Scholes delta
// primitive, and the expiration payoff evaluator.
package options

import "time"

// OptionType represents the type of option contract.
type OptionType string

const (
	// Put represents a put option contract.
	Put OptionType = "put"
	// Call represents a call option contract.
	Call OptionType = "call"
)

// Side represents the direction of a leg at open.
type Side string

const (
	// Buy opens a long leg.
	Buy Side = "buy"
	// Sell opens a short leg.
	Sell Side = "sell"
)

// StrategyKind identifies a strategy family. The set is closed: every kind
// listed here has exactly one builder, and dispatch happens through that
// registry so an unhandled kind cannot slip through.
type StrategyKind string

const (
	// KindSingleLeg covers cash-secured puts, covered calls, and long
	// single-option positions.
	KindSingleLeg StrategyKind = "single_leg"
	// KindVerticalSpread covers two-leg credit and debit verticals.
	KindVerticalSpread StrategyKind = "vertical_spread"
	// KindIronCondor pairs a put credit spread with a call credit spread.
	KindIronCondor StrategyKind = "iron_condor"
	// KindStraddle buys the call and put at a shared near-ATM strike.
	KindStraddle StrategyKind = "straddle"
	// KindRatioSpread is the 1x2 call ratio spread (one long, two short).
	KindRatioSpread StrategyKind = "ratio_spread"
	// KindDiagonal covers poor-man's covered calls and calendar spreads
	// (near/far expiration pairs).
	KindDiagonal StrategyKind = "diagonal"
	// KindJadeLizard combines a short put with a call credit spread.
	KindJadeLizard StrategyKind = "jade_lizard"
)

// AllStrategyKinds returns every supported strategy kind in display order.
func AllStrategyKinds() []StrategyKind {
	return []StrategyKind{
		KindSingleLeg,
		KindVerticalSpread,
		KindIronCondor,
		KindStraddle,
		KindRatioSpread,
		KindDiagonal,
		KindJadeLizard,
	}
}

// Valid reports whether k is one of the supported strategy kinds.
func (k StrategyKind) Valid() bool {
	switch k {
	case KindSingleLeg, KindVerticalSpread, KindIronCondor, KindStraddle,
		KindRatioSpread, KindDiagonal, KindJadeLizard:
		return true
	default:
		return false
	}
}

// Variant names for shapes within a strategy kind.
const (
	VariantCashSecuredPut = "cash_secured_put"
	VariantCoveredCall    = "covered_call"
	VariantLongCall       = "long_call"
	VariantLongPut        = "long_put"
	VariantBullPut        = "bull_put"
	VariantBearCall       = "bear_call"
	VariantBullCall       = "bull_call"
	VariantBearPut        = "bear_put"
	VariantIronCondor     = "iron_condor"
	VariantStraddle       = "straddle"
	VariantRatioCall      = "ratio_1x2_call"
	VariantPMCC           = "pmcc"
	VariantCalendar       = "calendar"
	VariantJadeLizard     = "jade_lizard"
)

// VariantsFor lists the variant names a strategy kind can produce.
func VariantsFor(k StrategyKind) []string {
	switch k {
	case KindSingleLeg:
		return []string{VariantCashSecuredPut, VariantCoveredCall, VariantLongCall, VariantLongPut}
	case KindVerticalSpread:
		return []string{VariantBullPut, VariantBearCall, VariantBullCall, VariantBearPut}
	case KindIronCondor:
		return []string{VariantIronCondor}
	case KindStraddle:
		return []string{VariantStraddle}
	case KindRatioSpread:
		return []string{VariantRatioCall}
	case KindDiagonal:
		return []string{VariantPMCC, VariantCalendar}
	case KindJadeLizard:
		return []string{VariantJadeLizard}
	default:
		return nil
	}
}

// CandidateFlag marks a structural caveat on a candidate.
type CandidateFlag string

const (
	// FlagUnboundedRisk marks strategies whose true max loss has no bound;
	// CapitalAtRisk is meaningless for these and must not be used for sizing.
	FlagUnboundedRisk CandidateFlag = "unbounded_risk"
	// FlagMinorUpsideRisk marks a jade lizard whose total credit came in
	// below the call spread width; UpsideRisk carries the shortfall.
	FlagMinorUpsideRisk CandidateFlag = "minor_upside_risk"
	// FlagInvertedDiagonal marks a diagonal whose net debit exceeds the
	// strike separation; surfaced but not a structurally sound trade.
	FlagInvertedDiagonal CandidateFlag = "inverted_diagonal"
	// FlagAnnualizedNA marks candidates whose ROI is not a bounded periodic
	// return, so AnnualizedReturn is pinned to zero rather than scaled.
	FlagAnnualizedNA CandidateFlag = "annualized_na"
)

// CandidateLeg is one leg of an opportunity candidate. Quantity defaults
// to 1 when zero.
type CandidateLeg struct {
	Side       Side       `json:"side"`
	Type       OptionType `json:"type"`
	Strike     float64    `json:"strike"`
	Quantity   int        `json:"quantity"`
	Expiration time.Time  `json:"expiration"`
}

// Candidate is the central output unit of a scan: one constructed strategy
// with its pricing, risk, and ranking fields. Sign convention throughout:
// NetPrice > 0 is a credit received at open, NetPrice < 0 a debit paid.
// NetPrice and CapitalAtRisk are per-share and per-contract dollar figures
// respectively, computed before any annualization scaling.
type Candidate struct {
	Strategy StrategyKind   `json:"strategy"`
	Variant  string         `json:"variant"`
	Symbol   string         `json:"symbol"`
	Legs     []CandidateLeg `json:"legs"`

	// Expiration is the reference (nearer) expiration. FarExpiration is
	// set only for diagonal/calendar candidates.
	Expiration    time.Time `json:"expiration"`
	FarExpiration time.Time `json:"far_expiration,omitzero"`
	DaysToExpiry  int       `json:"days_to_expiry"`

	NetPrice      float64 `json:"net_price"`
	CapitalAtRisk float64 `json:"capital_at_risk"`
	// RiskUnbounded is set when no finite CapitalAtRisk exists; the field
	// above holds zero in that case rather than a fabricated margin figure.
	RiskUnbounded bool `json:"risk_unbounded,omitempty"`

	ROI              float64 `json:"roi"`
	AnnualizedReturn float64 `json:"annualized_return"`
	// AnnualizedValid is false when ROI is not a bounded periodic return;
	// AnnualizedReturn is zero then and must not be ranked as a yield.
	AnnualizedValid bool `json:"annualized_valid"`

	Breakevens []float64 `json:"breakevens"`
	NetDelta   float64   `json:"net_delta"`
	// DistancePct is the cushion between spot and the nearest short strike,
	// as a percentage of spot. Zero for shapes where the notion does not
	// apply (straddles, long options, calendars).
	DistancePct float64 `json:"distance_pct"`
	// Leverage is set for long single-leg candidates only: delta exposure
	// in underlying terms per dollar of premium.
	Leverage float64 `json:"leverage,omitempty"`
	// UpsideRisk is the jade lizard upside shortfall (width - totalCredit);
	// zero or negative means the structure has no risk above the short call.
	UpsideRisk float64 `json:"upside_risk,omitempty"`

	HasEarningsRisk bool            `json:"has_earnings_risk"`
	Flags           []CandidateFlag `json:"flags,omitempty"`
}

// IsCredit reports whether the candidate collects premium at open.
func (c *Candidate) IsCredit() bool {
	return c.NetPrice > 0
}

// HasFlag reports whether f is set on the candidate.
func (c *Candidate) HasFlag(f CandidateFlag) bool {
	for _, have := range c.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// AddFlag sets f on the candidate if not already present.
func (c *Candidate) AddFlag(f CandidateFlag) {
	if !c.HasFlag(f) {
		c.Flags = append(c.Flags, f)
	}
}

// ShortStrikes returns the strikes of all sold legs, nearest to farthest.
func (c *Candidate) ShortStrikes() []float64 {
	var strikes []float64
	for _, leg := range c.Legs {
		if leg.Side == Sell {
			strikes = append(strikes, leg.Strike)
		}
	}
	return strikes
}

// Annualize scales a bounded periodic return to a yearly rate. Callers are
// responsible for only passing true return rates; days <= 0 yields 0.
func Annualize(roi float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	return roi * 365.0 / float64(days)
}
