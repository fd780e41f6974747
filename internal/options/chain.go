package options

import (
	"sort"
	"time"
)

// ChainRow is one raw strike row from a provider chain snapshot.
type ChainRow struct {
	Strike            float64 `json:"strike"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	ImpliedVolatility float64 `json:"implied_volatility"`
	OpenInterest      int64   `json:"open_interest"`
	Volume            int64   `json:"volume"`
}

// LiquidityGate filters chain rows that have no realistic fill. A row is
// kept when its bid exceeds MinBid and either open interest or volume
// clears its floor.
type LiquidityGate struct {
	MinBid     float64
	MinOpenInt int64
	MinVolume  int64
}

// StandardLiquidity is the reference gate for liquid underlyings:
// bid > 0 and (open interest > 10 or volume > 5).
var StandardLiquidity = LiquidityGate{MinBid: 0, MinOpenInt: 10, MinVolume: 5}

// RelaxedLiquidity loosens the open-interest floor for lower-volume
// underlyings while requiring a non-token bid.
var RelaxedLiquidity = LiquidityGate{MinBid: 0.01, MinOpenInt: 5, MinVolume: 5}

// Keep reports whether the row passes the gate.
func (g LiquidityGate) Keep(r ChainRow) bool {
	return r.Bid > g.MinBid && (r.OpenInterest > g.MinOpenInt || r.Volume > g.MinVolume)
}

// Leg is a chain row annotated with type, computed delta, and expiration
// timing. Legs are transient: rebuilt on every scan, never mutated after
// creation.
type Leg struct {
	ChainRow
	Type         OptionType `json:"type"`
	Delta        float64    `json:"delta"`
	Expiration   time.Time  `json:"expiration"`
	DaysToExpiry int        `json:"days_to_expiry"`
}

// Normalize tags one expiration's raw rows with type and Black-Scholes
// delta, drops rows failing the liquidity gate, and returns the survivors
// sorted by strike ascending. Empty input yields empty output; running out
// of legs is the caller's condition to interpret, not an error here.
func Normalize(rows []ChainRow, spot float64, expiration time.Time, daysToExpiry int,
	typ OptionType, gate LiquidityGate, riskFreeRate float64) []Leg {
	t := YearsToExpiry(daysToExpiry)

	legs := make([]Leg, 0, len(rows))
	for _, row := range rows {
		if row.Strike <= 0 || !gate.Keep(row) {
			continue
		}
		legs = append(legs, Leg{
			ChainRow:     row,
			Type:         typ,
			Delta:        Delta(spot, row.Strike, t, riskFreeRate, row.ImpliedVolatility, typ),
			Expiration:   expiration,
			DaysToExpiry: daysToExpiry,
		})
	}

	sort.Slice(legs, func(i, j int) bool { return legs[i].Strike < legs[j].Strike })
	return legs
}

// Chain holds one expiration's normalized calls and puts.
type Chain struct {
	Symbol       string    `json:"symbol"`
	Spot         float64   `json:"spot"`
	Expiration   time.Time `json:"expiration"`
	DaysToExpiry int       `json:"days_to_expiry"`
	Calls        []Leg     `json:"calls"`
	Puts         []Leg     `json:"puts"`
}

// Legs returns the normalized legs of the requested type.
func (c *Chain) Legs(typ OptionType) []Leg {
	if typ == Call {
		return c.Calls
	}
	return c.Puts
}

// ChainSet is every in-range expiration for one scan, sorted by expiration
// ascending once SortByExpiration has been called.
type ChainSet struct {
	Symbol string  `json:"symbol"`
	Spot   float64 `json:"spot"`
	Chains []Chain `json:"chains"`
}

// SortByExpiration orders the chains nearest-first. Builders rely on this
// ordering, so callers must sort after the last Chain is appended.
func (s *ChainSet) SortByExpiration() {
	sort.Slice(s.Chains, func(i, j int) bool {
		return s.Chains[i].Expiration.Before(s.Chains[j].Expiration)
	})
}

// NearTerm returns chains whose days to expiry fall within [minDays, maxDays].
func (s *ChainSet) NearTerm(minDays, maxDays int) []Chain {
	var out []Chain
	for _, c := range s.Chains {
		if c.DaysToExpiry >= minDays && c.DaysToExpiry <= maxDays {
			out = append(out, c)
		}
	}
	return out
}

// FarTerm returns chains strictly beyond minDays to expiry.
func (s *ChainSet) FarTerm(minDays int) []Chain {
	var out []Chain
	for _, c := range s.Chains {
		if c.DaysToExpiry > minDays {
			out = append(out, c)
		}
	}
	return out
}
