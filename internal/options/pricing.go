package options

import "math"

// DefaultRiskFreeRate is the annualized risk-free rate used for delta
// computation when the caller does not supply one.
const DefaultRiskFreeRate = 0.045

// YearsToExpiry converts whole days to the year fraction used by the
// Black-Scholes formulas.
func YearsToExpiry(days int) float64 {
	return float64(days) / 365.0
}

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// Delta computes the Black-Scholes delta for a European option.
//
// spot and strike are prices, yearsToExpiry is the time to expiration as a
// year fraction, riskFreeRate is annualized, and iv is the implied
// volatility as a decimal (0.25 for 25%).
//
// Degenerate inputs (non-positive time, volatility, spot, or strike) return
// exactly 0: a contract at or past expiry, or one with no quoted
// volatility, carries no meaningful directional exposure, and a single bad
// row must not abort a chain-wide scan.
func Delta(spot, strike, yearsToExpiry, riskFreeRate, iv float64, typ OptionType) float64 {
	if yearsToExpiry <= 0 || iv <= 0 || spot <= 0 || strike <= 0 {
		return 0
	}

	d1 := (math.Log(spot/strike) + (riskFreeRate+0.5*iv*iv)*yearsToExpiry) /
		(iv * math.Sqrt(yearsToExpiry))
	if math.IsNaN(d1) || math.IsInf(d1, 0) {
		return 0
	}

	switch typ {
	case Call:
		return normCDF(d1)
	case Put:
		return normCDF(d1) - 1
	default:
		return 0
	}
}
