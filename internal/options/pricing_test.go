package options

import (
	"math"
	"testing"
)

func TestDelta_CallPutParity(t *testing.T) {
	// call delta - put delta = 1 for identical inputs
	tests := []struct {
		name   string
		spot   float64
		strike float64
		years  float64
		iv     float64
	}{
		{name: "at the money", spot: 100, strike: 100, years: 30.0 / 365.0, iv: 0.25},
		{name: "deep in the money call", spot: 150, strike: 100, years: 0.5, iv: 0.30},
		{name: "deep out of the money call", spot: 80, strike: 120, years: 0.25, iv: 0.40},
		{name: "short dated", spot: 450, strike: 455, years: 2.0 / 365.0, iv: 0.18},
		{name: "long dated", spot: 450, strike: 400, years: 1.5, iv: 0.22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := Delta(tt.spot, tt.strike, tt.years, DefaultRiskFreeRate, tt.iv, Call)
			put := Delta(tt.spot, tt.strike, tt.years, DefaultRiskFreeRate, tt.iv, Put)

			if diff := call - put; math.Abs(diff-1.0) > 1e-9 {
				t.Errorf("call-put delta = %.12f, want 1.0", diff)
			}
			if call < 0 || call > 1 {
				t.Errorf("call delta = %.6f, want in [0, 1]", call)
			}
			if put > 0 || put < -1 {
				t.Errorf("put delta = %.6f, want in [-1, 0]", put)
			}
		})
	}
}

func TestDelta_DegenerateInputs(t *testing.T) {
	tests := []struct {
		name   string
		spot   float64
		strike float64
		years  float64
		iv     float64
	}{
		{name: "zero time to expiry", spot: 100, strike: 100, years: 0, iv: 0.25},
		{name: "negative time to expiry", spot: 100, strike: 100, years: -0.1, iv: 0.25},
		{name: "zero volatility", spot: 100, strike: 100, years: 0.5, iv: 0},
		{name: "negative volatility", spot: 100, strike: 100, years: 0.5, iv: -0.2},
		{name: "zero spot", spot: 0, strike: 100, years: 0.5, iv: 0.25},
		{name: "zero strike", spot: 100, strike: 0, years: 0.5, iv: 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, typ := range []OptionType{Call, Put} {
				got := Delta(tt.spot, tt.strike, tt.years, DefaultRiskFreeRate, tt.iv, typ)
				if got != 0 {
					t.Errorf("Delta(%s) = %v, want exactly 0", typ, got)
				}
			}
		})
	}
}

func TestDelta_Moneyness(t *testing.T) {
	years := 30.0 / 365.0
	iv := 0.25

	// ATM call delta sits near 0.5, slightly above due to drift.
	atm := Delta(100, 100, years, DefaultRiskFreeRate, iv, Call)
	if atm < 0.50 || atm > 0.56 {
		t.Errorf("ATM call delta = %.4f, want in [0.50, 0.56]", atm)
	}

	// Deltas increase monotonically as calls go deeper in the money.
	strikes := []float64{120, 110, 100, 90, 80}
	prev := -1.0
	for _, k := range strikes {
		d := Delta(100, k, years, DefaultRiskFreeRate, iv, Call)
		if d <= prev {
			t.Errorf("call delta at strike %.0f = %.4f, want > %.4f", k, d, prev)
		}
		prev = d
	}

	// Put deltas mirror: deep ITM put approaches -1.
	deepPut := Delta(100, 150, 0.1, DefaultRiskFreeRate, iv, Put)
	if deepPut > -0.95 {
		t.Errorf("deep ITM put delta = %.4f, want < -0.95", deepPut)
	}
}

func TestYearsToExpiry(t *testing.T) {
	tests := []struct {
		name string
		days int
		want float64
	}{
		{name: "one year", days: 365, want: 1.0},
		{name: "thirty days", days: 30, want: 30.0 / 365.0},
		{name: "zero days", days: 0, want: 0},
		{name: "negative days", days: -5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YearsToExpiry(tt.days)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("YearsToExpiry(%d) = %v, want %v", tt.days, got, tt.want)
			}
		})
	}
}

func TestAnnualize(t *testing.T) {
	tests := []struct {
		name string
		roi  float64
		days int
		want float64
	}{
		{name: "one percent over 30 days", roi: 0.01, days: 30, want: 0.01 * 365.0 / 30.0},
		{name: "full year is identity", roi: 0.10, days: 365, want: 0.10},
		{name: "zero days", roi: 0.05, days: 0, want: 0},
		{name: "negative days", roi: 0.05, days: -3, want: 0},
		{name: "zero roi", roi: 0, days: 45, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Annualize(tt.roi, tt.days)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Annualize(%v, %d) = %v, want %v", tt.roi, tt.days, got, tt.want)
			}
		})
	}
}
