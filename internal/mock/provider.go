// Package mock provides a deterministic offline market data provider.
// Chains are synthesized from a frozen spot price and a simple volatility
// smile, so scans run without credentials and produce stable output for a
// given provider instance.
package mock

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sort"
	"time"

	"github.com/eddiefleurent/income_radar/internal/marketdata"
	"github.com/eddiefleurent/income_radar/internal/options"
	"github.com/eddiefleurent/income_radar/internal/util"
)

// secureFloat64 generates a cryptographically secure random float64 between 0 and 1
func secureFloat64() float64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<53))
	if err != nil {
		// Fallback to a reasonable default if crypto/rand fails
		return 0.5
	}
	return float64(n.Int64()) / (1 << 53)
}

// DataProvider implements marketdata.Provider with synthetic data. All
// randomness is drawn at construction; afterwards every method is a pure
// function of its arguments, so concurrent scans see one consistent market.
type DataProvider struct {
	spot   float64
	baseIV float64
	now    time.Time
}

// Index products that never report earnings.
var noEarnings = map[string]bool{
	"SPY": true,
	"QQQ": true,
	"IWM": true,
	"DIA": true,
	"SPX": true,
	"XSP": true,
	"RUT": true,
}

// NewDataProvider creates a provider with a randomized spot near 450 and
// an IV level between 14% and 24%.
func NewDataProvider() *DataProvider {
	return NewDataProviderAt(450.0+secureFloat64()*10, time.Now().UTC())
}

// NewDataProviderAt pins the spot price and clock, for reproducible runs.
func NewDataProviderAt(spot float64, now time.Time) *DataProvider {
	return &DataProvider{
		spot:   spot,
		baseIV: 0.14 + secureFloat64()*0.10,
		now:    now.UTC(),
	}
}

// Ensure DataProvider implements marketdata.Provider at compile time.
var _ marketdata.Provider = (*DataProvider)(nil)

// GetUnderlyingPrice returns the frozen spot price.
func (m *DataProvider) GetUnderlyingPrice(symbol string) (float64, error) {
	return m.GetUnderlyingPriceCtx(context.Background(), symbol)
}

// GetUnderlyingPriceCtx returns the frozen spot price.
func (m *DataProvider) GetUnderlyingPriceCtx(_ context.Context, _ string) (float64, error) {
	return m.spot, nil
}

// GetExpirations lists eight weekly Fridays plus quarterly-ish monthlies
// out to roughly thirteen months, sorted ascending.
func (m *DataProvider) GetExpirations(symbol string) ([]string, error) {
	return m.GetExpirationsCtx(context.Background(), symbol)
}

// GetExpirationsCtx lists the synthetic expiration calendar.
func (m *DataProvider) GetExpirationsCtx(_ context.Context, _ string) ([]string, error) {
	seen := make(map[string]bool)

	f := fridayOnOrAfter(m.now.AddDate(0, 0, 1))
	for i := 0; i < 8; i++ {
		seen[f.Format("2006-01-02")] = true
		f = f.AddDate(0, 0, 7)
	}
	for _, days := range []int{90, 180, 270, 400} {
		d := fridayOnOrAfter(m.now.AddDate(0, 0, days))
		seen[d.Format("2006-01-02")] = true
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

func fridayOnOrAfter(t time.Time) time.Time {
	t = t.Truncate(24 * time.Hour)
	for t.Weekday() != time.Friday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// GetOptionChain synthesizes a chain spanning 30% either side of spot in
// five point strikes.
func (m *DataProvider) GetOptionChain(symbol, expiration string) ([]marketdata.OptionQuote, error) {
	return m.GetOptionChainCtx(context.Background(), symbol, expiration)
}

// GetOptionChainCtx synthesizes a chain for the given expiration.
func (m *DataProvider) GetOptionChainCtx(_ context.Context, symbol, expiration string) ([]marketdata.OptionQuote, error) {
	expDate, err := time.Parse("2006-01-02", expiration)
	if err != nil {
		return nil, fmt.Errorf("invalid expiration format: %w", err)
	}
	dte := int(expDate.Sub(m.now).Hours() / 24)
	if dte < 0 {
		dte = 0
	}
	yearsOut := options.YearsToExpiry(dte)

	strikeInterval := 5.0
	startStrike := util.FloorToTick(m.spot*0.7, strikeInterval)
	endStrike := util.CeilToTick(m.spot*1.3, strikeInterval)

	var quotes []marketdata.OptionQuote
	for strike := startStrike; strike <= endStrike; strike += strikeInterval {
		vol := m.smileIV(strike)
		distance := math.Abs(strike - m.spot)
		liq := math.Exp(-distance * 0.03)
		oi := int64(50 + 40000*liq)
		volume := int64(5 + 5000*liq)

		for _, typ := range []options.OptionType{options.Put, options.Call} {
			price := m.modelPrice(strike, yearsOut, vol, typ)
			half := math.Max(0.03, 0.02*price)
			delta := options.Delta(m.spot, strike, yearsOut, options.DefaultRiskFreeRate, vol, typ)

			occType := "P"
			if typ == options.Call {
				occType = "C"
			}
			quotes = append(quotes, marketdata.OptionQuote{
				Symbol:         fmt.Sprintf("%s%s%s%08d", symbol, expDate.Format("060102"), occType, int(strike*1000)),
				OptionType:     string(typ),
				ExpirationDate: expiration,
				Strike:         strike,
				Bid:            roundCents(price - half),
				Ask:            roundCents(price + half),
				Last:           roundCents(price),
				Volume:         volume,
				OpenInterest:   oi,
				Greeks: &marketdata.Greeks{
					Delta: delta,
					Theta: -0.05 * vol,
					Vega:  0.10 * vol,
					BidIV: vol * 0.97,
					MidIV: vol,
					AskIV: vol * 1.03,
				},
			})
		}
	}
	return quotes, nil
}

// smileIV bends the base IV up in the wings, with extra weight on the put
// side.
func (m *DataProvider) smileIV(strike float64) float64 {
	mny := strike/m.spot - 1
	vol := m.baseIV * (1 + 2.5*mny*mny)
	if mny < 0 {
		vol += 0.4 * m.baseIV * -mny
	}
	return util.Clamp(vol, 0.05, 2.0)
}

// modelPrice is intrinsic value plus a bell-shaped time value. Crude next
// to a real pricer, but it keeps verticals worth less than their width and
// deep ITM quotes above intrinsic.
func (m *DataProvider) modelPrice(strike, yearsOut, vol float64, typ options.OptionType) float64 {
	var intrinsic float64
	if typ == options.Call {
		intrinsic = math.Max(0, m.spot-strike)
	} else {
		intrinsic = math.Max(0, strike-m.spot)
	}

	timeValue := 0.05
	if yearsOut > 0 {
		mny := strike/m.spot - 1
		shape := math.Exp(-(mny * mny) / (2 * vol * vol * yearsOut))
		timeValue = math.Max(0.05, 0.4*m.spot*vol*math.Sqrt(yearsOut)*shape)
	}
	return intrinsic + timeValue
}

func roundCents(v float64) float64 {
	if v < 0.01 {
		return 0.01
	}
	return util.RoundToTick(v, 0.01)
}

// GetNextEarnings reports a date about five weeks out for single names and
// nil for index products.
func (m *DataProvider) GetNextEarnings(symbol string) (*time.Time, error) {
	return m.GetNextEarningsCtx(context.Background(), symbol)
}

// GetNextEarningsCtx reports the synthetic earnings date.
func (m *DataProvider) GetNextEarningsCtx(_ context.Context, symbol string) (*time.Time, error) {
	if noEarnings[symbol] {
		return nil, nil
	}
	when := m.now.AddDate(0, 0, 35).Truncate(24 * time.Hour)
	return &when, nil
}
