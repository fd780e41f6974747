package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/eddiefleurent/income_radar/internal/options"
)

// candidateRow flattens a candidate to one CSV line. Multi-valued fields
// (legs, breakevens, flags) join on a separator inside the cell.
type candidateRow struct {
	Strategy         string  `csv:"strategy"`
	Variant          string  `csv:"variant"`
	Symbol           string  `csv:"symbol"`
	Legs             string  `csv:"legs"`
	Expiration       string  `csv:"expiration"`
	FarExpiration    string  `csv:"far_expiration"`
	DaysToExpiry     int     `csv:"days_to_expiry"`
	NetPrice         float64 `csv:"net_price"`
	CapitalAtRisk    float64 `csv:"capital_at_risk"`
	RiskUnbounded    bool    `csv:"risk_unbounded"`
	ROI              float64 `csv:"roi"`
	AnnualizedReturn float64 `csv:"annualized_return"`
	AnnualizedValid  bool    `csv:"annualized_valid"`
	Breakevens       string  `csv:"breakevens"`
	NetDelta         float64 `csv:"net_delta"`
	DistancePct      float64 `csv:"distance_pct"`
	Leverage         float64 `csv:"leverage"`
	UpsideRisk       float64 `csv:"upside_risk"`
	HasEarningsRisk  bool    `csv:"has_earnings_risk"`
	Flags            string  `csv:"flags"`
}

// WriteCSV exports candidates as CSV, header row included. An empty slice
// still writes the header so downstream tooling sees the schema.
func WriteCSV(w io.Writer, cands []options.Candidate) error {
	rows := make([]candidateRow, 0, len(cands))
	for i := range cands {
		rows = append(rows, toRow(&cands[i]))
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("marshalling candidates: %w", err)
	}
	return nil
}

func toRow(c *options.Candidate) candidateRow {
	bes := make([]string, 0, len(c.Breakevens))
	for _, be := range c.Breakevens {
		bes = append(bes, strconv.FormatFloat(be, 'f', 2, 64))
	}
	flags := make([]string, 0, len(c.Flags))
	for _, f := range c.Flags {
		flags = append(flags, string(f))
	}
	far := ""
	if !c.FarExpiration.IsZero() {
		far = c.FarExpiration.Format("2006-01-02")
	}

	return candidateRow{
		Strategy:         string(c.Strategy),
		Variant:          c.Variant,
		Symbol:           c.Symbol,
		Legs:             legSummary(c),
		Expiration:       c.Expiration.Format("2006-01-02"),
		FarExpiration:    far,
		DaysToExpiry:     c.DaysToExpiry,
		NetPrice:         c.NetPrice,
		CapitalAtRisk:    c.CapitalAtRisk,
		RiskUnbounded:    c.RiskUnbounded,
		ROI:              c.ROI,
		AnnualizedReturn: c.AnnualizedReturn,
		AnnualizedValid:  c.AnnualizedValid,
		Breakevens:       strings.Join(bes, "|"),
		NetDelta:         c.NetDelta,
		DistancePct:      c.DistancePct,
		Leverage:         c.Leverage,
		UpsideRisk:       c.UpsideRisk,
		HasEarningsRisk:  c.HasEarningsRisk,
		Flags:            strings.Join(flags, "|"),
	}
}
