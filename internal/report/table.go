// Package report renders scan output for people: per-family terminal
// tables, flat CSV export, and a summary statistics block.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/eddiefleurent/income_radar/internal/options"
	"github.com/eddiefleurent/income_radar/internal/scanner"
)

var printer = message.NewPrinter(language.English)

var familyOrder = []scanner.Family{
	scanner.FamilyIncome,
	scanner.FamilyDirectional,
	scanner.FamilyVolatility,
	scanner.FamilyStructural,
}

// WriteTable renders candidates grouped into one table per ranking family,
// each with columns suited to that family's metric. Candidates keep their
// incoming order, so a ranked slice renders best-first within each group.
func WriteTable(w io.Writer, cands []options.Candidate) {
	if len(cands) == 0 {
		fmt.Fprintln(w, "no candidates")
		return
	}

	groups := make(map[scanner.Family][]*options.Candidate)
	for i := range cands {
		f := scanner.FamilyOf(&cands[i])
		groups[f] = append(groups[f], &cands[i])
	}

	for _, f := range familyOrder {
		rows := groups[f]
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%d)\n", strings.ToUpper(f.String()), len(rows))
		renderFamily(w, f, rows)
		fmt.Fprintln(w)
	}
}

// WriteResult prints a scan header, the candidate tables, and the summary
// block for one scan result.
func WriteResult(w io.Writer, res *scanner.Result) {
	fmt.Fprintf(w, "%s  %s  spot %.2f  %d expirations  %s\n",
		res.Symbol, res.Kind, res.Spot, res.ExpirationsScanned, res.GeneratedAt.Format("2006-01-02 15:04 MST"))
	if res.NextEarnings != nil {
		fmt.Fprintf(w, "next earnings %s\n", res.NextEarnings.Format("2006-01-02"))
	}
	for _, f := range res.Failures {
		fmt.Fprintf(w, "skipped %s: %s\n", f.Expiration, f.Reason)
	}
	fmt.Fprintln(w)
	WriteTable(w, res.Candidates)
	WriteSummary(w, Summarize(res.Candidates))
}

func renderFamily(w io.Writer, f scanner.Family, rows []*options.Candidate) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	switch f {
	case scanner.FamilyDirectional:
		table.SetHeader([]string{"Variant", "Symbol", "Expiry", "DTE", "Legs", "Debit", "Delta", "Leverage", "Breakevens", "Flags"})
		for _, c := range rows {
			table.Append(append(prefixCells(c),
				money(-c.NetPrice),
				fmt.Sprintf("%.2f", c.NetDelta),
				fmt.Sprintf("%.1fx", c.Leverage),
				breakevenCell(c),
				flagCell(c),
			))
		}
	case scanner.FamilyVolatility:
		table.SetHeader([]string{"Variant", "Symbol", "Expiry", "DTE", "Legs", "Debit", "Net Delta", "Breakevens", "Flags"})
		for _, c := range rows {
			table.Append(append(prefixCells(c),
				money(-c.NetPrice),
				fmt.Sprintf("%.2f", c.NetDelta),
				breakevenCell(c),
				flagCell(c),
			))
		}
	case scanner.FamilyStructural:
		table.SetHeader([]string{"Variant", "Symbol", "Expiry", "DTE", "Legs", "Net", "Capital", "Net Delta", "Breakevens", "Flags"})
		for _, c := range rows {
			table.Append(append(prefixCells(c),
				signedMoney(c.NetPrice),
				capitalCell(c),
				fmt.Sprintf("%.2f", c.NetDelta),
				breakevenCell(c),
				flagCell(c),
			))
		}
	default:
		table.SetHeader([]string{"Variant", "Symbol", "Expiry", "DTE", "Legs", "Net", "Capital", "ROI", "Annual", "Breakevens", "Dist", "Flags"})
		for _, c := range rows {
			table.Append(append(prefixCells(c),
				signedMoney(c.NetPrice),
				capitalCell(c),
				pct(c.ROI),
				annualCell(c),
				breakevenCell(c),
				fmt.Sprintf("%.1f%%", c.DistancePct),
				flagCell(c),
			))
		}
	}

	table.Render()
}

func prefixCells(c *options.Candidate) []string {
	return []string{c.Variant, c.Symbol, expiryCell(c), strconv.Itoa(c.DaysToExpiry), legSummary(c)}
}

func expiryCell(c *options.Candidate) string {
	s := c.Expiration.Format("2006-01-02")
	if !c.FarExpiration.IsZero() {
		s += " > " + c.FarExpiration.Format("2006-01-02")
	}
	return s
}

// legSummary compacts legs into "S95P B90P" notation, the quantity prefixed
// when above one.
func legSummary(c *options.Candidate) string {
	parts := make([]string, 0, len(c.Legs))
	for _, leg := range c.Legs {
		side := "S"
		if leg.Side == options.Buy {
			side = "B"
		}
		qty := ""
		if leg.Quantity > 1 {
			qty = strconv.Itoa(leg.Quantity) + "x"
		}
		typ := "P"
		if leg.Type == options.Call {
			typ = "C"
		}
		parts = append(parts, fmt.Sprintf("%s%s%g%s", side, qty, leg.Strike, typ))
	}
	return strings.Join(parts, " ")
}

func money(v float64) string       { return printer.Sprintf("%.2f", v) }
func signedMoney(v float64) string { return printer.Sprintf("%+.2f", v) }

func capitalCell(c *options.Candidate) string {
	if c.RiskUnbounded {
		return "unbounded"
	}
	return printer.Sprintf("%.0f", c.CapitalAtRisk)
}

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }

func annualCell(c *options.Candidate) string {
	if !c.AnnualizedValid {
		return "n/a"
	}
	return pct(c.AnnualizedReturn)
}

func breakevenCell(c *options.Candidate) string {
	if len(c.Breakevens) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(c.Breakevens))
	for _, be := range c.Breakevens {
		parts = append(parts, fmt.Sprintf("%.2f", be))
	}
	return strings.Join(parts, " / ")
}

func flagCell(c *options.Candidate) string {
	parts := make([]string, 0, len(c.Flags)+1)
	for _, f := range c.Flags {
		parts = append(parts, string(f))
	}
	if c.HasEarningsRisk {
		parts = append(parts, "earnings")
	}
	return strings.Join(parts, ",")
}
