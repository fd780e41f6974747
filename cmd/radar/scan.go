package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eddiefleurent/income_radar/internal/options"
	"github.com/eddiefleurent/income_radar/internal/report"
	"github.com/eddiefleurent/income_radar/internal/scanner"
)

// scanFlags holds the per-invocation overrides for scan and scanall. Only
// flags the user actually set override the config values.
type scanFlags struct {
	strategy string
	minDays  int
	maxDays  int
	relaxed  bool
	width    float64
	rangePct float64
	top      int
	csvPath  string
	jsonOut  bool
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", string(options.KindSingleLeg), "strategy kind to scan")
	cmd.Flags().IntVar(&f.minDays, "min-days", 0, "minimum days to expiry (default from config)")
	cmd.Flags().IntVar(&f.maxDays, "max-days", 0, "maximum days to expiry (default from config)")
	cmd.Flags().BoolVar(&f.relaxed, "relaxed", false, "relax the liquidity gate for thin chains")
	cmd.Flags().Float64Var(&f.width, "width", 0, "spread width in strike points (default from config)")
	cmd.Flags().Float64Var(&f.rangePct, "range", 0, "strike range around spot as a fraction (default from config)")
	cmd.Flags().IntVar(&f.top, "top", 0, "keep only the top N candidates per scan (0 = all)")
	cmd.Flags().StringVar(&f.csvPath, "csv", "", "also write candidates to a CSV file")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "emit the raw scan result as JSON")
}

// apply folds the set flags into a request built from config.
func (f *scanFlags) apply(cmd *cobra.Command, req scanner.Request) scanner.Request {
	if cmd.Flags().Changed("min-days") {
		req.MinDays = f.minDays
	}
	if cmd.Flags().Changed("max-days") {
		req.MaxDays = f.maxDays
	}
	if cmd.Flags().Changed("relaxed") {
		req.Relaxed = f.relaxed
	}
	if cmd.Flags().Changed("width") {
		req.Params.Width = f.width
	}
	if cmd.Flags().Changed("range") {
		req.Params.StrikeRangePct = f.rangePct
	}
	return req
}

func newScanCmd(a *app) *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan SYMBOL",
		Short: "Scan one symbol for strategy candidates",
		Long: `Scan one underlying for candidates of a single strategy kind.

Examples:
  radar scan SPY                        # cash-secured puts, covered calls, long options
  radar scan SPY -s vertical_spread     # credit and debit verticals
  radar scan QQQ -s iron_condor --relaxed
  radar scan SPY --top 5 --csv spy.csv  # table plus CSV export`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(); err != nil {
				return err
			}
			kind, err := parseKind(flags.strategy)
			if err != nil {
				return err
			}

			req := flags.apply(cmd, a.baseRequest())
			req.Symbol = strings.ToUpper(args[0])
			req.Kind = kind

			res, err := a.scanner.ScanCtx(cmd.Context(), req)
			if err != nil && !errors.Is(err, scanner.ErrNoCandidatesFound) {
				return err
			}
			return writeScanOutput(cmd, a, flags, res)
		},
	}

	flags.register(cmd)
	cmd.SilenceUsage = true
	return cmd
}

func writeScanOutput(cmd *cobra.Command, a *app, flags *scanFlags, res *scanner.Result) error {
	if flags.top > 0 && len(res.Candidates) > flags.top {
		res.Candidates = res.Candidates[:flags.top]
	}

	if flags.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	} else {
		report.WriteResult(cmd.OutOrStdout(), res)
	}

	if flags.csvPath != "" {
		if err := writeCSVFile(flags.csvPath, res.Candidates); err != nil {
			return err
		}
		a.logger.Infof("Wrote %d candidates to %s", len(res.Candidates), flags.csvPath)
	}
	return nil
}

func writeCSVFile(path string, cands []options.Candidate) error {
	f, err := os.Create(path) // #nosec G304 -- path is the user's chosen output file
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := report.WriteCSV(f, cands); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
