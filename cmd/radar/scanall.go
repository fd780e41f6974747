package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eddiefleurent/income_radar/internal/options"
	"github.com/eddiefleurent/income_radar/internal/report"
	"github.com/eddiefleurent/income_radar/internal/scanner"
)

func newScanAllCmd(a *app) *cobra.Command {
	flags := &scanFlags{}
	var allKinds bool

	cmd := &cobra.Command{
		Use:   "scanall [SYMBOL...]",
		Short: "Scan several symbols, or every strategy for one symbol",
		Long: `Scan a list of symbols in parallel for one strategy kind, or with
--all-kinds scan a single symbol across every strategy kind. With no
symbols the scan.symbols list from the config is used.

Examples:
  radar scanall                         # config symbols, cash-secured puts etc.
  radar scanall SPY QQQ IWM -s vertical_spread
  radar scanall SPY --all-kinds         # all seven strategy kinds for SPY
  radar scanall --csv all.csv           # aggregate CSV across all scans`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(); err != nil {
				return err
			}

			symbols := args
			if len(symbols) == 0 {
				symbols = a.cfg.Scan.Symbols
			}
			for i, sym := range symbols {
				symbols[i] = strings.ToUpper(strings.TrimSpace(sym))
			}

			base := flags.apply(cmd, a.baseRequest())

			var (
				results []*scanner.Result
				err     error
			)
			if allKinds {
				if len(symbols) != 1 {
					return fmt.Errorf("--all-kinds scans one symbol, got %d", len(symbols))
				}
				base.Symbol = symbols[0]
				results, err = a.scanner.ScanAllKinds(cmd.Context(), base)
			} else {
				kind, kerr := parseKind(flags.strategy)
				if kerr != nil {
					return kerr
				}
				base.Kind = kind
				results, err = a.scanner.ScanAll(cmd.Context(), symbols, base)
			}
			if err != nil {
				return err
			}
			return writeScanAllOutput(cmd, a, flags, results)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&allKinds, "all-kinds", false, "scan every strategy kind for a single symbol")
	cmd.SilenceUsage = true
	return cmd
}

func writeScanAllOutput(cmd *cobra.Command, a *app, flags *scanFlags, results []*scanner.Result) error {
	out := cmd.OutOrStdout()

	var all []options.Candidate
	for _, res := range results {
		if flags.top > 0 && len(res.Candidates) > flags.top {
			res.Candidates = res.Candidates[:flags.top]
		}
		all = append(all, res.Candidates...)
	}

	if flags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
	} else {
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(out)
			}
			report.WriteResult(out, res)
		}
	}

	if flags.csvPath != "" {
		if err := writeCSVFile(flags.csvPath, all); err != nil {
			return err
		}
		a.logger.Infof("Wrote %d candidates to %s", len(all), flags.csvPath)
	}
	return nil
}
