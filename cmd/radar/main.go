// Command radar scans option chains for income and directional strategy
// candidates. It reads config.yaml, talks to Tradier (or the offline mock
// provider), and prints ranked candidates as tables, CSV, or JSON.
package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eddiefleurent/income_radar/internal/config"
	"github.com/eddiefleurent/income_radar/internal/marketdata"
	"github.com/eddiefleurent/income_radar/internal/mock"
	"github.com/eddiefleurent/income_radar/internal/options"
	"github.com/eddiefleurent/income_radar/internal/scanner"
	"github.com/eddiefleurent/income_radar/internal/strategy"
)

// version is stamped by the build via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is fine; deployments set variables directly.
	_ = godotenv.Load()
	cobra.CheckErr(newRootCmd().Execute())
}

// app carries the dependencies shared by all subcommands. Config loading
// is deferred to each command's RunE so that flag parsing and help never
// require a config file.
type app struct {
	configPath string
	verbose    bool

	cfg     *config.Config
	logger  *logrus.Logger
	scanner *scanner.Scanner
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "radar",
		Short: "Options strategy scanner",
		Long: `radar scans option chains for strategy candidates: cash-secured puts,
covered calls, verticals, iron condors, straddles, ratio spreads,
diagonals, and jade lizards. Candidates are scored on return, risk,
and cushion, then ranked within their strategy family.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config.yaml", "path to configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newScanCmd(a),
		newScanAllCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the radar version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "radar %s\n", version)
		},
	}
}

// init loads the config and wires the provider chain and scanner. Called
// at the top of every RunE that needs them.
func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.Environment.LogLevel, a.verbose)
	a.scanner = scanner.New(buildProvider(cfg), a.logger)
	return nil
}

func newLogger(level string, verbose bool) *logrus.Logger {
	logger := logrus.New()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		return logger
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// buildProvider assembles the market data stack for the configured mode.
// Live and sandbox modes get the Tradier client, optionally wrapped in a
// circuit breaker, always behind the TTL cache. Mock mode is offline and
// needs neither.
func buildProvider(cfg *config.Config) marketdata.Provider {
	if cfg.IsMock() {
		return mock.NewDataProvider()
	}

	var client *marketdata.TradierClient
	if cfg.Provider.APIEndpoint != "" {
		client = marketdata.NewTradierClientWithBaseURL(cfg.Provider.APIKey, cfg.Provider.APIEndpoint, cfg.IsSandbox())
	} else {
		client = marketdata.NewTradierClient(cfg.Provider.APIKey, cfg.IsSandbox())
	}
	client = client.WithTimeout(cfg.GetTimeout())

	var provider marketdata.Provider = client
	if cfg.Provider.CircuitBreaker {
		provider = marketdata.NewCircuitBreakerProvider(provider)
	}
	return marketdata.NewCachedProvider(provider, cfg.GetCacheTTL())
}

// baseRequest translates the config's scan and strategy sections into a
// scan request. Zero-valued tunables stay zero so the engine defaults
// apply downstream.
func (a *app) baseRequest() scanner.Request {
	return scanner.Request{
		Params:       paramsFromConfig(&a.cfg.Strategy),
		MinDays:      a.cfg.Scan.MinDays,
		MaxDays:      a.cfg.Scan.MaxDays,
		Relaxed:      a.cfg.Scan.Relaxed,
		RiskFreeRate: a.cfg.Scan.RiskFreeRate,
	}
}

func paramsFromConfig(s *config.StrategyConfig) strategy.Params {
	return strategy.Params{
		Width:           s.Width,
		StrikeRangePct:  s.StrikeRangePct,
		MinCredit:       s.MinCredit,
		Tolerance:       s.Tolerance,
		SparseTolerance: s.SparseTolerance,
		ShortDelta:      bandFromConfig(s.ShortDeltaBand),
		LongDelta:       bandFromConfig(s.LongDeltaBand),
		CondorTopK:      s.CondorTopK,
		NearMinDays:     s.NearMinDays,
		NearMaxDays:     s.NearMaxDays,
		FarMinDays:      s.FarMinDays,
	}
}

// bandFromConfig converts a [min,max] pair to a delta band. Anything else
// (including the empty slice) yields the zero band, which downstream
// defaults replace.
func bandFromConfig(band []float64) strategy.DeltaBand {
	if len(band) != 2 {
		return strategy.DeltaBand{}
	}
	return strategy.DeltaBand{Min: band[0], Max: band[1]}
}

func tierBandsFromConfig(r config.RankingConfig) scanner.TierBands {
	bands := scanner.DefaultTierBands()
	if r.MinDistancePct > 0 {
		bands.MinDistancePct = r.MinDistancePct
	}
	if r.AggressiveMax > 0 {
		bands.AggressiveMax = r.AggressiveMax
	}
	if r.BalancedMax > 0 {
		bands.BalancedMax = r.BalancedMax
	}
	return bands
}

// parseKind validates a --strategy flag value.
func parseKind(v string) (options.StrategyKind, error) {
	k := options.StrategyKind(strings.ToLower(strings.TrimSpace(v)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown strategy kind %q (one of: %s)", v, kindNames())
	}
	return k, nil
}

func kindNames() string {
	kinds := options.AllStrategyKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
