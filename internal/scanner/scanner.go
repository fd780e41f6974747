// Package scanner orchestrates option strategy scans: it pulls market data
// through a Provider, normalizes chains, dispatches the requested strategy
// builder, and ranks what comes back. Scans share no mutable state, so a
// Scanner is safe for concurrent use.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eddiefleurent/income_radar/internal/marketdata"
	"github.com/eddiefleurent/income_radar/internal/options"
	"github.com/eddiefleurent/income_radar/internal/strategy"
)

const (
	// DefaultMinDays and DefaultMaxDays bound the expiration window when
	// the request leaves it unset.
	DefaultMinDays = 14
	DefaultMaxDays = 45

	// maxFarExpirations caps how many long-dated expirations a diagonal
	// scan fetches. LEAPS chains are dense and nearly interchangeable for
	// candidate construction, so three is plenty.
	maxFarExpirations = 3

	// scanConcurrency bounds parallel scans in ScanAll / ScanAllKinds.
	scanConcurrency = 4
)

// Request describes one scan.
type Request struct {
	Symbol string               `json:"symbol"`
	Kind   options.StrategyKind `json:"kind"`
	Params strategy.Params      `json:"params"`

	// MinDays and MaxDays bound the near expiration window in days to
	// expiry. Zero values take the defaults. Diagonal scans use the
	// near/far windows from Params instead.
	MinDays int `json:"min_days"`
	MaxDays int `json:"max_days"`

	// Relaxed switches the liquidity gate to the lower-volume thresholds.
	Relaxed bool `json:"relaxed"`

	// RiskFreeRate feeds delta computation; zero takes the default.
	RiskFreeRate float64 `json:"risk_free_rate"`
}

func (r Request) withDefaults() Request {
	if r.MinDays <= 0 {
		r.MinDays = DefaultMinDays
	}
	if r.MaxDays <= 0 {
		r.MaxDays = DefaultMaxDays
	}
	if r.RiskFreeRate <= 0 {
		r.RiskFreeRate = options.DefaultRiskFreeRate
	}
	r.Params = r.Params.WithDefaults()
	return r
}

// Result is the output of one scan.
type Result struct {
	ScanID             uuid.UUID            `json:"scan_id"`
	Symbol             string               `json:"symbol"`
	Kind               options.StrategyKind `json:"kind"`
	Spot               float64              `json:"spot"`
	GeneratedAt        time.Time            `json:"generated_at"`
	ExpirationsScanned int                  `json:"expirations_scanned"`
	NextEarnings       *time.Time           `json:"next_earnings,omitempty"`
	Candidates         []options.Candidate  `json:"candidates"`
	Failures           []ExpirationFailure  `json:"failures,omitempty"`
}

// Scanner runs scans against a market data provider.
type Scanner struct {
	provider marketdata.Provider
	logger   *logrus.Logger
	now      func() time.Time
}

// New creates a Scanner. A nil logger gets a default logrus logger.
func New(provider marketdata.Provider, logger *logrus.Logger) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scanner{
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// Scan runs one scan with a background context.
func (s *Scanner) Scan(req Request) (*Result, error) {
	return s.ScanCtx(context.Background(), req)
}

// ScanCtx runs one scan: spot, expirations in window, chains, builder,
// ranking, earnings tagging. Failed expirations are skipped and recorded;
// a scan that completes with zero candidates returns the Result together
// with a wrapped ErrNoCandidatesFound.
func (s *Scanner) ScanCtx(ctx context.Context, req Request) (*Result, error) {
	req = req.withDefaults()
	if req.Symbol == "" {
		return nil, errors.New("scan: symbol required")
	}
	builder, ok := strategy.ForKind(req.Kind)
	if !ok {
		return nil, fmt.Errorf("scan: unknown strategy kind %q", req.Kind)
	}

	log := s.logger.WithFields(logrus.Fields{
		"symbol": req.Symbol,
		"kind":   req.Kind,
	})

	spot, err := s.provider.GetUnderlyingPriceCtx(ctx, req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("underlying price for %s: %w: %w", req.Symbol, ErrDataUnavailable, err)
	}
	if spot <= 0 {
		return nil, fmt.Errorf("underlying price for %s is %.2f: %w", req.Symbol, spot, ErrDataUnavailable)
	}

	dates, err := s.provider.GetExpirationsCtx(ctx, req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("expirations for %s: %w: %w", req.Symbol, ErrDataUnavailable, err)
	}

	targets := s.selectExpirations(dates, req)
	if len(targets) == 0 {
		return nil, fmt.Errorf("%s %s window [%d,%d]d: %w",
			req.Symbol, req.Kind, req.MinDays, req.MaxDays, ErrNoExpirationsInRange)
	}

	gate := options.StandardLiquidity
	if req.Relaxed {
		gate = options.RelaxedLiquidity
	}

	set := &options.ChainSet{Symbol: req.Symbol, Spot: spot}
	var failures []ExpirationFailure
	for _, target := range targets {
		quotes, err := s.provider.GetOptionChainCtx(ctx, req.Symbol, target.date)
		if err != nil {
			failures = append(failures, ExpirationFailure{Expiration: target.date, Reason: err.Error(), Err: err})
			log.WithError(err).WithField("expiration", target.date).Warn("chain fetch failed, skipping expiration")
			continue
		}
		if len(quotes) == 0 {
			failures = append(failures, ExpirationFailure{Expiration: target.date, Reason: "empty chain"})
			continue
		}
		set.Chains = append(set.Chains, buildChain(req.Symbol, spot, target, quotes, gate, req.RiskFreeRate))
	}
	if len(set.Chains) == 0 {
		return nil, fmt.Errorf("%s: all %d expirations failed: %w", req.Symbol, len(targets), ErrDataUnavailable)
	}
	set.SortByExpiration()

	candidates := builder.Build(set, req.Params)
	SortCandidates(candidates)

	var nextEarnings *time.Time
	if when, err := s.provider.GetNextEarningsCtx(ctx, req.Symbol); err != nil {
		log.WithError(err).Warn("earnings lookup failed, skipping tagging")
	} else if when != nil {
		nextEarnings = when
		TagEarningsRisk(candidates, *when)
	}

	res := &Result{
		ScanID:             uuid.New(),
		Symbol:             req.Symbol,
		Kind:               req.Kind,
		Spot:               spot,
		GeneratedAt:        s.now().UTC(),
		ExpirationsScanned: len(set.Chains),
		NextEarnings:       nextEarnings,
		Candidates:         candidates,
		Failures:           failures,
	}
	if len(candidates) == 0 {
		return res, fmt.Errorf("%s %s (width=%.1f, window [%d,%d]d): %w",
			req.Symbol, req.Kind, req.Params.Width, req.MinDays, req.MaxDays, ErrNoCandidatesFound)
	}

	log.WithFields(logrus.Fields{
		"scan_id":     res.ScanID,
		"candidates":  len(candidates),
		"expirations": res.ExpirationsScanned,
	}).Info("scan complete")
	return res, nil
}

// ScanAll scans the same strategy across several symbols in parallel.
// Per-symbol failures are logged and dropped from the output; an error is
// returned only when every symbol fails.
func (s *Scanner) ScanAll(ctx context.Context, symbols []string, base Request) ([]*Result, error) {
	return s.scanParallel(ctx, len(symbols), func(i int) (string, Request) {
		req := base
		req.Symbol = symbols[i]
		return symbols[i], req
	})
}

// ScanAllKinds scans every strategy kind for one symbol in parallel.
func (s *Scanner) ScanAllKinds(ctx context.Context, base Request) ([]*Result, error) {
	kinds := options.AllStrategyKinds()
	return s.scanParallel(ctx, len(kinds), func(i int) (string, Request) {
		req := base
		req.Kind = kinds[i]
		return string(kinds[i]), req
	})
}

// scanParallel fans n scans out over a bounded errgroup. Scans that end in
// ErrNoCandidatesFound still contribute their (empty) Result; hard failures
// are collected per slot so one bad scan cannot sink its siblings.
func (s *Scanner) scanParallel(ctx context.Context, n int, reqFor func(int) (string, Request)) ([]*Result, error) {
	results := make([]*Result, n)
	errs := make([]error, n)

	g := new(errgroup.Group)
	g.SetLimit(scanConcurrency)
	for i := 0; i < n; i++ {
		i := i
		label, req := reqFor(i)
		g.Go(func() error {
			res, err := s.ScanCtx(ctx, req)
			if err != nil && !errors.Is(err, ErrNoCandidatesFound) {
				errs[i] = fmt.Errorf("%s: %w", label, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*Result, 0, n)
	var failed []error
	for i := 0; i < n; i++ {
		if results[i] != nil {
			out = append(out, results[i])
		}
		if errs[i] != nil {
			failed = append(failed, errs[i])
			s.logger.WithError(errs[i]).Warn("scan failed")
		}
	}
	if len(out) == 0 && len(failed) > 0 {
		return nil, errors.Join(failed...)
	}
	return out, nil
}

// expiryTarget is one expiration selected for fetching.
type expiryTarget struct {
	date string
	when time.Time
	dte  int
}

// selectExpirations picks the expirations worth fetching. Most strategies
// use the request's near window. Diagonals instead need the near short
// window plus long-dated chains past the far floor, capped at
// maxFarExpirations; with either end empty no diagonal can exist, which is
// reported as an empty selection.
func (s *Scanner) selectExpirations(dates []string, req Request) []expiryTarget {
	today := s.now().UTC().Truncate(24 * time.Hour)

	var near, far []expiryTarget
	for _, d := range dates {
		when, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		dte := int(when.Sub(today).Hours() / 24)
		t := expiryTarget{date: d, when: when, dte: dte}

		if req.Kind == options.KindDiagonal {
			switch {
			case dte >= req.Params.NearMinDays && dte <= req.Params.NearMaxDays:
				near = append(near, t)
			case dte > req.Params.FarMinDays:
				far = append(far, t)
			}
			continue
		}
		if dte >= req.MinDays && dte <= req.MaxDays {
			near = append(near, t)
		}
	}

	sort.Slice(near, func(i, j int) bool { return near[i].dte < near[j].dte })
	if req.Kind != options.KindDiagonal {
		return near
	}

	sort.Slice(far, func(i, j int) bool { return far[i].dte < far[j].dte })
	if len(far) > maxFarExpirations {
		far = far[:maxFarExpirations]
	}
	if len(near) == 0 || len(far) == 0 {
		return nil
	}
	return append(near, far...)
}

// buildChain converts provider quotes into one normalized Chain.
func buildChain(symbol string, spot float64, target expiryTarget,
	quotes []marketdata.OptionQuote, gate options.LiquidityGate, riskFreeRate float64) options.Chain {
	var callRows, putRows []options.ChainRow
	for i := range quotes {
		q := &quotes[i]
		row := options.ChainRow{
			Strike:            q.Strike,
			Bid:               q.Bid,
			Ask:               q.Ask,
			ImpliedVolatility: q.IV(),
			OpenInterest:      q.OpenInterest,
			Volume:            q.Volume,
		}
		switch q.OptionType {
		case string(options.Call):
			callRows = append(callRows, row)
		case string(options.Put):
			putRows = append(putRows, row)
		}
	}

	return options.Chain{
		Symbol:       symbol,
		Spot:         spot,
		Expiration:   target.when,
		DaysToExpiry: target.dte,
		Calls:        options.Normalize(callRows, spot, target.when, target.dte, options.Call, gate, riskFreeRate),
		Puts:         options.Normalize(putRows, spot, target.when, target.dte, options.Put, gate, riskFreeRate),
	}
}
