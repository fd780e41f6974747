// Package dashboard exposes the scan engine over a JSON HTTP API.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/income_radar/internal/options"
	"github.com/eddiefleurent/income_radar/internal/report"
	"github.com/eddiefleurent/income_radar/internal/scanner"
)

type Server struct {
	router    *chi.Mux
	server    *http.Server
	scanner   *scanner.Scanner
	logger    *logrus.Logger
	listen    string
	authToken string
	defaults  scanner.Request
	tiers     scanner.TierBands
}

type Config struct {
	Listen    string
	AuthToken string
	// Defaults seed each scan request; query parameters override per call.
	Defaults scanner.Request
	Tiers    scanner.TierBands
}

func NewServer(cfg Config, sc *scanner.Scanner, logger *logrus.Logger) *Server {
	if cfg.Tiers == (scanner.TierBands{}) {
		cfg.Tiers = scanner.DefaultTierBands()
	}

	s := &Server{
		router:    chi.NewRouter(),
		scanner:   sc,
		logger:    logger,
		listen:    cfg.Listen,
		authToken: cfg.AuthToken,
		defaults:  cfg.Defaults,
		tiers:     cfg.Tiers,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/strategies", s.handleStrategies)
	s.router.Get("/api/scan", s.handleScan)
	s.router.Post("/api/payoff", s.handlePayoff)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the routed handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.listen,
		Handler: s.router,
	}

	s.logger.Infof("Starting dashboard server on %s", s.listen)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type strategyInfo struct {
	Kind     options.StrategyKind `json:"kind"`
	Variants []string             `json:"variants"`
}

type scanResponse struct {
	*scanner.Result
	Summary report.Summary    `json:"summary"`
	Picks   scanner.TierPicks `json:"picks"`
}

type payoffRequest struct {
	Candidate options.Candidate `json:"candidate"`
	Low       float64           `json:"low"`
	High      float64           `json:"high"`
	Steps     int               `json:"steps"`
}

type payoffResponse struct {
	Points     []options.PayoffPoint `json:"points"`
	Breakevens []float64             `json:"breakevens,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}
	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	kinds := options.AllStrategyKinds()
	out := make([]strategyInfo, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, strategyInfo{Kind: k, Variants: options.VariantsFor(k)})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	req, top, err := s.scanRequest(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	res, err := s.scanner.ScanCtx(r.Context(), req)
	if err != nil {
		s.scanError(w, err)
		return
	}

	if top > 0 && len(res.Candidates) > top {
		res.Candidates = res.Candidates[:top]
	}

	s.writeJSON(w, http.StatusOK, scanResponse{
		Result:  res,
		Summary: report.Summarize(res.Candidates),
		Picks:   scanner.ThreeTierPicks(res.Candidates, s.tiers),
	})
}

func (s *Server) handlePayoff(w http.ResponseWriter, r *http.Request) {
	var req payoffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "decoding payoff request: "+err.Error())
		return
	}
	if len(req.Candidate.Legs) == 0 {
		s.writeError(w, http.StatusBadRequest, "bad_request", "candidate has no legs")
		return
	}

	lo, hi := req.Low, req.High
	if hi <= lo {
		lo, hi = options.PriceRange(&req.Candidate)
	}
	steps := req.Steps
	if steps <= 0 {
		steps = 100
	}

	s.writeJSON(w, http.StatusOK, payoffResponse{
		Points:     options.PayoffSeries(&req.Candidate, lo, hi, steps),
		Breakevens: req.Candidate.Breakevens,
	})
}

// scanRequest builds a scan request from query parameters layered over the
// server defaults. The returned top caps the candidate list; zero means
// unlimited.
func (s *Server) scanRequest(r *http.Request) (scanner.Request, int, error) {
	q := r.URL.Query()
	req := s.defaults

	if v := q.Get("symbol"); v != "" {
		req.Symbol = strings.ToUpper(strings.TrimSpace(v))
	}
	if req.Symbol == "" {
		return req, 0, errors.New("symbol query parameter is required")
	}

	if v := q.Get("kind"); v != "" {
		kind := options.StrategyKind(v)
		if !kind.Valid() {
			return req, 0, fmt.Errorf("unknown strategy kind %q", v)
		}
		req.Kind = kind
	}
	if req.Kind == "" {
		req.Kind = options.KindSingleLeg
	}

	var err error
	if v := q.Get("min_days"); v != "" {
		if req.MinDays, err = strconv.Atoi(v); err != nil {
			return req, 0, fmt.Errorf("min_days: %w", err)
		}
	}
	if v := q.Get("max_days"); v != "" {
		if req.MaxDays, err = strconv.Atoi(v); err != nil {
			return req, 0, fmt.Errorf("max_days: %w", err)
		}
	}
	if v := q.Get("relaxed"); v != "" {
		if req.Relaxed, err = strconv.ParseBool(v); err != nil {
			return req, 0, fmt.Errorf("relaxed: %w", err)
		}
	}
	if v := q.Get("width"); v != "" {
		if req.Params.Width, err = strconv.ParseFloat(v, 64); err != nil {
			return req, 0, fmt.Errorf("width: %w", err)
		}
	}
	if v := q.Get("range"); v != "" {
		if req.Params.StrikeRangePct, err = strconv.ParseFloat(v, 64); err != nil {
			return req, 0, fmt.Errorf("range: %w", err)
		}
	}

	top := 0
	if v := q.Get("top"); v != "" {
		if top, err = strconv.Atoi(v); err != nil {
			return req, 0, fmt.Errorf("top: %w", err)
		}
	}

	return req, top, nil
}

// scanError maps scan failures onto API status codes: empty outcomes are
// 404s, upstream data problems 502, anything else 500.
func (s *Server) scanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scanner.ErrNoCandidatesFound):
		s.writeError(w, http.StatusNotFound, "no_candidates", err.Error())
	case errors.Is(err, scanner.ErrNoExpirationsInRange):
		s.writeError(w, http.StatusNotFound, "no_expirations", err.Error())
	case errors.Is(err, scanner.ErrDataUnavailable):
		s.writeError(w, http.StatusBadGateway, "data_unavailable", err.Error())
	default:
		s.logger.WithError(err).Error("Scan failed")
		s.writeError(w, http.StatusInternalServerError, "internal", "scan failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, errorResponse{Kind: kind, Message: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
