package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/income_radar/internal/marketdata"
	"github.com/eddiefleurent/income_radar/internal/options"
	"github.com/eddiefleurent/income_radar/internal/scanner"
)

type fakeProvider struct {
	spot    float64
	spotErr error
	dates   []string
	chains  map[string][]marketdata.OptionQuote
}

func (f *fakeProvider) GetUnderlyingPrice(symbol string) (float64, error) {
	return f.GetUnderlyingPriceCtx(context.Background(), symbol)
}

func (f *fakeProvider) GetUnderlyingPriceCtx(_ context.Context, _ string) (float64, error) {
	if f.spotErr != nil {
		return 0, f.spotErr
	}
	return f.spot, nil
}

func (f *fakeProvider) GetExpirations(symbol string) ([]string, error) {
	return f.GetExpirationsCtx(context.Background(), symbol)
}

func (f *fakeProvider) GetExpirationsCtx(_ context.Context, _ string) ([]string, error) {
	return f.dates, nil
}

func (f *fakeProvider) GetOptionChain(symbol, expiration string) ([]marketdata.OptionQuote, error) {
	return f.GetOptionChainCtx(context.Background(), symbol, expiration)
}

func (f *fakeProvider) GetOptionChainCtx(_ context.Context, _, expiration string) ([]marketdata.OptionQuote, error) {
	return f.chains[expiration], nil
}

func (f *fakeProvider) GetNextEarnings(symbol string) (*time.Time, error) {
	return f.GetNextEarningsCtx(context.Background(), symbol)
}

func (f *fakeProvider) GetNextEarningsCtx(_ context.Context, _ string) (*time.Time, error) {
	return nil, nil
}

func quote(typ string, strike, bid, ask float64) marketdata.OptionQuote {
	return marketdata.OptionQuote{
		OptionType:   typ,
		Strike:       strike,
		Bid:          bid,
		Ask:          ask,
		Volume:       100,
		OpenInterest: 500,
		Greeks:       &marketdata.Greeks{MidIV: 0.25},
	}
}

func liquidChain() []marketdata.OptionQuote {
	return []marketdata.OptionQuote{
		quote("put", 95, 1.00, 1.10),
		quote("put", 100, 2.20, 2.30),
		quote("call", 100, 2.40, 2.50),
		quote("call", 105, 0.90, 1.00),
	}
}

// liveProvider serves one liquid expiration 28 days out.
func liveProvider() *fakeProvider {
	date := time.Now().UTC().AddDate(0, 0, 28).Format("2006-01-02")
	return &fakeProvider{
		spot:   100,
		dates:  []string{date},
		chains: map[string][]marketdata.OptionQuote{date: liquidChain()},
	}
}

func newTestServer(t *testing.T, cfg Config, provider marketdata.Provider) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv := NewServer(cfg, scanner.New(provider, logger), logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{}, liveProvider())

	var health map[string]interface{}
	status := getJSON(t, ts.URL+"/health", &health)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", health["status"])
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t, Config{AuthToken: "secret"}, liveProvider())

	resp, err := http.Get(ts.URL + "/api/strategies")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/strategies", nil)
	require.NoError(t, err)
	req.Header.Set("X-Auth-Token", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/strategies?token=secret")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Health stays reachable without the token.
	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStrategies(t *testing.T) {
	ts := newTestServer(t, Config{}, liveProvider())

	var got []struct {
		Kind     string   `json:"kind"`
		Variants []string `json:"variants"`
	}
	status := getJSON(t, ts.URL+"/api/strategies", &got)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, got, 7)
	assert.Equal(t, "single_leg", got[0].Kind)
	assert.Contains(t, got[0].Variants, "cash_secured_put")
	assert.Contains(t, got[0].Variants, "long_call")
}

type scanBody struct {
	Symbol     string              `json:"symbol"`
	Spot       float64             `json:"spot"`
	Candidates []options.Candidate `json:"candidates"`
	Summary    struct {
		Total    int `json:"total"`
		Yielding int `json:"yielding"`
	} `json:"summary"`
}

func TestScan(t *testing.T) {
	ts := newTestServer(t, Config{}, liveProvider())

	var got scanBody
	status := getJSON(t, ts.URL+"/api/scan?symbol=spy&kind=single_leg", &got)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "SPY", got.Symbol, "symbol should be uppercased")
	assert.Equal(t, 100.0, got.Spot)
	require.NotEmpty(t, got.Candidates)
	assert.Equal(t, len(got.Candidates), got.Summary.Total)

	variants := make(map[string]bool)
	for _, c := range got.Candidates {
		variants[c.Variant] = true
	}
	assert.True(t, variants["cash_secured_put"])
}

func TestScan_TopCapsCandidates(t *testing.T) {
	ts := newTestServer(t, Config{}, liveProvider())

	var got scanBody
	status := getJSON(t, ts.URL+"/api/scan?symbol=SPY&top=1", &got)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, got.Candidates, 1)
	assert.Equal(t, 1, got.Summary.Total)
}

func TestScan_BadRequests(t *testing.T) {
	ts := newTestServer(t, Config{}, liveProvider())

	tests := []struct {
		name string
		url  string
	}{
		{"missing symbol", "/api/scan"},
		{"unknown kind", "/api/scan?symbol=SPY&kind=butterfly"},
		{"bad min_days", "/api/scan?symbol=SPY&min_days=soon"},
		{"bad width", "/api/scan?symbol=SPY&width=wide"},
		{"bad top", "/api/scan?symbol=SPY&top=all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got errorResponse
			status := getJSON(t, ts.URL+tt.url, &got)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "bad_request", got.Kind)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestScan_NoExpirations(t *testing.T) {
	provider := liveProvider()
	provider.dates = []string{time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")}
	ts := newTestServer(t, Config{}, provider)

	var got errorResponse
	status := getJSON(t, ts.URL+"/api/scan?symbol=SPY", &got)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "no_expirations", got.Kind)
}

func TestScan_NoCandidates(t *testing.T) {
	provider := liveProvider()
	for date := range provider.chains {
		provider.chains[date] = []marketdata.OptionQuote{quote("put", 95, 0, 0)}
	}
	ts := newTestServer(t, Config{}, provider)

	var got errorResponse
	status := getJSON(t, ts.URL+"/api/scan?symbol=SPY", &got)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "no_candidates", got.Kind)
}

func TestScan_DataUnavailable(t *testing.T) {
	provider := liveProvider()
	provider.spotErr = errors.New("quote feed down")
	ts := newTestServer(t, Config{}, provider)

	var got errorResponse
	status := getJSON(t, ts.URL+"/api/scan?symbol=SPY", &got)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "data_unavailable", got.Kind)
}

func postJSON(t *testing.T, url string, body interface{}, out interface{}) int {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func bullPutCandidate() options.Candidate {
	exp := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	return options.Candidate{
		Strategy: options.KindVerticalSpread,
		Variant:  options.VariantBullPut,
		Symbol:   "SPY",
		Legs: []options.CandidateLeg{
			{Side: options.Sell, Type: options.Put, Strike: 95, Quantity: 1, Expiration: exp},
			{Side: options.Buy, Type: options.Put, Strike: 90, Quantity: 1, Expiration: exp},
		},
		Expiration: exp,
		NetPrice:   0.40,
		Breakevens: []float64{94.60},
	}
}

func TestPayoff(t *testing.T) {
	ts := newTestServer(t, Config{}, liveProvider())

	var got payoffResponse
	status := postJSON(t, ts.URL+"/api/payoff", payoffRequest{
		Candidate: bullPutCandidate(),
		Low:       85,
		High:      100,
		Steps:     3,
	}, &got)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, got.Points, 4)

	// Below both strikes the spread loses width minus credit; above the
	// short strike the full credit is kept.
	assert.InDelta(t, 85.0, got.Points[0].Price, 1e-9)
	assert.InDelta(t, -460.0, got.Points[0].ProfitLoss, 1e-9)
	assert.InDelta(t, 100.0, got.Points[3].Price, 1e-9)
	assert.InDelta(t, 40.0, got.Points[3].ProfitLoss, 1e-9)
	assert.Equal(t, []float64{94.60}, got.Breakevens)
}

func TestPayoff_DefaultsRangeFromStrikes(t *testing.T) {
	ts := newTestServer(t, Config{}, liveProvider())

	var got payoffResponse
	status := postJSON(t, ts.URL+"/api/payoff", payoffRequest{Candidate: bullPutCandidate()}, &got)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, got.Points)
	assert.InDelta(t, 72.0, got.Points[0].Price, 1e-9)
	assert.InDelta(t, 114.0, got.Points[len(got.Points)-1].Price, 1e-9)
}

func TestPayoff_BadRequests(t *testing.T) {
	ts := newTestServer(t, Config{}, liveProvider())

	resp, err := http.Post(ts.URL+"/api/payoff", "application/json", bytes.NewReader([]byte("not json")))
	require.NoError(t, err)
	var got errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", got.Kind)

	status := postJSON(t, ts.URL+"/api/payoff", payoffRequest{}, &got)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, got.Message, "no legs")
}

func TestScanDefaultsApplied(t *testing.T) {
	ts := newTestServer(t, Config{
		Defaults: scanner.Request{Symbol: "QQQ", Kind: options.KindSingleLeg},
	}, liveProvider())

	var got scanBody
	status := getJSON(t, ts.URL+"/api/scan", &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "QQQ", got.Symbol)
}
