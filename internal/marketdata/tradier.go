// Package marketdata provides access to live option market data. The
// production implementation talks to the Tradier REST API; a deterministic
// mock lives in internal/mock for offline runs. Decorators layer caching
// and circuit breaking over any Provider.
package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is returned for non-success HTTP responses from the API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// TradierClient implements Provider against the Tradier market data API.
type TradierClient struct {
	client  *http.Client
	apiKey  string
	baseURL string
	sandbox bool
	timeout time.Duration
}

// NewTradierClient creates a Tradier-backed provider. When sandbox is true
// requests go to the paper trading environment.
func NewTradierClient(apiKey string, sandbox bool) *TradierClient {
	baseURL := "https://api.tradier.com/v1"
	if sandbox {
		baseURL = "https://sandbox.tradier.com/v1"
	}
	return NewTradierClientWithBaseURL(apiKey, baseURL, sandbox)
}

// NewTradierClientWithBaseURL creates a provider against a custom base URL.
// Used by tests to point at a local server.
func NewTradierClientWithBaseURL(apiKey, baseURL string, sandbox bool) *TradierClient {
	timeout := 10 * time.Second
	return &TradierClient{
		client:  &http.Client{Timeout: timeout},
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		sandbox: sandbox,
		timeout: timeout,
	}
}

// WithHTTPClient overrides the HTTP client (e.g. for custom transports).
func (t *TradierClient) WithHTTPClient(c *http.Client) *TradierClient {
	if c != nil {
		t.client = c
	}
	return t
}

// WithTimeout overrides the per-request timeout.
func (t *TradierClient) WithTimeout(d time.Duration) *TradierClient {
	if d > 0 {
		t.timeout = d
		t.client.Timeout = d
	}
	return t
}

// Ensure TradierClient implements Provider at compile time.
var _ Provider = (*TradierClient)(nil)

// singleOrArray handles Tradier's habit of returning a bare object when a
// collection has exactly one element.
type singleOrArray[T any] []T

func (s *singleOrArray[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = nil
		return nil
	}
	if data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*s = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*s = append((*s)[:0], one)
	return nil
}

// Greeks as returned by Tradier's ORATS feed.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	BidIV float64 `json:"bid_iv"`
	MidIV float64 `json:"mid_iv"`
	AskIV float64 `json:"ask_iv"`
}

// OptionQuote is a single row of an option chain as served by the API.
type OptionQuote struct {
	Symbol         string  `json:"symbol"`
	OptionType     string  `json:"option_type"`
	ExpirationDate string  `json:"expiration_date"`
	Strike         float64 `json:"strike"`
	Bid            float64 `json:"bid"`
	Ask            float64 `json:"ask"`
	Last           float64 `json:"last"`
	Volume         int64   `json:"volume"`
	OpenInterest   int64   `json:"open_interest"`
	Greeks         *Greeks `json:"greeks,omitempty"`
}

// IV reports the best available implied volatility for the quote: the mid
// IV when present, otherwise the average of bid and ask IV. Zero when the
// feed carried no greeks.
func (q *OptionQuote) IV() float64 {
	if q.Greeks == nil {
		return 0
	}
	if q.Greeks.MidIV > 0 {
		return q.Greeks.MidIV
	}
	if q.Greeks.BidIV > 0 && q.Greeks.AskIV > 0 {
		return (q.Greeks.BidIV + q.Greeks.AskIV) / 2
	}
	return 0
}

type quoteItem struct {
	Symbol    string  `json:"symbol"`
	Last      float64 `json:"last"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	PrevClose float64 `json:"prevclose"`
}

type quotesResponse struct {
	Quotes struct {
		Quote singleOrArray[quoteItem] `json:"quote"`
	} `json:"quotes"`
}

type expirationsResponse struct {
	Expirations struct {
		Date []string `json:"date"`
	} `json:"expirations"`
}

type chainResponse struct {
	Options struct {
		Option singleOrArray[OptionQuote] `json:"option"`
	} `json:"options"`
}

// Fundamentals calendar payload. The beta endpoint wraps results in a
// top-level array keyed by request.
type calendarEvent struct {
	BeginDateTime string `json:"begin_date_time"`
	EndDateTime   string `json:"end_date_time"`
	Event         string `json:"event"`
	EventType     int    `json:"event_type"`
}

type calendarEnvelope struct {
	Request string `json:"request"`
	Type    string `json:"type"`
	Results []struct {
		Type   string `json:"type"`
		ID     string `json:"id"`
		Tables struct {
			CorporateCalendars []calendarEvent `json:"corporate_calendars"`
		} `json:"tables"`
	} `json:"results"`
}

// GetUnderlyingPrice returns the latest trade price for symbol, falling
// back to the previous close when the session has no prints yet.
func (t *TradierClient) GetUnderlyingPrice(symbol string) (float64, error) {
	return t.GetUnderlyingPriceCtx(context.Background(), symbol)
}

// GetUnderlyingPriceCtx is GetUnderlyingPrice with context support.
func (t *TradierClient) GetUnderlyingPriceCtx(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbols", symbol)
	params.Set("greeks", "false")

	var resp quotesResponse
	if err := t.makeRequestCtx(ctx, http.MethodGet, "/markets/quotes", params, &resp); err != nil {
		return 0, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if len(resp.Quotes.Quote) == 0 {
		return 0, fmt.Errorf("quote %s: no data returned", symbol)
	}

	q := resp.Quotes.Quote[0]
	price := q.Last
	if price <= 0 {
		price = q.PrevClose
	}
	if price <= 0 {
		return 0, fmt.Errorf("quote %s: no usable price (last=%.2f prevclose=%.2f)", symbol, q.Last, q.PrevClose)
	}
	return price, nil
}

// GetExpirations returns all listed expiration dates for symbol in
// YYYY-MM-DD form, as ordered by the API.
func (t *TradierClient) GetExpirations(symbol string) ([]string, error) {
	return t.GetExpirationsCtx(context.Background(), symbol)
}

// GetExpirationsCtx is GetExpirations with context support.
func (t *TradierClient) GetExpirationsCtx(ctx context.Context, symbol string) ([]string, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("includeAllRoots", "true")
	params.Set("strikes", "false")

	var resp expirationsResponse
	if err := t.makeRequestCtx(ctx, http.MethodGet, "/markets/options/expirations", params, &resp); err != nil {
		return nil, fmt.Errorf("expirations %s: %w", symbol, err)
	}
	return resp.Expirations.Date, nil
}

// GetOptionChain returns the full chain for one expiration, greeks included.
func (t *TradierClient) GetOptionChain(symbol, expiration string) ([]OptionQuote, error) {
	return t.GetOptionChainCtx(context.Background(), symbol, expiration)
}

// GetOptionChainCtx is GetOptionChain with context support.
func (t *TradierClient) GetOptionChainCtx(ctx context.Context, symbol, expiration string) ([]OptionQuote, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("expiration", expiration)
	params.Set("greeks", "true")

	var resp chainResponse
	if err := t.makeRequestCtx(ctx, http.MethodGet, "/markets/options/chains", params, &resp); err != nil {
		return nil, fmt.Errorf("chain %s %s: %w", symbol, expiration, err)
	}
	return resp.Options.Option, nil
}

// GetNextEarnings returns the next known earnings date at or after today,
// or nil when the calendar has none.
func (t *TradierClient) GetNextEarnings(symbol string) (*time.Time, error) {
	return t.GetNextEarningsCtx(context.Background(), symbol)
}

// GetNextEarningsCtx is GetNextEarnings with context support.
func (t *TradierClient) GetNextEarningsCtx(ctx context.Context, symbol string) (*time.Time, error) {
	params := url.Values{}
	params.Set("symbols", symbol)

	var envelopes []calendarEnvelope
	if err := t.makeBetaRequestCtx(ctx, "/markets/fundamentals/calendars", params, &envelopes); err != nil {
		return nil, fmt.Errorf("earnings %s: %w", symbol, err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	var next *time.Time
	for _, env := range envelopes {
		for _, res := range env.Results {
			for _, ev := range res.Tables.CorporateCalendars {
				if !strings.Contains(strings.ToLower(ev.Event), "earnings") {
					continue
				}
				when, err := parseCalendarDate(ev.BeginDateTime)
				if err != nil {
					continue
				}
				if when.Before(today) {
					continue
				}
				if next == nil || when.Before(*next) {
					w := when
					next = &w
				}
			}
		}
	}
	return next, nil
}

// parseCalendarDate accepts the calendar feed's date strings, which arrive
// either as bare dates or with a trailing time component.
func parseCalendarDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}
	return time.Parse("2006-01-02", s)
}

// makeRequestCtx performs an authenticated request against the v1 API.
func (t *TradierClient) makeRequestCtx(ctx context.Context, method, endpoint string, params url.Values, result interface{}) error {
	return t.doRequest(ctx, method, t.baseURL+endpoint, params, result)
}

// makeBetaRequestCtx targets the beta API root, which shares the host with
// v1 but not the version prefix.
func (t *TradierClient) makeBetaRequestCtx(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	base := strings.TrimSuffix(t.baseURL, "/v1") + "/beta"
	return t.doRequest(ctx, http.MethodGet, base+endpoint, params, result)
}

func (t *TradierClient) doRequest(ctx context.Context, method, fullURL string, params url.Values, result interface{}) error {
	var req *http.Request
	var err error

	if method == http.MethodGet && params != nil {
		fullURL = fullURL + "?" + params.Encode()
		req, err = http.NewRequestWithContext(ctx, method, fullURL, nil)
	} else if params != nil {
		req, err = http.NewRequestWithContext(ctx, method, fullURL, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, fullURL, nil)
	}
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "income-radar/1.0 (+tradier)")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Printf("close response body: %v", cerr)
		}
	}()

	if t.sandbox {
		if avail := rateLimitAvailable(resp.Header); avail != "" {
			log.Printf("Tradier rate limit available: %s", avail)
		}
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	case http.StatusNoContent:
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := strings.TrimSpace(string(body))
		if retry := resp.Header.Get("Retry-After"); retry != "" {
			msg = fmt.Sprintf("%s (retry after %ss)", msg, retry)
		}
		return &APIError{Status: resp.StatusCode, Body: msg}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// rateLimitAvailable sniffs the remaining-request header, whose exact
// casing has drifted across API versions.
func rateLimitAvailable(h http.Header) string {
	for _, key := range []string{"X-Ratelimit-Available", "X-RateLimit-Available", "X-RateLimit-Remaining"} {
		if v := h.Get(key); v != "" {
			return v
		}
	}
	return ""
}
