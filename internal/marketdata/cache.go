package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultCacheTTL bounds how stale served market data may be.
const DefaultCacheTTL = 5 * time.Minute

// CachedProvider memoizes provider results for a fixed TTL. Chains and
// quotes move slowly enough intraday that repeated scans within the TTL
// can share one fetch. Returned slices are shared; callers must not
// mutate them.
type CachedProvider struct {
	inner Provider
	data  *cache.Cache
}

// NewCachedProvider wraps inner with a TTL cache. A non-positive ttl
// falls back to DefaultCacheTTL.
func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{
		inner: inner,
		data:  cache.New(ttl, 2*ttl),
	}
}

// Ensure CachedProvider implements Provider at compile time.
var _ Provider = (*CachedProvider)(nil)

// Flush drops all cached entries.
func (c *CachedProvider) Flush() {
	c.data.Flush()
}

// GetUnderlyingPrice returns the cached spot price or fetches it.
func (c *CachedProvider) GetUnderlyingPrice(symbol string) (float64, error) {
	return c.GetUnderlyingPriceCtx(context.Background(), symbol)
}

// GetUnderlyingPriceCtx returns the cached spot price or fetches it.
func (c *CachedProvider) GetUnderlyingPriceCtx(ctx context.Context, symbol string) (float64, error) {
	key := "spot:" + symbol
	if v, found := c.data.Get(key); found {
		return v.(float64), nil
	}
	price, err := c.inner.GetUnderlyingPriceCtx(ctx, symbol)
	if err != nil {
		return 0, err
	}
	c.data.SetDefault(key, price)
	return price, nil
}

// GetExpirations returns cached expirations or fetches them.
func (c *CachedProvider) GetExpirations(symbol string) ([]string, error) {
	return c.GetExpirationsCtx(context.Background(), symbol)
}

// GetExpirationsCtx returns cached expirations or fetches them.
func (c *CachedProvider) GetExpirationsCtx(ctx context.Context, symbol string) ([]string, error) {
	key := "exp:" + symbol
	if v, found := c.data.Get(key); found {
		return v.([]string), nil
	}
	dates, err := c.inner.GetExpirationsCtx(ctx, symbol)
	if err != nil {
		return nil, err
	}
	c.data.SetDefault(key, dates)
	return dates, nil
}

// GetOptionChain returns a cached chain or fetches it.
func (c *CachedProvider) GetOptionChain(symbol, expiration string) ([]OptionQuote, error) {
	return c.GetOptionChainCtx(context.Background(), symbol, expiration)
}

// GetOptionChainCtx returns a cached chain or fetches it.
func (c *CachedProvider) GetOptionChainCtx(ctx context.Context, symbol, expiration string) ([]OptionQuote, error) {
	key := fmt.Sprintf("chain:%s:%s", symbol, expiration)
	if v, found := c.data.Get(key); found {
		return v.([]OptionQuote), nil
	}
	chain, err := c.inner.GetOptionChainCtx(ctx, symbol, expiration)
	if err != nil {
		return nil, err
	}
	c.data.SetDefault(key, chain)
	return chain, nil
}

// GetNextEarnings returns the cached earnings date or fetches it. A nil
// date (no upcoming earnings) is cached too.
func (c *CachedProvider) GetNextEarnings(symbol string) (*time.Time, error) {
	return c.GetNextEarningsCtx(context.Background(), symbol)
}

// GetNextEarningsCtx returns the cached earnings date or fetches it.
func (c *CachedProvider) GetNextEarningsCtx(ctx context.Context, symbol string) (*time.Time, error) {
	key := "earn:" + symbol
	if v, found := c.data.Get(key); found {
		return v.(*time.Time), nil
	}
	when, err := c.inner.GetNextEarningsCtx(ctx, symbol)
	if err != nil {
		return nil, err
	}
	c.data.SetDefault(key, when)
	return when, nil
}
