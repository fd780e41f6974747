package marketdata

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker"
)

// Provider is the market data surface the scan engine depends on: spot
// price, listed expirations, per-expiration chains, and the next earnings
// date. Every operation has a context variant for cancellation.
type Provider interface {
	GetUnderlyingPrice(symbol string) (float64, error)
	GetUnderlyingPriceCtx(ctx context.Context, symbol string) (float64, error)

	GetExpirations(symbol string) ([]string, error)
	GetExpirationsCtx(ctx context.Context, symbol string) ([]string, error)

	GetOptionChain(symbol, expiration string) ([]OptionQuote, error)
	GetOptionChainCtx(ctx context.Context, symbol, expiration string) ([]OptionQuote, error)

	// GetNextEarnings returns nil with no error when no upcoming earnings
	// event is known.
	GetNextEarnings(symbol string) (*time.Time, error)
	GetNextEarningsCtx(ctx context.Context, symbol string) (*time.Time, error)
}

// CircuitBreakerProvider wraps a Provider so repeated upstream failures
// trip an open circuit instead of hammering the API.
type CircuitBreakerProvider struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
}

func execCircuitBreaker[T any](
	breaker *gobreaker.CircuitBreaker,
	provider Provider,
	fn func(Provider) (T, error),
) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn(provider) })
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}
	return v, nil
}

// CircuitBreakerSettings configures circuit breaker behavior.
type CircuitBreakerSettings struct {
	MaxRequests  uint32        // Max requests when half-open
	Interval     time.Duration // Reset counts interval
	Timeout      time.Duration // Open circuit duration
	MinRequests  uint32        // Min requests before tripping
	FailureRatio float64       // Failure ratio threshold
}

// NewCircuitBreakerProvider wraps a provider with sensible defaults.
func NewCircuitBreakerProvider(provider Provider) *CircuitBreakerProvider {
	return NewCircuitBreakerProviderWithSettings(provider, CircuitBreakerSettings{
		MaxRequests:  3,                // Allow 3 requests when half-open
		Interval:     60 * time.Second, // Reset counts every minute
		Timeout:      30 * time.Second, // Open circuit for 30 seconds
		MinRequests:  5,                // Minimum requests before tripping
		FailureRatio: 0.6,              // Trip if 60% failure rate
	})
}

// NewCircuitBreakerProviderWithSettings wraps a provider with custom settings.
func NewCircuitBreakerProviderWithSettings(provider Provider, settings CircuitBreakerSettings) *CircuitBreakerProvider {
	gbSettings := gobreaker.Settings{
		Name:        "MarketDataCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s state changed from %s to %s", name, from, to)
		},
	}

	return &CircuitBreakerProvider{
		provider: provider,
		breaker:  gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// Ensure CircuitBreakerProvider implements Provider at compile time.
var _ Provider = (*CircuitBreakerProvider)(nil)

// GetUnderlyingPrice wraps the underlying call with the circuit breaker.
func (c *CircuitBreakerProvider) GetUnderlyingPrice(symbol string) (float64, error) {
	return execCircuitBreaker(c.breaker, c.provider, func(p Provider) (float64, error) {
		return p.GetUnderlyingPrice(symbol)
	})
}

// GetUnderlyingPriceCtx wraps the underlying call with the circuit breaker.
func (c *CircuitBreakerProvider) GetUnderlyingPriceCtx(ctx context.Context, symbol string) (float64, error) {
	return execCircuitBreaker(c.breaker, c.provider, func(p Provider) (float64, error) {
		return p.GetUnderlyingPriceCtx(ctx, symbol)
	})
}

// GetExpirations wraps the underlying call with the circuit breaker.
func (c *CircuitBreakerProvider) GetExpirations(symbol string) ([]string, error) {
	return execCircuitBreaker(c.breaker, c.provider, func(p Provider) ([]string, error) {
		return p.GetExpirations(symbol)
	})
}

// GetExpirationsCtx wraps the underlying call with the circuit breaker.
func (c *CircuitBreakerProvider) GetExpirationsCtx(ctx context.Context, symbol string) ([]string, error) {
	return execCircuitBreaker(c.breaker, c.provider, func(p Provider) ([]string, error) {
		return p.GetExpirationsCtx(ctx, symbol)
	})
}

// GetOptionChain wraps the underlying call with the circuit breaker.
func (c *CircuitBreakerProvider) GetOptionChain(symbol, expiration string) ([]OptionQuote, error) {
	return execCircuitBreaker(c.breaker, c.provider, func(p Provider) ([]OptionQuote, error) {
		return p.GetOptionChain(symbol, expiration)
	})
}

// GetOptionChainCtx wraps the underlying call with the circuit breaker.
func (c *CircuitBreakerProvider) GetOptionChainCtx(ctx context.Context, symbol, expiration string) ([]OptionQuote, error) {
	return execCircuitBreaker(c.breaker, c.provider, func(p Provider) ([]OptionQuote, error) {
		return p.GetOptionChainCtx(ctx, symbol, expiration)
	})
}

// GetNextEarnings wraps the underlying call with the circuit breaker.
func (c *CircuitBreakerProvider) GetNextEarnings(symbol string) (*time.Time, error) {
	return execCircuitBreaker(c.breaker, c.provider, func(p Provider) (*time.Time, error) {
		return p.GetNextEarnings(symbol)
	})
}

// GetNextEarningsCtx wraps the underlying call with the circuit breaker.
func (c *CircuitBreakerProvider) GetNextEarningsCtx(ctx context.Context, symbol string) (*time.Time, error) {
	return execCircuitBreaker(c.breaker, c.provider, func(p Provider) (*time.Time, error) {
		return p.GetNextEarningsCtx(ctx, symbol)
	})
}
