package scanner

import (
	"errors"
	"fmt"
)

// Sentinel errors for scan outcomes. They are always returned wrapped with
// scan context; callers test with errors.Is.
var (
	// ErrDataUnavailable means the provider could not supply the data the
	// scan needs at all (spot, expirations, or every single chain).
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrNoExpirationsInRange means the symbol has listed expirations but
	// none inside the requested day window.
	ErrNoExpirationsInRange = errors.New("no expirations in range")

	// ErrNoCandidatesFound means the scan ran to completion and the builder
	// produced nothing. The Result is still returned alongside this error.
	ErrNoCandidatesFound = errors.New("no candidates found")
)

// ExpirationFailure records one expiration the scan skipped. These are
// non-fatal: the scan continues over the remaining expirations and reports
// the failures on the Result.
type ExpirationFailure struct {
	Expiration string `json:"expiration"`
	Reason     string `json:"reason"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (f ExpirationFailure) Error() string {
	return fmt.Sprintf("expiration %s: %s", f.Expiration, f.Reason)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (f ExpirationFailure) Unwrap() error {
	return f.Err
}
