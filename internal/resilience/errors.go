// Package resilience classifies ranking-provider errors and provides retry
// and circuit-breaker patterns for the provider client. The scan orchestrator
// itself never retries; one network attempt per grid point is made through
// a client built on this package.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// Category buckets a provider failure for retry decisions and reporting.
type Category int

const (
	// CategoryPermanent means retrying cannot help (bad request, auth).
	CategoryPermanent Category = iota
	// CategoryTransient means a retry is likely to succeed (5xx, network).
	CategoryTransient
	// CategoryQuota means the provider refused on rate or credit limits.
	CategoryQuota
)

func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryQuota:
		return "quota"
	default:
		return "permanent"
	}
}

// ProviderError carries a classified provider failure.
type ProviderError struct {
	Err        error
	Category   Category
	StatusCode int
}

func (e *ProviderError) Error() string { return e.Err.Error() }

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err with an explicit category and optional HTTP
// status code.
func NewProviderError(err error, cat Category, statusCode int) *ProviderError {
	return &ProviderError{Err: err, Category: cat, StatusCode: statusCode}
}

// CategoryForStatus maps an HTTP status code onto an error category.
func CategoryForStatus(statusCode int) Category {
	switch {
	case statusCode == 402 || statusCode == 429:
		return CategoryQuota
	case statusCode == 408 || statusCode >= 500:
		return CategoryTransient
	default:
		return CategoryPermanent
	}
}

// Classify returns the category of err. Explicitly wrapped ProviderErrors
// keep their category; network-level failures are transient; everything else
// is permanent.
func Classify(err error) Category {
	if err == nil {
		return CategoryPermanent
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTransient
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return CategoryTransient
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return CategoryTransient
		}
	}

	return CategoryPermanent
}

// IsRetryable reports whether err is worth retrying. Quota errors are
// retryable: after backoff the provider's window usually resets.
func IsRetryable(err error) bool {
	switch Classify(err) {
	case CategoryTransient, CategoryQuota:
		return true
	default:
		return false
	}
}
