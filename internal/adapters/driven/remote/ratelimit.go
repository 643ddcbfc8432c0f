package remote

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

const (
	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"

	// DefaultRetryAfter is used when a 429 carries no usable Retry-After.
	DefaultRetryAfter = 30 * time.Second
)

// RateLimitError is returned when the server has asked us to back off.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", domain.ErrRateLimited, e.ResetAt.Format(time.RFC3339))
}

// Unwrap makes errors.Is(err, domain.ErrRateLimited) hold.
func (e *RateLimitError) Unwrap() error {
	return domain.ErrRateLimited
}

// RateLimiter throttles requests proactively with a token bucket and
// reactively from Retry-After.
type RateLimiter struct {
	mu           sync.Mutex
	bucket       *rate.Limiter
	blockedUntil time.Time
	now          func() time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests.
// A non-positive rate disables proactive throttling.
func NewRateLimiter(perSecond float64) *RateLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &RateLimiter{
		bucket: rate.NewLimiter(limit, 1),
		now:    time.Now,
	}
}

// Wait blocks until the bucket allows a request. While a Retry-After from
// the server is still in force it fails fast with a RateLimitError so a sync
// cycle never sleeps through it.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	blockedUntil := r.blockedUntil
	now := r.now()
	r.mu.Unlock()

	if now.Before(blockedUntil) {
		return &RateLimitError{ResetAt: blockedUntil}
	}

	return r.bucket.Wait(ctx)
}

// CheckResponse records a 429 and returns the matching RateLimitError.
// Returns nil for any other response.
func (r *RateLimiter) CheckResponse(resp *http.Response) error {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	resetAt := now.Add(parseRetryAfter(resp.Header.Get(HeaderRetryAfter), now))
	if resetAt.After(r.blockedUntil) {
		r.blockedUntil = resetAt
	}
	return &RateLimitError{ResetAt: r.blockedUntil}
}

// BlockedUntil returns when the current server back-off ends.
func (r *RateLimiter) BlockedUntil() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockedUntil
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return DefaultRetryAfter
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return DefaultRetryAfter
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return DefaultRetryAfter
}
