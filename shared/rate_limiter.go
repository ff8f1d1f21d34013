package shared

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPRequestRateLimiter enforces a minimum delay between outbound requests.
// The pipeline is sequential on purpose; this limiter is what keeps the
// page-level, per-fund and API pacing honest in one place.
type HTTPRequestRateLimiter struct {
	minimumDelay    time.Duration
	lastRequestTime time.Time
	mutex           sync.Mutex
	requestCount    int64
}

// NewHTTPRequestRateLimiter creates a rate limiter with the given minimum
// spacing. The first call through the limiter is not delayed.
func NewHTTPRequestRateLimiter(minimumDelay time.Duration) *HTTPRequestRateLimiter {
	return &HTTPRequestRateLimiter{
		minimumDelay: minimumDelay,
	}
}

// EnforceRateLimit blocks until the minimum delay has elapsed since the
// previous request, then records the new request time.
func (limiter *HTTPRequestRateLimiter) EnforceRateLimit() {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	if !limiter.lastRequestTime.IsZero() {
		elapsed := time.Since(limiter.lastRequestTime)
		if elapsed < limiter.minimumDelay {
			remaining := limiter.minimumDelay - elapsed

			logrus.WithFields(logrus.Fields{
				"component":       "HTTPRequestRateLimiter",
				"remaining_delay": remaining,
				"request_count":   limiter.requestCount + 1,
			}).Debug("Enforcing rate limit delay")

			time.Sleep(remaining)
		}
	}

	limiter.lastRequestTime = time.Now()
	limiter.requestCount++
}

// RequestCount returns the total number of requests paced by this limiter.
func (limiter *HTTPRequestRateLimiter) RequestCount() int64 {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()
	return limiter.requestCount
}

// MinimumDelay returns the configured spacing.
func (limiter *HTTPRequestRateLimiter) MinimumDelay() time.Duration {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()
	return limiter.minimumDelay
}
