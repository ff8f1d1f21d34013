package shared

import (
	"testing"
	"time"
)

func TestEnforceRateLimitDoesNotDelayFirstRequest(t *testing.T) {
	limiter := NewHTTPRequestRateLimiter(500 * time.Millisecond)

	started := time.Now()
	limiter.EnforceRateLimit()
	if elapsed := time.Since(started); elapsed > 100*time.Millisecond {
		t.Errorf("first request delayed by %v, want no delay", elapsed)
	}
	if limiter.RequestCount() != 1 {
		t.Errorf("request count = %d, want 1", limiter.RequestCount())
	}
}

func TestEnforceRateLimitSpacesConsecutiveRequests(t *testing.T) {
	delay := 50 * time.Millisecond
	limiter := NewHTTPRequestRateLimiter(delay)

	limiter.EnforceRateLimit()
	started := time.Now()
	limiter.EnforceRateLimit()

	if elapsed := time.Since(started); elapsed < delay {
		t.Errorf("second request spaced by %v, want at least %v", elapsed, delay)
	}
	if limiter.RequestCount() != 2 {
		t.Errorf("request count = %d, want 2", limiter.RequestCount())
	}
}
