package shared

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// AcceptHeaderHTML and AcceptHeaderJSON are the Accept values used for page
// scrapes and API calls respectively.
const (
	AcceptHeaderHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	AcceptHeaderJSON = "application/json, text/plain, */*"
)

// BrowserUserAgent mimics a desktop Chrome signature. The listing site
// rejects requests that carry the default Go client signature.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// NewPooledHTTPClient creates an HTTP client with connection pooling tuned
// for a single-host scraping workload.
func NewPooledHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,

			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	logrus.WithFields(logrus.Fields{
		"component": "HTTPClient",
		"timeout":   timeout,
	}).Debug("Created pooled HTTP client")

	return client
}

// SetBrowserLikeHeaders configures request headers to mimic browser behavior.
func SetBrowserLikeHeaders(request *http.Request, acceptHeader string) {
	request.Header.Set("User-Agent", BrowserUserAgent)
	request.Header.Set("Accept", acceptHeader)
	request.Header.Set("Accept-Language", "en-US,en;q=0.9")
	request.Header.Set("Cache-Control", "no-cache")
	request.Header.Set("Connection", "keep-alive")
}

// ExecuteRequestWithRetry executes a request with exponential backoff on
// network errors and non-200 responses. Used only where an operation is
// cheap enough to retry; page-level fetches go through a single attempt.
func ExecuteRequestWithRetry(client *http.Client, request *http.Request, maxRetryAttempts int, logger *logrus.Entry) (*http.Response, error) {
	var response *http.Response
	var lastErr error

	for attempt := 0; attempt <= maxRetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			logger.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"backoff": backoff,
				"url":     request.URL.String(),
			}).Debug("Retrying HTTP request after backoff")
			time.Sleep(backoff)
		}

		response, lastErr = client.Do(request)
		if lastErr == nil && response.StatusCode == http.StatusOK {
			return response, nil
		}

		if lastErr != nil {
			lastErr = fmt.Errorf("attempt %d failed with network error: %w", attempt+1, lastErr)
		} else {
			lastErr = fmt.Errorf("attempt %d failed with HTTP %d: %s", attempt+1, response.StatusCode, http.StatusText(response.StatusCode))
			response.Body.Close()
		}
		logger.WithError(lastErr).Debug("HTTP request attempt failed")
	}

	totalAttempts := maxRetryAttempts + 1
	logger.WithFields(logrus.Fields{
		"total_attempts": totalAttempts,
		"url":            request.URL.String(),
	}).Error("HTTP request failed after all retry attempts")

	return nil, fmt.Errorf("HTTP request failed after %d attempts: %w", totalAttempts, lastErr)
}
