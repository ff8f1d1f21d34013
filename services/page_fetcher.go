package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"mutualfund-backend/shared"
)

// PageFetcher issues single outbound requests with a fixed timeout and
// browser-like headers. It classifies failures but never retries; retry
// policy belongs to callers that know what an operation is worth.
type PageFetcher struct {
	httpClient *http.Client
	metrics    *shared.ServiceMetrics
	logger     *logrus.Entry
}

// NewPageFetcher creates a fetcher whose requests time out after the given
// duration.
func NewPageFetcher(timeout time.Duration) *PageFetcher {
	return &PageFetcher{
		httpClient: shared.NewPooledHTTPClient(timeout),
		metrics:    shared.NewServiceMetrics("PageFetcher"),
		logger:     logrus.WithField("component", "PageFetcher"),
	}
}

// Fetch retrieves url and parses it as an HTML document. A network error,
// timeout or non-2xx status is logged and returned as a ServiceError; it
// never panics or aborts past this boundary.
func (f *PageFetcher) Fetch(url string) (*goquery.Document, error) {
	started := time.Now()

	request, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "REQUEST_BUILD_FAILED", "PageFetcher", "Fetch", false)
	}
	shared.SetBrowserLikeHeaders(request, shared.AcceptHeaderHTML)

	response, err := f.httpClient.Do(request)
	if err != nil {
		f.metrics.RecordRequest(false, time.Since(started))
		serviceErr := shared.WrapError(err, shared.ErrorCategoryNetwork, "PAGE_FETCH_FAILED", "PageFetcher", "Fetch", true).WithDetails(url)
		serviceErr.LogError()
		return nil, serviceErr
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		f.metrics.RecordRequest(false, time.Since(started))
		serviceErr := shared.NewServiceError(
			shared.ErrorCategoryNetwork,
			"PAGE_FETCH_BAD_STATUS",
			fmt.Sprintf("unexpected HTTP %d fetching page", response.StatusCode),
			"PageFetcher", "Fetch",
			response.StatusCode >= 500,
			nil,
		).WithDetails(url)
		serviceErr.LogError()
		return nil, serviceErr
	}

	document, err := goquery.NewDocumentFromReader(response.Body)
	if err != nil {
		f.metrics.RecordRequest(false, time.Since(started))
		serviceErr := shared.WrapError(err, shared.ErrorCategoryParsing, "PAGE_PARSE_FAILED", "PageFetcher", "Fetch", false).WithDetails(url)
		serviceErr.LogError()
		return nil, serviceErr
	}

	f.metrics.RecordRequest(true, time.Since(started))
	f.logger.WithField("url", url).Debug("Successfully fetched page")
	return document, nil
}

// FetchJSON retrieves url and decodes the JSON body into target. Same
// single-attempt, classify-and-return contract as Fetch.
func (f *PageFetcher) FetchJSON(url string, target interface{}) error {
	started := time.Now()

	request, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return shared.WrapError(err, shared.ErrorCategoryNetwork, "REQUEST_BUILD_FAILED", "PageFetcher", "FetchJSON", false)
	}
	shared.SetBrowserLikeHeaders(request, shared.AcceptHeaderJSON)

	response, err := f.httpClient.Do(request)
	if err != nil {
		f.metrics.RecordRequest(false, time.Since(started))
		return shared.WrapError(err, shared.ErrorCategoryNetwork, "API_FETCH_FAILED", "PageFetcher", "FetchJSON", true).WithDetails(url)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		f.metrics.RecordRequest(false, time.Since(started))
		return shared.NewServiceError(
			shared.ErrorCategoryNetwork,
			"API_FETCH_BAD_STATUS",
			fmt.Sprintf("unexpected HTTP %d fetching API", response.StatusCode),
			"PageFetcher", "FetchJSON",
			response.StatusCode >= 500,
			nil,
		).WithDetails(url)
	}

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		f.metrics.RecordRequest(false, time.Since(started))
		return shared.WrapError(err, shared.ErrorCategoryParsing, "API_DECODE_FAILED", "PageFetcher", "FetchJSON", false).WithDetails(url)
	}

	f.metrics.RecordRequest(true, time.Since(started))
	return nil
}

// FetchBody retrieves url and returns the raw response body, retrying with
// exponential backoff up to maxRetryAttempts extra attempts. Used for the
// bulk text feed, which is not HTML and is the last source for a fund's
// NAV series.
func (f *PageFetcher) FetchBody(url string, maxRetryAttempts int) ([]byte, error) {
	request, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "REQUEST_BUILD_FAILED", "PageFetcher", "FetchBody", false)
	}
	shared.SetBrowserLikeHeaders(request, shared.AcceptHeaderHTML)

	response, err := shared.ExecuteRequestWithRetry(f.httpClient, request, maxRetryAttempts, f.logger)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "FEED_FETCH_FAILED", "PageFetcher", "FetchBody", true).WithDetails(url)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "FEED_READ_FAILED", "PageFetcher", "FetchBody", true).WithDetails(url)
	}
	return body, nil
}

// Metrics exposes the fetcher's request counters.
func (f *PageFetcher) Metrics() *shared.ServiceMetrics {
	return f.metrics
}
