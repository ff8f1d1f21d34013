package shared

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceConfig holds the HTTP behavior of one outbound service: where it
// points, how long a request may take, how requests are spaced and how many
// retries a transient failure earns.
type ServiceConfig struct {
	BaseURL            string        `json:"base_url"`
	HTTPRequestTimeout time.Duration `json:"http_timeout"`
	RequestRateLimit   time.Duration `json:"rate_limit"`
	MaxRetryAttempts   int           `json:"max_retries"`
	EnableMetrics      bool          `json:"enable_metrics"`
}

// NewListingScraperConfig returns the configuration for the paginated fund
// listing crawl. The rate limit here is the inter-page politeness delay.
func NewListingScraperConfig() ServiceConfig {
	return ServiceConfig{
		BaseURL:            "https://groww.in/mutual-funds/filter?q=&fundSize=&pageNo=%d&sortBy=0",
		HTTPRequestTimeout: 10 * time.Second,
		RequestRateLimit:   3 * time.Second,
		MaxRetryAttempts:   0, // listing pages are never retried; an empty page ends discovery
		EnableMetrics:      true,
	}
}

// NewDetailScraperConfig returns the configuration for per-fund detail page
// scrapes. The rate limit is the per-fund pacing delay.
func NewDetailScraperConfig() ServiceConfig {
	return ServiceConfig{
		BaseURL:            "https://groww.in",
		HTTPRequestTimeout: 10 * time.Second,
		RequestRateLimit:   3 * time.Second,
		MaxRetryAttempts:   0,
		EnableMetrics:      true,
	}
}

// NewNavAPIConfig returns the configuration for the scheme time-series API.
func NewNavAPIConfig() ServiceConfig {
	return ServiceConfig{
		BaseURL:            "https://groww.in/v1/api/data/mf/web/v1/scheme/%s/graph?benchmark=false&months=%d",
		HTTPRequestTimeout: 10 * time.Second,
		RequestRateLimit:   0, // paced by the per-fund delay of the caller
		MaxRetryAttempts:   0, // failure falls back to the bulk feed instead of retrying
		EnableMetrics:      true,
	}
}

// NewPortfolioStatsConfig returns the configuration for the portfolio stats
// endpoint. This is the one cheap, critical call that earns fixed-delay
// retries.
func NewPortfolioStatsConfig() ServiceConfig {
	return ServiceConfig{
		BaseURL:            "https://groww.in/v1/api/data/mf/web/v1/scheme/portfolio/%s/stats",
		HTTPRequestTimeout: 10 * time.Second,
		RequestRateLimit:   1 * time.Second, // pacing after a successful call
		MaxRetryAttempts:   3,
		EnableMetrics:      true,
	}
}

// NewAMFIFeedConfig returns the configuration for the regulator bulk NAV
// feed used as the time-series fallback.
func NewAMFIFeedConfig() ServiceConfig {
	return ServiceConfig{
		BaseURL:            "https://www.amfiindia.com/spages/NAVAll.txt",
		HTTPRequestTimeout: 30 * time.Second, // industry-wide feed, considerably larger than a page
		RequestRateLimit:   0,
		MaxRetryAttempts:   2, // the feed is the last source for a NAV series; transient failures earn backoff
		EnableMetrics:      true,
	}
}

// ValidateAndApplyDefaults replaces invalid values with safe defaults.
func (c *ServiceConfig) ValidateAndApplyDefaults() {
	logger := logrus.WithField("component", "ServiceConfig")

	if c.HTTPRequestTimeout <= 0 {
		c.HTTPRequestTimeout = 10 * time.Second
		logger.Debug("Applied default HTTPRequestTimeout")
	}

	if c.RequestRateLimit < 0 {
		c.RequestRateLimit = 0
		logger.Debug("Applied default RequestRateLimit")
	}

	if c.MaxRetryAttempts < 0 {
		c.MaxRetryAttempts = 0
		logger.Debug("Applied default MaxRetryAttempts")
	}
}
