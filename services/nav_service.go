package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mutualfund-backend/models"
	"mutualfund-backend/shared"
)

// amfiDateLayout is the date format of the regulator bulk feed (02-Jan-2006).
const amfiDateLayout = "02-Jan-2006"

// NavHistoryService retrieves a fund's historical NAV series. The primary
// source is the scheme graph API; when it fails, returns nothing or returns
// only garbage, the service falls back to the regulator bulk feed filtered
// by scheme code and date window.
type NavHistoryService struct {
	fetcher           *PageFetcher
	feedFetcher       *PageFetcher
	navURLTemplate    string // takes scheme code and trailing-month window
	amfiURL           string
	feedRetryAttempts int
	metrics           *shared.ServiceMetrics
	logger            *logrus.Entry
}

// NewNavHistoryService creates a NAV history service from the time-series
// and bulk feed configurations.
func NewNavHistoryService(navCfg, amfiCfg shared.ServiceConfig) *NavHistoryService {
	navCfg.ValidateAndApplyDefaults()
	amfiCfg.ValidateAndApplyDefaults()

	return &NavHistoryService{
		fetcher:           NewPageFetcher(navCfg.HTTPRequestTimeout),
		feedFetcher:       NewPageFetcher(amfiCfg.HTTPRequestTimeout),
		navURLTemplate:    navCfg.BaseURL,
		amfiURL:           amfiCfg.BaseURL,
		feedRetryAttempts: amfiCfg.MaxRetryAttempts,
		metrics:           shared.NewServiceMetrics("NavHistory"),
		logger:            logrus.WithField("component", "NavHistoryService"),
	}
}

// graphResponse is the shape of the time-series API payload. Each data
// entry is a two-element array: millisecond timestamp, NAV value. The NAV
// arrives sometimes as a number and sometimes as a string, hence any.
type graphResponse struct {
	Folio struct {
		Data [][]any `json:"data"`
	} `json:"folio"`
}

// FetchHistoricalNAV returns the fund's NAV series over the trailing
// months window. An empty result is a valid terminal state meaning "no
// historical data"; it is never an error.
func (s *NavHistoryService) FetchHistoricalNAV(schemeCode string, months int) []models.NavPoint {
	if schemeCode == "" {
		s.logger.Warn("No scheme code provided for historical NAV extraction")
		return nil
	}

	logger := s.logger.WithField("scheme_code", schemeCode)
	started := time.Now()

	url := fmt.Sprintf(s.navURLTemplate, schemeCode, months)
	var payload graphResponse
	if err := s.fetcher.FetchJSON(url, &payload); err != nil {
		s.metrics.RecordRequest(false, time.Since(started))
		logger.WithError(err).Warn("Failed to fetch historical NAV from primary API")
		return s.fallbackWindow(schemeCode, months)
	}

	points := make([]models.NavPoint, 0, len(payload.Folio.Data))
	for _, entry := range payload.Folio.Data {
		if len(entry) != 2 {
			logger.WithField("entry", entry).Warn("Unexpected NAV entry format")
			continue
		}
		timestampMS, tsOK := asFloat(entry[0])
		navValue, navOK := asFloat(entry[1])
		if !tsOK || !navOK {
			logger.WithField("entry", entry).Warn("Invalid NAV entry")
			continue
		}
		points = append(points, models.NavPoint{
			Date: dateOnly(time.UnixMilli(int64(timestampMS)).UTC()),
			NAV:  navValue,
		})
	}

	if len(points) == 0 {
		s.metrics.RecordRequest(false, time.Since(started))
		logger.Info("No NAV data in primary API response, falling back to bulk feed")
		return s.fallbackWindow(schemeCode, months)
	}

	s.metrics.RecordRequest(true, time.Since(started))
	logger.WithField("nav_entries", len(points)).Info("Fetched NAV series from primary API")
	return points
}

// fallbackWindow invokes FallbackNAV with the default trailing window
// derived from the months parameter of the failed primary call.
func (s *NavHistoryService) fallbackWindow(schemeCode string, months int) []models.NavPoint {
	end := dateOnly(time.Now().UTC())
	start := end.AddDate(0, -months, 0)
	return s.FallbackNAV(schemeCode, start, end)
}

// FallbackNAV downloads the semicolon-delimited bulk feed covering every
// scheme, filters rows by exact numeric scheme-code match and the
// [start, end] window, and projects to NAV points. Any parse or network
// failure yields an empty sequence, logged, never raised.
func (s *NavHistoryService) FallbackNAV(schemeCode string, start, end time.Time) []models.NavPoint {
	logger := s.logger.WithField("scheme_code", schemeCode)

	wantedCode, err := strconv.Atoi(strings.TrimSpace(schemeCode))
	if err != nil {
		logger.WithError(err).Warn("Non-numeric scheme code, cannot filter bulk feed")
		return nil
	}

	body, err := s.feedFetcher.FetchBody(s.amfiURL, s.feedRetryAttempts)
	if err != nil {
		logger.WithError(err).Error("Failed to fetch bulk NAV feed")
		return nil
	}

	var points []models.NavPoint
	lines := strings.Split(string(body), "\n")
	for i, line := range lines {
		if i == 0 {
			continue // header row
		}
		fields := strings.Split(line, ";")
		if len(fields) < 5 {
			continue // section headers and blank lines
		}

		rowCode, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil || rowCode != wantedCode {
			continue
		}

		nav, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		if err != nil {
			logger.WithField("observed", fields[3]).Warn("Unparseable NAV in bulk feed row")
			continue
		}

		date, err := time.Parse(amfiDateLayout, strings.TrimSpace(fields[4]))
		if err != nil {
			logger.WithField("observed", fields[4]).Warn("Unparseable date in bulk feed row")
			continue
		}

		if date.Before(start) || date.After(end) {
			continue
		}

		points = append(points, models.NavPoint{Date: date, NAV: nav})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	logger.WithField("nav_entries", len(points)).Info("Fetched NAV series from bulk feed")
	return points
}

// Metrics exposes the NAV request counters.
func (s *NavHistoryService) Metrics() *shared.ServiceMetrics {
	return s.metrics
}

// asFloat coerces the loosely typed JSON array entries to float64.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		return parsed, err == nil
	case json.Number:
		parsed, err := v.Float64()
		return parsed, err == nil
	default:
		return 0, false
	}
}

// dateOnly truncates a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
