package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"mutualfund-backend/models"
	"mutualfund-backend/shared"
)

// Fund type labels carrying type-conditional stats rules.
const (
	FundTypeEquity      = "Equity"
	FundTypeHybrid      = "Hybrid"
	FundTypeCommodities = "Commodities"
)

// topSectorCount limits the sector allocation to the largest positions.
const topSectorCount = 4

// PortfolioStatsService fetches the portfolio statistics endpoint for a
// scheme and derives valuation ratios, asset allocation, sector allocation
// and equity AUM from a single response. The endpoint is cheap and critical,
// so it is the one call that earns fixed-delay retries.
type PortfolioStatsService struct {
	fetcher          *PageFetcher
	statsURLTemplate string
	maxRetryAttempts int
	retryDelay       time.Duration
	successDelay     time.Duration
	metrics          *shared.ServiceMetrics
	logger           *logrus.Entry
}

// NewPortfolioStatsService creates a portfolio stats service. retryDelay
// separates failed attempts; the config's rate limit paces successful calls.
func NewPortfolioStatsService(cfg shared.ServiceConfig, retryDelay time.Duration) *PortfolioStatsService {
	cfg.ValidateAndApplyDefaults()

	return &PortfolioStatsService{
		fetcher:          NewPageFetcher(cfg.HTTPRequestTimeout),
		statsURLTemplate: cfg.BaseURL,
		maxRetryAttempts: cfg.MaxRetryAttempts,
		retryDelay:       retryDelay,
		successDelay:     cfg.RequestRateLimit,
		metrics:          shared.NewServiceMetrics("PortfolioStats"),
		logger:           logrus.WithField("component", "PortfolioStatsService"),
	}
}

// portfolioStatsResponse is the stats endpoint payload. Pointer fields
// distinguish absent keys from legitimate zeros.
type portfolioStatsResponse struct {
	PE              *float64           `json:"pe"`
	PB              *float64           `json:"pb"`
	DebtPer         *float64           `json:"debt_per"`
	EquityPer       *float64           `json:"equity_per"`
	AverageMaturity *float64           `json:"average_maturity"`
	YieldToMaturity *float64           `json:"yield_to_maturity"`
	AUM             *float64           `json:"aum"`
	AssetAllocation map[string]float64 `json:"asset_allocation"`
	EquitySectorPer map[string]float64 `json:"equity_sector_per"`
}

// FetchPortfolioStats calls the stats endpoint with bounded retries and
// returns the derived stats record. Exhausting every attempt yields a
// record with all numerics unavailable, an empty allocation and an empty
// sector list; the pipeline never aborts on a stats failure. Called exactly
// once per fund; every derived column reuses the result.
func (s *PortfolioStatsService) FetchPortfolioStats(schemeCode, fundType string) models.PortfolioStats {
	if schemeCode == "" {
		s.logger.Warn("No scheme code provided for portfolio stats extraction")
		return models.PortfolioStats{}
	}

	logger := s.logger.WithFields(logrus.Fields{
		"scheme_code": schemeCode,
		"fund_type":   fundType,
	})

	url := fmt.Sprintf(s.statsURLTemplate, schemeCode)

	for attempt := 1; attempt <= s.maxRetryAttempts; attempt++ {
		started := time.Now()

		var response portfolioStatsResponse
		err := s.fetcher.FetchJSON(url, &response)
		if err == nil {
			s.metrics.RecordRequest(true, time.Since(started))
			stats := s.deriveStats(&response, fundType)
			logger.Info("Fetched portfolio stats and holding analysis")
			time.Sleep(s.successDelay) // pace request volume after a success
			return stats
		}

		s.metrics.RecordRequest(false, time.Since(started))
		logger.WithFields(logrus.Fields{
			"attempt": fmt.Sprintf("%d/%d", attempt, s.maxRetryAttempts),
			"error":   err,
		}).Warn("Failed to fetch portfolio stats")

		if attempt < s.maxRetryAttempts {
			logger.WithField("retry_delay", s.retryDelay).Info("Retrying portfolio stats")
			time.Sleep(s.retryDelay)
		}
	}

	logger.Error("All portfolio stats retry attempts failed")
	return models.PortfolioStats{}
}

// deriveStats applies the type-conditional rules and computes the derived
// allocation records from one response.
func (s *PortfolioStatsService) deriveStats(response *portfolioStatsResponse, fundType string) models.PortfolioStats {
	stats := models.PortfolioStats{
		PE:              response.PE,
		PB:              response.PB,
		DebtPer:         response.DebtPer,
		EquityPer:       response.EquityPer,
		AverageMaturity: response.AverageMaturity,
		YieldToMaturity: response.YieldToMaturity,
	}

	// Commodity funds hold neither listed equity nor debt; the endpoint
	// still reports leftovers that would mislead downstream consumers.
	if fundType == FundTypeCommodities {
		stats.PE = nil
		stats.PB = nil
		stats.DebtPer = models.Float(0)
		stats.EquityPer = models.Float(0)
	}

	if fundType != FundTypeHybrid {
		stats.AverageMaturity = nil
		stats.YieldToMaturity = nil
	} else {
		// Hybrid splits are renormalized so debt + equity sums to 100.
		debt := valueOrZero(stats.DebtPer)
		equity := valueOrZero(stats.EquityPer)
		total := debt + equity
		if total > 0 {
			stats.DebtPer = models.Float(debt / total * 100)
			stats.EquityPer = models.Float(equity / total * 100)
		} else {
			stats.DebtPer = nil
			stats.EquityPer = nil
		}
	}

	stats.AssetAllocation = models.AssetAllocation{
		Equity:   models.Float(response.AssetAllocation["equity"]),
		Debt:     models.Float(response.AssetAllocation["debt"]),
		Cash:     models.Float(response.AssetAllocation["cash"]),
		TotalAUM: response.AUM,
	}

	if stats.AssetAllocation.TotalAUM != nil {
		stats.EquityAUM = models.Float(*stats.AssetAllocation.Equity / 100 * *stats.AssetAllocation.TotalAUM)
	}

	stats.SectorAllocation = topSectors(response.EquitySectorPer, topSectorCount)

	return stats
}

// topSectors converts the full sector map into the top-n entries sorted by
// percentage descending. Ties break on sector name so output is stable.
func topSectors(sectorPercentages map[string]float64, n int) []models.SectorAllocation {
	if len(sectorPercentages) == 0 {
		return nil
	}

	sectors := make([]models.SectorAllocation, 0, len(sectorPercentages))
	for sector, percentage := range sectorPercentages {
		sectors = append(sectors, models.SectorAllocation{Sector: sector, Percentage: percentage})
	}

	sort.Slice(sectors, func(i, j int) bool {
		if sectors[i].Percentage != sectors[j].Percentage {
			return sectors[i].Percentage > sectors[j].Percentage
		}
		return sectors[i].Sector < sectors[j].Sector
	})

	if len(sectors) > n {
		sectors = sectors[:n]
	}
	return sectors
}

// Metrics exposes the stats request counters.
func (s *PortfolioStatsService) Metrics() *shared.ServiceMetrics {
	return s.metrics
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
