package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"mutualfund-backend/models"
)

// Validation bands. All checks are advisory: out-of-band data is flagged
// with enough context to diagnose, never rejected or mutated.
const (
	returnLowerBound = -100.0
	returnUpperBound = 100.0

	allocationSumLower = 95.0
	allocationSumUpper = 105.0

	sectorSumLower = 90.0
	sectorSumUpper = 110.0

	holdingsSumMinimum = 20.0 // below this the holdings table was likely truncated at the source
)

// NormalizationService turns the raw merged fund records into the four
// typed output tables: the flat fund table plus NAV history, holdings and
// sector allocations. It coerces types, marks missing values, expands
// nested collections and runs the advisory validation pass.
type NormalizationService struct {
	utility *UtilityService
	logger  *logrus.Entry
}

// NewNormalizationService creates a normalization service.
func NewNormalizationService(utility *UtilityService) *NormalizationService {
	return &NormalizationService{
		utility: utility,
		logger:  logrus.WithField("component", "NormalizationService"),
	}
}

// Normalize produces the cleaned dataset from the extracted fund details.
// Input records are read-only; every warning refers to data that is kept
// exactly as observed.
func (s *NormalizationService) Normalize(details []models.FundDetail) *models.CleanedDataset {
	dataset := &models.CleanedDataset{}

	for _, detail := range details {
		dataset.Funds = append(dataset.Funds, s.buildFundRow(detail))
	}

	s.validateFundRows(dataset)
	s.expandNavHistory(details, dataset)
	s.expandHoldings(details, dataset)
	s.validateAssetAllocations(details, dataset)
	s.expandSectorAllocations(details, dataset)

	s.logger.WithFields(logrus.Fields{
		"funds":    len(dataset.Funds),
		"nav_rows": len(dataset.NAVHistory),
		"holdings": len(dataset.Holdings),
		"sectors":  len(dataset.Sectors),
		"warnings": len(dataset.Warnings),
	}).Info("Normalization completed")

	return dataset
}

// buildFundRow flattens one detail record into a Fund_Data row, including
// the display-only summary strings. The nested collections themselves are
// not carried on the row; they live in the derived tables.
func (s *NormalizationService) buildFundRow(detail models.FundDetail) models.FundRow {
	summary := detail.Summary

	row := models.FundRow{
		Name:                 summary.Name,
		AUM:                  detail.AUM,
		NAV:                  detail.NAV,
		ExitLoad:             detail.ExitLoad,
		Rating:               detail.Rating,
		MinimumInvestment:    detail.MinimumInvestment,
		MinimumSIPInvestment: detail.MinimumSIPInvestment,
		PE:                   detail.Stats.PE,
		PB:                   detail.Stats.PB,
		DebtPer:              detail.Stats.DebtPer,
		EquityPer:            detail.Stats.EquityPer,
		AverageMaturity:      detail.Stats.AverageMaturity,
		YieldToMaturity:      detail.Stats.YieldToMaturity,
		Risk:                 summary.Risk,
		Type:                 summary.Type,
		OneYearReturn:        s.utility.ParseReturnValue(summary.Returns[0]),
		ThreeYearReturn:      s.utility.ParseReturnValue(summary.Returns[1]),
		FiveYearReturn:       s.utility.ParseReturnValue(summary.Returns[2]),
		Link:                 s.utility.CanonicalFundLink(summary.Link),
		EquityAUM:            detail.Stats.EquityAUM,
		AssetEquity:          detail.Stats.AssetAllocation.Equity,
		AssetDebt:            detail.Stats.AssetAllocation.Debt,
		AssetCash:            detail.Stats.AssetAllocation.Cash,
	}

	// Equity funds have no maturity or yield concept; whatever the source
	// reported is overridden.
	if row.Type == FundTypeEquity {
		row.AverageMaturity = nil
		row.YieldToMaturity = nil
	}

	row.HistoricalNAVSummary = summarizeNavHistory(detail.HistoricalNAV)
	row.TopHoldingsSummary = summarizeHoldings(detail.TopHoldings)
	row.AssetAllocationSummary = summarizeAssetAllocation(detail.Stats.AssetAllocation)
	row.SectorAllocationSummary = summarizeSectorAllocation(detail.Stats.SectorAllocation)

	return row
}

// warn records one advisory finding and logs it with its context.
func (s *NormalizationService) warn(dataset *models.CleanedDataset, fundName, field, observed, message string) {
	dataset.Warnings = append(dataset.Warnings, models.ValidationWarning{
		FundName: fundName,
		Field:    field,
		Observed: observed,
		Message:  message,
	})
	s.logger.WithFields(logrus.Fields{
		"fund_name": fundName,
		"field":     field,
		"observed":  observed,
	}).Warn(message)
}

// validateFundRows runs the range, consistency and duplicate checks over
// the flat table.
func (s *NormalizationService) validateFundRows(dataset *models.CleanedDataset) {
	nameCounts := make(map[string]int)

	for _, row := range dataset.Funds {
		nameCounts[row.Name]++

		nonNegativeFields := []struct {
			name  string
			value *float64
		}{
			{"aum", row.AUM},
			{"nav", row.NAV},
			{"minimum_investment", row.MinimumInvestment},
			{"minimum_sip_investment", row.MinimumSIPInvestment},
			{"equity_aum", row.EquityAUM},
		}
		for _, field := range nonNegativeFields {
			if field.value != nil && *field.value < 0 {
				s.warn(dataset, row.Name, field.name, formatFloat(*field.value), "Negative value found")
			}
		}

		if row.EquityAUM != nil && row.AUM != nil && *row.EquityAUM > *row.AUM {
			s.warn(dataset, row.Name, "equity_aum", formatFloat(*row.EquityAUM), "Equity AUM exceeds total AUM")
		}

		returnFields := []struct {
			name  string
			value *float64
		}{
			{"one_year_return", row.OneYearReturn},
			{"three_year_return", row.ThreeYearReturn},
			{"five_year_return", row.FiveYearReturn},
		}
		for _, field := range returnFields {
			if field.value != nil && (*field.value > returnUpperBound || *field.value < returnLowerBound) {
				s.warn(dataset, row.Name, field.name, formatFloat(*field.value), "Unrealistic return value")
			}
		}

		if row.DebtPer != nil && row.EquityPer != nil {
			total := *row.DebtPer + *row.EquityPer
			if total < allocationSumLower || total > allocationSumUpper {
				s.warn(dataset, row.Name, "debt_per+equity_per", formatFloat(total), "Inconsistent debt and equity split")
			}
		}
	}

	for name, count := range nameCounts {
		if count > 1 {
			s.warn(dataset, name, "name", strconv.Itoa(count), "Duplicate fund name found")
		}
	}
}

// expandNavHistory flattens the per-fund NAV series into the time-series
// table, sorted by (fund, date) since arrival order is not guaranteed.
func (s *NormalizationService) expandNavHistory(details []models.FundDetail, dataset *models.CleanedDataset) {
	for _, detail := range details {
		for _, point := range detail.HistoricalNAV {
			if point.NAV <= 0 {
				s.warn(dataset, detail.Summary.Name, "nav", formatFloat(point.NAV), "Non-positive NAV value in historical series")
			}
			dataset.NAVHistory = append(dataset.NAVHistory, models.NavRecord{
				FundName: detail.Summary.Name,
				Date:     point.Date,
				NAV:      point.NAV,
			})
		}
	}

	sort.SliceStable(dataset.NAVHistory, func(i, j int) bool {
		if dataset.NAVHistory[i].FundName != dataset.NAVHistory[j].FundName {
			return dataset.NAVHistory[i].FundName < dataset.NAVHistory[j].FundName
		}
		return dataset.NAVHistory[i].Date.Before(dataset.NAVHistory[j].Date)
	})
}

// expandHoldings flattens the holdings lists and flags funds whose disclosed
// holdings cover implausibly little of the portfolio.
func (s *NormalizationService) expandHoldings(details []models.FundDetail, dataset *models.CleanedDataset) {
	for _, detail := range details {
		if len(detail.TopHoldings) == 0 {
			continue
		}

		total := 0.0
		for _, holding := range detail.TopHoldings {
			if holding.Percentage <= 0 {
				s.warn(dataset, detail.Summary.Name, "percentage", formatFloat(holding.Percentage), "Non-positive holding percentage")
			}
			total += holding.Percentage
			dataset.Holdings = append(dataset.Holdings, models.HoldingRecord{
				FundName:   detail.Summary.Name,
				Company:    holding.Company,
				Percentage: holding.Percentage,
			})
		}

		if total < holdingsSumMinimum {
			s.warn(dataset, detail.Summary.Name, "top_holdings", formatFloat(total), "Low total holdings percentage, data likely incomplete")
		}
	}
}

// validateAssetAllocations checks that each fund's equity/debt/cash split
// sums close to 100. Funds with no allocation at all (failed stats call)
// are skipped; their columns stay unavailable.
func (s *NormalizationService) validateAssetAllocations(details []models.FundDetail, dataset *models.CleanedDataset) {
	for _, detail := range details {
		alloc := detail.Stats.AssetAllocation
		if alloc.Equity == nil && alloc.Debt == nil && alloc.Cash == nil {
			continue
		}

		total := valueOrZero(alloc.Equity) + valueOrZero(alloc.Debt) + valueOrZero(alloc.Cash)
		if total < allocationSumLower || total > allocationSumUpper {
			s.warn(dataset, detail.Summary.Name, "asset_allocation", formatFloat(total), "Inconsistent asset allocation total")
		}
	}
}

// expandSectorAllocations flattens the per-fund sector lists and checks
// each fund's total stays near 100.
func (s *NormalizationService) expandSectorAllocations(details []models.FundDetail, dataset *models.CleanedDataset) {
	for _, detail := range details {
		if len(detail.Stats.SectorAllocation) == 0 {
			continue
		}

		total := 0.0
		for _, sector := range detail.Stats.SectorAllocation {
			if sector.Percentage <= 0 {
				s.warn(dataset, detail.Summary.Name, "percentage", formatFloat(sector.Percentage), "Non-positive sector percentage")
			}
			total += sector.Percentage
			dataset.Sectors = append(dataset.Sectors, models.SectorRecord{
				FundName:   detail.Summary.Name,
				Sector:     sector.Sector,
				Percentage: sector.Percentage,
			})
		}

		if total < sectorSumLower || total > sectorSumUpper {
			s.warn(dataset, detail.Summary.Name, "sector_allocation", formatFloat(total), "Inconsistent sector allocation total")
		}
	}
}

// summarizeNavHistory renders the most recent observation, e.g.
// "Latest NAV: 45.67 on 2025-05-05".
func summarizeNavHistory(points []models.NavPoint) string {
	if len(points) == 0 {
		return models.NotAvailable
	}

	latest := points[0]
	for _, point := range points[1:] {
		if point.Date.After(latest.Date) {
			latest = point
		}
	}
	return fmt.Sprintf("Latest NAV: %s on %s", formatFloat(latest.NAV), latest.Date.Format("2006-01-02"))
}

// summarizeHoldings renders "Company (12.5%); Company (8.2%); ...".
func summarizeHoldings(holdings []models.Holding) string {
	if len(holdings) == 0 {
		return models.NotAvailable
	}

	parts := make([]string, 0, len(holdings))
	for _, holding := range holdings {
		parts = append(parts, fmt.Sprintf("%s (%s%%)", holding.Company, formatFloat(holding.Percentage)))
	}
	return strings.Join(parts, "; ")
}

// summarizeAssetAllocation renders "Equity: 60%, Debt: 30%, Cash: 10%".
func summarizeAssetAllocation(alloc models.AssetAllocation) string {
	if alloc.Equity == nil && alloc.Debt == nil && alloc.Cash == nil {
		return models.NotAvailable
	}
	return fmt.Sprintf("Equity: %s, Debt: %s, Cash: %s",
		formatAllocationComponent(alloc.Equity),
		formatAllocationComponent(alloc.Debt),
		formatAllocationComponent(alloc.Cash))
}

// summarizeSectorAllocation renders "Sector (20%); Sector (15%); ...".
func summarizeSectorAllocation(sectors []models.SectorAllocation) string {
	if len(sectors) == 0 {
		return models.NotAvailable
	}

	parts := make([]string, 0, len(sectors))
	for _, sector := range sectors {
		parts = append(parts, fmt.Sprintf("%s (%s%%)", sector.Sector, formatFloat(sector.Percentage)))
	}
	return strings.Join(parts, "; ")
}

func formatAllocationComponent(value *float64) string {
	if value == nil {
		return models.NotAvailable
	}
	return formatFloat(*value) + "%"
}

// formatFloat renders a float without trailing zeros.
func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
