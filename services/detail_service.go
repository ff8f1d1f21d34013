package services

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"mutualfund-backend/models"
	"mutualfund-backend/shared"
)

// maxTopHoldings caps how many rows of the ranked holdings table are kept.
// The table arrives pre-sorted by the source.
const maxTopHoldings = 5

// schemeCodeRegex matches the scheme code embedded in the page's script
// payload, e.g. "scheme_code":"120503".
var schemeCodeRegex = regexp.MustCompile(`"scheme_code":"(\d+)"`)

// ruleKind selects how a labeled field is located in the document.
type ruleKind int

const (
	// ruleLabelAdjacent finds a value node whose nearest preceding sibling
	// matches the label selector and contains the label text.
	ruleLabelAdjacent ruleKind = iota
	// ruleInlineText finds a node whose own text carries both label and
	// value, e.g. "Exit load of 1.00% if redeemed within 1 year".
	ruleInlineText
	// ruleDirectCell finds a dedicated value cell with no label lookup.
	ruleDirectCell
)

// fieldRule is one entry of the label→parser table. Markup drift is fixed
// by editing this table, not extraction logic.
type fieldRule struct {
	Field         string
	Kind          ruleKind
	ValueSelector string
	LabelSelector string
	LabelContains string
	Parse         func(u *UtilityService, text string) *float64
}

// Selector groups shared by several rules. Label text is the source of
// truth; node classes only narrow the candidate set.
const (
	labeledValueNodes = "td.bodyLarge, td.bodyLargeHeavy, td.contentPrimary, div.bodyLarge, div.bodyLargeHeavy, div.contentPrimary, span.bodyLarge, span.bodyLargeHeavy, span.contentPrimary"
	labeledLabelNodes = "td.contentSecondary, td.bodyLarge, div.contentSecondary, div.bodyLarge, span.contentSecondary, span.bodyLarge"
)

// detailFieldRules is the extraction table for the flat numeric fields of a
// fund detail page.
var detailFieldRules = []fieldRule{
	{
		Field:         "aum",
		Kind:          ruleLabelAdjacent,
		ValueSelector: labeledValueNodes,
		LabelSelector: labeledLabelNodes,
		LabelContains: "Fund size",
		Parse:         (*UtilityService).ParseNumericValue,
	},
	{
		Field:         "nav",
		Kind:          ruleLabelAdjacent,
		ValueSelector: labeledValueNodes,
		LabelSelector: labeledLabelNodes,
		LabelContains: "NAV",
		Parse:         (*UtilityService).ParseNumericValue,
	},
	{
		Field:         "minimum_investment",
		Kind:          ruleLabelAdjacent,
		ValueSelector: "td.bodyLargeHeavy",
		LabelSelector: "td.contentSecondary.bodyLarge",
		LabelContains: "Min. for 1st investment",
		Parse:         (*UtilityService).ParseNumericValue,
	},
	{
		Field:         "minimum_sip_investment",
		Kind:          ruleLabelAdjacent,
		ValueSelector: "td.bodyLargeHeavy",
		LabelSelector: "td.contentSecondary.bodyLarge",
		LabelContains: "Min. for SIP",
		Parse:         (*UtilityService).ParseNumericValue,
	},
	{
		Field:         "rating",
		Kind:          ruleDirectCell,
		ValueSelector: "td.fd12Cell.valign-wrapper.contentPrimary.fd12Ratings.bodyLargeHeavy",
		Parse:         parseRatingCell,
	},
	{
		Field:         "exit_load",
		Kind:          ruleInlineText,
		ValueSelector: "p.bodyLarge",
		LabelContains: "Exit load",
		Parse:         parseExitLoadText,
	},
	{
		Field:         "expense_ratio",
		Kind:          ruleInlineText,
		ValueSelector: "p.bodyLarge",
		LabelContains: "Expense ratio",
		Parse:         (*UtilityService).ExtractInlinePercentage,
	},
}

// FundDetailService merges everything known about one fund: labeled fields
// from its detail page, the scheme code from embedded scripts, the NAV
// series, the top holdings and the portfolio stats. Each step degrades
// independently; the service always returns a record.
type FundDetailService struct {
	fetcher         *PageFetcher
	navService      *NavHistoryService
	statsService    *PortfolioStatsService
	utility         *UtilityService
	navWindowMonths int
	metrics         *shared.ServiceMetrics
	logger          *logrus.Entry
}

// NewFundDetailService creates a detail extraction service.
func NewFundDetailService(cfg shared.ServiceConfig, navService *NavHistoryService, statsService *PortfolioStatsService, utility *UtilityService, navWindowMonths int) *FundDetailService {
	cfg.ValidateAndApplyDefaults()

	return &FundDetailService{
		fetcher:         NewPageFetcher(cfg.HTTPRequestTimeout),
		navService:      navService,
		statsService:    statsService,
		utility:         utility,
		navWindowMonths: navWindowMonths,
		metrics:         shared.NewServiceMetrics("FundDetail"),
		logger:          logrus.WithField("component", "FundDetailService"),
	}
}

// ExtractDetail runs all extraction steps for one fund. A failure in any
// step leaves its fields unavailable; it never blocks the other steps or
// aborts the fund.
func (s *FundDetailService) ExtractDetail(summary models.FundSummary) models.FundDetail {
	logger := s.logger.WithField("fund_name", summary.Name)
	detail := models.FundDetail{Summary: summary}

	document, err := s.fetcher.Fetch(summary.Link)
	if err != nil {
		logger.WithError(err).Warn("Failed to fetch fund detail page, all page fields unavailable")
	}

	if document != nil {
		s.extractLabeledFields(document, &detail, logger)
		detail.SchemeCode = s.extractSchemeCode(document)
		if detail.SchemeCode == "" {
			logger.Warn("Scheme code not found on detail page, per-scheme lookups disabled")
		}
	}

	detail.HistoricalNAV = s.navService.FetchHistoricalNAV(detail.SchemeCode, s.navWindowMonths)

	if document != nil && detail.SchemeCode != "" {
		detail.TopHoldings = s.extractTopHoldings(document, logger)
	}

	detail.Stats = s.statsService.FetchPortfolioStats(detail.SchemeCode, summary.Type)

	return detail
}

// extractLabeledFields walks the rule table and fills each resolvable field.
// A rule whose label is absent or whose value fails parsing leaves its
// field nil and moves on.
func (s *FundDetailService) extractLabeledFields(document *goquery.Document, detail *models.FundDetail, logger *logrus.Entry) {
	for _, rule := range detailFieldRules {
		value := s.applyFieldRule(document, rule)
		if value == nil {
			s.metrics.RecordDegradedField()
			logger.WithField("field", rule.Field).Debug("Labeled field not extracted")
		}

		switch rule.Field {
		case "aum":
			detail.AUM = value
		case "nav":
			detail.NAV = value
		case "minimum_investment":
			detail.MinimumInvestment = value
		case "minimum_sip_investment":
			detail.MinimumSIPInvestment = value
		case "rating":
			detail.Rating = value
		case "exit_load":
			detail.ExitLoad = value
		case "expense_ratio":
			detail.ExpenseRatio = value
		}
	}

	// When the lump-sum minimum is not published the SIP minimum is the
	// effective entry amount.
	if detail.MinimumInvestment == nil {
		detail.MinimumInvestment = detail.MinimumSIPInvestment
	}
}

// applyFieldRule resolves one rule against the document. First successful
// parse wins; candidates whose text fails parsing are skipped, matching the
// partial-extraction contract.
func (s *FundDetailService) applyFieldRule(document *goquery.Document, rule fieldRule) *float64 {
	var result *float64

	document.Find(rule.ValueSelector).EachWithBreak(func(_ int, node *goquery.Selection) bool {
		text := strings.TrimSpace(node.Text())

		switch rule.Kind {
		case ruleLabelAdjacent:
			label := nearestPrecedingSibling(node, rule.LabelSelector)
			if label == nil || !strings.Contains(label.Text(), rule.LabelContains) {
				return true
			}
		case ruleInlineText:
			if !strings.Contains(text, rule.LabelContains) {
				return true
			}
		case ruleDirectCell:
			// candidate set is already the value cells
		}

		if parsed := rule.Parse(s.utility, text); parsed != nil {
			result = parsed
			return false
		}
		return true
	})

	return result
}

// nearestPrecedingSibling returns the closest preceding sibling matching
// selector, or nil.
func nearestPrecedingSibling(node *goquery.Selection, selector string) *goquery.Selection {
	for prev := node.Prev(); prev.Length() > 0; prev = prev.Prev() {
		if prev.Is(selector) {
			return prev
		}
	}
	return nil
}

// extractSchemeCode scans embedded script content for the scheme code key.
// Absence is a valid state, not an error.
func (s *FundDetailService) extractSchemeCode(document *goquery.Document) string {
	var code string
	document.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		if match := schemeCodeRegex.FindStringSubmatch(script.Text()); match != nil {
			code = match[1]
			return false
		}
		return true
	})
	return code
}

// extractTopHoldings reads up to the first five data rows of the holdings
// table: company name from the first column, percentage from the fourth.
// Rows with fewer than four columns are skipped, not fatal.
func (s *FundDetailService) extractTopHoldings(document *goquery.Document, logger *logrus.Entry) []models.Holding {
	table := document.Find("table.holdings101Table").First()
	if table.Length() == 0 {
		logger.Warn("Holdings table not found on fund page")
		return nil
	}

	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		// No tbody: skip the header row instead.
		all := table.Find("tr")
		if all.Length() > 1 {
			rows = all.Slice(1, all.Length())
		}
	}

	var holdings []models.Holding
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= maxTopHoldings {
			return false
		}

		columns := row.Find("td")
		if columns.Length() < 4 {
			return true
		}

		company := strings.TrimSpace(columns.Eq(0).Find("div.pc543Links").Text())
		if company == "" {
			company = strings.TrimSpace(columns.Eq(0).Text())
		}
		if company == "" {
			company = "Unknown"
		}

		percentageText := strings.TrimSpace(columns.Eq(3).Text())
		percentage := 0.0
		if parsed := s.utility.ParsePercentage(percentageText); parsed != nil {
			percentage = *parsed
		} else {
			logger.WithFields(logrus.Fields{
				"company":  company,
				"observed": percentageText,
			}).Warn("Invalid percentage value for holding")
		}

		holdings = append(holdings, models.Holding{Company: company, Percentage: percentage})
		return true
	})

	if len(holdings) == 0 {
		logger.Warn("No top holdings extracted from fund page")
	} else {
		logger.WithField("holding_count", len(holdings)).Info("Fetched top holdings")
	}
	return holdings
}

// Metrics exposes the detail extraction counters.
func (s *FundDetailService) Metrics() *shared.ServiceMetrics {
	return s.metrics
}

// parseRatingCell parses the star-rating cell; the literal "NA" stays
// unavailable rather than becoming zero.
func parseRatingCell(u *UtilityService, text string) *float64 {
	if u.IsNotAvailable(text) {
		return nil
	}
	return u.ParseNumericValue(text)
}

// parseExitLoadText distinguishes a genuine zero exit load from a missing
// value. A stated percentage wins; otherwise "No exit load" and a bare "0%"
// both mean zero, which is meaningful and distinct from unavailable.
func parseExitLoadText(u *UtilityService, text string) *float64 {
	if value := u.ExtractInlinePercentage(text); value != nil {
		return value
	}
	if strings.Contains(text, "No exit load") || strings.Contains(text, "0%") {
		return models.Float(0)
	}
	return nil
}
