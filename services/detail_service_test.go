package services

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"mutualfund-backend/models"
	"mutualfund-backend/shared"
)

func parseTestDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	document, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse test document: %v", err)
	}
	return document
}

func newDetailTestService() *FundDetailService {
	return &FundDetailService{
		utility: NewUtilityService(),
		metrics: shared.NewServiceMetrics("FundDetail"),
		logger:  logrus.WithField("component", "FundDetailService"),
	}
}

const detailPageHTML = `<html><body>
<table>
<tr><td class="contentSecondary bodyLarge">Fund size</td><td class="bodyLargeHeavy">₹1,234.56Cr</td></tr>
<tr><td class="contentSecondary bodyLarge">NAV: 25 Aug 2026</td><td class="bodyLargeHeavy">₹45.67</td></tr>
<tr><td class="contentSecondary bodyLarge">Min. for 1st investment</td><td class="bodyLargeHeavy">₹500</td></tr>
<tr><td class="contentSecondary bodyLarge">Min. for SIP</td><td class="bodyLargeHeavy">₹100</td></tr>
</table>
<table><tr><td class="fd12Cell valign-wrapper contentPrimary fd12Ratings bodyLargeHeavy">4</td></tr></table>
<p class="bodyLarge">Exit load of 1.00% if redeemed within 1 year</p>
<p class="bodyLarge">Expense ratio: 0.52%</p>
<script>window.__data = {"scheme":{"scheme_code":"120503"}};</script>
</body></html>`

func TestExtractLabeledFieldsFromDetailPage(t *testing.T) {
	service := newDetailTestService()
	document := parseTestDocument(t, detailPageHTML)

	detail := models.FundDetail{}
	service.extractLabeledFields(document, &detail, service.logger)

	assertFloatField(t, "aum", detail.AUM, 1234.56)
	assertFloatField(t, "nav", detail.NAV, 45.67)
	assertFloatField(t, "minimum_investment", detail.MinimumInvestment, 500)
	assertFloatField(t, "minimum_sip_investment", detail.MinimumSIPInvestment, 100)
	assertFloatField(t, "rating", detail.Rating, 4)
	assertFloatField(t, "exit_load", detail.ExitLoad, 1.0)
	assertFloatField(t, "expense_ratio", detail.ExpenseRatio, 0.52)
}

func TestExtractLabeledFieldsLeavesAbsentFieldsUnavailable(t *testing.T) {
	service := newDetailTestService()

	// Only the fund size is present; everything else must stay nil
	// without blocking the extracted field.
	html := `<html><body><table>
<tr><td class="contentSecondary bodyLarge">Fund size</td><td class="bodyLargeHeavy">₹100Cr</td></tr>
</table></body></html>`
	document := parseTestDocument(t, html)

	detail := models.FundDetail{}
	service.extractLabeledFields(document, &detail, service.logger)

	assertFloatField(t, "aum", detail.AUM, 100)
	if detail.NAV != nil || detail.Rating != nil || detail.ExitLoad != nil {
		t.Error("expected absent fields to remain unavailable")
	}
}

func TestExtractLabeledFieldsFallsBackToSIPMinimum(t *testing.T) {
	service := newDetailTestService()

	html := `<html><body><table>
<tr><td class="contentSecondary bodyLarge">Min. for SIP</td><td class="bodyLargeHeavy">₹100</td></tr>
</table></body></html>`
	document := parseTestDocument(t, html)

	detail := models.FundDetail{}
	service.extractLabeledFields(document, &detail, service.logger)

	assertFloatField(t, "minimum_investment fallback", detail.MinimumInvestment, 100)
}

func TestExtractLabeledFieldsSkipsUnavailableRatingCell(t *testing.T) {
	service := newDetailTestService()

	html := `<html><body>
<table><tr><td class="fd12Cell valign-wrapper contentPrimary fd12Ratings bodyLargeHeavy">NA</td></tr></table>
</body></html>`
	document := parseTestDocument(t, html)

	detail := models.FundDetail{}
	service.extractLabeledFields(document, &detail, service.logger)

	if detail.Rating != nil {
		t.Errorf("expected NA rating to stay unavailable, got %v", *detail.Rating)
	}
}

func TestExtractSchemeCode(t *testing.T) {
	service := newDetailTestService()

	document := parseTestDocument(t, detailPageHTML)
	if code := service.extractSchemeCode(document); code != "120503" {
		t.Errorf("extractSchemeCode = %q, want 120503", code)
	}

	empty := parseTestDocument(t, `<html><body><script>var x = 1;</script></body></html>`)
	if code := service.extractSchemeCode(empty); code != "" {
		t.Errorf("expected empty scheme code, got %q", code)
	}
}

func holdingsTableHTML(rows int) string {
	var builder strings.Builder
	builder.WriteString(`<html><body><table class="holdings101Table"><tbody>`)
	for i := 0; i < rows; i++ {
		builder.WriteString(`<tr>`)
		builder.WriteString(`<td><div class="pc543Links">Company ` + string(rune('A'+i)) + `</div></td>`)
		builder.WriteString(`<td>Equity</td><td>Financial</td>`)
		builder.WriteString(`<td>5.5%</td>`)
		builder.WriteString(`</tr>`)
	}
	builder.WriteString(`</tbody></table></body></html>`)
	return builder.String()
}

func TestExtractTopHoldingsCapsAtFiveRows(t *testing.T) {
	service := newDetailTestService()
	document := parseTestDocument(t, holdingsTableHTML(7))

	holdings := service.extractTopHoldings(document, service.logger)
	if len(holdings) != 5 {
		t.Fatalf("expected 5 holdings from a 7-row table, got %d", len(holdings))
	}
	if holdings[0].Company != "Company A" {
		t.Errorf("first holding = %q, want Company A", holdings[0].Company)
	}
	if holdings[0].Percentage != 5.5 {
		t.Errorf("first holding percentage = %v, want 5.5", holdings[0].Percentage)
	}
}

func TestExtractTopHoldingsDegradesBadPercentageToZero(t *testing.T) {
	service := newDetailTestService()

	html := `<html><body><table class="holdings101Table"><tbody>
<tr><td><div class="pc543Links">Good Co</div></td><td>Equity</td><td>Financial</td><td>8.2%</td></tr>
<tr><td><div class="pc543Links">Bad Co</div></td><td>Equity</td><td>Financial</td><td>not-a-number</td></tr>
</tbody></table></body></html>`
	document := parseTestDocument(t, html)

	holdings := service.extractTopHoldings(document, service.logger)
	if len(holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(holdings))
	}
	if holdings[1].Company != "Bad Co" || holdings[1].Percentage != 0 {
		t.Errorf("expected the unparseable row kept with percentage 0, got %+v", holdings[1])
	}
}

func TestExtractTopHoldingsMissingTable(t *testing.T) {
	service := newDetailTestService()
	document := parseTestDocument(t, `<html><body></body></html>`)

	if holdings := service.extractTopHoldings(document, service.logger); holdings != nil {
		t.Errorf("expected nil holdings without a table, got %v", holdings)
	}
}

func TestParseExitLoadText(t *testing.T) {
	utility := NewUtilityService()

	tests := []struct {
		text     string
		expected *float64
	}{
		{"Exit load of 1.00% if redeemed within 1 year", floatPtr(1.0)},
		{"No exit load", floatPtr(0)},
		{"Exit load: 0%", floatPtr(0)},
		{"Exit load details unavailable", nil},
	}

	for _, tt := range tests {
		got := parseExitLoadText(utility, tt.text)
		if !floatPtrEqual(got, tt.expected) {
			t.Errorf("parseExitLoadText(%q) = %v, want %v", tt.text, floatPtrString(got), floatPtrString(tt.expected))
		}
	}
}

func assertFloatField(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Errorf("%s = nil, want %v", name, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %v, want %v", name, *got, want)
	}
}
