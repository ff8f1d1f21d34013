package models

import (
	"strings"
	"time"
)

// FundSummary holds the fields visible on a listing card. Created during
// discovery and never mutated afterwards; later stages read it by value.
type FundSummary struct {
	Name    string    `json:"name"`
	Risk    string    `json:"risk"`
	Type    string    `json:"type"`
	Returns [3]string `json:"returns"` // raw 1Y/3Y/5Y card text, "NA" when the card omits one
	Link    string    `json:"link"`
}

// FundIdentity is the deduplication key for a listing entry: the trimmed
// display name plus the normalized link slug. Two cards that differ only in
// query string or cosmetic URL suffixes produce the same identity.
type FundIdentity struct {
	Name string
	Slug string
}

// FundDetail is the merged per-fund record produced by detail extraction.
// Every numeric field is independently optional; nil means the source did
// not expose a usable value, which is distinct from zero.
type FundDetail struct {
	Summary FundSummary `json:"summary"`

	AUM                  *float64 `json:"aum"`
	NAV                  *float64 `json:"nav"`
	MinimumInvestment    *float64 `json:"minimum_investment"`
	MinimumSIPInvestment *float64 `json:"minimum_sip_investment"`
	Rating               *float64 `json:"rating"`
	ExpenseRatio         *float64 `json:"expense_ratio"`
	ExitLoad             *float64 `json:"exit_load"`

	// SchemeCode is the source-internal numeric identifier. Empty string
	// means it could not be resolved; all per-scheme lookups are skipped
	// for such a fund rather than failed.
	SchemeCode string `json:"scheme_code"`

	HistoricalNAV []NavPoint     `json:"historical_nav"`
	TopHoldings   []Holding      `json:"top_holdings"`
	Stats         PortfolioStats `json:"stats"`
}

// NavPoint is one dated NAV observation for a fund.
type NavPoint struct {
	Date time.Time `json:"date"`
	NAV  float64   `json:"nav"`
}

// Holding is one entry of a fund's ranked holdings table.
type Holding struct {
	Company    string  `json:"company"`
	Percentage float64 `json:"percentage"`
}

// AssetAllocation is the equity/debt/cash split reported by the portfolio
// stats endpoint together with the fund's total AUM.
type AssetAllocation struct {
	Equity   *float64 `json:"equity"`
	Debt     *float64 `json:"debt"`
	Cash     *float64 `json:"cash"`
	TotalAUM *float64 `json:"total_aum"`
}

// SectorAllocation is one sector's share of a fund's equity portfolio.
type SectorAllocation struct {
	Sector     string  `json:"sector"`
	Percentage float64 `json:"percentage"`
}

// PortfolioStats merges everything derived from a single portfolio stats
// call. A failed call (after retries) yields the zero value: every pointer
// nil, the allocation empty and the sector list empty.
type PortfolioStats struct {
	PE              *float64 `json:"pe"`
	PB              *float64 `json:"pb"`
	DebtPer         *float64 `json:"debt_per"`
	EquityPer       *float64 `json:"equity_per"`
	AverageMaturity *float64 `json:"average_maturity"`
	YieldToMaturity *float64 `json:"yield_to_maturity"`

	AssetAllocation  AssetAllocation    `json:"asset_allocation"`
	SectorAllocation []SectorAllocation `json:"sector_allocation"`
	EquityAUM        *float64           `json:"equity_aum"`
}

// TrimmedName returns the name component of the fund's identity.
func (s FundSummary) TrimmedName() string {
	return strings.TrimSpace(s.Name)
}

// Float returns a pointer to v. Convenience for building optional fields.
func Float(v float64) *float64 {
	return &v
}
