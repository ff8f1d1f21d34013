package models

import "time"

// NotAvailable is the sentinel written into exported cells for fields the
// source did not provide. The downstream dashboard binds to this exact
// string, so it must never change.
const NotAvailable = "N/A"

// Sheet names of the exported workbook. The dashboard binds to these by
// exact name.
const (
	SheetFundData         = "Fund_Data"
	SheetHistoricalNAV    = "Historical_NAV"
	SheetTopHoldings      = "Top_Holdings"
	SheetSectorAllocation = "Sector_Allocation"
)

// FundDataColumns is the column order of the Fund_Data sheet.
var FundDataColumns = []string{
	"name", "aum", "nav", "exit_load", "rating",
	"minimum_investment", "minimum_sip_investment",
	"pe", "pb", "debt_per", "equity_per",
	"average_maturity", "yield_to_maturity",
	"risk", "type",
	"one_year_return", "three_year_return", "five_year_return",
	"link", "equity_aum",
	"asset_equity", "asset_debt", "asset_cash",
	"historical_nav_summary", "top_holdings_summary",
	"asset_allocation_summary", "sector_allocation_summary",
}

// NavTableColumns is the column order of the Historical_NAV sheet.
var NavTableColumns = []string{"fund_name", "date", "nav"}

// HoldingsTableColumns is the column order of the Top_Holdings sheet.
var HoldingsTableColumns = []string{"fund_name", "company", "percentage"}

// SectorTableColumns is the column order of the Sector_Allocation sheet.
var SectorTableColumns = []string{"fund_name", "sector", "percentage"}

// FundRow is one row of the flat Fund_Data sheet after normalization.
// Optional numerics stay nil in memory; the NotAvailable sentinel only
// appears when a row is rendered into cells.
type FundRow struct {
	Name                 string   `json:"name"`
	AUM                  *float64 `json:"aum"`
	NAV                  *float64 `json:"nav"`
	ExitLoad             *float64 `json:"exit_load"`
	Rating               *float64 `json:"rating"`
	MinimumInvestment    *float64 `json:"minimum_investment"`
	MinimumSIPInvestment *float64 `json:"minimum_sip_investment"`
	PE                   *float64 `json:"pe"`
	PB                   *float64 `json:"pb"`
	DebtPer              *float64 `json:"debt_per"`
	EquityPer            *float64 `json:"equity_per"`
	AverageMaturity      *float64 `json:"average_maturity"`
	YieldToMaturity      *float64 `json:"yield_to_maturity"`
	Risk                 string   `json:"risk"`
	Type                 string   `json:"type"`
	OneYearReturn        *float64 `json:"one_year_return"`
	ThreeYearReturn      *float64 `json:"three_year_return"`
	FiveYearReturn       *float64 `json:"five_year_return"`
	Link                 string   `json:"link"`
	EquityAUM            *float64 `json:"equity_aum"`
	AssetEquity          *float64 `json:"asset_equity"`
	AssetDebt            *float64 `json:"asset_debt"`
	AssetCash            *float64 `json:"asset_cash"`

	HistoricalNAVSummary    string `json:"historical_nav_summary"`
	TopHoldingsSummary      string `json:"top_holdings_summary"`
	AssetAllocationSummary  string `json:"asset_allocation_summary"`
	SectorAllocationSummary string `json:"sector_allocation_summary"`
}

// NavRecord is one row of the Historical_NAV sheet.
type NavRecord struct {
	FundName string    `json:"fund_name"`
	Date     time.Time `json:"date"`
	NAV      float64   `json:"nav"`
}

// HoldingRecord is one row of the Top_Holdings sheet.
type HoldingRecord struct {
	FundName   string  `json:"fund_name"`
	Company    string  `json:"company"`
	Percentage float64 `json:"percentage"`
}

// SectorRecord is one row of the Sector_Allocation sheet.
type SectorRecord struct {
	FundName   string  `json:"fund_name"`
	Sector     string  `json:"sector"`
	Percentage float64 `json:"percentage"`
}

// ValidationWarning is an advisory finding from the validation pass.
// Warnings are logged and collected but never change the underlying data.
type ValidationWarning struct {
	FundName string `json:"fund_name"`
	Field    string `json:"field"`
	Observed string `json:"observed"`
	Message  string `json:"message"`
}

// CleanedDataset is the complete normalized output: the flat fund table,
// the three expanded tables and the validation findings from producing them.
type CleanedDataset struct {
	Funds      []FundRow           `json:"funds"`
	NAVHistory []NavRecord         `json:"nav_history"`
	Holdings   []HoldingRecord     `json:"holdings"`
	Sectors    []SectorRecord      `json:"sectors"`
	Warnings   []ValidationWarning `json:"warnings"`
}
