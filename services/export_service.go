package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"mutualfund-backend/models"
	"mutualfund-backend/shared"
)

// ExportService writes the cleaned dataset as a four-sheet Excel workbook.
// Unlike scraping steps, export failures are fatal: a partial workbook is
// worse than none because the dashboard would silently show stale sheets.
type ExportService struct {
	logger *logrus.Entry
}

// NewExportService creates an export service.
func NewExportService() *ExportService {
	return &ExportService{
		logger: logrus.WithField("component", "ExportService"),
	}
}

// Export writes the workbook to filePath, overwriting any previous run.
func (s *ExportService) Export(dataset *models.CleanedDataset, filePath string) error {
	start := time.Now()

	workbook := excelize.NewFile()
	defer workbook.Close()

	// The default sheet becomes Fund_Data so the workbook carries exactly
	// the four named sheets.
	if err := workbook.SetSheetName("Sheet1", models.SheetFundData); err != nil {
		return s.exportError("SetSheetName", err)
	}
	for _, sheet := range []string{models.SheetHistoricalNAV, models.SheetTopHoldings, models.SheetSectorAllocation} {
		if _, err := workbook.NewSheet(sheet); err != nil {
			return s.exportError("NewSheet", err)
		}
	}

	if err := s.writeFundData(workbook, dataset.Funds); err != nil {
		return err
	}
	if err := s.writeNavHistory(workbook, dataset.NAVHistory); err != nil {
		return err
	}
	if err := s.writeHoldings(workbook, dataset.Holdings); err != nil {
		return err
	}
	if err := s.writeSectors(workbook, dataset.Sectors); err != nil {
		return err
	}

	if err := workbook.SaveAs(filePath); err != nil {
		return s.exportError("SaveAs", err)
	}

	s.logger.WithFields(logrus.Fields{
		"file":     filePath,
		"funds":    len(dataset.Funds),
		"duration": time.Since(start).String(),
	}).Info("Workbook exported")

	return nil
}

func (s *ExportService) writeFundData(workbook *excelize.File, funds []models.FundRow) error {
	if err := s.writeHeader(workbook, models.SheetFundData, models.FundDataColumns); err != nil {
		return err
	}

	for i, fund := range funds {
		cells := []any{
			fund.Name,
			optionalCell(fund.AUM),
			optionalCell(fund.NAV),
			optionalCell(fund.ExitLoad),
			optionalCell(fund.Rating),
			optionalCell(fund.MinimumInvestment),
			optionalCell(fund.MinimumSIPInvestment),
			optionalCell(fund.PE),
			optionalCell(fund.PB),
			optionalCell(fund.DebtPer),
			optionalCell(fund.EquityPer),
			optionalCell(fund.AverageMaturity),
			optionalCell(fund.YieldToMaturity),
			fund.Risk,
			fund.Type,
			optionalCell(fund.OneYearReturn),
			optionalCell(fund.ThreeYearReturn),
			optionalCell(fund.FiveYearReturn),
			fund.Link,
			optionalCell(fund.EquityAUM),
			optionalCell(fund.AssetEquity),
			optionalCell(fund.AssetDebt),
			optionalCell(fund.AssetCash),
			fund.HistoricalNAVSummary,
			fund.TopHoldingsSummary,
			fund.AssetAllocationSummary,
			fund.SectorAllocationSummary,
		}
		if err := s.writeRow(workbook, models.SheetFundData, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExportService) writeNavHistory(workbook *excelize.File, records []models.NavRecord) error {
	if err := s.writeHeader(workbook, models.SheetHistoricalNAV, models.NavTableColumns); err != nil {
		return err
	}
	for i, record := range records {
		cells := []any{record.FundName, record.Date.Format("2006-01-02"), record.NAV}
		if err := s.writeRow(workbook, models.SheetHistoricalNAV, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExportService) writeHoldings(workbook *excelize.File, records []models.HoldingRecord) error {
	if err := s.writeHeader(workbook, models.SheetTopHoldings, models.HoldingsTableColumns); err != nil {
		return err
	}
	for i, record := range records {
		cells := []any{record.FundName, record.Company, record.Percentage}
		if err := s.writeRow(workbook, models.SheetTopHoldings, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExportService) writeSectors(workbook *excelize.File, records []models.SectorRecord) error {
	if err := s.writeHeader(workbook, models.SheetSectorAllocation, models.SectorTableColumns); err != nil {
		return err
	}
	for i, record := range records {
		cells := []any{record.FundName, record.Sector, record.Percentage}
		if err := s.writeRow(workbook, models.SheetSectorAllocation, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExportService) writeHeader(workbook *excelize.File, sheet string, columns []string) error {
	cells := make([]any, len(columns))
	for i, column := range columns {
		cells[i] = column
	}
	return s.writeRow(workbook, sheet, 1, cells)
}

func (s *ExportService) writeRow(workbook *excelize.File, sheet string, rowNumber int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return s.exportError("CoordinatesToCellName", err)
	}
	if err := workbook.SetSheetRow(sheet, cell, &cells); err != nil {
		return s.exportError("SetSheetRow", err)
	}
	return nil
}

func (s *ExportService) exportError(operation string, err error) error {
	serviceError := shared.WrapError(err, shared.ErrorCategoryExport, "EXPORT_FAILED", "ExportService", operation, false)
	serviceError.LogError()
	return serviceError
}

// optionalCell renders an optional numeric for a cell; absent values get
// the NotAvailable sentinel.
func optionalCell(value *float64) any {
	if value == nil {
		return models.NotAvailable
	}
	return *value
}
