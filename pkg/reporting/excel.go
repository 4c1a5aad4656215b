package reporting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteWorkbook writes the full analysis into one styled workbook
func (r *DefaultExcelReporter) WriteWorkbook(report *AnalysisReport, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const regimesSheet = "Regimes"
	const performanceSheet = "Performance"
	const scenarioSheet = "Scenario"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(regimesSheet)
	fx.NewSheet(performanceSheet)
	fx.NewSheet(scenarioSheet)

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, report, styles); err != nil {
		return err
	}
	if err := r.writeRegimesSheet(fx, regimesSheet, report, styles); err != nil {
		return err
	}
	if err := r.writePerformanceSheet(fx, performanceSheet, report, styles); err != nil {
		return err
	}
	if err := r.writeScenarioSheet(fx, scenarioSheet, report, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

// createExcelStyles creates the shared cell styles
func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10, // 0.00%
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.NumberStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    2, // 0.00
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.DateStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    14, // m/d/yyyy
		Alignment: &excelize.Alignment{Horizontal: "left"},
	})
	if err != nil {
		return styles, err
	}

	styles.RedPercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Font:      &excelize.Font{Color: "FF0000"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.GreenPercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Font:      &excelize.Font{Color: "008000"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.SummaryStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"F0F0F0"}, Pattern: 1},
	})
	return styles, err
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, report *AnalysisReport, styles ExcelStyles) error {
	rows := [][]interface{}{
		{"Macro Regime Analysis"},
		{},
		{"Period", fmt.Sprintf("%s to %s", report.Config.StartDate, report.Config.EndDate)},
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Trading days", len(report.Regimes.Labels)},
		{"Regime transitions", len(report.Transitions)},
		{"Shock events (usable)", fmt.Sprintf("%d (%d)", len(report.Scenario.Events), len(report.Scenario.Outcomes))},
		{},
		{"Regime", "Days", "Share", "Spans", "Avg Span Days"},
	}

	for i, row := range rows {
		if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	fx.SetCellStyle(sheet, "A1", "A1", styles.SummaryStyle)
	fx.SetCellStyle(sheet, "A9", "E9", styles.HeaderStyle)

	rowNum := 10
	for _, summary := range report.RegimeSummary {
		row := []interface{}{
			summary.Regime.String(),
			summary.Days,
			summary.Percentage / 100,
			summary.Spans,
			summary.AvgSpanDays,
		}
		if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum), &row); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, fmt.Sprintf("C%d", rowNum), fmt.Sprintf("C%d", rowNum), styles.PercentStyle)
		rowNum++
	}

	if report.Scenario.SmallSample {
		warning := []interface{}{"WARNING: fewer than 2 usable shock events; percentile outcomes unreliable"}
		if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum+1), &warning); err != nil {
			return err
		}
	}

	fx.SetColWidth(sheet, "A", "A", 24)
	fx.SetColWidth(sheet, "B", "E", 14)
	return nil
}

func (r *DefaultExcelReporter) writeRegimesSheet(fx *excelize.File, sheet string, report *AnalysisReport, styles ExcelStyles) error {
	header := []interface{}{"Date", "Regime", "Fed Funds Chg (pp)", "10Y Chg (pp)", "VIX Avg", "Warmup"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	fx.SetCellStyle(sheet, "A1", "F1", styles.HeaderStyle)

	for i, label := range report.Regimes.Labels {
		row := []interface{}{
			label.Date,
			label.Regime.String(),
			excelFloat(label.FedFundsChange),
			excelFloat(label.TreasuryChange),
			label.VIXAvg,
			label.InsufficientHistory,
		}
		if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, fmt.Sprintf("A%d", i+2), fmt.Sprintf("A%d", i+2), styles.DateStyle)
	}

	fx.SetColWidth(sheet, "A", "A", 12)
	fx.SetColWidth(sheet, "B", "F", 16)
	return nil
}

func (r *DefaultExcelReporter) writePerformanceSheet(fx *excelize.File, sheet string, report *AnalysisReport, styles ExcelStyles) error {
	header := []interface{}{"Regime", "Asset", "Ann Return", "Ann Vol", "Sharpe", "Max Drawdown", "Win Rate", "Observations"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	fx.SetCellStyle(sheet, "A1", "H1", styles.HeaderStyle)

	for i, m := range report.Performance {
		rowNum := i + 2
		row := []interface{}{
			m.Regime.String(),
			m.Symbol,
			m.AnnReturn,
			m.AnnVol,
			m.Sharpe,
			m.MaxDrawdown,
			m.WinRate / 100,
			m.Observations,
		}
		if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum), &row); err != nil {
			return err
		}

		returnStyle := styles.GreenPercentStyle
		if m.AnnReturn < 0 {
			returnStyle = styles.RedPercentStyle
		}
		fx.SetCellStyle(sheet, fmt.Sprintf("C%d", rowNum), fmt.Sprintf("C%d", rowNum), returnStyle)
		fx.SetCellStyle(sheet, fmt.Sprintf("D%d", rowNum), fmt.Sprintf("D%d", rowNum), styles.PercentStyle)
		fx.SetCellStyle(sheet, fmt.Sprintf("E%d", rowNum), fmt.Sprintf("E%d", rowNum), styles.NumberStyle)
		fx.SetCellStyle(sheet, fmt.Sprintf("F%d", rowNum), fmt.Sprintf("F%d", rowNum), styles.RedPercentStyle)
		fx.SetCellStyle(sheet, fmt.Sprintf("G%d", rowNum), fmt.Sprintf("G%d", rowNum), styles.PercentStyle)
	}

	fx.SetColWidth(sheet, "A", "H", 14)
	return nil
}

func (r *DefaultExcelReporter) writeScenarioSheet(fx *excelize.File, sheet string, report *AnalysisReport, styles ExcelStyles) error {
	header := []interface{}{"Event Date", "Yield Change (pp)", "10Y at Event", "10Y at Horizon", "Portfolio Return"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	fx.SetCellStyle(sheet, "A1", "E1", styles.HeaderStyle)

	rowNum := 2
	for _, outcome := range report.Scenario.Outcomes {
		row := []interface{}{
			outcome.Event.Date,
			outcome.Event.YieldChange,
			outcome.Event.Yield,
			outcome.EndYield,
			outcome.PortfolioReturn,
		}
		if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum), &row); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("A%d", rowNum), styles.DateStyle)
		fx.SetCellStyle(sheet, fmt.Sprintf("E%d", rowNum), fmt.Sprintf("E%d", rowNum), styles.PercentStyle)
		rowNum++
	}

	rowNum += 2
	percentileHeader := []interface{}{"Asset", "Tail (P10)", "Median", "Best (P90)", "Events"}
	if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum), &percentileHeader); err != nil {
		return err
	}
	fx.SetCellStyle(sheet, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("E%d", rowNum), styles.HeaderStyle)
	rowNum++

	for _, p := range report.Scenario.SymbolPercentiles {
		row := []interface{}{p.Symbol, p.P10, p.P50, p.P90, p.Observations}
		if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum), &row); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, fmt.Sprintf("B%d", rowNum), fmt.Sprintf("D%d", rowNum), styles.PercentStyle)
		rowNum++
	}
	if p := report.Scenario.Portfolio; p.Observations > 0 {
		row := []interface{}{p.Symbol, p.P10, p.P50, p.P90, p.Observations}
		if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum), &row); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("E%d", rowNum), styles.SummaryStyle)
		fx.SetCellStyle(sheet, fmt.Sprintf("B%d", rowNum), fmt.Sprintf("D%d", rowNum), styles.PercentStyle)
	}

	fx.SetColWidth(sheet, "A", "E", 16)
	return nil
}

// excelFloat maps NaN to an empty cell
func excelFloat(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
