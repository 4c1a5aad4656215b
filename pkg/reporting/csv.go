package reporting

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

const csvDateFormat = "2006-01-02"

// WriteCSVReports writes every flat tabular export into dir
func (r *DefaultCSVReporter) WriteCSVReports(report *AnalysisReport, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	writers := []struct {
		name  string
		write func(*AnalysisReport, string) error
	}{
		{"regimes.csv", r.writeRegimes},
		{"spans.csv", r.writeSpans},
		{"performance.csv", r.writePerformance},
		{"rolling_correlation.csv", r.writeCorrelation},
		{"shock_events.csv", r.writeShockEvents},
		{"forward_returns.csv", r.writeForwardReturns},
		{"percentiles.csv", r.writePercentiles},
	}

	for _, w := range writers {
		if err := w.write(report, filepath.Join(dir, w.name)); err != nil {
			return fmt.Errorf("writing %s: %w", w.name, err)
		}
	}
	return nil
}

func (r *DefaultCSVReporter) writeRegimes(report *AnalysisReport, path string) error {
	return writeCSV(path,
		[]string{"date", "regime", "fed_funds_change", "treasury_change", "vix_avg", "insufficient_history"},
		func(w *csv.Writer) error {
			for _, label := range report.Regimes.Labels {
				row := []string{
					label.Date.Format(csvDateFormat),
					label.Regime.String(),
					formatFloat(label.FedFundsChange, 4),
					formatFloat(label.TreasuryChange, 4),
					formatFloat(label.VIXAvg, 4),
					strconv.FormatBool(label.InsufficientHistory),
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
			return nil
		})
}

func (r *DefaultCSVReporter) writeSpans(report *AnalysisReport, path string) error {
	return writeCSV(path,
		[]string{"start", "end", "regime", "duration_days"},
		func(w *csv.Writer) error {
			for _, span := range report.Regimes.Spans {
				row := []string{
					span.Start.Format(csvDateFormat),
					span.End.Format(csvDateFormat),
					span.Regime.String(),
					strconv.Itoa(span.Days),
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
			return nil
		})
}

func (r *DefaultCSVReporter) writePerformance(report *AnalysisReport, path string) error {
	return writeCSV(path,
		[]string{"regime", "symbol", "ann_return_pct", "ann_vol_pct", "sharpe", "max_dd_pct", "win_rate_pct", "observations"},
		func(w *csv.Writer) error {
			for _, m := range report.Performance {
				row := []string{
					m.Regime.String(),
					m.Symbol,
					formatFloat(m.AnnReturn*100, 2),
					formatFloat(m.AnnVol*100, 2),
					formatFloat(m.Sharpe, 2),
					formatFloat(m.MaxDrawdown*100, 2),
					formatFloat(m.WinRate, 1),
					strconv.Itoa(m.Observations),
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
			return nil
		})
}

func (r *DefaultCSVReporter) writeCorrelation(report *AnalysisReport, path string) error {
	pair := report.Config.CorrelationPair
	header := []string{"date", fmt.Sprintf("%s_%s_corr", pair[0], pair[1])}
	return writeCSV(path, header, func(w *csv.Writer) error {
		for _, point := range report.Correlation {
			row := []string{point.Date.Format(csvDateFormat), formatFloat(point.Value, 4)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *DefaultCSVReporter) writeShockEvents(report *AnalysisReport, path string) error {
	return writeCSV(path,
		[]string{"event_date", "yield_change_pp", "yield_at_event"},
		func(w *csv.Writer) error {
			for _, event := range report.Scenario.Events {
				row := []string{
					event.Date.Format(csvDateFormat),
					formatFloat(event.YieldChange, 4),
					formatFloat(event.Yield, 4),
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
			return nil
		})
}

func (r *DefaultCSVReporter) writeForwardReturns(report *AnalysisReport, path string) error {
	return writeCSV(path,
		[]string{"event_date", "horizon_day", "symbol", "cum_return"},
		func(w *csv.Writer) error {
			for _, sample := range report.Scenario.Samples {
				row := []string{
					sample.EventDate.Format(csvDateFormat),
					strconv.Itoa(sample.HorizonDay),
					sample.Symbol,
					formatFloat(sample.CumReturn, 6),
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
			return nil
		})
}

func (r *DefaultCSVReporter) writePercentiles(report *AnalysisReport, path string) error {
	return writeCSV(path,
		[]string{"symbol", "p10", "p50", "p90", "events"},
		func(w *csv.Writer) error {
			for _, row := range report.Scenario.SymbolPercentiles {
				record := []string{
					row.Symbol,
					formatFloat(row.P10, 6),
					formatFloat(row.P50, 6),
					formatFloat(row.P90, 6),
					strconv.Itoa(row.Observations),
				}
				if err := w.Write(record); err != nil {
					return err
				}
			}
			if report.Scenario.Portfolio.Observations > 0 {
				p := report.Scenario.Portfolio
				record := []string{
					p.Symbol,
					formatFloat(p.P10, 6),
					formatFloat(p.P50, 6),
					formatFloat(p.P90, 6),
					strconv.Itoa(p.Observations),
				}
				if err := w.Write(record); err != nil {
					return err
				}
			}
			return nil
		})
}

// writeCSV opens the file, writes the header, and delegates the body
func writeCSV(path string, header []string, body func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(header); err != nil {
		return err
	}
	return body(w)
}

// formatFloat renders a value with fixed precision; NaN becomes empty so
// spreadsheet tools treat it as missing rather than a string.
func formatFloat(v float64, precision int) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}
