package reporting

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/macroquant/regime-analyzer/internal/config"
	"github.com/macroquant/regime-analyzer/internal/scenario"
)

// maxConsoleTransitions caps the transitions table to the most recent entries
const maxConsoleTransitions = 15

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// PrintConfig prints the run configuration
func (r *DefaultConsoleReporter) PrintConfig(cfg config.AnalysisConfig) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("ANALYSIS CONFIGURATION")
	t.SetStyle(table.StyleRounded)

	weights := make([]string, 0, len(cfg.PortfolioWeights))
	for _, symbol := range cfg.Symbols {
		if w, ok := cfg.PortfolioWeights[symbol]; ok {
			weights = append(weights, fmt.Sprintf("%s %.0f%%", symbol, w*100))
		}
	}

	t.AppendRows([]table.Row{
		{"📅 Period", fmt.Sprintf("%s → %s", cfg.StartDate, cfg.EndDate)},
		{"📊 Symbols", strings.Join(cfg.Symbols, ", ")},
		{"📈 Rate Threshold", fmt.Sprintf("%.2fpp / %dd", cfg.RateChangeThreshold, cfg.QuarterLookbackDays)},
		{"😱 VIX Stress Level", fmt.Sprintf("%.1f (%dd avg)", cfg.VIXStressThreshold, cfg.VIXSmoothingWindow)},
		{"⚡ Shock Trigger", fmt.Sprintf("%.2fpp / %dd", cfg.ShockTriggerBps, cfg.ShockLookbackDays)},
		{"🔭 Shock Horizon", fmt.Sprintf("%d trading days", cfg.ForwardHorizonDays)},
		{"💼 Portfolio", strings.Join(weights, " / ")},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

// PrintRegimeSummary prints the regime distribution and transition count
func (r *DefaultConsoleReporter) PrintRegimeSummary(report *AnalysisReport) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("REGIME DISTRIBUTION")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Regime", "Days", "Share", "Spans", "Avg Span"})

	for _, row := range report.RegimeSummary {
		t.AppendRow(table.Row{
			row.Regime.String(),
			row.Days,
			fmt.Sprintf("%.1f%%", row.Percentage),
			row.Spans,
			fmt.Sprintf("%.1fd", row.AvgSpanDays),
		})
	}

	t.Render()
	fmt.Printf("🔀 Regime transitions: %d", len(report.Transitions))
	if n := report.Regimes.InsufficientHistoryDays(); n > 0 {
		fmt.Printf("   (⚠ %d warmup days defaulted to NORMAL)", n)
	}
	fmt.Println()

	if len(report.Transitions) > 0 {
		tr := table.NewWriter()
		tr.SetOutputMirror(os.Stdout)
		tr.SetTitle("RECENT TRANSITIONS")
		tr.SetStyle(table.StyleRounded)
		tr.AppendHeader(table.Row{"Date", "From", "To", "Fed Funds", "10Y", "VIX"})

		transitions := report.Transitions
		if len(transitions) > maxConsoleTransitions {
			transitions = transitions[len(transitions)-maxConsoleTransitions:]
		}
		for _, row := range transitions {
			tr.AppendRow(table.Row{
				row.Date.Format("2006-01-02"),
				row.From.String(),
				row.To.String(),
				fmt.Sprintf("%.2f", row.FedFunds),
				fmt.Sprintf("%.2f", row.Treasury10Y),
				fmt.Sprintf("%.1f", row.VIX),
			})
		}
		tr.Render()
	}
	fmt.Println()
}

// PrintPerformance prints the per-(symbol, regime) performance table and
// the per-regime correlation summary.
func (r *DefaultConsoleReporter) PrintPerformance(report *AnalysisReport) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("PERFORMANCE BY REGIME")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Regime", "Asset", "Ann Return", "Ann Vol", "Sharpe", "Max DD", "Win Rate", "Obs"})

	for _, m := range report.Performance {
		t.AppendRow(table.Row{
			m.Regime.String(),
			m.Symbol,
			fmt.Sprintf("%+.1f%%", m.AnnReturn*100),
			fmt.Sprintf("%.1f%%", m.AnnVol*100),
			fmt.Sprintf("%.2f", m.Sharpe),
			fmt.Sprintf("%.1f%%", m.MaxDrawdown*100),
			fmt.Sprintf("%.1f%%", m.WinRate),
			m.Observations,
		})
	}

	t.Render()

	if len(report.CorrelationByRegime) > 0 {
		pair := report.Config.CorrelationPair
		c := table.NewWriter()
		c.SetOutputMirror(os.Stdout)
		c.SetTitle(fmt.Sprintf("%s/%s ROLLING CORRELATION (%dd)", pair[0], pair[1], report.Config.RollingCorrWindow))
		c.SetStyle(table.StyleRounded)
		c.AppendHeader(table.Row{"Regime", "Mean", "Min", "Max", "Obs"})
		for _, row := range report.CorrelationByRegime {
			c.AppendRow(table.Row{
				row.Regime.String(),
				fmt.Sprintf("%.3f", row.Mean),
				fmt.Sprintf("%.3f", row.Min),
				fmt.Sprintf("%.3f", row.Max),
				row.Observations,
			})
		}
		c.Render()
	}
	fmt.Println()
}

// PrintScenario prints the rate-shock event list and percentile outcomes
func (r *DefaultConsoleReporter) PrintScenario(report *AnalysisReport) {
	sc := report.Scenario

	fmt.Printf("⚡ Rate shocks: %d detected, %d usable (%d dropped for missing horizon data)\n",
		len(sc.Events), len(sc.Outcomes), sc.DroppedEvents)
	for _, outcome := range sc.Outcomes {
		fmt.Printf("   %s  10Y %.2f%% → %.2f%%  (+%.2fpp trigger)\n",
			outcome.Event.Date.Format("2006-01-02"),
			outcome.Event.Yield, outcome.EndYield, outcome.Event.YieldChange)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("SHOCK OUTCOMES AT +%dd", report.Config.ForwardHorizonDays))
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Asset", "Tail (P10)", "Median", "Best (P90)", "Events"})

	for _, row := range sc.SymbolPercentiles {
		t.AppendRow(percentileTableRow(row))
	}
	if sc.Portfolio.Observations > 0 {
		t.AppendSeparator()
		t.AppendRow(percentileTableRow(sc.Portfolio))
	}

	t.Render()

	if sc.SmallSample {
		fmt.Println("⚠️  Fewer than 2 usable shock events: percentile outcomes are statistically unreliable")
	}
	fmt.Println()
}

// PrintWarnings prints accumulated non-fatal warnings
func (r *DefaultConsoleReporter) PrintWarnings(report *AnalysisReport) {
	for _, warning := range report.Warnings {
		fmt.Printf("⚠️  %s\n", warning)
	}
}

func percentileTableRow(row scenario.PercentileRow) table.Row {
	return table.Row{
		row.Symbol,
		fmt.Sprintf("%+.1f%%", row.P10*100),
		fmt.Sprintf("%+.1f%%", row.P50*100),
		fmt.Sprintf("%+.1f%%", row.P90*100),
		row.Observations,
	}
}
