package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/macroquant/regime-analyzer/internal/performance"
)

// DefaultNoteReporter renders the short markdown briefing for desk use
type DefaultNoteReporter struct{}

// NewDefaultNoteReporter creates a new note reporter
func NewDefaultNoteReporter() *DefaultNoteReporter {
	return &DefaultNoteReporter{}
}

// WriteTraderNote writes a one-page markdown summary of the run
func (r *DefaultNoteReporter) WriteTraderNote(report *AnalysisReport, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	var b strings.Builder

	b.WriteString("# Macro Regime Briefing\n\n")
	fmt.Fprintf(&b, "**Period:** %s to %s  \n", report.Config.StartDate, report.Config.EndDate)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04 MST"))

	labels := report.Regimes.Labels
	if len(labels) > 0 {
		last := labels[len(labels)-1]
		fmt.Fprintf(&b, "## Current Regime: %s\n\n", last.Regime)
		fmt.Fprintf(&b, "As of %s the rule set classifies the market as **%s**",
			last.Date.Format("2006-01-02"), last.Regime)
		if span := lastSpan(report); span != "" {
			b.WriteString(span)
		}
		b.WriteString(".\n\n")
	}

	b.WriteString("## Regime Mix\n\n")
	b.WriteString("| Regime | Days | Share | Avg Span |\n")
	b.WriteString("|--------|------|-------|----------|\n")
	for _, row := range report.RegimeSummary {
		fmt.Fprintf(&b, "| %s | %d | %.1f%% | %.1fd |\n",
			row.Regime, row.Days, row.Percentage, row.AvgSpanDays)
	}
	fmt.Fprintf(&b, "\n%d regime transitions over the window.\n\n", len(report.Transitions))

	if best, worst, ok := performanceExtremes(report); ok {
		b.WriteString("## Performance Highlights\n\n")
		fmt.Fprintf(&b, "- Best cell: **%s in %s** at %+.1f%% annualized (Sharpe %.2f, %d obs)\n",
			best.Symbol, best.Regime, best.AnnReturn*100, best.Sharpe, best.Observations)
		fmt.Fprintf(&b, "- Worst cell: **%s in %s** at %+.1f%% annualized (max drawdown %.1f%%)\n\n",
			worst.Symbol, worst.Regime, worst.AnnReturn*100, worst.MaxDrawdown*100)
	}

	sc := report.Scenario
	b.WriteString("## Rate Shock Playbook\n\n")
	fmt.Fprintf(&b, "History shows %d episodes where the 10Y rose more than %.2fpp in %d trading days (%d usable for forward measurement).\n\n",
		len(sc.Events), report.Config.ShockTriggerBps, report.Config.ShockLookbackDays, len(sc.Outcomes))

	if len(sc.SymbolPercentiles) > 0 {
		fmt.Fprintf(&b, "Outcomes %d trading days after the shock:\n\n", report.Config.ForwardHorizonDays)
		b.WriteString("| Asset | Tail (P10) | Median | Best (P90) |\n")
		b.WriteString("|-------|-----------|--------|------------|\n")
		for _, row := range sc.SymbolPercentiles {
			fmt.Fprintf(&b, "| %s | %+.1f%% | %+.1f%% | %+.1f%% |\n",
				row.Symbol, row.P10*100, row.P50*100, row.P90*100)
		}
		if sc.Portfolio.Observations > 0 {
			p := sc.Portfolio
			fmt.Fprintf(&b, "| **%s** | %+.1f%% | %+.1f%% | %+.1f%% |\n",
				p.Symbol, p.P10*100, p.P50*100, p.P90*100)
		}
		b.WriteString("\n")
	}

	if sc.SmallSample {
		b.WriteString("> ⚠️ Fewer than 2 usable shock events in this window. Treat the percentile outcomes as anecdote, not distribution.\n\n")
	}

	if len(report.Warnings) > 0 {
		b.WriteString("## Data Warnings\n\n")
		for _, warning := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
		b.WriteString("\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0644)
}

// lastSpan describes how long the current regime has been running
func lastSpan(report *AnalysisReport) string {
	spans := report.Regimes.Spans
	if len(spans) == 0 {
		return ""
	}
	s := spans[len(spans)-1]
	return fmt.Sprintf(", running %d trading days since %s", s.Days, s.Start.Format("2006-01-02"))
}

// performanceExtremes finds the best and worst annualized-return cells
func performanceExtremes(report *AnalysisReport) (best, worst performance.Metrics, ok bool) {
	if len(report.Performance) == 0 {
		return best, worst, false
	}

	bi, wi := 0, 0
	for i, m := range report.Performance {
		if m.AnnReturn > report.Performance[bi].AnnReturn {
			bi = i
		}
		if m.AnnReturn < report.Performance[wi].AnnReturn {
			wi = i
		}
	}
	return report.Performance[bi], report.Performance[wi], true
}
