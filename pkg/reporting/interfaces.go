package reporting

import (
	"time"

	"github.com/macroquant/regime-analyzer/internal/config"
	"github.com/macroquant/regime-analyzer/internal/performance"
	"github.com/macroquant/regime-analyzer/internal/regime"
	"github.com/macroquant/regime-analyzer/internal/scenario"
)

// Package reporting provides output generation for analysis results

// AnalysisReport bundles everything one pipeline run produced
type AnalysisReport struct {
	Config              config.AnalysisConfig           `json:"config"`
	GeneratedAt         time.Time                       `json:"generated_at"`
	Regimes             *regime.Result                  `json:"-"`
	RegimeSummary       []regime.SummaryRow             `json:"regime_summary"`
	Transitions         []regime.Transition             `json:"transitions"`
	Performance         []performance.Metrics           `json:"performance"`
	Correlation         []performance.CorrelationPoint  `json:"-"`
	CorrelationByRegime []performance.RegimeCorrelation `json:"correlation_by_regime"`
	Scenario            *scenario.Result                `json:"scenario"`
	Warnings            []string                        `json:"warnings"`
}

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	PrintConfig(cfg config.AnalysisConfig)
	PrintRegimeSummary(report *AnalysisReport)
	PrintPerformance(report *AnalysisReport)
	PrintScenario(report *AnalysisReport)
	PrintWarnings(report *AnalysisReport)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteCSVReports(report *AnalysisReport, dir string) error
	WriteWorkbook(report *AnalysisReport, path string) error
	WriteSummaryJSON(report *AnalysisReport, path string) error
	WriteTraderNote(report *AnalysisReport, path string) error
}

// PathManager defines interface for output path management
type PathManager interface {
	DefaultOutputDir(start, end string) string
	EnsureDirectoryExists(path string) error
}

// Reporter combines all reporting interfaces
type Reporter interface {
	ConsoleReporter
	FileReporter
	PathManager
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle       int
	PercentStyle      int
	NumberStyle       int
	DateStyle         int
	RedPercentStyle   int
	GreenPercentStyle int
	SummaryStyle      int
}
