package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/macroquant/regime-analyzer/cmd/common"
	"github.com/macroquant/regime-analyzer/internal/config"
	apperrors "github.com/macroquant/regime-analyzer/internal/errors"
	"github.com/macroquant/regime-analyzer/internal/logger"
	"github.com/macroquant/regime-analyzer/internal/performance"
	"github.com/macroquant/regime-analyzer/internal/regime"
	"github.com/macroquant/regime-analyzer/internal/scenario"
	"github.com/macroquant/regime-analyzer/pkg/data"
	"github.com/macroquant/regime-analyzer/pkg/reporting"
	"github.com/macroquant/regime-analyzer/pkg/types"
)

const appName = "Regime Analyzer"

func main() {
	commonFlags := common.RegisterCommonFlags()
	var (
		startDate = flag.String("start", "", "Analysis start date (YYYY-MM-DD, overrides config)")
		endDate   = flag.String("end", "", "Analysis end date (YYYY-MM-DD, overrides config)")
		symbols   = flag.String("symbols", "", "Comma-separated symbol list (overrides config)")
		logDir    = flag.String("log-dir", "", "Directory for per-run log files (stderr only when empty)")
	)
	flag.Parse()

	formatter := common.NewUsageFormatter(appName,
		"Classify macro regimes, compute per-regime asset statistics, and replay historical rate shocks")
	formatter.AddExample("regime-analyzer -start 2000-01-03 -end 2024-12-31",
		"Full analysis over the default SPY/TLT/GLD universe")
	formatter.AddExample("regime-analyzer -config configs/regime.json -console-only",
		"Custom thresholds, console output only")

	if common.CheckHelpAndVersion(appName, commonFlags, formatter) {
		return
	}

	common.SetupPrinter(commonFlags)
	common.LoadEnvFile(*commonFlags.EnvFile)

	logLevel := "info"
	if *commonFlags.Verbose {
		logLevel = "debug"
	}
	if err := logger.Setup(logLevel, *logDir); err != nil {
		common.Error("Logger setup failed: %v", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(commonFlags, *startDate, *endDate, *symbols)
	if err != nil {
		common.Error("Configuration error: %v", err)
		os.Exit(1)
	}

	common.Header(appName)

	report, err := runPipeline(cfg)
	if err != nil {
		common.Error("Analysis failed: %v", err)
		os.Exit(1)
	}

	console := reporting.NewDefaultConsoleReporter()
	console.PrintConfig(cfg)
	console.PrintRegimeSummary(report)
	console.PrintPerformance(report)
	console.PrintScenario(report)
	console.PrintWarnings(report)

	if *commonFlags.ConsoleOnly {
		return
	}

	if err := writeReports(report, commonFlags, cfg); err != nil {
		common.Error("Failed to write reports: %v", err)
		os.Exit(1)
	}
}

// loadConfig builds the run configuration from defaults, the optional config
// file, environment overrides, and finally command-line overrides.
func loadConfig(commonFlags *common.CommonFlags, startDate, endDate, symbols string) (config.AnalysisConfig, error) {
	var cfg config.AnalysisConfig
	var err error

	if *commonFlags.ConfigFile != "" {
		cfg, err = config.LoadFromFile(*commonFlags.ConfigFile)
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = config.DefaultConfig()
		cfg.ApplyEnvOverrides()
	}

	if startDate != "" {
		cfg.StartDate = startDate
	}
	if endDate != "" {
		cfg.EndDate = endDate
	}
	if symbols != "" {
		cfg.Symbols = nil
		for _, s := range strings.Split(symbols, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				cfg.Symbols = append(cfg.Symbols, s)
			}
		}
	}
	if *commonFlags.DataDir != "" {
		cfg.DataDir = *commonFlags.DataDir
	}

	return cfg, cfg.Validate()
}

// runPipeline executes load, classify, performance, and scenario stages
func runPipeline(cfg config.AnalysisConfig) (*reporting.AnalysisReport, error) {
	report := &reporting.AnalysisReport{
		Config:      cfg,
		GeneratedAt: time.Now(),
	}

	common.Progress("Loading market data from %s", cfg.DataDir)
	ds, err := loadDataset(cfg)
	if err != nil {
		return nil, err
	}
	common.Success("Loaded %d trading days for %d symbols", ds.Len(), len(ds.Symbols))

	common.Progress("Classifying regimes")
	regimes, err := regime.NewClassifier(cfg).Classify(ds.Observations)
	if err != nil {
		return nil, err
	}
	report.Regimes = regimes
	report.RegimeSummary = regimes.Summary()
	report.Transitions = regimes.Transitions()
	if warmup := regimes.InsufficientHistoryDays(); warmup > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d warmup days lack a full quarterly lookback and defaulted to NORMAL", warmup))
	}

	common.Progress("Computing per-regime performance")
	analyzer := performance.NewAnalyzer(cfg)
	report.Performance = analyzer.RegimePerformance(ds, regimes)

	points, byRegime, err := analyzer.RollingCorrelation(ds, regimes)
	if err != nil {
		if !apperrors.IsCategory(err, apperrors.ErrorCategoryDataGap) {
			return nil, err
		}
		log.Warn().Err(err).Msg("rolling correlation skipped")
		report.Warnings = append(report.Warnings, "rolling correlation skipped: "+err.Error())
	} else {
		report.Correlation = points
		report.CorrelationByRegime = byRegime
	}

	common.Progress("Replaying historical rate shocks")
	shocks, err := scenario.NewAnalyzer(cfg).Run(ds)
	if err != nil {
		return nil, err
	}
	report.Scenario = shocks
	if shocks.DroppedEvents > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d shock events dropped for missing forward horizon data", shocks.DroppedEvents))
	}
	if shocks.SmallSample {
		report.Warnings = append(report.Warnings,
			"fewer than 2 usable shock events: percentile outcomes are statistically unreliable")
	}

	return report, nil
}

// loadDataset reads the macro table and per-symbol price CSVs, trims them to
// the configured window, and joins them on common trading days.
func loadDataset(cfg config.AnalysisConfig) (*types.Dataset, error) {
	provider := data.NewCSVProvider()
	filter := data.NewDefaultSeriesFilter()

	obs, err := provider.LoadObservations(filepath.Join(cfg.DataDir, "macro.csv"))
	if err != nil {
		return nil, err
	}
	obs = filter.FilterObservationsByDateRange(obs, cfg.Start(), cfg.End())
	if err := filter.ValidateObservationSequence(obs); err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorCategoryValidation, "data", "validate_macro")
	}

	prices := make(map[string][]types.AssetBar, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		bars, err := provider.LoadPrices(filepath.Join(cfg.DataDir, symbol+".csv"), symbol)
		if err != nil {
			return nil, err
		}
		prices[symbol] = filter.FilterBarsByDateRange(bars, cfg.Start(), cfg.End())
	}

	return data.BuildDataset(obs, prices, cfg.Symbols)
}

// writeReports writes the CSV, Excel, JSON, and markdown outputs
func writeReports(report *reporting.AnalysisReport, commonFlags *common.CommonFlags, cfg config.AnalysisConfig) error {
	paths := reporting.NewDefaultPathManager(*commonFlags.OutputDir)
	outputDir := *commonFlags.OutputDir
	if outputDir == "" {
		outputDir = paths.DefaultOutputDir(cfg.StartDate, cfg.EndDate)
	}
	if err := paths.EnsureDirectoryExists(outputDir); err != nil {
		return err
	}

	if err := reporting.NewDefaultCSVReporter().WriteCSVReports(report, outputDir); err != nil {
		return err
	}
	if err := reporting.NewDefaultExcelReporter().WriteWorkbook(report, filepath.Join(outputDir, "analysis.xlsx")); err != nil {
		return err
	}
	if err := reporting.NewDefaultJSONReporter().WriteSummaryJSON(report, filepath.Join(outputDir, "summary.json")); err != nil {
		return err
	}
	if err := reporting.NewDefaultNoteReporter().WriteTraderNote(report, filepath.Join(outputDir, "trader_note.md")); err != nil {
		return err
	}

	common.Success("Reports written to %s", outputDir)
	return nil
}
