package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/macroquant/regime-analyzer/cmd/common"
	"github.com/macroquant/regime-analyzer/internal/config"
	apperrors "github.com/macroquant/regime-analyzer/internal/errors"
	"github.com/macroquant/regime-analyzer/internal/logger"
	"github.com/macroquant/regime-analyzer/internal/regime"
	"github.com/macroquant/regime-analyzer/pkg/data"
	"github.com/macroquant/regime-analyzer/pkg/types"
)

const appName = "Threshold Sensitivity"

// gridResult holds the classification outcome for one threshold combination
type gridResult struct {
	rateThreshold float64
	vixThreshold  float64
	days          map[regime.Regime]int
	transitions   int
	total         int
}

func main() {
	commonFlags := common.RegisterCommonFlags()
	var (
		startDate = flag.String("start", "", "Analysis start date (YYYY-MM-DD, overrides config)")
		endDate   = flag.String("end", "", "Analysis end date (YYYY-MM-DD, overrides config)")
	)
	flag.Parse()

	formatter := common.NewUsageFormatter(appName,
		"Reclassify the regime timeline across a grid of rate and VIX thresholds to show labeling stability")
	formatter.AddExample("sensitivity -start 2000-01-03 -end 2024-12-31",
		"Default 3x3 threshold grid")
	formatter.AddExample("sensitivity -config configs/regime.json",
		"Grid from the config file's sensitivity lists")

	if common.CheckHelpAndVersion(appName, commonFlags, formatter) {
		return
	}

	common.SetupPrinter(commonFlags)
	common.LoadEnvFile(*commonFlags.EnvFile)

	logLevel := "info"
	if *commonFlags.Verbose {
		logLevel = "debug"
	}
	if err := logger.Setup(logLevel, ""); err != nil {
		common.Error("Logger setup failed: %v", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(commonFlags, *startDate, *endDate)
	if err != nil {
		common.Error("Configuration error: %v", err)
		os.Exit(1)
	}
	if len(cfg.SensitivityRateThresholds) == 0 || len(cfg.SensitivityVIXThresholds) == 0 {
		common.Error("Sensitivity threshold lists must not be empty")
		os.Exit(1)
	}

	common.Header(appName)

	ds, err := loadDataset(cfg)
	if err != nil {
		common.Error("Failed to load data: %v", err)
		os.Exit(1)
	}
	common.Success("Loaded %d trading days", ds.Len())

	results, err := runGrid(cfg, ds)
	if err != nil {
		common.Error("Sensitivity analysis failed: %v", err)
		os.Exit(1)
	}

	printGrid(cfg, results)
}

func loadConfig(commonFlags *common.CommonFlags, startDate, endDate string) (config.AnalysisConfig, error) {
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
	if *commonFlags.DataDir != "" {
		cfg.DataDir = *commonFlags.DataDir
	}

	return cfg, cfg.Validate()
}

func loadDataset(cfg config.AnalysisConfig) (*types.Dataset, error) {
	provider := data.NewCSVProvider()
	priceProvider := data.NewCachedPriceProvider(provider)
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
		bars, err := priceProvider.LoadPrices(filepath.Join(cfg.DataDir, symbol+".csv"), symbol)
		if err != nil {
			return nil, err
		}
		prices[symbol] = filter.FilterBarsByDateRange(bars, cfg.Start(), cfg.End())
	}

	return data.BuildDataset(obs, prices, cfg.Symbols)
}

// runGrid reclassifies the full timeline once per threshold combination
func runGrid(cfg config.AnalysisConfig, ds *types.Dataset) ([]gridResult, error) {
	rates := append([]float64(nil), cfg.SensitivityRateThresholds...)
	vixes := append([]float64(nil), cfg.SensitivityVIXThresholds...)
	sort.Float64s(rates)
	sort.Float64s(vixes)

	var results []gridResult
	for _, rate := range rates {
		for _, vix := range vixes {
			gridCfg := cfg
			gridCfg.RateChangeThreshold = rate
			gridCfg.VIXStressThreshold = vix

			res, err := regime.NewClassifier(gridCfg).Classify(ds.Observations)
			if err != nil {
				return nil, err
			}

			entry := gridResult{
				rateThreshold: rate,
				vixThreshold:  vix,
				days:          make(map[regime.Regime]int),
				transitions:   len(res.Transitions()),
				total:         len(res.Labels),
			}
			for _, label := range res.Labels {
				entry.days[label.Regime]++
			}
			results = append(results, entry)
		}
	}
	return results, nil
}

// printGrid renders the share of days per regime for every combination
func printGrid(cfg config.AnalysisConfig, results []gridResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("THRESHOLD SENSITIVITY %s → %s", cfg.StartDate, cfg.EndDate))
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Rate (pp)", "VIX", "Tightening", "Easing", "Stress", "Normal", "Transitions"})

	for _, r := range results {
		t.AppendRow(table.Row{
			fmt.Sprintf("%.2f", r.rateThreshold),
			fmt.Sprintf("%.0f", r.vixThreshold),
			share(r, regime.RegimeTightening),
			share(r, regime.RegimeEasing),
			share(r, regime.RegimeStress),
			share(r, regime.RegimeNormal),
			r.transitions,
		})
	}

	t.Render()
	fmt.Println("📌 Stable shares across neighboring cells mean the labeling is robust to threshold choice")
}

func share(r gridResult, reg regime.Regime) string {
	if r.total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(r.days[reg])/float64(r.total)*100)
}
