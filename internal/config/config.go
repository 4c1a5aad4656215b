package config

import (
	"encoding/json"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/macroquant/regime-analyzer/internal/errors"
)

// DateFormat is the layout used for all date configuration values.
const DateFormat = "2006-01-02"

// AnalysisConfig holds every tunable of the analysis pipeline. Instances are
// treated as immutable once validated; components receive the struct by value.
//
// Unit conventions: rate thresholds are in percentage points (0.20 = 20bps),
// window and lookback fields are in trading days unless noted otherwise.
type AnalysisConfig struct {
	// Data parameters
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Symbols   []string `json:"symbols"`
	DataDir   string   `json:"data_dir"`

	// Regime thresholds
	RateChangeThreshold float64 `json:"rate_change_threshold"` // pp over the quarterly lookback
	VIXStressThreshold  float64 `json:"vix_stress_threshold"`  // VIX level
	QuarterLookbackDays int     `json:"quarter_lookback_days"` // trading days (~3 months)
	VIXSmoothingWindow  int     `json:"vix_smoothing_window"`  // days for VIX moving average

	// Performance analysis
	RollingCorrWindow     int       `json:"rolling_corr_window"` // trading days
	CorrelationPair       [2]string `json:"correlation_pair"`
	AnnualizationFactor   int       `json:"annualization_factor"` // trading days per year
	RiskFreeRate          float64   `json:"risk_free_rate"`       // annualized, e.g. 0.02
	MinRegimeObservations int       `json:"min_regime_observations"`

	// Rate shock scenario
	ShockTriggerBps        float64 `json:"shock_trigger_bps"`         // pp, 0.70 = 70bps
	ShockLookbackDays      int     `json:"shock_lookback_days"`       // trading days (~1 month)
	ForwardHorizonDays     int     `json:"forward_horizon_days"`      // trading days (~3 months)
	MinEventSeparationDays int     `json:"min_event_separation_days"` // calendar days between shocks

	// Portfolio
	PortfolioWeights map[string]float64 `json:"portfolio_weights"`

	// Sensitivity analysis grids
	SensitivityRateThresholds []float64 `json:"sensitivity_rate_thresholds"`
	SensitivityVIXThresholds  []float64 `json:"sensitivity_vix_thresholds"`
}

// DefaultConfig returns the baseline configuration used when no config file
// is provided. Thresholds mirror the documented defaults: 20bps quarterly
// rate change, VIX 25 stress level, 70bps monthly shock trigger.
func DefaultConfig() AnalysisConfig {
	return AnalysisConfig{
		StartDate: "2000-01-03",
		EndDate:   "2024-12-31",
		Symbols:   []string{"SPY", "TLT", "GLD"},
		DataDir:   "data",

		RateChangeThreshold: 0.20,
		VIXStressThreshold:  25.0,
		QuarterLookbackDays: 63,
		VIXSmoothingWindow:  5,

		RollingCorrWindow:     60,
		CorrelationPair:       [2]string{"SPY", "TLT"},
		AnnualizationFactor:   252,
		RiskFreeRate:          0.0,
		MinRegimeObservations: 5,

		ShockTriggerBps:        0.70,
		ShockLookbackDays:      21,
		ForwardHorizonDays:     63,
		MinEventSeparationDays: 180,

		PortfolioWeights: map[string]float64{
			"SPY": 0.60,
			"TLT": 0.30,
			"GLD": 0.10,
		},

		SensitivityRateThresholds: []float64{0.10, 0.20, 0.30},
		SensitivityVIXThresholds:  []float64{20.0, 25.0, 30.0},
	}
}

// LoadFromFile reads a JSON config file on top of the defaults.
func LoadFromFile(path string) (AnalysisConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, apperrors.WrapError(err, apperrors.ErrorCategoryConfiguration, "config", "load").
			WithContext("path", path)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, apperrors.WrapError(err, apperrors.ErrorCategoryConfiguration, "config", "parse").
			WithContext("path", path)
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// ApplyEnvOverrides overlays environment variables onto the configuration.
// Only a small surface is exposed this way; thresholds belong in the config
// file so runs stay reproducible.
func (c *AnalysisConfig) ApplyEnvOverrides() {
	if v := os.Getenv("REGIME_START_DATE"); v != "" {
		c.StartDate = v
	}
	if v := os.Getenv("REGIME_END_DATE"); v != "" {
		c.EndDate = v
	}
	if v := os.Getenv("REGIME_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("REGIME_SYMBOLS"); v != "" {
		var symbols []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				symbols = append(symbols, s)
			}
		}
		if len(symbols) > 0 {
			c.Symbols = symbols
		}
	}
	if v := os.Getenv("REGIME_RISK_FREE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RiskFreeRate = f
		}
	}
}

// Validate checks every parameter before any computation starts.
// A validation failure is fatal: partial runs with a half-broken
// configuration are worse than no run at all.
func (c *AnalysisConfig) Validate() error {
	if _, err := time.Parse(DateFormat, c.StartDate); err != nil {
		return apperrors.NewConfigError("config", "validate", "start_date must be YYYY-MM-DD").
			WithContext("start_date", c.StartDate)
	}
	if _, err := time.Parse(DateFormat, c.EndDate); err != nil {
		return apperrors.NewConfigError("config", "validate", "end_date must be YYYY-MM-DD").
			WithContext("end_date", c.EndDate)
	}
	if len(c.Symbols) == 0 {
		return apperrors.NewConfigError("config", "validate", "at least one symbol is required")
	}

	if c.RateChangeThreshold <= 0 {
		return apperrors.NewConfigError("config", "validate", "rate_change_threshold must be positive").
			WithContext("value", c.RateChangeThreshold)
	}
	if c.VIXStressThreshold <= 0 {
		return apperrors.NewConfigError("config", "validate", "vix_stress_threshold must be positive").
			WithContext("value", c.VIXStressThreshold)
	}
	if c.QuarterLookbackDays <= 0 {
		return apperrors.NewConfigError("config", "validate", "quarter_lookback_days must be positive").
			WithContext("value", c.QuarterLookbackDays)
	}
	if c.VIXSmoothingWindow <= 0 {
		return apperrors.NewConfigError("config", "validate", "vix_smoothing_window must be positive").
			WithContext("value", c.VIXSmoothingWindow)
	}
	if c.RollingCorrWindow <= 1 {
		return apperrors.NewConfigError("config", "validate", "rolling_corr_window must be greater than 1").
			WithContext("value", c.RollingCorrWindow)
	}
	if c.AnnualizationFactor <= 0 {
		return apperrors.NewConfigError("config", "validate", "annualization_factor must be positive").
			WithContext("value", c.AnnualizationFactor)
	}
	if c.ShockTriggerBps <= 0 {
		return apperrors.NewConfigError("config", "validate", "shock_trigger_bps must be positive").
			WithContext("value", c.ShockTriggerBps)
	}
	if c.ShockLookbackDays <= 0 {
		return apperrors.NewConfigError("config", "validate", "shock_lookback_days must be positive").
			WithContext("value", c.ShockLookbackDays)
	}
	if c.ForwardHorizonDays <= 0 {
		return apperrors.NewConfigError("config", "validate", "forward_horizon_days must be positive").
			WithContext("value", c.ForwardHorizonDays)
	}
	if c.MinEventSeparationDays < 0 {
		return apperrors.NewConfigError("config", "validate", "min_event_separation_days must be non-negative").
			WithContext("value", c.MinEventSeparationDays)
	}

	return c.validateWeights()
}

// validateWeights enforces that portfolio weights are non-negative, cover
// only known symbols, and sum to 1.0 within tolerance.
func (c *AnalysisConfig) validateWeights() error {
	if len(c.PortfolioWeights) == 0 {
		return apperrors.NewConfigError("config", "validate", "portfolio_weights must not be empty")
	}

	known := make(map[string]bool, len(c.Symbols))
	for _, s := range c.Symbols {
		known[s] = true
	}

	sum := 0.0
	for symbol, weight := range c.PortfolioWeights {
		if !known[symbol] {
			return apperrors.NewConfigError("config", "validate", "portfolio weight for unknown symbol").
				WithContext("symbol", symbol)
		}
		if weight < 0 {
			return apperrors.NewConfigError("config", "validate", "portfolio weights must be non-negative").
				WithContext("symbol", symbol).
				WithContext("weight", weight)
		}
		sum += weight
	}

	if math.Abs(sum-1.0) > 1e-6 {
		return apperrors.NewConfigError("config", "validate", "portfolio weights must sum to 1.0").
			WithContext("sum", sum)
	}

	return nil
}

// Start returns the parsed start date. Validate must have succeeded first.
func (c *AnalysisConfig) Start() time.Time {
	t, _ := time.Parse(DateFormat, c.StartDate)
	return t
}

// End returns the parsed end date. Validate must have succeeded first.
func (c *AnalysisConfig) End() time.Time {
	t, _ := time.Parse(DateFormat, c.EndDate)
	return t
}
