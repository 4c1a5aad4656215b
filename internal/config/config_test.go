package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"SPY", "TLT", "GLD"}, cfg.Symbols)
	assert.InDelta(t, 0.20, cfg.RateChangeThreshold, 1e-9)
	assert.InDelta(t, 25.0, cfg.VIXStressThreshold, 1e-9)
	assert.Equal(t, 63, cfg.QuarterLookbackDays)
	assert.InDelta(t, 0.70, cfg.ShockTriggerBps, 1e-9)
	assert.Equal(t, 63, cfg.ForwardHorizonDays)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AnalysisConfig)
	}{
		{"bad start date", func(c *AnalysisConfig) { c.StartDate = "01/03/2000" }},
		{"bad end date", func(c *AnalysisConfig) { c.EndDate = "soon" }},
		{"no symbols", func(c *AnalysisConfig) { c.Symbols = nil }},
		{"zero rate threshold", func(c *AnalysisConfig) { c.RateChangeThreshold = 0 }},
		{"negative vix threshold", func(c *AnalysisConfig) { c.VIXStressThreshold = -5 }},
		{"zero lookback", func(c *AnalysisConfig) { c.QuarterLookbackDays = 0 }},
		{"zero smoothing window", func(c *AnalysisConfig) { c.VIXSmoothingWindow = 0 }},
		{"correlation window of one", func(c *AnalysisConfig) { c.RollingCorrWindow = 1 }},
		{"zero annualization", func(c *AnalysisConfig) { c.AnnualizationFactor = 0 }},
		{"zero shock trigger", func(c *AnalysisConfig) { c.ShockTriggerBps = 0 }},
		{"zero shock lookback", func(c *AnalysisConfig) { c.ShockLookbackDays = 0 }},
		{"zero horizon", func(c *AnalysisConfig) { c.ForwardHorizonDays = 0 }},
		{"negative separation", func(c *AnalysisConfig) { c.MinEventSeparationDays = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_PortfolioWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights map[string]float64
		wantErr bool
	}{
		{
			name:    "default weights sum to one",
			weights: map[string]float64{"SPY": 0.60, "TLT": 0.30, "GLD": 0.10},
		},
		{
			name:    "empty weights rejected",
			weights: map[string]float64{},
			wantErr: true,
		},
		{
			name:    "sum above one rejected",
			weights: map[string]float64{"SPY": 0.60, "TLT": 0.30, "GLD": 0.20},
			wantErr: true,
		},
		{
			name:    "negative weight rejected",
			weights: map[string]float64{"SPY": 1.10, "TLT": -0.10, "GLD": 0.0},
			wantErr: true,
		},
		{
			name:    "unknown symbol rejected",
			weights: map[string]float64{"SPY": 0.50, "BTC": 0.50},
			wantErr: true,
		},
		{
			name:    "tiny float drift tolerated",
			weights: map[string]float64{"SPY": 0.6000000001, "TLT": 0.2999999999, "GLD": 0.10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.PortfolioWeights = tt.weights
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regime.json")
	content := `{
		"start_date": "2010-01-04",
		"rate_change_threshold": 0.30,
		"symbols": ["SPY", "TLT"],
		"portfolio_weights": {"SPY": 0.7, "TLT": 0.3}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "2010-01-04", cfg.StartDate)
	assert.InDelta(t, 0.30, cfg.RateChangeThreshold, 1e-9)
	assert.Equal(t, []string{"SPY", "TLT"}, cfg.Symbols)

	// Untouched fields keep their defaults
	assert.InDelta(t, 25.0, cfg.VIXStressThreshold, 1e-9)
	assert.Equal(t, 63, cfg.QuarterLookbackDays)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("REGIME_START_DATE", "2015-06-01")
	t.Setenv("REGIME_SYMBOLS", "spy, ief ,")
	t.Setenv("REGIME_RISK_FREE_RATE", "0.02")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "2015-06-01", cfg.StartDate)
	assert.Equal(t, []string{"SPY", "IEF"}, cfg.Symbols)
	assert.InDelta(t, 0.02, cfg.RiskFreeRate, 1e-9)
}

func TestStartEnd_ParseDates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2000, cfg.Start().Year())
	assert.True(t, cfg.End().After(cfg.Start()))
}
