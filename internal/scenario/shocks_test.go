package scenario

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macroquant/regime-analyzer/internal/config"
	"github.com/macroquant/regime-analyzer/pkg/types"
)

func testConfig() config.AnalysisConfig {
	cfg := config.DefaultConfig()
	cfg.ShockTriggerBps = 0.50
	cfg.ShockLookbackDays = 2
	cfg.ForwardHorizonDays = 2
	cfg.MinEventSeparationDays = 1
	cfg.Symbols = []string{"SPY", "TLT"}
	cfg.PortfolioWeights = map[string]float64{"SPY": 0.6, "TLT": 0.4}
	return cfg
}

func day(i int) time.Time {
	return time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

// shockDataset builds a dataset whose treasury path is given per index
func shockDataset(treasury []float64, closes map[string][]float64) *types.Dataset {
	ds := &types.Dataset{Closes: closes}
	for symbol := range closes {
		ds.Symbols = append(ds.Symbols, symbol)
	}
	for i, y := range treasury {
		ds.Observations = append(ds.Observations, types.ObservationRow{
			Date: day(i), FedFunds: 2, Treasury10Y: y, VIX: 15,
		})
	}
	return ds
}

func constantCloses(n int, value float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = value
	}
	return closes
}

func TestDetectEvents_StrictTrigger(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())

	tests := []struct {
		name     string
		jump     float64
		expected int
	}{
		{name: "change exactly at trigger is no event", jump: 0.50, expected: 0},
		{name: "change above trigger is an event", jump: 0.51, expected: 1},
		{name: "falling yields are never events", jump: -1.0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			treasury := []float64{3.0, 3.0, 3.0, 3.0 + tt.jump, 3.0 + tt.jump, 3.0 + tt.jump}
			obs := shockDataset(treasury, map[string][]float64{"SPY": constantCloses(6, 100)}).Observations

			events := analyzer.DetectEvents(obs)
			require.Len(t, events, tt.expected)
			if tt.expected == 1 {
				assert.Equal(t, day(3), events[0].Date)
				assert.InDelta(t, tt.jump, events[0].YieldChange, 1e-9)
				assert.InDelta(t, 3.0+tt.jump, events[0].Yield, 1e-9)
			}
		})
	}
}

func TestDetectEvents_SeparationSuppressesSameCycle(t *testing.T) {
	cfg := testConfig()
	cfg.MinEventSeparationDays = 30
	analyzer := NewAnalyzer(cfg)

	// Yields keep climbing for a week: every day qualifies, but the whole
	// move is one cycle and must count once.
	treasury := make([]float64, 12)
	for i := range treasury {
		treasury[i] = 3.0 + 0.4*float64(i)
	}
	obs := shockDataset(treasury, map[string][]float64{"SPY": constantCloses(12, 100)}).Observations

	events := analyzer.DetectEvents(obs)
	require.Len(t, events, 1)
	assert.Equal(t, day(2), events[0].Date)
}

func TestDetectEvents_SeparatedCyclesBothCount(t *testing.T) {
	cfg := testConfig()
	cfg.MinEventSeparationDays = 3
	analyzer := NewAnalyzer(cfg)

	treasury := []float64{3.0, 3.0, 4.0, 4.0, 4.0, 4.0, 4.0, 4.0, 5.0, 5.0}
	obs := shockDataset(treasury, map[string][]float64{"SPY": constantCloses(10, 100)}).Observations

	events := analyzer.DetectEvents(obs)
	require.Len(t, events, 2)
	assert.Equal(t, day(2), events[0].Date)
	assert.Equal(t, day(8), events[1].Date)
}

func TestRun_SingleShockOutcome(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())

	treasury := []float64{3.0, 3.0, 3.0, 4.0, 4.2, 4.4, 4.4, 4.4}
	spy := []float64{100, 100, 100, 100, 95, 90, 90, 90}
	tlt := []float64{50, 50, 50, 50, 51, 52, 52, 52}
	ds := shockDataset(treasury, map[string][]float64{"SPY": spy, "TLT": tlt})
	ds.Symbols = []string{"SPY", "TLT"}

	result, err := analyzer.Run(ds)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	outcome := result.Outcomes[0]
	assert.Equal(t, day(3), outcome.Event.Date)
	assert.InDelta(t, 4.4, outcome.EndYield, 1e-9)

	// Horizon is 2 days: SPY 100 -> 90, TLT 50 -> 52
	assert.InDelta(t, -0.10, outcome.TerminalReturns["SPY"], 1e-9)
	assert.InDelta(t, 0.04, outcome.TerminalReturns["TLT"], 1e-9)
	assert.InDelta(t, 0.6*(-0.10)+0.4*0.04, outcome.PortfolioReturn, 1e-9)

	assert.True(t, result.SmallSample, "one usable event is a small sample")
}

func TestRun_ForwardSamplesCoverEveryHorizonDay(t *testing.T) {
	cfg := testConfig()
	cfg.Symbols = []string{"SPY"}
	cfg.PortfolioWeights = map[string]float64{"SPY": 1}
	analyzer := NewAnalyzer(cfg)

	treasury := []float64{3.0, 3.0, 3.0, 4.0, 4.0, 4.0, 4.0}
	spy := []float64{100, 100, 100, 100, 110, 121, 121}
	ds := shockDataset(treasury, map[string][]float64{"SPY": spy})

	result, err := analyzer.Run(ds)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)

	// Horizon days 0..2 inclusive
	require.Len(t, result.Samples, 3)
	wantReturns := []float64{0, 0.10, 0.21}
	for h, sample := range result.Samples {
		assert.Equal(t, day(3), sample.EventDate)
		assert.Equal(t, h, sample.HorizonDay)
		assert.InDelta(t, wantReturns[h], sample.CumReturn, 1e-9)
	}
}

func TestRun_DropsEventsWithoutFullHorizon(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())

	// Shock lands one day before the end: horizon data is missing
	treasury := []float64{3.0, 3.0, 3.0, 3.0, 3.0, 4.0, 4.0}
	ds := shockDataset(treasury, map[string][]float64{
		"SPY": constantCloses(7, 100),
		"TLT": constantCloses(7, 50),
	})
	ds.Symbols = []string{"SPY", "TLT"}

	result, err := analyzer.Run(ds)
	require.NoError(t, err)

	assert.Len(t, result.Events, 1)
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, 1, result.DroppedEvents)
	assert.True(t, result.SmallSample)
	assert.Empty(t, result.SymbolPercentiles, "no percentiles without usable events")
}

func TestRun_PercentilesAreMonotonic(t *testing.T) {
	cfg := testConfig()
	cfg.Symbols = []string{"SPY"}
	cfg.PortfolioWeights = map[string]float64{"SPY": 1}
	analyzer := NewAnalyzer(cfg)

	// Three separated shocks with different aftermaths
	treasury := make([]float64, 30)
	spy := make([]float64, 30)
	for i := range treasury {
		treasury[i] = 3.0
		spy[i] = 100
	}
	treasury[5], treasury[6], treasury[7] = 4.0, 4.0, 4.0
	spy[6], spy[7] = 90, 80
	treasury[15], treasury[16], treasury[17] = 4.0, 4.0, 4.0
	spy[16], spy[17] = 101, 102
	treasury[25], treasury[26], treasury[27] = 4.0, 4.0, 4.0
	spy[26], spy[27] = 110, 120

	ds := shockDataset(treasury, map[string][]float64{"SPY": spy})
	result, err := analyzer.Run(ds)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 3)
	assert.False(t, result.SmallSample)

	require.Len(t, result.SymbolPercentiles, 1)
	row := result.SymbolPercentiles[0]
	assert.Equal(t, "SPY", row.Symbol)
	assert.Equal(t, 3, row.Observations)
	assert.LessOrEqual(t, row.P10, row.P50)
	assert.LessOrEqual(t, row.P50, row.P90)

	portfolio := result.Portfolio
	assert.Equal(t, "PORTFOLIO", portfolio.Symbol)
	assert.LessOrEqual(t, portfolio.P10, portfolio.P50)
	assert.LessOrEqual(t, portfolio.P50, portfolio.P90)
}

func TestRun_PortfolioIsWeightedSumOfTerminalReturns(t *testing.T) {
	cfg := testConfig()
	cfg.Symbols = []string{"SPY", "TLT", "GLD"}
	cfg.PortfolioWeights = map[string]float64{"SPY": 0.6, "TLT": 0.3, "GLD": 0.1}
	analyzer := NewAnalyzer(cfg)

	// Two separated shocks at days 5 and 15, horizon 2 days
	treasury := make([]float64, 20)
	for i := range treasury {
		treasury[i] = 3.0
	}
	treasury[5], treasury[6] = 4.0, 4.0
	treasury[15], treasury[16] = 4.0, 4.0

	spy := constantCloses(20, 100)
	tlt := constantCloses(20, 100)
	gld := constantCloses(20, 100)
	// Shock 1: SPY -10%, TLT +4%, GLD +2%
	spy[7], tlt[7], gld[7] = 90, 104, 102
	// Shock 2: SPY +5%, TLT -2%, GLD +10%
	spy[17], tlt[17], gld[17] = 105, 98, 110
	// Hold terminal values so later closes don't matter
	for i := 8; i < 15; i++ {
		spy[i], tlt[i], gld[i] = 90, 104, 102
	}
	for i := 17; i < 20; i++ {
		spy[i], tlt[i], gld[i] = 105, 98, 110
	}
	spy[15], tlt[15], gld[15] = 100, 100, 100
	spy[16], tlt[16], gld[16] = 100, 100, 100

	ds := shockDataset(treasury, map[string][]float64{"SPY": spy, "TLT": tlt, "GLD": gld})
	ds.Symbols = []string{"SPY", "TLT", "GLD"}

	result, err := analyzer.Run(ds)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	want1 := 0.6*(-0.10) + 0.3*0.04 + 0.1*0.02
	want2 := 0.6*0.05 + 0.3*(-0.02) + 0.1*0.10
	assert.InDelta(t, want1, result.Outcomes[0].PortfolioReturn, 1e-9)
	assert.InDelta(t, want2, result.Outcomes[1].PortfolioReturn, 1e-9)

	// With two outcomes the empirical median is one of them, and every
	// portfolio percentile is a weighted sum of per-symbol terminal returns.
	p := result.Portfolio
	assert.Equal(t, 2, p.Observations)
	assert.InDelta(t, want1, p.P10, 1e-9)
	assert.InDelta(t, want2, p.P90, 1e-9)
	assert.False(t, result.SmallSample)
}

func TestRun_DatasetShorterThanLookback(t *testing.T) {
	analyzer := NewAnalyzer(testConfig())
	ds := shockDataset([]float64{3.0, 3.0}, map[string][]float64{"SPY": constantCloses(2, 100)})
	_, err := analyzer.Run(ds)
	assert.Error(t, err)
}
