package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macroquant/regime-analyzer/pkg/types"
)

func day(i int) time.Time {
	return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func obsRow(i int, fedFunds, treasury, vix float64) types.ObservationRow {
	return types.ObservationRow{Date: day(i), FedFunds: fedFunds, Treasury10Y: treasury, VIX: vix}
}

func bar(i int, symbol string, close float64) types.AssetBar {
	return types.AssetBar{Date: day(i), Symbol: symbol, Close: close}
}

func TestBuildDataset_InnerJoinOnCommonTradingDays(t *testing.T) {
	obs := []types.ObservationRow{
		obsRow(0, 1.5, 1.8, 12),
		obsRow(1, 1.5, 1.9, 13),
		obsRow(2, 1.5, 2.0, 14),
		obsRow(3, 1.5, 2.1, 15),
	}
	prices := map[string][]types.AssetBar{
		"SPY": {bar(0, "SPY", 100), bar(1, "SPY", 101), bar(2, "SPY", 102), bar(3, "SPY", 103)},
		"TLT": {bar(0, "TLT", 50), bar(2, "TLT", 52), bar(3, "TLT", 53)}, // day 1 missing
	}

	ds, err := BuildDataset(obs, prices, []string{"SPY", "TLT"})
	require.NoError(t, err)

	// Day 1 has no TLT bar, so it is excluded for every series
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, []time.Time{day(0), day(2), day(3)}, ds.Dates())
	assert.Equal(t, []float64{100, 102, 103}, ds.Closes["SPY"])
	assert.Equal(t, []float64{50, 52, 53}, ds.Closes["TLT"])
	assert.InDelta(t, 2.0, ds.Observations[1].Treasury10Y, 1e-9)
}

func TestBuildDataset_ForwardFillsMacroGaps(t *testing.T) {
	// Macro has a holiday gap at day 1 and day 2
	obs := []types.ObservationRow{
		obsRow(0, 1.5, 1.8, 12),
		obsRow(3, 1.75, 2.1, 18),
	}
	prices := map[string][]types.AssetBar{
		"SPY": {bar(0, "SPY", 100), bar(1, "SPY", 101), bar(2, "SPY", 102), bar(3, "SPY", 103)},
	}

	ds, err := BuildDataset(obs, prices, []string{"SPY"})
	require.NoError(t, err)
	require.Equal(t, 4, ds.Len())

	// Days 1 and 2 carry day 0's macro values forward
	assert.InDelta(t, 1.5, ds.Observations[1].FedFunds, 1e-9)
	assert.InDelta(t, 1.8, ds.Observations[2].Treasury10Y, 1e-9)
	assert.InDelta(t, 12, ds.Observations[2].VIX, 1e-9)
	assert.InDelta(t, 1.75, ds.Observations[3].FedFunds, 1e-9)
}

func TestBuildDataset_DropsTradingDaysBeforeFirstMacro(t *testing.T) {
	obs := []types.ObservationRow{
		obsRow(2, 1.5, 1.8, 12),
		obsRow(3, 1.5, 1.9, 13),
	}
	prices := map[string][]types.AssetBar{
		"SPY": {bar(0, "SPY", 100), bar(1, "SPY", 101), bar(2, "SPY", 102), bar(3, "SPY", 103)},
	}

	ds, err := BuildDataset(obs, prices, []string{"SPY"})
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, day(2), ds.Observations[0].Date)
	assert.Equal(t, []float64{102, 103}, ds.Closes["SPY"])
}

func TestBuildDataset_Errors(t *testing.T) {
	obs := []types.ObservationRow{obsRow(0, 1.5, 1.8, 12)}
	spy := []types.AssetBar{bar(0, "SPY", 100)}

	tests := []struct {
		name    string
		obs     []types.ObservationRow
		prices  map[string][]types.AssetBar
		symbols []string
	}{
		{
			name:    "no observations",
			obs:     nil,
			prices:  map[string][]types.AssetBar{"SPY": spy},
			symbols: []string{"SPY"},
		},
		{
			name:    "no symbols",
			obs:     obs,
			prices:  map[string][]types.AssetBar{"SPY": spy},
			symbols: nil,
		},
		{
			name:    "missing price series",
			obs:     obs,
			prices:  map[string][]types.AssetBar{"SPY": spy},
			symbols: []string{"SPY", "TLT"},
		},
		{
			name: "no overlapping trading days",
			obs:  obs,
			prices: map[string][]types.AssetBar{
				"SPY": {bar(0, "SPY", 100)},
				"TLT": {bar(1, "TLT", 50)},
			},
			symbols: []string{"SPY", "TLT"},
		},
		{
			name:    "macro entirely after prices",
			obs:     []types.ObservationRow{obsRow(5, 1.5, 1.8, 12)},
			prices:  map[string][]types.AssetBar{"SPY": spy},
			symbols: []string{"SPY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildDataset(tt.obs, tt.prices, tt.symbols)
			assert.Error(t, err)
		})
	}
}

func TestFilterObservationsByDateRange(t *testing.T) {
	filter := NewDefaultSeriesFilter()
	obs := []types.ObservationRow{
		obsRow(0, 1, 2, 10),
		obsRow(1, 1, 2, 10),
		obsRow(2, 1, 2, 10),
		obsRow(3, 1, 2, 10),
	}

	filtered := filter.FilterObservationsByDateRange(obs, day(1), day(2))
	require.Len(t, filtered, 2, "range bounds are inclusive")
	assert.Equal(t, day(1), filtered[0].Date)
	assert.Equal(t, day(2), filtered[1].Date)

	assert.Empty(t, filter.FilterObservationsByDateRange(obs, day(10), day(20)))
}

func TestFilterBarsByDateRange(t *testing.T) {
	filter := NewDefaultSeriesFilter()
	bars := []types.AssetBar{bar(0, "SPY", 100), bar(5, "SPY", 105)}

	filtered := filter.FilterBarsByDateRange(bars, day(0), day(4))
	require.Len(t, filtered, 1)
	assert.Equal(t, day(0), filtered[0].Date)
}

func TestValidateObservationSequence(t *testing.T) {
	filter := NewDefaultSeriesFilter()

	ordered := []types.ObservationRow{obsRow(0, 1, 2, 10), obsRow(1, 1, 2, 10)}
	assert.NoError(t, filter.ValidateObservationSequence(ordered))

	duplicate := []types.ObservationRow{obsRow(0, 1, 2, 10), obsRow(0, 1, 2, 10)}
	assert.Error(t, filter.ValidateObservationSequence(duplicate))

	reversed := []types.ObservationRow{obsRow(1, 1, 2, 10), obsRow(0, 1, 2, 10)}
	assert.Error(t, filter.ValidateObservationSequence(reversed))
}
