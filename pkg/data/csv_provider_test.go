package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macroquant/regime-analyzer/pkg/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadObservations(t *testing.T) {
	path := writeFile(t, "macro.csv", `date,fed_funds,treasury_10y,vix
2020-01-02,1.55,1.88,12.47
2020-01-03,1.55,1.80,14.02
2020-01-06,1.55,1.81,13.85
`)

	obs, err := NewCSVProvider().LoadObservations(path)
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), obs[0].Date)
	assert.InDelta(t, 1.55, obs[0].FedFunds, 1e-9)
	assert.InDelta(t, 1.88, obs[0].Treasury10Y, 1e-9)
	assert.InDelta(t, 12.47, obs[0].VIX, 1e-9)
}

func TestLoadObservations_SkipsBadRows(t *testing.T) {
	path := writeFile(t, "macro.csv", `date,fed_funds,treasury_10y,vix
2020-01-02,1.55,1.88,12.47
not-a-date,1.55,1.80,14.02
2020-01-06,abc,1.81,13.85
2020-01-07,1.55,1.81,-3.0
2020-01-08,1.55,1.79,13.10
`)

	obs, err := NewCSVProvider().LoadObservations(path)
	require.NoError(t, err)
	require.Len(t, obs, 2, "bad date, bad value, and negative VIX rows are skipped")
	assert.Equal(t, time.Date(2020, 1, 8, 0, 0, 0, 0, time.UTC), obs[1].Date)
}

func TestLoadObservations_MissingFile(t *testing.T) {
	_, err := NewCSVProvider().LoadObservations(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoadPrices(t *testing.T) {
	path := writeFile(t, "SPY.csv", `date,close
2020-01-02,324.87
2020-01-03,322.41
2020-01-06,0
2020-01-07,322.73
`)

	bars, err := NewCSVProvider().LoadPrices(path, "SPY")
	require.NoError(t, err)
	require.Len(t, bars, 3, "non-positive close is skipped")

	assert.Equal(t, "SPY", bars[0].Symbol)
	assert.InDelta(t, 324.87, bars[0].Close, 1e-9)
	assert.Equal(t, time.Date(2020, 1, 7, 0, 0, 0, 0, time.UTC), bars[2].Date)
}

func TestLoadPrices_StooqFormat(t *testing.T) {
	path := writeFile(t, "spy_us.csv", `Date,Open,High,Low,Close,Volume
2020-01-02,323.54,324.89,322.53,324.87,59151200
2020-01-03,321.16,323.64,321.10,322.41,77709700
`)

	provider := NewCSVProviderWithFormats(MacroCSVFormat, StooqCSVFormat)
	bars, err := provider.LoadPrices(path, "SPY")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.InDelta(t, 324.87, bars[0].Close, 1e-9)
}

func TestMemoryCache_CopiesOnGetAndSet(t *testing.T) {
	cache := NewMemoryCache()
	original := []types.AssetBar{
		{Date: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), Symbol: "SPY", Close: 324.87},
		{Date: time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC), Symbol: "SPY", Close: 322.41},
	}
	cache.Set("data/SPY.csv", original)

	original[0].Close = 1
	got, ok := cache.Get("data/SPY.csv")
	require.True(t, ok)
	assert.InDelta(t, 324.87, got[0].Close, 1e-9, "cache must not alias the caller's slice")

	got[1].Close = 1
	again, _ := cache.Get("data/SPY.csv")
	assert.InDelta(t, 322.41, again[1].Close, 1e-9, "mutating a returned slice must not leak into the cache")

	assert.Equal(t, 1, cache.Size())
	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestMemoryCache_Miss(t *testing.T) {
	_, ok := NewMemoryCache().Get("data/TLT.csv")
	assert.False(t, ok)
}

func TestCachedPriceProvider_ServesRepeatsFromCache(t *testing.T) {
	path := writeFile(t, "SPY.csv", `date,close
2020-01-02,324.87
2020-01-03,322.41
`)

	provider := NewCachedPriceProvider(NewCSVProvider())
	first, err := provider.LoadPrices(path, "SPY")
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Delete the backing file: a second load must still succeed
	require.NoError(t, os.Remove(path))
	second, err := provider.LoadPrices(path, "SPY")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
