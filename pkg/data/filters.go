package data

import (
	"fmt"
	"time"

	"github.com/macroquant/regime-analyzer/pkg/types"
)

// DefaultSeriesFilter implements SeriesFilter for common trimming operations
type DefaultSeriesFilter struct{}

// NewDefaultSeriesFilter creates a new series filter
func NewDefaultSeriesFilter() *DefaultSeriesFilter {
	return &DefaultSeriesFilter{}
}

// FilterObservationsByDateRange keeps observations within [start, end]
func (f *DefaultSeriesFilter) FilterObservationsByDateRange(obs []types.ObservationRow, start, end time.Time) []types.ObservationRow {
	if len(obs) == 0 {
		return obs
	}

	var filtered []types.ObservationRow
	for _, row := range obs {
		if inRange(row.Date, start, end) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// FilterBarsByDateRange keeps bars within [start, end]
func (f *DefaultSeriesFilter) FilterBarsByDateRange(bars []types.AssetBar, start, end time.Time) []types.AssetBar {
	if len(bars) == 0 {
		return bars
	}

	var filtered []types.AssetBar
	for _, bar := range bars {
		if inRange(bar.Date, start, end) {
			filtered = append(filtered, bar)
		}
	}
	return filtered
}

// ValidateObservationSequence ensures chronological order with no duplicate dates
func (f *DefaultSeriesFilter) ValidateObservationSequence(obs []types.ObservationRow) error {
	for i := 1; i < len(obs); i++ {
		if obs[i].Date.Before(obs[i-1].Date) {
			return fmt.Errorf("observations not in chronological order at index %d: %s comes after %s",
				i, obs[i].Date.Format("2006-01-02"), obs[i-1].Date.Format("2006-01-02"))
		}
		if obs[i].Date.Equal(obs[i-1].Date) {
			return fmt.Errorf("duplicate observation date at index %d: %s",
				i, obs[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

func inRange(date, start, end time.Time) bool {
	return !date.Before(start) && !date.After(end)
}
