package types

import "time"

// ObservationRow holds one trading day of macro observations.
type ObservationRow struct {
	Date        time.Time
	FedFunds    float64
	Treasury10Y float64
	VIX         float64
}

// AssetBar holds one trading day of closing price data for a symbol.
type AssetBar struct {
	Date   time.Time
	Symbol string
	Close  float64
}

// Dataset is the joined, date-aligned view the analysis packages consume.
// Observations and every Closes slice share the same index: position i in
// any of them refers to the same trading day.
type Dataset struct {
	Observations []ObservationRow
	Closes       map[string][]float64
	Symbols      []string
}

// Dates returns the shared date index of the dataset.
func (d *Dataset) Dates() []time.Time {
	dates := make([]time.Time, len(d.Observations))
	for i, obs := range d.Observations {
		dates[i] = obs.Date
	}
	return dates
}

// Len returns the number of aligned trading days.
func (d *Dataset) Len() int {
	return len(d.Observations)
}
