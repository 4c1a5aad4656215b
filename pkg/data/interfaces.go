package data

import (
	"time"

	"github.com/macroquant/regime-analyzer/pkg/types"
)

// ObservationProvider loads macro observation tables from a source
type ObservationProvider interface {
	// LoadObservations loads the macro table from the specified source
	LoadObservations(source string) ([]types.ObservationRow, error)

	// GetName returns the name of the provider
	GetName() string
}

// PriceProvider loads daily close series for a symbol from a source
type PriceProvider interface {
	// LoadPrices loads the close series for one symbol
	LoadPrices(source, symbol string) ([]types.AssetBar, error)

	// GetName returns the name of the provider
	GetName() string
}

// PriceCache caches loaded price series keyed by source path
type PriceCache interface {
	Get(key string) ([]types.AssetBar, bool)
	Set(key string, bars []types.AssetBar)
	Clear()
	Size() int
}

// SeriesFilter validates and trims loaded series
type SeriesFilter interface {
	// FilterObservationsByDateRange keeps observations within [start, end]
	FilterObservationsByDateRange(obs []types.ObservationRow, start, end time.Time) []types.ObservationRow

	// FilterBarsByDateRange keeps bars within [start, end]
	FilterBarsByDateRange(bars []types.AssetBar, start, end time.Time) []types.AssetBar

	// ValidateObservationSequence ensures chronological order with no duplicates
	ValidateObservationSequence(obs []types.ObservationRow) error
}

// CSVColumnMapping defines the column positions for different CSV layouts
type CSVColumnMapping struct {
	DateCol        int
	FedFundsCol    int
	Treasury10YCol int
	VIXCol         int
	CloseCol       int
	MinColumns     int
	DateFormat     string
}

// Predefined CSV layouts
var (
	// MacroCSVFormat is the normalized macro table written by fetch-data:
	// date, fed_funds, treasury_10y, vix
	MacroCSVFormat = CSVColumnMapping{
		DateCol:        0,
		FedFundsCol:    1,
		Treasury10YCol: 2,
		VIXCol:         3,
		MinColumns:     4,
		DateFormat:     "2006-01-02",
	}

	// PriceCSVFormat is the normalized per-symbol table written by
	// fetch-data: date, close
	PriceCSVFormat = CSVColumnMapping{
		DateCol:    0,
		CloseCol:   1,
		MinColumns: 2,
		DateFormat: "2006-01-02",
	}

	// StooqCSVFormat matches raw Stooq daily downloads:
	// Date, Open, High, Low, Close, Volume
	StooqCSVFormat = CSVColumnMapping{
		DateCol:    0,
		CloseCol:   4,
		MinColumns: 5,
		DateFormat: "2006-01-02",
	}
)
