package data

import (
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/macroquant/regime-analyzer/internal/errors"
	"github.com/macroquant/regime-analyzer/pkg/types"
)

// BuildDataset joins the macro table with per-symbol price series into a
// single date-aligned dataset.
//
// The date index is the inner join of the trading days every symbol has a
// bar for. Macro values are forward-filled onto those days (rate series
// publish on calendar days and carry holiday gaps); trading days before the
// first macro observation are dropped.
func BuildDataset(obs []types.ObservationRow, prices map[string][]types.AssetBar, symbols []string) (*types.Dataset, error) {
	if len(obs) == 0 {
		return nil, apperrors.NewDataGapError("data", "build_dataset", "no macro observations")
	}
	if len(symbols) == 0 {
		return nil, apperrors.NewAnalysisError(apperrors.ErrorCategoryValidation, "data", "build_dataset",
			"no symbols requested")
	}
	for _, symbol := range symbols {
		if len(prices[symbol]) == 0 {
			return nil, apperrors.NewDataGapError("data", "build_dataset", "no price data for symbol").
				WithContext("symbol", symbol)
		}
	}

	dates := commonTradingDays(prices, symbols)
	if len(dates) == 0 {
		return nil, apperrors.NewDataGapError("data", "build_dataset",
			"price series have no overlapping trading days")
	}

	closesByDate := make(map[string]map[time.Time]float64, len(symbols))
	for _, symbol := range symbols {
		index := make(map[time.Time]float64, len(prices[symbol]))
		for _, bar := range prices[symbol] {
			index[bar.Date] = bar.Close
		}
		closesByDate[symbol] = index
	}

	macroByDate := make(map[time.Time]types.ObservationRow, len(obs))
	for _, row := range obs {
		macroByDate[row.Date] = row
	}

	dataset := &types.Dataset{
		Closes:  make(map[string][]float64, len(symbols)),
		Symbols: symbols,
	}

	var lastMacro types.ObservationRow
	haveMacro := false
	dropped := 0

	for _, date := range dates {
		if row, ok := macroByDate[date]; ok {
			lastMacro = row
			haveMacro = true
		}
		if !haveMacro {
			dropped++
			continue
		}

		dataset.Observations = append(dataset.Observations, types.ObservationRow{
			Date:        date,
			FedFunds:    lastMacro.FedFunds,
			Treasury10Y: lastMacro.Treasury10Y,
			VIX:         lastMacro.VIX,
		})
		for _, symbol := range symbols {
			dataset.Closes[symbol] = append(dataset.Closes[symbol], closesByDate[symbol][date])
		}
	}

	if dropped > 0 {
		log.Warn().Int("rows", dropped).Msg("dropped trading days before first macro observation")
	}
	if dataset.Len() == 0 {
		return nil, apperrors.NewDataGapError("data", "build_dataset",
			"macro and price series do not overlap")
	}

	log.Info().Int("days", dataset.Len()).Int("symbols", len(symbols)).
		Time("first", dataset.Observations[0].Date).
		Time("last", dataset.Observations[dataset.Len()-1].Date).
		Msg("dataset built")

	return dataset, nil
}

// commonTradingDays returns, in order, the dates present in every symbol's
// price series. Price series are already chronological, so the first
// symbol's ordering is reused.
func commonTradingDays(prices map[string][]types.AssetBar, symbols []string) []time.Time {
	counts := make(map[time.Time]int)
	for _, symbol := range symbols {
		for _, bar := range prices[symbol] {
			counts[bar.Date]++
		}
	}

	var dates []time.Time
	for _, bar := range prices[symbols[0]] {
		if counts[bar.Date] == len(symbols) {
			dates = append(dates, bar.Date)
		}
	}
	return dates
}
