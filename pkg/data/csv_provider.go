package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/macroquant/regime-analyzer/pkg/types"
)

// CSVProvider implements ObservationProvider and PriceProvider for CSV files
type CSVProvider struct {
	macroFormat CSVColumnMapping
	priceFormat CSVColumnMapping
}

// NewCSVProvider creates a CSV provider with the normalized default formats
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{
		macroFormat: MacroCSVFormat,
		priceFormat: PriceCSVFormat,
	}
}

// NewCSVProviderWithFormats creates a CSV provider with custom column layouts
func NewCSVProviderWithFormats(macro, price CSVColumnMapping) *CSVProvider {
	return &CSVProvider{
		macroFormat: macro,
		priceFormat: price,
	}
}

// GetName returns the name of the data provider
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadObservations loads the macro table from a CSV file. Rows with
// unparseable fields are skipped with a warning rather than failing the
// whole load; ordering is validated afterwards by the filter.
func (p *CSVProvider) LoadObservations(source string) ([]types.ObservationRow, error) {
	var obs []types.ObservationRow

	err := p.readRecords(source, p.macroFormat.MinColumns, func(record []string, line int) {
		date, err := time.Parse(p.macroFormat.DateFormat, record[p.macroFormat.DateCol])
		if err != nil {
			log.Warn().Str("value", record[p.macroFormat.DateCol]).Int("line", line).
				Msg("invalid date, skipping row")
			return
		}
		fedFunds, err1 := strconv.ParseFloat(record[p.macroFormat.FedFundsCol], 64)
		treasury, err2 := strconv.ParseFloat(record[p.macroFormat.Treasury10YCol], 64)
		vix, err3 := strconv.ParseFloat(record[p.macroFormat.VIXCol], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			log.Warn().Int("line", line).Msg("invalid macro values, skipping row")
			return
		}
		if vix < 0 {
			log.Warn().Int("line", line).Float64("vix", vix).Msg("negative VIX, skipping row")
			return
		}
		obs = append(obs, types.ObservationRow{
			Date:        date,
			FedFunds:    fedFunds,
			Treasury10Y: treasury,
			VIX:         vix,
		})
	})
	if err != nil {
		return nil, err
	}

	return obs, nil
}

// LoadPrices loads the close series for one symbol from a CSV file
func (p *CSVProvider) LoadPrices(source, symbol string) ([]types.AssetBar, error) {
	var bars []types.AssetBar

	err := p.readRecords(source, p.priceFormat.MinColumns, func(record []string, line int) {
		date, err := time.Parse(p.priceFormat.DateFormat, record[p.priceFormat.DateCol])
		if err != nil {
			log.Warn().Str("symbol", symbol).Str("value", record[p.priceFormat.DateCol]).
				Int("line", line).Msg("invalid date, skipping row")
			return
		}
		close, err := strconv.ParseFloat(record[p.priceFormat.CloseCol], 64)
		if err != nil {
			log.Warn().Str("symbol", symbol).Int("line", line).Msg("invalid close, skipping row")
			return
		}
		if close <= 0 {
			log.Warn().Str("symbol", symbol).Int("line", line).Float64("close", close).
				Msg("non-positive close, skipping row")
			return
		}
		bars = append(bars, types.AssetBar{Date: date, Symbol: symbol, Close: close})
	})
	if err != nil {
		return nil, err
	}

	return bars, nil
}

// readRecords streams CSV records past the header, delegating per-row
// parsing to the callback.
func (p *CSVProvider) readRecords(source string, minColumns int, handle func(record []string, line int)) error {
	file, err := os.Open(source)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("error reading CSV header of %s: %w", source, err)
	}

	line := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("error reading CSV %s at line %d: %w", source, line, err)
		}
		line++

		if len(record) < minColumns {
			log.Warn().Int("line", line).Int("expected", minColumns).Int("got", len(record)).
				Msg("insufficient columns, skipping row")
			continue
		}
		handle(record, line)
	}

	return nil
}
