package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/macroquant/regime-analyzer/cmd/common"
	"github.com/macroquant/regime-analyzer/internal/config"
	"github.com/macroquant/regime-analyzer/internal/fetch"
	"github.com/macroquant/regime-analyzer/internal/logger"
	"github.com/macroquant/regime-analyzer/pkg/types"
)

const appName = "Data Fetcher"

func main() {
	commonFlags := common.RegisterCommonFlags()
	var (
		startDate = flag.String("start", "2000-01-03", "Fetch start date (YYYY-MM-DD)")
		endDate   = flag.String("end", time.Now().Format(config.DateFormat), "Fetch end date (YYYY-MM-DD)")
		symbols   = flag.String("symbols", "SPY,TLT,GLD", "Comma-separated asset symbols")
	)
	flag.Parse()

	formatter := common.NewUsageFormatter(appName,
		"Download macro series from FRED and daily prices from Stooq into normalized CSVs")
	formatter.AddExample("fetch-data -start 2000-01-03 -end 2024-12-31",
		"Full history for the default universe")
	formatter.AddExample("fetch-data -symbols SPY,IEF -data-dir data",
		"Custom universe into data/")

	if common.CheckHelpAndVersion(appName, commonFlags, formatter) {
		return
	}

	common.SetupPrinter(commonFlags)
	common.LoadEnvFile(*commonFlags.EnvFile)

	logLevel := "info"
	if *commonFlags.Verbose {
		logLevel = "debug"
	}
	if err := logger.Setup(logLevel, ""); err != nil {
		common.Error("Logger setup failed: %v", err)
		os.Exit(1)
	}

	start, err := time.Parse(config.DateFormat, *startDate)
	if err != nil {
		common.Error("Invalid start date %q: must be YYYY-MM-DD", *startDate)
		os.Exit(1)
	}
	end, err := time.Parse(config.DateFormat, *endDate)
	if err != nil {
		common.Error("Invalid end date %q: must be YYYY-MM-DD", *endDate)
		os.Exit(1)
	}
	if end.Before(start) {
		common.Error("End date %s is before start date %s", *endDate, *startDate)
		os.Exit(1)
	}

	var symbolList []string
	for _, s := range strings.Split(*symbols, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbolList = append(symbolList, s)
		}
	}
	if len(symbolList) == 0 {
		common.Error("At least one symbol is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	common.Header(appName)
	common.Info("Fetching %s to %s into %s", *startDate, *endDate, *commonFlags.DataDir)

	if err := run(ctx, start, end, symbolList, *commonFlags.DataDir); err != nil {
		common.Error("Fetch failed: %v", err)
		os.Exit(1)
	}

	common.Success("Data files written to %s", *commonFlags.DataDir)
}

func run(ctx context.Context, start, end time.Time, symbols []string, dataDir string) error {
	if err := common.EnsureDir(dataDir); err != nil {
		return err
	}

	fred := fetch.NewFREDClient(os.Getenv("FRED_API_KEY"))
	stooq := fetch.NewStooqClient()

	common.Progress("Downloading fed funds rate (FRED %s)", fetch.SeriesFedFunds)
	fedFunds, err := fred.FetchSeries(ctx, fetch.SeriesFedFunds, start, end)
	if err != nil {
		return err
	}

	common.Progress("Downloading 10Y treasury yield (FRED %s)", fetch.SeriesTreasury10Y)
	treasury, err := fred.FetchSeries(ctx, fetch.SeriesTreasury10Y, start, end)
	if err != nil {
		return err
	}

	common.Progress("Downloading VIX (Stooq)")
	vix, err := stooq.FetchDaily(ctx, "VIX", start, end)
	if err != nil {
		return err
	}

	if err := writeMacroCSV(filepath.Join(dataDir, "macro.csv"), fedFunds, treasury, vix); err != nil {
		return err
	}

	for _, symbol := range symbols {
		common.Progress("Downloading %s (Stooq)", symbol)
		bars, err := stooq.FetchDaily(ctx, symbol, start, end)
		if err != nil {
			return err
		}
		if err := writePriceCSV(filepath.Join(dataDir, symbol+".csv"), bars); err != nil {
			return err
		}
		common.Info("%s: %d bars", symbol, len(bars))
	}

	return nil
}

// writeMacroCSV aligns the three macro series on VIX trading days. FRED rate
// series publish on calendar days with holiday gaps, so fed funds and the
// 10Y yield are forward-filled onto the trading calendar; trading days
// before the first rate observation are dropped.
func writeMacroCSV(path string, fedFunds, treasury []fetch.SeriesPoint, vix []types.AssetBar) error {
	fedByDate := seriesIndex(fedFunds)
	treasuryByDate := seriesIndex(treasury)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "fed_funds", "treasury_10y", "vix"}); err != nil {
		return err
	}

	var lastFed, lastTreasury float64
	haveFed, haveTreasury := false, false
	rows, dropped := 0, 0

	for _, bar := range vix {
		if v, ok := fedByDate[bar.Date]; ok {
			lastFed, haveFed = v, true
		}
		if v, ok := treasuryByDate[bar.Date]; ok {
			lastTreasury, haveTreasury = v, true
		}
		if !haveFed || !haveTreasury {
			dropped++
			continue
		}

		record := []string{
			bar.Date.Format(config.DateFormat),
			strconv.FormatFloat(lastFed, 'f', 4, 64),
			strconv.FormatFloat(lastTreasury, 'f', 4, 64),
			strconv.FormatFloat(bar.Close, 'f', 4, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
		rows++
	}

	if rows == 0 {
		return fmt.Errorf("macro series do not overlap the VIX trading calendar")
	}
	if dropped > 0 {
		common.Warn("Dropped %d trading days before the first rate observation", dropped)
	}
	common.Info("macro.csv: %d rows", rows)
	return nil
}

func writePriceCSV(path string, bars []types.AssetBar) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "close"}); err != nil {
		return err
	}
	for _, bar := range bars {
		record := []string{
			bar.Date.Format(config.DateFormat),
			strconv.FormatFloat(bar.Close, 'f', 4, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func seriesIndex(points []fetch.SeriesPoint) map[time.Time]float64 {
	index := make(map[time.Time]float64, len(points))
	for _, p := range points {
		index[p.Date] = p.Value
	}
	return index
}
