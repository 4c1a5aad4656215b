package fetch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/macroquant/regime-analyzer/internal/errors"
	"github.com/macroquant/regime-analyzer/pkg/types"
)

const stooqBaseURL = "https://stooq.com/q/d/l/"

// DefaultSymbolMap translates analyzer symbols to Stooq tickers
var DefaultSymbolMap = map[string]string{
	"SPY": "spy.us",
	"TLT": "tlt.us",
	"GLD": "gld.us",
	"VIX": "^vix",
}

// StooqClient fetches daily close series from Stooq's CSV endpoint.
// No API key required, which keeps the default pipeline runnable.
type StooqClient struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
}

// NewStooqClient creates a Stooq daily-quotes client
func NewStooqClient() *StooqClient {
	return &StooqClient{
		baseURL:    stooqBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      DefaultRetryConfig(),
	}
}

// FetchDaily downloads the daily series for one symbol over [start, end].
// The symbol is the analyzer's name (SPY, TLT, ...); translation to the
// Stooq ticker uses DefaultSymbolMap, falling back to lowercased ".us".
func (c *StooqClient) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]types.AssetBar, error) {
	ticker, ok := DefaultSymbolMap[symbol]
	if !ok {
		ticker = strings.ToLower(symbol) + ".us"
	}

	params := url.Values{}
	params.Set("s", ticker)
	params.Set("d1", start.Format("20060102"))
	params.Set("d2", end.Format("20060102"))
	params.Set("i", "d")

	var body []byte
	err := Retry(ctx, c.retry, func() error {
		var reqErr error
		body, reqErr = c.get(ctx, c.baseURL+"?"+params.Encode())
		return reqErr
	})
	if err != nil {
		return nil, err
	}

	bars, err := parseStooqCSV(body, symbol)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, apperrors.NewDataGapError("fetch", "stooq_daily", "no rows returned").
			WithContext("symbol", symbol).
			WithContext("ticker", ticker)
	}

	log.Info().Str("symbol", symbol).Str("ticker", ticker).Int("bars", len(bars)).
		Msg("Stooq series fetched")
	return bars, nil
}

func (c *StooqClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorCategoryFatal, "fetch", "stooq_request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorCategoryNetwork, "fetch", "stooq_request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperrors.NewAnalysisError(apperrors.ErrorCategoryRateLimit, "fetch", "stooq_request",
			"Stooq rate limit exceeded")
	case resp.StatusCode >= 500:
		return nil, apperrors.NewAnalysisError(apperrors.ErrorCategoryNetwork, "fetch", "stooq_request",
			fmt.Sprintf("Stooq server error (status %d)", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.NewAnalysisError(apperrors.ErrorCategoryFatal, "fetch", "stooq_request",
			fmt.Sprintf("Stooq error (status %d)", resp.StatusCode))
	}

	return io.ReadAll(resp.Body)
}

// parseStooqCSV parses the Date,Open,High,Low,Close,Volume payload
func parseStooqCSV(body []byte, symbol string) ([]types.AssetBar, error) {
	reader := csv.NewReader(strings.NewReader(string(body)))

	// Header line; a "No data" plain-text response fails here
	header, err := reader.Read()
	if err != nil || len(header) < 5 {
		return nil, apperrors.NewDataGapError("fetch", "stooq_parse", "unexpected Stooq response").
			WithContext("symbol", symbol)
	}

	var bars []types.AssetBar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.WrapError(err, apperrors.ErrorCategoryFatal, "fetch", "stooq_parse")
		}
		if len(record) < 5 {
			continue
		}

		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			continue
		}
		close, err := strconv.ParseFloat(record[4], 64)
		if err != nil || close <= 0 {
			continue
		}
		bars = append(bars, types.AssetBar{Date: date, Symbol: symbol, Close: close})
	}

	return bars, nil
}
