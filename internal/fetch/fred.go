package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/macroquant/regime-analyzer/internal/errors"
)

const fredBaseURL = "https://api.stlouisfed.org/fred/series/observations"

// FRED series codes for the macro inputs
const (
	SeriesFedFunds    = "DFF"   // Federal Funds Effective Rate
	SeriesTreasury10Y = "DGS10" // 10-Year Treasury Constant Maturity
)

// SeriesPoint is one dated value of a FRED series
type SeriesPoint struct {
	Date  time.Time
	Value float64
}

// FREDClient fetches economic data series from the FRED API
type FREDClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
}

// NewFREDClient creates a FRED client. The API key comes from the
// FRED_API_KEY environment variable, loaded via .env by the CLI.
func NewFREDClient(apiKey string) *FREDClient {
	return &FREDClient{
		apiKey:     apiKey,
		baseURL:    fredBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      DefaultRetryConfig(),
	}
}

// fredResponse mirrors the observations payload of the FRED API
type fredResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FetchSeries downloads one series over [start, end]. Missing observations
// (FRED encodes them as ".") are skipped.
func (c *FREDClient) FetchSeries(ctx context.Context, seriesID string, start, end time.Time) ([]SeriesPoint, error) {
	if c.apiKey == "" {
		return nil, apperrors.NewConfigError("fetch", "fred_series",
			"FRED_API_KEY is not set; get a free key at https://fred.stlouisfed.org/docs/api/api_key.html")
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("observation_start", start.Format("2006-01-02"))
	params.Set("observation_end", end.Format("2006-01-02"))

	var payload fredResponse
	err := Retry(ctx, c.retry, func() error {
		return c.getJSON(ctx, c.baseURL+"?"+params.Encode(), &payload)
	})
	if err != nil {
		return nil, err
	}

	var points []SeriesPoint
	skipped := 0
	for _, obs := range payload.Observations {
		if obs.Value == "." {
			skipped++
			continue
		}
		date, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			skipped++
			continue
		}
		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			skipped++
			continue
		}
		points = append(points, SeriesPoint{Date: date, Value: value})
	}

	log.Info().Str("series", seriesID).Int("points", len(points)).Int("skipped", skipped).
		Msg("FRED series fetched")
	return points, nil
}

// getJSON performs one GET request and decodes the JSON body
func (c *FREDClient) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrorCategoryFatal, "fetch", "fred_request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrorCategoryNetwork, "fetch", "fred_request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.NewAnalysisError(apperrors.ErrorCategoryRateLimit, "fetch", "fred_request",
			"FRED rate limit exceeded")
	case resp.StatusCode >= 500:
		return apperrors.NewAnalysisError(apperrors.ErrorCategoryNetwork, "fetch", "fred_request",
			fmt.Sprintf("FRED server error (status %d)", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.NewAnalysisError(apperrors.ErrorCategoryFatal, "fetch", "fred_request",
			fmt.Sprintf("FRED API error (status %d): %s", resp.StatusCode, string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.WrapError(err, apperrors.ErrorCategoryFatal, "fetch", "fred_decode")
	}
	return nil
}
