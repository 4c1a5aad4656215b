package scenario

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/macroquant/regime-analyzer/internal/config"
	apperrors "github.com/macroquant/regime-analyzer/internal/errors"
	"github.com/macroquant/regime-analyzer/pkg/types"
)

// ShockEvent is a calendar date where the 10Y yield rose by more than the
// trigger over the lookback window. Immutable once detected.
type ShockEvent struct {
	Date        time.Time `json:"date"`
	YieldChange float64   `json:"yield_change"` // pp over the lookback window
	Yield       float64   `json:"yield"`        // 10Y level at the event
}

// ForwardReturnSample is one (event, horizon day, symbol) cumulative return
type ForwardReturnSample struct {
	EventDate  time.Time `json:"event_date"`
	HorizonDay int       `json:"horizon_day"`
	Symbol     string    `json:"symbol"`
	CumReturn  float64   `json:"cum_return"`
}

// EventOutcome holds the terminal-horizon measurements for one usable event
type EventOutcome struct {
	Event           ShockEvent         `json:"event"`
	EndYield        float64            `json:"end_yield"`
	TerminalReturns map[string]float64 `json:"terminal_returns"`
	PortfolioReturn float64            `json:"portfolio_return"`
}

// PercentileRow holds the 10th/50th/90th percentile outcomes for one symbol
// (or the weighted portfolio) at the terminal horizon.
type PercentileRow struct {
	Symbol       string  `json:"symbol"`
	P10          float64 `json:"p10"`
	P50          float64 `json:"p50"`
	P90          float64 `json:"p90"`
	Observations int     `json:"observations"`
}

// Result is the full rate-shock scenario output
type Result struct {
	Events            []ShockEvent          `json:"events"`
	Outcomes          []EventOutcome        `json:"outcomes"`
	Samples           []ForwardReturnSample `json:"samples"`
	SymbolPercentiles []PercentileRow       `json:"symbol_percentiles"`
	Portfolio         PercentileRow         `json:"portfolio"`
	DroppedEvents     int                   `json:"dropped_events"`

	// SmallSample marks percentile outcomes computed from fewer than two
	// usable events. They are still reported, but statistically unreliable.
	SmallSample bool `json:"small_sample"`
}

// Analyzer finds historical rate-shock analogs and measures how assets
// performed in their aftermath.
type Analyzer struct {
	triggerBps     float64
	lookbackDays   int
	horizonDays    int
	separationDays int
	weights        map[string]float64
}

// NewAnalyzer creates a scenario analyzer from a validated configuration
func NewAnalyzer(cfg config.AnalysisConfig) *Analyzer {
	return &Analyzer{
		triggerBps:     cfg.ShockTriggerBps,
		lookbackDays:   cfg.ShockLookbackDays,
		horizonDays:    cfg.ForwardHorizonDays,
		separationDays: cfg.MinEventSeparationDays,
		weights:        cfg.PortfolioWeights,
	}
}

// Run executes the three scenario steps: detect shock events, measure
// forward returns over the horizon, and derive percentile outcomes.
//
// Events without a full horizon of trailing price data are dropped, never
// fatal. Fewer than two usable events flags the result as a small sample.
func (a *Analyzer) Run(ds *types.Dataset) (*Result, error) {
	if ds.Len() <= a.lookbackDays {
		return nil, apperrors.NewDataGapError("scenario", "run",
			"dataset shorter than the shock lookback window").
			WithContext("observations", ds.Len()).
			WithContext("lookback_days", a.lookbackDays)
	}

	result := &Result{Events: a.DetectEvents(ds.Observations)}
	a.measureForwardReturns(ds, result)
	a.computePercentiles(ds.Symbols, result)

	result.SmallSample = len(result.Outcomes) < 2
	return result, nil
}

// DetectEvents scans for dates where the 10Y yield change over the lookback
// window strictly exceeds the trigger. A candidate within the minimum
// separation of the previously retained event belongs to the same rate
// cycle and is suppressed, so one prolonged sell-off counts once.
func (a *Analyzer) DetectEvents(obs []types.ObservationRow) []ShockEvent {
	var events []ShockEvent
	var lastRetained time.Time

	for i := a.lookbackDays; i < len(obs); i++ {
		change := obs[i].Treasury10Y - obs[i-a.lookbackDays].Treasury10Y
		if change <= a.triggerBps {
			continue
		}
		if !lastRetained.IsZero() &&
			obs[i].Date.Sub(lastRetained) <= time.Duration(a.separationDays)*24*time.Hour {
			continue
		}
		events = append(events, ShockEvent{
			Date:        obs[i].Date,
			YieldChange: change,
			Yield:       obs[i].Treasury10Y,
		})
		lastRetained = obs[i].Date
	}

	return events
}

// measureForwardReturns computes cumulative returns for every horizon day
// in [0, H] per symbol, per event. Events whose horizon runs past the end
// of the dataset are dropped.
func (a *Analyzer) measureForwardReturns(ds *types.Dataset, result *Result) {
	dateIndex := make(map[time.Time]int, ds.Len())
	for i, obs := range ds.Observations {
		dateIndex[obs.Date] = i
	}

	for _, event := range result.Events {
		start, ok := dateIndex[event.Date]
		if !ok || start+a.horizonDays >= ds.Len() {
			result.DroppedEvents++
			continue
		}

		outcome := EventOutcome{
			Event:           event,
			EndYield:        ds.Observations[start+a.horizonDays].Treasury10Y,
			TerminalReturns: make(map[string]float64, len(ds.Symbols)),
		}

		for _, symbol := range ds.Symbols {
			closes := ds.Closes[symbol]
			base := closes[start]
			if base <= 0 {
				continue
			}
			for h := 0; h <= a.horizonDays; h++ {
				ret := closes[start+h]/base - 1
				result.Samples = append(result.Samples, ForwardReturnSample{
					EventDate:  event.Date,
					HorizonDay: h,
					Symbol:     symbol,
					CumReturn:  ret,
				})
				if h == a.horizonDays {
					outcome.TerminalReturns[symbol] = ret
				}
			}
		}

		for symbol, weight := range a.weights {
			outcome.PortfolioReturn += weight * outcome.TerminalReturns[symbol]
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
}

// computePercentiles derives the 10th/50th/90th percentile of terminal
// returns per symbol and for the weighted portfolio.
func (a *Analyzer) computePercentiles(symbols []string, result *Result) {
	if len(result.Outcomes) == 0 {
		return
	}

	for _, symbol := range symbols {
		var terminal []float64
		for _, outcome := range result.Outcomes {
			if ret, ok := outcome.TerminalReturns[symbol]; ok {
				terminal = append(terminal, ret)
			}
		}
		if len(terminal) == 0 {
			continue
		}
		result.SymbolPercentiles = append(result.SymbolPercentiles, percentileRow(symbol, terminal))
	}

	portfolio := make([]float64, len(result.Outcomes))
	for i, outcome := range result.Outcomes {
		portfolio[i] = outcome.PortfolioReturn
	}
	result.Portfolio = percentileRow("PORTFOLIO", portfolio)
}

// percentileRow computes empirical quantiles over a copy of the values.
// gonum requires the input sorted ascending.
func percentileRow(symbol string, values []float64) PercentileRow {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return PercentileRow{
		Symbol:       symbol,
		P10:          stat.Quantile(0.10, stat.Empirical, sorted, nil),
		P50:          stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:          stat.Quantile(0.90, stat.Empirical, sorted, nil),
		Observations: len(sorted),
	}
}
