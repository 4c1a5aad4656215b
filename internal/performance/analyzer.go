package performance

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/macroquant/regime-analyzer/internal/config"
	apperrors "github.com/macroquant/regime-analyzer/internal/errors"
	"github.com/macroquant/regime-analyzer/internal/regime"
	"github.com/macroquant/regime-analyzer/pkg/types"
)

// Metrics holds the performance statistics for one (symbol, regime) pair.
// Returns and volatility are annualized fractions (0.10 = 10%); MaxDrawdown
// is zero or negative.
type Metrics struct {
	Symbol       string        `json:"symbol"`
	Regime       regime.Regime `json:"regime"`
	AnnReturn    float64       `json:"ann_return"`
	AnnVol       float64       `json:"ann_vol"`
	Sharpe       float64       `json:"sharpe"`
	MaxDrawdown  float64       `json:"max_drawdown"`
	WinRate      float64       `json:"win_rate"`
	Observations int           `json:"observations"`
}

// CorrelationPoint is one date of the rolling pairwise correlation series
type CorrelationPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// RegimeCorrelation summarizes the rolling correlation within one regime
type RegimeCorrelation struct {
	Regime       regime.Regime `json:"regime"`
	Mean         float64       `json:"mean"`
	Min          float64       `json:"min"`
	Max          float64       `json:"max"`
	Observations int           `json:"observations"`
}

// Analyzer computes per-regime asset statistics over a joined dataset
type Analyzer struct {
	annualizationFactor float64
	riskFreeRate        float64
	rollingCorrWindow   int
	correlationPair     [2]string
	minObservations     int
}

// NewAnalyzer creates an analyzer from a validated configuration
func NewAnalyzer(cfg config.AnalysisConfig) *Analyzer {
	return &Analyzer{
		annualizationFactor: float64(cfg.AnnualizationFactor),
		riskFreeRate:        cfg.RiskFreeRate,
		rollingCorrWindow:   cfg.RollingCorrWindow,
		correlationPair:     cfg.CorrelationPair,
		minObservations:     cfg.MinRegimeObservations,
	}
}

// DailyReturns converts a close series into simple daily returns. The
// return at position i belongs to the dataset date i+1.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			returns[i-1] = closes[i]/closes[i-1] - 1
		}
	}
	return returns
}

// RegimePerformance computes annualized return, volatility, Sharpe, max
// drawdown and win rate per (symbol, regime). Pairs with fewer than the
// configured minimum of return observations are skipped.
//
// Drawdowns are measured within each contiguous span of the regime and the
// worst across spans is reported; a drawdown never carries across a regime
// boundary. The alternative full-series convention would blame a regime for
// losses that happened outside it.
func (a *Analyzer) RegimePerformance(ds *types.Dataset, res *regime.Result) []Metrics {
	var results []Metrics

	for _, reg := range regime.AllRegimes() {
		runs := labelRuns(res.Labels, reg)
		for _, symbol := range ds.Symbols {
			returns := a.regimeReturns(ds.Closes[symbol], res.Labels, reg)
			if len(returns) < a.minObservations {
				continue
			}

			annReturn := a.annualizedReturn(returns)
			annVol := stat.StdDev(returns, nil) * math.Sqrt(a.annualizationFactor)

			sharpe := 0.0
			if annVol > 0 {
				sharpe = (annReturn - a.riskFreeRate) / annVol
			}

			results = append(results, Metrics{
				Symbol:       symbol,
				Regime:       reg,
				AnnReturn:    annReturn,
				AnnVol:       annVol,
				Sharpe:       sharpe,
				MaxDrawdown:  a.maxDrawdownAcrossRuns(ds.Closes[symbol], runs),
				WinRate:      winRate(returns),
				Observations: len(returns),
			})
		}
	}

	return results
}

// regimeReturns collects the daily returns of a symbol on dates carrying
// the given label. The return of day i requires day i-1, so index 0 never
// contributes.
func (a *Analyzer) regimeReturns(closes []float64, labels []regime.Label, reg regime.Regime) []float64 {
	var returns []float64
	for i := 1; i < len(closes); i++ {
		if labels[i].Regime != reg {
			continue
		}
		if closes[i-1] != 0 {
			returns = append(returns, closes[i]/closes[i-1]-1)
		}
	}
	return returns
}

// annualizedReturn compounds daily returns geometrically
func (a *Analyzer) annualizedReturn(returns []float64) float64 {
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	if growth <= 0 {
		return -1
	}
	return math.Pow(growth, a.annualizationFactor/float64(len(returns))) - 1
}

// indexRun is a contiguous [start, end] range of label indices
type indexRun struct {
	start, end int
}

func labelRuns(labels []regime.Label, reg regime.Regime) []indexRun {
	var runs []indexRun
	start := -1
	for i, label := range labels {
		if label.Regime == reg {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, indexRun{start, i - 1})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, indexRun{start, len(labels) - 1})
	}
	return runs
}

// maxDrawdownAcrossRuns returns the worst peak-to-trough decline, with the
// peak reset at the start of every contiguous run.
func (a *Analyzer) maxDrawdownAcrossRuns(closes []float64, runs []indexRun) float64 {
	worst := 0.0
	for _, run := range runs {
		peak := closes[run.start]
		for i := run.start; i <= run.end; i++ {
			if closes[i] > peak {
				peak = closes[i]
			}
			if peak > 0 {
				dd := closes[i]/peak - 1
				if dd < worst {
					worst = dd
				}
			}
		}
	}
	return worst
}

func winRate(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns)) * 100
}

// RollingCorrelation computes the rolling pairwise correlation of the
// configured asset pair across the full timeline, independent of regime,
// plus a per-regime summary of the resulting series.
func (a *Analyzer) RollingCorrelation(ds *types.Dataset, res *regime.Result) ([]CorrelationPoint, []RegimeCorrelation, error) {
	first, second := a.correlationPair[0], a.correlationPair[1]
	closes1, ok1 := ds.Closes[first]
	closes2, ok2 := ds.Closes[second]
	if !ok1 || !ok2 {
		return nil, nil, apperrors.NewAnalysisError(apperrors.ErrorCategoryValidation, "performance", "rolling_correlation",
			"correlation pair symbol missing from dataset").
			WithContext("pair", a.correlationPair)
	}

	returns1 := DailyReturns(closes1)
	returns2 := DailyReturns(closes2)
	if len(returns1) < a.rollingCorrWindow {
		return nil, nil, apperrors.NewDataGapError("performance", "rolling_correlation",
			"not enough return observations for the rolling window").
			WithContext("observations", len(returns1)).
			WithContext("window", a.rollingCorrWindow)
	}

	corr := talib.Correl(returns1, returns2, a.rollingCorrWindow)

	// Returns are shifted one day against the date index, and the first
	// window-1 correlation values are warmup artifacts.
	var points []CorrelationPoint
	byRegime := make(map[regime.Regime][]float64)
	for i := a.rollingCorrWindow - 1; i < len(corr); i++ {
		labelIdx := i + 1
		point := CorrelationPoint{Date: res.Labels[labelIdx].Date, Value: corr[i]}
		points = append(points, point)
		reg := res.Labels[labelIdx].Regime
		byRegime[reg] = append(byRegime[reg], corr[i])
	}

	var summaries []RegimeCorrelation
	for _, reg := range regime.AllRegimes() {
		values := byRegime[reg]
		if len(values) == 0 {
			continue
		}
		summary := RegimeCorrelation{
			Regime:       reg,
			Mean:         stat.Mean(values, nil),
			Min:          values[0],
			Max:          values[0],
			Observations: len(values),
		}
		for _, v := range values {
			if v < summary.Min {
				summary.Min = v
			}
			if v > summary.Max {
				summary.Max = v
			}
		}
		summaries = append(summaries, summary)
	}

	return points, summaries, nil
}

// PortfolioReturns computes the weighted daily return series of the
// configured portfolio. Position i corresponds to dataset date i+1.
func PortfolioReturns(ds *types.Dataset, weights map[string]float64) []float64 {
	if ds.Len() < 2 {
		return nil
	}
	portfolio := make([]float64, ds.Len()-1)
	for symbol, weight := range weights {
		closes, ok := ds.Closes[symbol]
		if !ok {
			continue
		}
		for i, r := range DailyReturns(closes) {
			portfolio[i] += weight * r
		}
	}
	return portfolio
}
