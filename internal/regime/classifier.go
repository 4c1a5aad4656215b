package regime

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"github.com/macroquant/regime-analyzer/internal/config"
	apperrors "github.com/macroquant/regime-analyzer/internal/errors"
	"github.com/macroquant/regime-analyzer/pkg/types"
)

// Regime represents a macro market regime
type Regime int

const (
	RegimeNormal Regime = iota
	RegimeTightening
	RegimeEasing
	RegimeStress
)

func (r Regime) String() string {
	switch r {
	case RegimeTightening:
		return "TIGHTENING"
	case RegimeEasing:
		return "EASING"
	case RegimeStress:
		return "STRESS"
	case RegimeNormal:
		return "NORMAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the regime as its string label
func (r Regime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// AllRegimes lists every regime in reporting order
func AllRegimes() []Regime {
	return []Regime{RegimeTightening, RegimeEasing, RegimeStress, RegimeNormal}
}

// Label is the per-date classification output. The computed inputs are
// retained so reporting can explain why a date was labeled the way it was.
// FedFundsChange and TreasuryChange are NaN on insufficient-history dates.
type Label struct {
	Date                time.Time `json:"date"`
	Regime              Regime    `json:"regime"`
	FedFundsChange      float64   `json:"fed_funds_change"`
	TreasuryChange      float64   `json:"treasury_change"`
	VIXAvg              float64   `json:"vix_avg"`
	InsufficientHistory bool      `json:"insufficient_history"`
}

// Result holds the full classification output for one run
type Result struct {
	Labels []Label `json:"labels"`
	Spans  []Span  `json:"spans"`

	observations []types.ObservationRow
}

// Classifier assigns macro regimes using fixed threshold rules over a
// trailing window. All lookbacks are index offsets, i.e. trading days.
type Classifier struct {
	rateChangeThreshold float64
	vixStressThreshold  float64
	quarterLookbackDays int
	vixSmoothingWindow  int
}

// NewClassifier creates a classifier from a validated configuration
func NewClassifier(cfg config.AnalysisConfig) *Classifier {
	return &Classifier{
		rateChangeThreshold: cfg.RateChangeThreshold,
		vixStressThreshold:  cfg.VIXStressThreshold,
		quarterLookbackDays: cfg.QuarterLookbackDays,
		vixSmoothingWindow:  cfg.VIXSmoothingWindow,
	}
}

// Classify assigns exactly one regime label per observation date.
//
// Rule order is a fixed contract: rate-change rules are evaluated before the
// VIX stress rule, so a date with both a large rate move and an elevated VIX
// classifies as TIGHTENING (or EASING), not STRESS. All comparisons are
// strict, so a change exactly at the threshold does not trigger.
//
// Dates without a full quarterly lookback of history default to NORMAL and
// carry the InsufficientHistory flag; this is a recoverable data gap, never
// an error. Only data available at time t is used, so there is no lookahead.
func (c *Classifier) Classify(obs []types.ObservationRow) (*Result, error) {
	if len(obs) == 0 {
		return nil, apperrors.NewAnalysisError(apperrors.ErrorCategoryValidation, "regime", "classify",
			"no observations provided")
	}
	for i := 1; i < len(obs); i++ {
		if !obs[i].Date.After(obs[i-1].Date) {
			return nil, apperrors.NewAnalysisError(apperrors.ErrorCategoryValidation, "regime", "classify",
				"observations must be strictly ordered by date").
				WithContext("index", i).
				WithContext("date", obs[i].Date.Format(config.DateFormat))
		}
	}

	vixAvg := c.smoothedVIX(obs)
	labels := make([]Label, len(obs))

	for i, row := range obs {
		label := Label{
			Date:           row.Date,
			Regime:         RegimeNormal,
			FedFundsChange: math.NaN(),
			TreasuryChange: math.NaN(),
			VIXAvg:         vixAvg[i],
		}

		if i < c.quarterLookbackDays {
			label.InsufficientHistory = true
			labels[i] = label
			continue
		}

		fedChange := row.FedFunds - obs[i-c.quarterLookbackDays].FedFunds
		treasuryChange := row.Treasury10Y - obs[i-c.quarterLookbackDays].Treasury10Y
		label.FedFundsChange = fedChange
		label.TreasuryChange = treasuryChange
		label.Regime = c.classify(fedChange, treasuryChange, vixAvg[i])

		labels[i] = label
	}

	return &Result{
		Labels:       labels,
		Spans:        buildSpans(labels),
		observations: obs,
	}, nil
}

// classify applies the threshold rules in their fixed precedence order
func (c *Classifier) classify(fedChange, treasuryChange, vixAvg float64) Regime {
	switch {
	case fedChange > c.rateChangeThreshold || treasuryChange > c.rateChangeThreshold:
		return RegimeTightening
	case fedChange < -c.rateChangeThreshold || treasuryChange < -c.rateChangeThreshold:
		return RegimeEasing
	case vixAvg > c.vixStressThreshold:
		return RegimeStress
	default:
		return RegimeNormal
	}
}

// smoothedVIX computes the trailing moving average of VIX. The steady state
// comes from talib's SMA; the warmup period uses an expanding mean so the
// earliest dates still get a defined (single-point onwards) average.
func (c *Classifier) smoothedVIX(obs []types.ObservationRow) []float64 {
	vix := make([]float64, len(obs))
	for i, row := range obs {
		vix[i] = row.VIX
	}

	if len(vix) < c.vixSmoothingWindow {
		return expandingMean(vix)
	}

	avg := talib.Sma(vix, c.vixSmoothingWindow)
	warmup := expandingMean(vix[:c.vixSmoothingWindow-1])
	copy(avg, warmup)
	return avg
}

func expandingMean(values []float64) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		out[i] = sum / float64(i+1)
	}
	return out
}
