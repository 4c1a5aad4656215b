package regime

import (
	"sort"
	"time"
)

// Span is a maximal run of consecutive identical regime labels
type Span struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Regime Regime    `json:"regime"`
	Days   int       `json:"days"` // trading days inside the span
}

// Transition marks a regime change, with the macro readings at the change
type Transition struct {
	Date        time.Time `json:"date"`
	From        Regime    `json:"from"`
	To          Regime    `json:"to"`
	FedFunds    float64   `json:"fed_funds"`
	Treasury10Y float64   `json:"treasury_10y"`
	VIX         float64   `json:"vix"`
}

// SummaryRow aggregates time spent in one regime
type SummaryRow struct {
	Regime      Regime  `json:"regime"`
	Days        int     `json:"days"`
	Percentage  float64 `json:"percentage"`
	Spans       int     `json:"spans"`
	AvgSpanDays float64 `json:"avg_span_days"`
}

// buildSpans merges consecutive equal labels into maximal runs. The spans
// partition the classified range: contiguous, ordered, neighbors differ.
func buildSpans(labels []Label) []Span {
	if len(labels) == 0 {
		return nil
	}

	var spans []Span
	current := Span{
		Start:  labels[0].Date,
		End:    labels[0].Date,
		Regime: labels[0].Regime,
		Days:   1,
	}

	for _, label := range labels[1:] {
		if label.Regime == current.Regime {
			current.End = label.Date
			current.Days++
			continue
		}
		spans = append(spans, current)
		current = Span{
			Start:  label.Date,
			End:    label.Date,
			Regime: label.Regime,
			Days:   1,
		}
	}

	return append(spans, current)
}

// Transitions returns every regime change in chronological order
func (r *Result) Transitions() []Transition {
	var transitions []Transition
	for i := 1; i < len(r.Labels); i++ {
		if r.Labels[i].Regime == r.Labels[i-1].Regime {
			continue
		}
		t := Transition{
			Date: r.Labels[i].Date,
			From: r.Labels[i-1].Regime,
			To:   r.Labels[i].Regime,
		}
		if r.observations != nil {
			t.FedFunds = r.observations[i].FedFunds
			t.Treasury10Y = r.observations[i].Treasury10Y
			t.VIX = r.observations[i].VIX
		}
		transitions = append(transitions, t)
	}
	return transitions
}

// Summary aggregates days, share of the sample, and span statistics per
// regime, sorted by days descending.
func (r *Result) Summary() []SummaryRow {
	days := make(map[Regime]int)
	spanCount := make(map[Regime]int)
	spanDays := make(map[Regime]int)

	for _, label := range r.Labels {
		days[label.Regime]++
	}
	for _, span := range r.Spans {
		spanCount[span.Regime]++
		spanDays[span.Regime] += span.Days
	}

	total := len(r.Labels)
	var rows []SummaryRow
	for _, regime := range AllRegimes() {
		if days[regime] == 0 {
			continue
		}
		row := SummaryRow{
			Regime:     regime,
			Days:       days[regime],
			Percentage: float64(days[regime]) / float64(total) * 100,
			Spans:      spanCount[regime],
		}
		if spanCount[regime] > 0 {
			row.AvgSpanDays = float64(spanDays[regime]) / float64(spanCount[regime])
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Days > rows[j].Days })
	return rows
}

// RegimeAt returns the label index for a given date, or -1 if absent
func (r *Result) RegimeAt(date time.Time) int {
	for i, label := range r.Labels {
		if label.Date.Equal(date) {
			return i
		}
	}
	return -1
}

// InsufficientHistoryDays counts the dates that defaulted to NORMAL because
// the quarterly lookback was not yet available.
func (r *Result) InsufficientHistoryDays() int {
	n := 0
	for _, label := range r.Labels {
		if label.InsufficientHistory {
			n++
		}
	}
	return n
}
