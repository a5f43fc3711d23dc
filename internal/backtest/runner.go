package backtest

import (
	"fmt"

	"github.com/finscope/aggregator/internal/platform"
)

// Config is the full set of inputs to one political-backtest run (§4.7).
type Config struct {
	Ticker        string
	Sector        string
	AnchorMode    AnchorMode
	BenchmarkMode BenchmarkMode
	Windows       []int
	ScopeKey      string
	ReportsRoot   string
}

// Results is everything a run produces, ready for the artifact writer (§4.10
// names `events.json`, `event-window-returns.json`,
// `benchmark-relative-returns.json`, `aggregate-results.json`,
// `comparison.json` as its output set).
type Results struct {
	Events       []Event
	WindowReturn []WindowReturn
	Aggregates   []AggregateRow
	Comparison   Comparison
	GeneratedAt  string
}

// Runner executes one political-backtest run end to end: normalize,
// anchor, align, compute returns, aggregate, compare against history.
// Shaped after the teacher's smoke90.Runner (Config in, Results out, an
// injectable Clock).
type Runner struct {
	config *Config
	clock  platform.Clock
}

// NewRunner builds a Runner for config, defaulting clock to the system
// clock when nil.
func NewRunner(config *Config, clock platform.Clock) *Runner {
	if clock == nil {
		clock = platform.SystemClock{}
	}
	return &Runner{config: config, clock: clock}
}

// Run executes the full pipeline against rows (grouped raw rows keyed by
// dataset) and pre-loaded price series for the ticker and every candidate
// benchmark symbol.
func (r *Runner) Run(rows map[DatasetID][]RawRow, series map[string]PriceSeries) (*Results, error) {
	cfg := r.config

	var events []Event
	for datasetID, datasetRows := range rows {
		normalized, errs := NormalizeEvents(cfg.Ticker, datasetID, datasetRows)
		if len(errs) > 0 {
			return nil, errs[0]
		}
		events = append(events, normalized...)
	}
	if len(events) == 0 {
		return nil, newErr(CodeEmptyEventSet, "no events normalized for ticker %s", cfg.Ticker)
	}

	anchors, err := ResolveAnchors(events, cfg.AnchorMode)
	if err != nil {
		return nil, err
	}

	tickerSeries, ok := series[cfg.Ticker]
	if !ok {
		return nil, newErr(CodeWindowOutOfRange, "no price series loaded for ticker %s", cfg.Ticker)
	}

	var calendarSeries []PriceSeries
	for _, s := range series {
		calendarSeries = append(calendarSeries, s)
	}
	cal := NewTradingCalendar(calendarSeries...)

	aligned, alignErrs := cal.AlignAnchors(anchors)
	if len(alignErrs) > 0 {
		return nil, alignErrs[0]
	}

	benchmarks, err := ResolveBenchmarks(cfg.BenchmarkMode, cfg.Sector)
	if err != nil {
		return nil, err
	}

	var windowReturns []WindowReturn
	for _, anchor := range aligned {
		for _, window := range cfg.Windows {
			_, _, forwardPct, err := ForwardReturn(cal, tickerSeries, anchor, window)
			if err != nil {
				return nil, err
			}
			for _, symbol := range benchmarks {
				benchmarkSeries, ok := series[symbol]
				if !ok {
					return nil, newErr(CodeWindowOutOfRange, "no price series loaded for benchmark %s", symbol)
				}
				_, _, benchmarkPct, err := ForwardReturn(cal, benchmarkSeries, anchor, window)
				if err != nil {
					return nil, err
				}
				windowReturns = append(windowReturns, BuildWindowReturn(anchor, window, symbol, forwardPct, benchmarkPct))
			}
		}
	}

	aggregates := Aggregate(windowReturns)

	historicalRuns, err := DiscoverHistoricalRuns(cfg.ReportsRoot, cfg.ScopeKey, "")
	if err != nil {
		return nil, fmt.Errorf("discover historical runs: %w", err)
	}

	eventIDs := make([]string, len(events))
	for i, ev := range events {
		eventIDs[i] = ev.EventID
	}

	var baseline *RunSummary
	if len(historicalRuns) > 0 {
		baseline = &historicalRuns[len(historicalRuns)-1]
	}
	comparison := CompareRuns(eventIDs, aggregates, baseline)

	return &Results{
		Events:       events,
		WindowReturn: windowReturns,
		Aggregates:   aggregates,
		Comparison:   comparison,
		GeneratedAt:  r.clock.Now().Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}
