package darkpool

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// TickerDataset is one ticker's raw off-exchange rows plus the metric key
// label it should be reported under (e.g. "off_exchange_ratio").
type TickerDataset struct {
	Ticker    string
	MetricKey string
	Rows      []RawRow
}

// TickerResult is one ticker's analysis outcome: either an Anomaly or an
// error (e.g. insufficient sample, zero dispersion).
type TickerResult struct {
	Ticker  string
	Anomaly Anomaly
	Err     error
}

// Analyzer runs the off-exchange anomaly detector across a portfolio of
// tickers. Shaped after the teacher's RegimeAnalyzer: a small config-holding
// struct whose single entry point logs a per-run summary.
type Analyzer struct {
	Thresholds Thresholds
	MinSamples int
	Lookback   int
}

// NewAnalyzer builds an Analyzer with the given significance threshold and
// lookback/min-sample configuration.
func NewAnalyzer(significance float64, minSamples, lookback int) *Analyzer {
	return &Analyzer{
		Thresholds: DefaultThresholds(significance),
		MinSamples: minSamples,
		Lookback:   lookback,
	}
}

// AnalyzePortfolio runs per-ticker analyses in parallel (§5 concurrency
// model: "The anomaly detector runs per-ticker analyses in parallel").
func (a *Analyzer) AnalyzePortfolio(datasets []TickerDataset) []TickerResult {
	results := make([]TickerResult, len(datasets))
	var wg sync.WaitGroup
	for i, ds := range datasets {
		wg.Add(1)
		go func(i int, ds TickerDataset) {
			defer wg.Done()
			results[i] = a.analyzeOne(ds)
		}(i, ds)
	}
	wg.Wait()

	significant := 0
	for _, r := range results {
		if r.Err == nil && r.Anomaly.Significant {
			significant++
		}
	}
	log.Info().
		Int("tickers", len(datasets)).
		Int("significant", significant).
		Msg("darkpool anomaly scan complete")

	return results
}

func (a *Analyzer) analyzeOne(ds TickerDataset) TickerResult {
	observations, err := CollapseObservations(ds.Rows)
	if err != nil {
		log.Debug().Err(err).Str("ticker", ds.Ticker).Msg("darkpool column detection failed")
		return TickerResult{Ticker: ds.Ticker, Err: err}
	}
	if len(observations) == 0 {
		return TickerResult{Ticker: ds.Ticker, Err: newErr(CodeInsufficientSample, "no observations collapsed for %s", ds.Ticker)}
	}

	inRange := lastN(observations, a.Lookback)
	current := inRange[len(inRange)-1]

	baseline, err := ComputeBaseline(inRange, a.MinSamples)
	if err != nil {
		log.Debug().Err(err).Str("ticker", ds.Ticker).Msg("darkpool baseline computation failed")
		return TickerResult{Ticker: ds.Ticker, Err: err}
	}

	anomaly, err := Evaluate(ds.Ticker, ds.MetricKey, current, baseline, a.Thresholds)
	if err != nil {
		return TickerResult{Ticker: ds.Ticker, Err: err}
	}
	return TickerResult{Ticker: ds.Ticker, Anomaly: anomaly}
}

func lastN(observations []Observation, n int) []Observation {
	if n <= 0 || n >= len(observations) {
		return observations
	}
	return observations[len(observations)-n:]
}
