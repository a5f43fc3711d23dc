package backtest

import "math"

// round6 rounds to 6 decimal places, matching §4.7's output precision for
// every percentage field except hit_rate (4 decimals, see aggregate.go).
func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}

// ForwardReturn computes start/end closes and forward_return_percent for
// one aligned anchor over window w sessions (§4.7 "Forward return").
// Fails WINDOW_OUT_OF_RANGE when the w-th session beyond the anchor is
// beyond the loaded window for the series.
func ForwardReturn(cal *TradingCalendar, series PriceSeries, anchor AlignedAnchor, window int) (startClose, endClose, forwardPct float64, err error) {
	startClose, ok := series.Bars[anchor.AlignedDate]
	if !ok {
		return 0, 0, 0, newErr(CodeWindowOutOfRange, "no close for %s on aligned anchor %s", series.Symbol, anchor.AlignedDate.Format("2006-01-02"))
	}
	endDate, ok := cal.SessionAt(anchor.AlignedDate, window)
	if !ok {
		return 0, 0, 0, newErr(CodeWindowOutOfRange, "window %d beyond loaded calendar coverage for anchor %s", window, anchor.AlignedDate.Format("2006-01-02"))
	}
	endClose, ok = series.Bars[endDate]
	if !ok {
		return 0, 0, 0, newErr(CodeWindowOutOfRange, "no close for %s on session %s (window %d)", series.Symbol, endDate.Format("2006-01-02"), window)
	}
	if startClose == 0 {
		return 0, 0, 0, newErr(CodeWindowOutOfRange, "zero start close for %s on %s", series.Symbol, anchor.AlignedDate.Format("2006-01-02"))
	}
	forwardPct = round6(((endClose / startClose) - 1) * 100)
	return startClose, endClose, forwardPct, nil
}

// BenchmarkRelativeReturn computes excess and relative return for one
// (event, window, benchmark) triple, given the already-computed event and
// benchmark forward returns (§4.7 "Benchmark-relative return").
func BenchmarkRelativeReturn(forwardPct, benchmarkForwardPct float64) (excess, relative float64) {
	excess = round6(forwardPct - benchmarkForwardPct)
	relative = round6(((1+forwardPct/100)/(1+benchmarkForwardPct/100) - 1) * 100)
	return excess, relative
}

// ResolveBenchmarks returns the benchmark symbols to compute for an event's
// sector under mode (§4.7 "Benchmark selection"). SPY is always included.
func ResolveBenchmarks(mode BenchmarkMode, sector string) ([]string, error) {
	symbols := []string{"SPY"}
	etf, ok := ResolveSectorETF(sector)
	switch mode {
	case BenchmarkSPYOnly:
		return symbols, nil
	case BenchmarkSPYPlusSectorOptional:
		if ok {
			symbols = append(symbols, etf)
		}
		return symbols, nil
	case BenchmarkSPYPlusSectorRequired:
		if !ok {
			return nil, newErr(CodeMissingBenchmarkMapping, "no sector ETF mapping for sector %q", sector)
		}
		return append(symbols, etf), nil
	default:
		return nil, newErr(CodeMissingBenchmarkMapping, "unrecognized benchmark_mode %q", mode)
	}
}

// BuildWindowReturn assembles a WindowReturn for one aligned anchor, window,
// and benchmark, given the already-computed forward/benchmark percentages.
func BuildWindowReturn(anchor AlignedAnchor, window int, benchmarkSymbol string, forwardPct, benchmarkForwardPct float64) WindowReturn {
	excess, relative := BenchmarkRelativeReturn(forwardPct, benchmarkForwardPct)
	return WindowReturn{
		AnchorKind:        anchor.Kind,
		EventID:           anchor.Event.EventID,
		Ticker:            anchor.Event.Ticker,
		AlignedAnchorDate: anchor.AlignedDate,
		WindowSessions:    window,
		BenchmarkSymbol:   benchmarkSymbol,
		ForwardReturnPct:  forwardPct,
		BenchmarkForward:  benchmarkForwardPct,
		ExcessPct:         excess,
		RelativePct:       relative,
	}
}
