package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestForwardReturn_WithBenchmark covers scenario S4: bars
// {2025-01-03:100, 2025-01-06:102, 2025-01-07:105, 2025-01-08:107}, SPY
// {…:500, 501, 502, 503}, transaction_date 2025-01-04, window=1. Expected
// aligned anchor 2025-01-06, forward_return_percent ≈ 2.941176,
// benchmark_forward ≈ 0.199601, excess ≈ 2.741575.
func TestForwardReturn_WithBenchmark(t *testing.T) {
	dates := []string{"2025-01-03", "2025-01-06", "2025-01-07", "2025-01-08"}
	ticker := seriesFromCloses("AAPL", dates, []float64{100, 102, 105, 107})
	spy := seriesFromCloses("SPY", dates, []float64{500, 501, 502, 503})
	cal := NewTradingCalendar(ticker, spy)

	ev := Event{EventID: "ev-s4", Ticker: "AAPL", TransactionDate: ptrTime(mustDate(t, "2025-01-04"))}
	anchors, errs := cal.AlignAnchors([]Anchor{{Event: ev, Kind: "transaction", AnchorDate: *ev.TransactionDate}})
	require.Empty(t, errs)
	require.Len(t, anchors, 1)
	assert.Equal(t, mustDate(t, "2025-01-06"), anchors[0].AlignedDate)

	_, _, forwardPct, err := ForwardReturn(cal, ticker, anchors[0], 1)
	require.NoError(t, err)
	assert.InDelta(t, 2.941176, forwardPct, 1e-6)

	_, _, benchmarkPct, err := ForwardReturn(cal, spy, anchors[0], 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.199601, benchmarkPct, 1e-6)

	excess, _ := BenchmarkRelativeReturn(forwardPct, benchmarkPct)
	assert.InDelta(t, 2.741575, excess, 1e-6)
}

func TestForwardReturn_WindowBeyondCoverage_FailsOutOfRange(t *testing.T) {
	dates := []string{"2025-01-03", "2025-01-06"}
	series := seriesFromCloses("AAPL", dates, []float64{100, 102})
	cal := NewTradingCalendar(series)

	ev := Event{EventID: "ev-oor", Ticker: "AAPL", TransactionDate: ptrTime(mustDate(t, "2025-01-06"))}
	anchors, errs := cal.AlignAnchors([]Anchor{{Event: ev, Kind: "transaction", AnchorDate: *ev.TransactionDate}})
	require.Empty(t, errs)

	_, _, _, err := ForwardReturn(cal, series, anchors[0], 5)
	require.Error(t, err)
	studyErr, ok := err.(*EventStudyError)
	require.True(t, ok)
	assert.Equal(t, CodeWindowOutOfRange, studyErr.Code)
}

func TestResolveBenchmarks(t *testing.T) {
	symbols, err := ResolveBenchmarks(BenchmarkSPYOnly, "Technology")
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY"}, symbols)

	symbols, err = ResolveBenchmarks(BenchmarkSPYPlusSectorOptional, "Unknown Sector")
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY"}, symbols)

	symbols, err = ResolveBenchmarks(BenchmarkSPYPlusSectorRequired, "Technology")
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY", "XLK"}, symbols)

	_, err = ResolveBenchmarks(BenchmarkSPYPlusSectorRequired, "Unknown Sector")
	require.Error(t, err)
	studyErr, ok := err.(*EventStudyError)
	require.True(t, ok)
	assert.Equal(t, CodeMissingBenchmarkMapping, studyErr.Code)
}
