package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_GroupsAndComputesHitRateMeanMedianStdev(t *testing.T) {
	rows := []WindowReturn{
		{AnchorKind: "transaction", WindowSessions: 1, BenchmarkSymbol: "SPY", ForwardReturnPct: 2.0, ExcessPct: 1.0},
		{AnchorKind: "transaction", WindowSessions: 1, BenchmarkSymbol: "SPY", ForwardReturnPct: 4.0, ExcessPct: -0.5},
		{AnchorKind: "transaction", WindowSessions: 1, BenchmarkSymbol: "SPY", ForwardReturnPct: 6.0, ExcessPct: 2.0},
	}
	out := Aggregate(rows)
	require.Len(t, out, 1)

	row := out[0]
	assert.Equal(t, 3, row.SampleSize)
	assert.InDelta(t, 2.0/3.0, row.HitRate, 1e-4)
	assert.InDelta(t, 4.0, row.MeanForward, 1e-6)
	assert.InDelta(t, 4.0, row.MedianForward, 1e-6)
	assert.Greater(t, row.StdevForward, 0.0)
}

func TestAggregate_SortedByAnchorKindWindowBenchmark(t *testing.T) {
	rows := []WindowReturn{
		{AnchorKind: "report", WindowSessions: 5, BenchmarkSymbol: "XLK"},
		{AnchorKind: "report", WindowSessions: 1, BenchmarkSymbol: "SPY"},
		{AnchorKind: "transaction", WindowSessions: 1, BenchmarkSymbol: "SPY"},
	}
	out := Aggregate(rows)
	require.Len(t, out, 3)
	assert.Equal(t, "report", out[0].AnchorKind)
	assert.Equal(t, 1, out[0].WindowSessions)
	assert.Equal(t, "report", out[1].AnchorKind)
	assert.Equal(t, 5, out[1].WindowSessions)
	assert.Equal(t, "transaction", out[2].AnchorKind)
}

func TestAggregate_SingleSample_StdevZero(t *testing.T) {
	rows := []WindowReturn{
		{AnchorKind: "transaction", WindowSessions: 1, BenchmarkSymbol: "SPY", ForwardReturnPct: 3.0, ExcessPct: 1.0},
	}
	out := Aggregate(rows)
	require.Len(t, out, 1)
	assert.Equal(t, 0.0, out[0].StdevForward)
}

func TestTradingCalendar_SessionAt(t *testing.T) {
	series := seriesFromCloses("AAPL",
		[]string{"2025-01-03", "2025-01-06", "2025-01-07", "2025-01-08"},
		[]float64{100, 102, 105, 107},
	)
	cal := NewTradingCalendar(series)

	session, ok := cal.SessionAt(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), 1)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), session)

	_, ok = cal.SessionAt(time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC), 1)
	assert.False(t, ok)
}
