package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareRuns_FirstRun(t *testing.T) {
	cmp := CompareRuns([]string{"ev1", "ev2"}, nil, nil)
	assert.True(t, cmp.FirstRun)
	assert.Equal(t, 2, cmp.EventSample.Current)
	assert.Equal(t, 0, cmp.EventSample.Baseline)
	assert.Equal(t, []string{"ev1", "ev2"}, cmp.EventSample.NewEvents)
}

func TestCompareRuns_EventSampleDelta(t *testing.T) {
	baseline := &RunSummary{EventIDs: []string{"ev1", "ev2"}}
	cmp := CompareRuns([]string{"ev2", "ev3"}, nil, baseline)

	assert.False(t, cmp.FirstRun)
	assert.Equal(t, []string{"ev3"}, cmp.EventSample.NewEvents)
	assert.Equal(t, []string{"ev1"}, cmp.EventSample.RemovedEvents)
}

func TestCompareRuns_AggregateDriftAndConclusionChange(t *testing.T) {
	baseline := &RunSummary{
		EventIDs: []string{"ev1"},
		Aggregates: []AggregateRow{
			{AnchorKind: "transaction", WindowSessions: 1, BenchmarkSymbol: "SPY", SampleSize: 10, HitRate: 0.4, MeanForward: 1.0, MedianForward: 1.0, MeanExcess: -0.5},
		},
	}
	current := []AggregateRow{
		{AnchorKind: "transaction", WindowSessions: 1, BenchmarkSymbol: "SPY", SampleSize: 12, HitRate: 0.6, MeanForward: 1.5, MedianForward: 1.2, MeanExcess: 0.8},
	}

	cmp := CompareRuns([]string{"ev1"}, current, baseline)
	require.Len(t, cmp.AggregateDrift, 1)
	drift := cmp.AggregateDrift[0]
	assert.Equal(t, 2, drift.SampleDelta)
	assert.InDelta(t, 0.2, drift.HitRateDelta, 1e-4)

	require.Len(t, cmp.ConclusionChanges, 1)
	change := cmp.ConclusionChanges[0]
	assert.Equal(t, "underperform", change.Baseline)
	assert.Equal(t, "outperform", change.Current)
}

func TestCompareRuns_NoSignChange_NoConclusion(t *testing.T) {
	baseline := &RunSummary{
		EventIDs:   []string{"ev1"},
		Aggregates: []AggregateRow{{AnchorKind: "transaction", WindowSessions: 1, BenchmarkSymbol: "SPY", MeanExcess: 0.5}},
	}
	current := []AggregateRow{{AnchorKind: "transaction", WindowSessions: 1, BenchmarkSymbol: "SPY", MeanExcess: 0.7}}

	cmp := CompareRuns([]string{"ev1"}, current, baseline)
	assert.Empty(t, cmp.ConclusionChanges)
}
