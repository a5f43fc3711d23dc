package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d.UTC()
}

func seriesFromCloses(symbol string, dates []string, closes []float64) PriceSeries {
	bars := make(map[time.Time]float64, len(dates))
	parsed := make([]time.Time, len(dates))
	for i, d := range dates {
		dt, _ := time.Parse("2006-01-02", d)
		dt = dt.UTC()
		parsed[i] = dt
		bars[dt] = closes[i]
	}
	return PriceSeries{Symbol: symbol, Bars: bars, Dates: parsed}
}

// TestAlignAnchors_NextSession covers scenario S3: a transaction_date that
// falls on a non-trading day (a Saturday) aligns forward to the next session.
func TestAlignAnchors_NextSession(t *testing.T) {
	series := seriesFromCloses("AAPL",
		[]string{"2025-01-03", "2025-01-06", "2025-01-07", "2025-01-08"},
		[]float64{100, 102, 105, 107},
	)
	cal := NewTradingCalendar(series)

	ev := Event{EventID: "ev1", Ticker: "AAPL", TransactionDate: ptrTime(mustDate(t, "2025-01-04"))}
	anchors := []Anchor{{Event: ev, Kind: "transaction", AnchorDate: *ev.TransactionDate}}

	aligned, errs := cal.AlignAnchors(anchors)
	require.Empty(t, errs)
	require.Len(t, aligned, 1)
	assert.True(t, aligned[0].Shifted)
	assert.Equal(t, mustDate(t, "2025-01-06"), aligned[0].AlignedDate)
}

func TestAlignAnchors_AlreadyASession_NotShifted(t *testing.T) {
	series := seriesFromCloses("AAPL", []string{"2025-01-03", "2025-01-06"}, []float64{100, 102})
	cal := NewTradingCalendar(series)

	ev := Event{EventID: "ev2", Ticker: "AAPL", TransactionDate: ptrTime(mustDate(t, "2025-01-06"))}
	anchors := []Anchor{{Event: ev, Kind: "transaction", AnchorDate: *ev.TransactionDate}}

	aligned, errs := cal.AlignAnchors(anchors)
	require.Empty(t, errs)
	require.Len(t, aligned, 1)
	assert.False(t, aligned[0].Shifted)
}

func TestAlignAnchors_BeyondCoverage_FailsOutOfRange(t *testing.T) {
	series := seriesFromCloses("AAPL", []string{"2025-01-03", "2025-01-06"}, []float64{100, 102})
	cal := NewTradingCalendar(series)

	ev := Event{EventID: "ev3", Ticker: "AAPL", TransactionDate: ptrTime(mustDate(t, "2025-02-01"))}
	anchors := []Anchor{{Event: ev, Kind: "transaction", AnchorDate: *ev.TransactionDate}}

	aligned, errs := cal.AlignAnchors(anchors)
	assert.Empty(t, aligned)
	require.Len(t, errs, 1)
	studyErr, ok := errs[0].(*EventStudyError)
	require.True(t, ok)
	assert.Equal(t, CodeAnchorOutOfRange, studyErr.Code)
}

func ptrTime(t time.Time) *time.Time { return &t }
