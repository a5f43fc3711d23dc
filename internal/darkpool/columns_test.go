package darkpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMetricColumn_PrefersOffExchangeRatio(t *testing.T) {
	rows := []RawRow{
		{"date": "2025-01-02", "off_exchange_ratio": 0.41, "volume": 1200000.0},
		{"date": "2025-01-03", "off_exchange_ratio": 0.38, "volume": 1100000.0},
	}
	col, err := detectMetricColumn(rows)
	require.NoError(t, err)
	assert.Equal(t, "off_exchange_ratio", col)
}

func TestDetectMetricColumn_NoCandidateScoresAboveZero(t *testing.T) {
	rows := []RawRow{{"date": "2025-01-02", "ticker": "AAPL"}}
	_, err := detectMetricColumn(rows)
	require.Error(t, err)
	anomalyErr, ok := err.(*AnomalyError)
	require.True(t, ok)
	assert.Equal(t, CodeNoMetricColumn, anomalyErr.Code)
}

func TestCollapseObservations_CollapsesSameDateRowsAndSorts(t *testing.T) {
	rows := []RawRow{
		{"date": "2025-01-03", "off_exchange_ratio": 0.40},
		{"date": "2025-01-02", "off_exchange_ratio": 0.30},
		{"date": "2025-01-02", "off_exchange_ratio": 0.50},
	}
	observations, err := CollapseObservations(rows)
	require.NoError(t, err)
	require.Len(t, observations, 2)

	assert.True(t, observations[0].Date.Before(observations[1].Date))
	assert.Equal(t, 2, observations[0].RowCount)
	assert.InDelta(t, 0.40, observations[0].Value, 1e-9)
	assert.Equal(t, 1, observations[1].RowCount)
}

func TestCollapseObservations_NoDateColumn(t *testing.T) {
	rows := []RawRow{{"off_exchange_ratio": 0.4}}
	_, err := CollapseObservations(rows)
	require.Error(t, err)
	anomalyErr, ok := err.(*AnomalyError)
	require.True(t, ok)
	assert.Equal(t, CodeNoDateColumn, anomalyErr.Code)
}
