package darkpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(dateStr string, value float64) Observation {
	d, _ := time.Parse("2006-01-02", dateStr)
	return Observation{Date: d.UTC(), Value: value, RowCount: 1}
}

func TestComputeBaseline_MedianAndMAD(t *testing.T) {
	observations := []Observation{
		obs("2025-01-01", 10), obs("2025-01-02", 11), obs("2025-01-03", 9),
		obs("2025-01-04", 10), obs("2025-01-05", 12),
	}
	baseline, err := ComputeBaseline(observations, 3)
	require.NoError(t, err)
	assert.Equal(t, "mad", baseline.DispersionKind)
	assert.InDelta(t, 10.0, baseline.Center, 1e-9)
	assert.Greater(t, baseline.Dispersion, 0.0)
}

func TestComputeBaseline_FallsBackToIQRThenStddevThenFails(t *testing.T) {
	// All identical values: MAD is zero, IQR is also zero, falls to stddev,
	// which is also zero since all values are identical -> fails.
	observations := []Observation{
		obs("2025-01-01", 5), obs("2025-01-02", 5), obs("2025-01-03", 5), obs("2025-01-04", 5),
	}
	_, err := ComputeBaseline(observations, 2)
	require.Error(t, err)
	anomalyErr, ok := err.(*AnomalyError)
	require.True(t, ok)
	assert.Equal(t, CodeZeroDispersion, anomalyErr.Code)
}

func TestComputeBaseline_InsufficientSample(t *testing.T) {
	observations := []Observation{obs("2025-01-01", 5), obs("2025-01-02", 6)}
	_, err := ComputeBaseline(observations, 5)
	require.Error(t, err)
	anomalyErr, ok := err.(*AnomalyError)
	require.True(t, ok)
	assert.Equal(t, CodeInsufficientSample, anomalyErr.Code)
}

func TestEvaluate_SignificanceAndSeverityBands(t *testing.T) {
	baseline := Baseline{Center: 10, Dispersion: 1, DispersionKind: "mad", SampleSize: 10}
	thresholds := DefaultThresholds(2.0)

	low, err := Evaluate("AAPL", "off_exchange_ratio", obs("2025-01-10", 11), baseline, thresholds)
	require.NoError(t, err)
	assert.Equal(t, SeverityLow, low.Severity)
	assert.False(t, low.Significant)

	high, err := Evaluate("AAPL", "off_exchange_ratio", obs("2025-01-10", 15), baseline, thresholds)
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, high.Severity)
	assert.True(t, high.Significant)
	assert.Equal(t, "positive", high.Direction)
}

func TestEvaluate_InvalidThresholds(t *testing.T) {
	baseline := Baseline{Center: 10, Dispersion: 1}
	bad := Thresholds{Significance: 2, Medium: 1.5, High: 3}
	_, err := Evaluate("AAPL", "off_exchange_ratio", obs("2025-01-10", 11), baseline, bad)
	require.Error(t, err)
}
