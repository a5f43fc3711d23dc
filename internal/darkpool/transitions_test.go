package darkpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anomaly(ticker, metric string, severity Severity) Anomaly {
	return Anomaly{Ticker: ticker, MetricKey: metric, Severity: severity}
}

func TestClassifyTransitions_NewPersistedSeverityChangeResolved(t *testing.T) {
	previous := []Anomaly{
		anomaly("AAPL", "off_exchange_ratio", SeverityLow),
		anomaly("MSFT", "off_exchange_ratio", SeverityMedium),
		anomaly("TSLA", "off_exchange_ratio", SeverityHigh),
	}
	current := []Anomaly{
		anomaly("AAPL", "off_exchange_ratio", SeverityLow),    // persisted
		anomaly("MSFT", "off_exchange_ratio", SeverityHigh),   // severity_change
		anomaly("GOOG", "off_exchange_ratio", SeverityMedium), // new
		// TSLA absent -> resolved
	}

	transitions := ClassifyTransitions(current, previous)
	require.Len(t, transitions, 4)

	assert.Equal(t, TransitionPersisted, transitions[0].Kind)
	assert.Equal(t, TransitionSeverityChange, transitions[1].Kind)
	assert.Equal(t, TransitionNew, transitions[2].Kind)
	assert.Equal(t, TransitionResolved, transitions[3].Kind)
	assert.Equal(t, "TSLA:off_exchange_ratio", transitions[3].Key)
}

func TestClassifyTransitions_EmptyPrevious_AllNew(t *testing.T) {
	current := []Anomaly{anomaly("AAPL", "off_exchange_ratio", SeverityLow)}
	transitions := ClassifyTransitions(current, nil)
	require.Len(t, transitions, 1)
	assert.Equal(t, TransitionNew, transitions[0].Kind)
}
