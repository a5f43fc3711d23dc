// Package darkpool implements the off-exchange anomaly detector (§4.8):
// dataset column detection, a robust per-ticker baseline, z-score
// significance banding, and longitudinal transition classification against
// a prior run's anomalies. Shaped after the teacher's regime analyzer
// (config-driven analyzer struct, zerolog-logged per-run summary),
// generalized from regime-flip reporting to off-exchange volume anomalies.
package darkpool

import "time"

// RawRow is a loose upstream row for one ticker's off-exchange dataset.
type RawRow map[string]interface{}

// Observation is one collapsed (date, metric value) point after column
// detection and same-date collapsing (§4.8 "Dataset parsing").
type Observation struct {
	Date     time.Time
	Value    float64
	RowCount int
}

// Severity bands an anomaly's |z| (§4.8 "Significance").
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Thresholds configures significance and severity banding. Validate requires
// Significance <= Medium <= High. The check runs inside Evaluate on every
// call; DefaultThresholds and NewAnalyzer do not check the ordering.
type Thresholds struct {
	Significance float64
	Medium       float64
	High         float64
}

// DefaultThresholds returns the §4.8 defaults: medium = significance × 1.5,
// high = significance × 2.
func DefaultThresholds(significance float64) Thresholds {
	return Thresholds{
		Significance: significance,
		Medium:       significance * 1.5,
		High:         significance * 2,
	}
}

// Baseline is the robust center/dispersion computed over a lookback window
// (§4.8 "Baseline").
type Baseline struct {
	Center         float64
	Dispersion     float64
	DispersionKind string // "mad", "iqr", or "stddev"
	SampleSize     int
}

// Anomaly is one ticker/metric's current significance evaluation (§4.8
// "Significance").
type Anomaly struct {
	Ticker      string    `json:"ticker"`
	MetricKey   string    `json:"metric_key"`
	Date        time.Time `json:"date"`
	Current     float64   `json:"current"`
	Center      float64   `json:"center"`
	Dispersion  float64   `json:"dispersion"`
	Z           float64   `json:"z"`
	Direction   string    `json:"direction"` // "positive" or "negative"
	Significant bool      `json:"significant"`
	Severity    Severity  `json:"severity"`
}

// Key returns the identity this anomaly is keyed by for transition
// classification (§4.8 "Transition classification").
func (a Anomaly) Key() string {
	return a.Ticker + ":" + a.MetricKey
}

// TransitionKind classifies how an anomaly's presence/severity changed
// relative to the previous run (§4.8).
type TransitionKind string

const (
	TransitionNew            TransitionKind = "new"
	TransitionPersisted       TransitionKind = "persisted"
	TransitionSeverityChange TransitionKind = "severity_change"
	TransitionResolved        TransitionKind = "resolved"
)

// Transition is one anomaly's current-vs-previous classification.
type Transition struct {
	Key             string         `json:"key"`
	Kind            TransitionKind `json:"kind"`
	Current         *Anomaly       `json:"current,omitempty"`
	Previous        *Anomaly       `json:"previous,omitempty"`
	PreviousSeverity Severity      `json:"previous_severity,omitempty"`
}
