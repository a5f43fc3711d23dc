package darkpool

import "fmt"

const (
	CodeNoDateColumn      = "NO_DATE_COLUMN"
	CodeNoMetricColumn    = "NO_METRIC_COLUMN"
	CodeInsufficientSample = "INSUFFICIENT_SAMPLE"
	CodeZeroDispersion    = "ZERO_DISPERSION"
	CodeInvalidThresholds = "INVALID_THRESHOLDS"
)

// AnomalyError carries a single typed detector failure (§4.8).
type AnomalyError struct {
	Code    string
	Details string
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Details)
}

func newErr(code, format string, args ...interface{}) *AnomalyError {
	return &AnomalyError{Code: code, Details: fmt.Sprintf(format, args...)}
}
