package darkpool

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const dispersionEpsilon = 1e-9

// madScaleFactor converts median absolute deviation to a normal-consistent
// scale estimate (§4.8 "Baseline": `1.4826 × MAD`).
const madScaleFactor = 1.4826

// iqrScaleFactor converts interquartile range to a normal-consistent scale
// estimate (§4.8: `IQR/1.349`).
const iqrScaleFactor = 1.349

// ComputeBaseline takes the in-range subset of observations for a lookback
// window and computes the robust center/dispersion (§4.8 "Baseline").
// minSamples is the minimum number of baseline points required in addition
// to the current observation.
func ComputeBaseline(observations []Observation, minSamples int) (Baseline, error) {
	if len(observations) < minSamples+1 {
		return Baseline{}, newErr(CodeInsufficientSample, "need at least %d dated points (current + baseline), have %d", minSamples+1, len(observations))
	}

	values := make([]float64, len(observations))
	for i, o := range observations {
		values[i] = o.Value
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	center := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	mad := medianAbsoluteDeviation(sorted, center)
	dispersion := madScaleFactor * mad
	kind := "mad"

	if dispersion <= dispersionEpsilon {
		q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
		q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
		dispersion = (q3 - q1) / iqrScaleFactor
		kind = "iqr"
	}
	if dispersion <= dispersionEpsilon {
		dispersion = stat.StdDev(values, nil)
		kind = "stddev"
	}
	if dispersion <= dispersionEpsilon {
		return Baseline{}, newErr(CodeZeroDispersion, "baseline dispersion resolved to zero across all three estimators")
	}

	return Baseline{
		Center:         center,
		Dispersion:     dispersion,
		DispersionKind: kind,
		SampleSize:     len(observations),
	}, nil
}

func medianAbsoluteDeviation(sortedValues []float64, center float64) float64 {
	deviations := make([]float64, len(sortedValues))
	for i, v := range sortedValues {
		deviations[i] = math.Abs(v - center)
	}
	sort.Float64s(deviations)
	return stat.Quantile(0.5, stat.Empirical, deviations, nil)
}
