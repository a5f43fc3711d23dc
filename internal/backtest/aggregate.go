package backtest

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// aggregateKey groups window returns for aggregation (§4.7 "Aggregation").
type aggregateKey struct {
	AnchorKind      string
	WindowSessions  int
	BenchmarkSymbol string
}

// Aggregate groups rows by (anchor_kind, window_sessions, benchmark_symbol)
// and computes hit rate, mean/median/stdev of forward returns, and mean of
// excess/relative returns. Rows are emitted sorted by anchor_kind, then
// window ascending, then benchmark ascending.
func Aggregate(rows []WindowReturn) []AggregateRow {
	groups := make(map[aggregateKey][]WindowReturn)
	for _, r := range rows {
		key := aggregateKey{AnchorKind: r.AnchorKind, WindowSessions: r.WindowSessions, BenchmarkSymbol: r.BenchmarkSymbol}
		groups[key] = append(groups[key], r)
	}

	out := make([]AggregateRow, 0, len(groups))
	for key, group := range groups {
		forward := make([]float64, len(group))
		excess := make([]float64, len(group))
		relative := make([]float64, len(group))
		hits := 0
		for i, r := range group {
			forward[i] = r.ForwardReturnPct
			excess[i] = r.ExcessPct
			relative[i] = r.RelativePct
			if r.ExcessPct > 0 {
				hits++
			}
		}

		sortedForward := append([]float64(nil), forward...)
		sort.Float64s(sortedForward)

		var stdev float64
		if len(forward) >= 2 {
			stdev = stat.StdDev(forward, nil)
		}

		out = append(out, AggregateRow{
			AnchorKind:      key.AnchorKind,
			WindowSessions:  key.WindowSessions,
			BenchmarkSymbol: key.BenchmarkSymbol,
			SampleSize:      len(group),
			HitRate:         round(float64(hits)/float64(len(group)), 4),
			MeanForward:     round6(stat.Mean(forward, nil)),
			MedianForward:   round6(median(sortedForward)),
			StdevForward:    round6(stdev),
			MeanExcess:      round6(stat.Mean(excess, nil)),
			MeanRelative:    round6(stat.Mean(relative, nil)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AnchorKind != b.AnchorKind {
			return a.AnchorKind < b.AnchorKind
		}
		if a.WindowSessions != b.WindowSessions {
			return a.WindowSessions < b.WindowSessions
		}
		return a.BenchmarkSymbol < b.BenchmarkSymbol
	})
	return out
}

// median assumes data is already sorted ascending.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round(f float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(f*scale) / scale
}
