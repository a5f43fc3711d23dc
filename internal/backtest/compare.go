package backtest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

// RunSummary is the subset of a persisted run's artifacts needed for
// longitudinal comparison (§4.7 "Longitudinal comparison").
type RunSummary struct {
	Dir         string         `json:"-"`
	GeneratedAt string         `json:"generated_at"`
	EventIDs    []string       `json:"event_ids"`
	Aggregates  []AggregateRow `json:"aggregates"`
}

// assumptionsFile carries the generated_at stamp written alongside a run's
// other artifacts.
type assumptionsFile struct {
	GeneratedAt string `json:"generated_at"`
}

// DiscoverHistoricalRuns scans reportsRoot/political-backtest/scopeKey/ for
// prior run directories containing assumptions.json, aggregate-results.json,
// and events.json, sorted by generated_at ascending. The directory equal to
// exclude (the current run's own output root) is skipped.
func DiscoverHistoricalRuns(reportsRoot, scopeKey, exclude string) ([]RunSummary, error) {
	scopeDir := filepath.Join(reportsRoot, "political-backtest", scopeKey)
	entries, err := os.ReadDir(scopeDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var runs []RunSummary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(scopeDir, entry.Name())
		if dir == exclude {
			continue
		}

		assumptionsPath := filepath.Join(dir, "assumptions.json")
		aggregatesPath := filepath.Join(dir, "aggregate-results.json")
		eventsPath := filepath.Join(dir, "events.json")
		if !fileExists(assumptionsPath) || !fileExists(aggregatesPath) || !fileExists(eventsPath) {
			continue
		}

		var assumptions assumptionsFile
		if b, err := os.ReadFile(assumptionsPath); err == nil {
			json.Unmarshal(b, &assumptions)
		}

		var aggregates []AggregateRow
		if b, err := os.ReadFile(aggregatesPath); err == nil {
			json.Unmarshal(b, &aggregates)
		}

		var events []Event
		if b, err := os.ReadFile(eventsPath); err == nil {
			json.Unmarshal(b, &events)
		}
		ids := make([]string, len(events))
		for i, ev := range events {
			ids[i] = ev.EventID
		}

		runs = append(runs, RunSummary{
			Dir:         dir,
			GeneratedAt: assumptions.GeneratedAt,
			EventIDs:    ids,
			Aggregates:  aggregates,
		})
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].GeneratedAt < runs[j].GeneratedAt })
	return runs, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EventSampleDelta reports the event-id set difference between a current
// and baseline run.
type EventSampleDelta struct {
	Current      int      `json:"current"`
	Baseline     int      `json:"baseline"`
	NewEvents    []string `json:"new_events"`
	RemovedEvents []string `json:"removed_events"`
}

// AggregateDrift is the delta of one (anchor_kind, window, benchmark) row
// present in both runs.
type AggregateDrift struct {
	AnchorKind      string  `json:"anchor_kind"`
	WindowSessions  int     `json:"window_sessions"`
	BenchmarkSymbol string  `json:"benchmark_symbol"`
	SampleDelta     int     `json:"sample_delta"`
	HitRateDelta    float64 `json:"hit_rate_delta"`
	MeanDelta       float64 `json:"mean_delta"`
	MedianDelta     float64 `json:"median_delta"`
	MeanExcessDelta float64 `json:"mean_excess_delta"`
}

// ConclusionChange flags a (anchor_kind, window, benchmark) row whose
// mean_excess sign flipped between baseline and current.
type ConclusionChange struct {
	AnchorKind      string `json:"anchor_kind"`
	WindowSessions  int    `json:"window_sessions"`
	BenchmarkSymbol string `json:"benchmark_symbol"`
	Baseline        string `json:"baseline"`
	Current         string `json:"current"`
}

// Comparison is the full longitudinal comparison result (§4.7).
type Comparison struct {
	FirstRun          bool               `json:"first_run"`
	EventSample       EventSampleDelta   `json:"event_sample"`
	AggregateDrift    []AggregateDrift   `json:"aggregate_drift"`
	ConclusionChanges []ConclusionChange `json:"conclusion_changes"`
}

// CompareRuns compares current against baseline (the most recent prior run,
// or nil for a first run).
func CompareRuns(currentEventIDs []string, currentAggregates []AggregateRow, baseline *RunSummary) Comparison {
	if baseline == nil {
		return Comparison{
			FirstRun: true,
			EventSample: EventSampleDelta{
				Current:       len(currentEventIDs),
				Baseline:      0,
				NewEvents:     sortedCopy(currentEventIDs),
				RemovedEvents: nil,
			},
		}
	}

	currentSet := toSet(currentEventIDs)
	baselineSet := toSet(baseline.EventIDs)

	var newEvents, removedEvents []string
	for id := range currentSet {
		if _, ok := baselineSet[id]; !ok {
			newEvents = append(newEvents, id)
		}
	}
	for id := range baselineSet {
		if _, ok := currentSet[id]; !ok {
			removedEvents = append(removedEvents, id)
		}
	}
	sort.Strings(newEvents)
	sort.Strings(removedEvents)

	baselineByKey := make(map[aggregateKey]AggregateRow, len(baseline.Aggregates))
	for _, row := range baseline.Aggregates {
		baselineByKey[aggregateKey{row.AnchorKind, row.WindowSessions, row.BenchmarkSymbol}] = row
	}

	var drift []AggregateDrift
	var conclusions []ConclusionChange
	for _, cur := range currentAggregates {
		key := aggregateKey{cur.AnchorKind, cur.WindowSessions, cur.BenchmarkSymbol}
		base, ok := baselineByKey[key]
		if !ok {
			continue
		}
		drift = append(drift, AggregateDrift{
			AnchorKind:      cur.AnchorKind,
			WindowSessions:  cur.WindowSessions,
			BenchmarkSymbol: cur.BenchmarkSymbol,
			SampleDelta:     cur.SampleSize - base.SampleSize,
			HitRateDelta:    round(cur.HitRate-base.HitRate, 4),
			MeanDelta:       round6(cur.MeanForward - base.MeanForward),
			MedianDelta:     round6(cur.MedianForward - base.MedianForward),
			MeanExcessDelta: round6(cur.MeanExcess - base.MeanExcess),
		})

		baseLabel := conclusionLabel(base.MeanExcess)
		curLabel := conclusionLabel(cur.MeanExcess)
		if baseLabel != curLabel {
			conclusions = append(conclusions, ConclusionChange{
				AnchorKind:      cur.AnchorKind,
				WindowSessions:  cur.WindowSessions,
				BenchmarkSymbol: cur.BenchmarkSymbol,
				Baseline:        baseLabel,
				Current:         curLabel,
			})
		}
	}

	return Comparison{
		FirstRun: false,
		EventSample: EventSampleDelta{
			Current:       len(currentEventIDs),
			Baseline:      len(baseline.EventIDs),
			NewEvents:     newEvents,
			RemovedEvents: removedEvents,
		},
		AggregateDrift:    drift,
		ConclusionChanges: conclusions,
	}
}

func conclusionLabel(meanExcess float64) string {
	if meanExcess > 1e-9 {
		return "outperform"
	}
	if meanExcess < -1e-9 {
		return "underperform"
	}
	return "flat"
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
