package govtrade

import "math"

// RunIdentitySet is one prior run's set of identities, used to compute
// persistence trend for the current run's events (§4.9 "Persistence
// trend").
type RunIdentitySet struct {
	RunID      string
	Identities map[string]bool
}

// PersistenceRow is one current event's persistence-trend rollup.
type PersistenceRow struct {
	Identity             string  `json:"identity"`
	ConsecutiveRunStreak int     `json:"consecutive_run_streak"`
	PersistenceRatio     float64 `json:"persistence_ratio"`
}

// ComputePersistence computes, for each current identity, how many of the
// prior runs (ordered oldest-to-newest by run_id) contained it, the
// consecutive-run streak ending at the current run, and the persistence
// ratio (§4.9).
//
// priorRuns must already be sorted ascending by RunID; the caller owns that
// ordering since RunID's natural sort order depends on the run-id scheme in
// use (date string, sequence number, etc).
func ComputePersistence(currentIdentities []string, priorRuns []RunIdentitySet) []PersistenceRow {
	totalRuns := len(priorRuns) + 1

	rows := make([]PersistenceRow, 0, len(currentIdentities))
	for _, id := range currentIdentities {
		seen := 1 // the current run always counts
		streak := 1 // current run always extends the streak by one

		for i := len(priorRuns) - 1; i >= 0; i-- {
			if priorRuns[i].Identities[id] {
				streak++
			} else {
				break
			}
		}
		for _, run := range priorRuns {
			if run.Identities[id] {
				seen++
			}
		}

		ratio := math.Round(float64(seen)/float64(totalRuns)*1e4) / 1e4
		rows = append(rows, PersistenceRow{
			Identity:             id,
			ConsecutiveRunStreak: streak,
			PersistenceRatio:     ratio,
		})
	}
	return rows
}
