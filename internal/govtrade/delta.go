package govtrade

// DeltaKind classifies one identity's change between a baseline and the
// current run (§4.9 "Delta against baseline").
type DeltaKind string

const (
	DeltaNew             DeltaKind = "new"
	DeltaUpdated         DeltaKind = "updated"
	DeltaUnchanged       DeltaKind = "unchanged"
	DeltaNoLongerPresent DeltaKind = "no_longer_present"
)

// Delta is one identity's classification plus the current/baseline events
// it was computed from.
type Delta struct {
	Identity string
	Kind     DeltaKind
	Current  *TradeEvent
	Baseline *TradeEvent
}

// ComputeDelta classifies every identity present in current or baseline
// (§4.9). "updated" means the identity is unchanged but at least one
// non-identity field (shares, report_date) differs.
func ComputeDelta(current, baseline []TradeEvent) []Delta {
	currentByID := make(map[string]TradeEvent, len(current))
	for _, e := range current {
		currentByID[e.Identity()] = e
	}
	baselineByID := make(map[string]TradeEvent, len(baseline))
	for _, e := range baseline {
		baselineByID[e.Identity()] = e
	}

	var deltas []Delta
	for id, cur := range currentByID {
		cur := cur
		base, ok := baselineByID[id]
		if !ok {
			deltas = append(deltas, Delta{Identity: id, Kind: DeltaNew, Current: &cur})
			continue
		}
		base := base
		if nonIdentityFieldsDiffer(cur, base) {
			deltas = append(deltas, Delta{Identity: id, Kind: DeltaUpdated, Current: &cur, Baseline: &base})
		} else {
			deltas = append(deltas, Delta{Identity: id, Kind: DeltaUnchanged, Current: &cur, Baseline: &base})
		}
	}
	for id, base := range baselineByID {
		base := base
		if _, ok := currentByID[id]; ok {
			continue
		}
		deltas = append(deltas, Delta{Identity: id, Kind: DeltaNoLongerPresent, Baseline: &base})
	}
	return deltas
}

func nonIdentityFieldsDiffer(a, b TradeEvent) bool {
	if a.Shares != b.Shares {
		return true
	}
	if (a.ReportDate == nil) != (b.ReportDate == nil) {
		return true
	}
	if a.ReportDate != nil && b.ReportDate != nil && !a.ReportDate.Equal(*b.ReportDate) {
		return true
	}
	return false
}
