package darkpool

// ClassifyTransitions compares current anomalies against the previous run's
// anomalies, keyed by `${ticker}:${metric_key}` (§4.8 "Transition
// classification"). Output preserves current-first ordering, then
// resolved-from-previous, for deterministic diffing.
func ClassifyTransitions(current, previous []Anomaly) []Transition {
	previousByKey := make(map[string]Anomaly, len(previous))
	for _, a := range previous {
		previousByKey[a.Key()] = a
	}
	seenInCurrent := make(map[string]bool, len(current))

	var transitions []Transition
	for i := range current {
		cur := current[i]
		seenInCurrent[cur.Key()] = true
		prev, ok := previousByKey[cur.Key()]
		if !ok {
			transitions = append(transitions, Transition{Key: cur.Key(), Kind: TransitionNew, Current: &current[i]})
			continue
		}
		if prev.Severity == cur.Severity {
			transitions = append(transitions, Transition{Key: cur.Key(), Kind: TransitionPersisted, Current: &current[i], Previous: &prev})
		} else {
			transitions = append(transitions, Transition{Key: cur.Key(), Kind: TransitionSeverityChange, Current: &current[i], Previous: &prev, PreviousSeverity: prev.Severity})
		}
	}

	for i := range previous {
		prev := previous[i]
		if seenInCurrent[prev.Key()] {
			continue
		}
		transitions = append(transitions, Transition{Key: prev.Key(), Kind: TransitionResolved, Previous: &previous[i]})
	}

	return transitions
}
