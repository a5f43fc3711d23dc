package govtrade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePersistence_StreakAndRatio(t *testing.T) {
	priorRuns := []RunIdentitySet{
		{RunID: "2025-01-01", Identities: map[string]bool{"id-a": true}},
		{RunID: "2025-01-08", Identities: map[string]bool{"id-a": true, "id-b": true}},
		{RunID: "2025-01-15", Identities: map[string]bool{"id-b": true}}, // id-a missing here
	}

	rows := ComputePersistence([]string{"id-a", "id-b"}, priorRuns)
	require.Len(t, rows, 2)

	byID := make(map[string]PersistenceRow, len(rows))
	for _, r := range rows {
		byID[r.Identity] = r
	}

	// id-a: present in runs 1 and 2 but not run 3 (the most recent prior
	// run), so the suffix streak is broken -> streak = 1 (current only).
	a := byID["id-a"]
	assert.Equal(t, 1, a.ConsecutiveRunStreak)
	assert.InDelta(t, 3.0/4.0, a.PersistenceRatio, 1e-4)

	// id-b: present in the two most recent prior runs -> streak = 3.
	b := byID["id-b"]
	assert.Equal(t, 3, b.ConsecutiveRunStreak)
	assert.InDelta(t, 3.0/4.0, b.PersistenceRatio, 1e-4)
}

func TestComputePersistence_FirstRun_NoPriorRuns(t *testing.T) {
	rows := ComputePersistence([]string{"id-a"}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].ConsecutiveRunStreak)
	assert.Equal(t, 1.0, rows[0].PersistenceRatio)
}
