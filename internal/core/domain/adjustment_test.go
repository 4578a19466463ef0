package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustTechs_EndToEndScenario(t *testing.T) {
	table := scenarioTable()

	result := AdjustTechs([]string{"T2", "T1", "T3", "T9"}, table)

	assert.Equal(t, []string{"T1"}, result.IDs)

	t1 := name("Command and Scripting Interpreter")
	old := name("Old Scripting")
	retired := name("Retired Technique")
	assert.Equal(t, []TechAdjustment{
		{ID: "T2", Name: &old, Status: AdjustmentReplaced, Reason: ReasonRevoked, ReplacedBy: &TechRef{ID: "T1", Name: t1}},
		{ID: "T1", Name: &t1, Status: AdjustmentUnchanged},
		{ID: "T3", Name: &retired, Status: AdjustmentRemoved, Reason: ReasonDeprecated},
		{ID: "T9", Status: AdjustmentRemoved, Reason: ReasonUnknown},
	}, result.Adjustments)
}

func TestAdjustTechs_EmptyInput(t *testing.T) {
	result := AdjustTechs(nil, scenarioTable())
	assert.Empty(t, result.IDs)
	assert.Empty(t, result.Adjustments)
}

func TestAdjustTechs_DedupStability(t *testing.T) {
	table := NewTechStatusTable(map[string]TechStatus{
		"X": ActiveStatus{TechName: name("X")},
		"A": RevokedStatus{TechName: name("A"), By: "X"},
		"B": RevokedStatus{TechName: name("B"), By: "X"},
	})

	result := AdjustTechs([]string{"A", "A", "B"}, table)

	assert.Equal(t, []string{"X"}, result.IDs)
	require.Len(t, result.Adjustments, 2)
	assert.Equal(t, "A", result.Adjustments[0].ID)
	assert.Equal(t, "B", result.Adjustments[1].ID)
	for _, adj := range result.Adjustments {
		assert.Equal(t, AdjustmentReplaced, adj.Status)
	}
}

func TestAdjustTechs_LivenessAndIdempotence(t *testing.T) {
	table := NewTechStatusTable(map[string]TechStatus{
		"T1":     ActiveStatus{TechName: name("one")},
		"T1.001": ActiveStatus{TechName: subName("one", "sub")},
		"T2":     RevokedStatus{TechName: name("two"), By: "T1.001"},
		"T3":     DeprecatedStatus{TechName: name("three")},
		"T4":     RevokedStatus{TechName: name("four"), By: "T5"},
		"T5":     DeprecatedStatus{TechName: name("five")},
	})

	inputs := [][]string{
		{"T1", "T2", "T3", "T4", "T9"},
		{"T2", "T2", "T1.001"},
		{"T4"},
		{"T9", "", "t1"},
	}

	for _, input := range inputs {
		first := AdjustTechs(input, table)
		for _, id := range first.IDs {
			assert.Equal(t, StatusActive, table.Status(id).Kind(), "%s in output of %v", id, input)
		}

		second := AdjustTechs(first.IDs, table)
		assert.Equal(t, first.IDs, second.IDs)
		for _, adj := range second.Adjustments {
			assert.Equal(t, AdjustmentUnchanged, adj.Status)
		}
	}
}

func TestAdjustTechs_Deterministic(t *testing.T) {
	table := scenarioTable()
	input := []string{"T3", "T2", "T9", "T1", "T2"}

	first := AdjustTechs(input, table)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AdjustTechs(input, table))
	}
}

func TestAdjustTechsWithAdditions(t *testing.T) {
	table := NewTechStatusTable(map[string]TechStatus{
		"T1": ActiveStatus{TechName: name("one")},
		"T2": RevokedStatus{TechName: name("two"), By: "T1"},
		"T4": ActiveStatus{TechName: name("four")},
		"T5": ActiveStatus{TechName: name("five")},
	})

	result, err := AdjustTechsWithAdditions([]string{"T2", "T4"}, []string{"T4", "T5", "T1", "T5"}, table)
	require.NoError(t, err)

	assert.Equal(t, []string{"T1", "T4", "T5"}, result.IDs)

	statuses := make([]AdjustmentStatus, 0, len(result.Adjustments))
	ids := make([]string, 0, len(result.Adjustments))
	for _, adj := range result.Adjustments {
		statuses = append(statuses, adj.Status)
		ids = append(ids, adj.ID)
	}
	assert.Equal(t, []string{"T2", "T4", "T5", "T1"}, ids)
	assert.Equal(t, []AdjustmentStatus{AdjustmentReplaced, AdjustmentUnchanged, AdjustmentAdded, AdjustmentAdded}, statuses)
	assert.Equal(t, ReasonFromTemplate, result.Adjustments[2].Reason)
}

func TestAdjustTechsWithAdditions_RejectsNonActive(t *testing.T) {
	table := scenarioTable()

	for _, id := range []string{"T2", "T3", "T9"} {
		t.Run(id, func(t *testing.T) {
			_, err := AdjustTechsWithAdditions([]string{"T1"}, []string{id}, table)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotActive))
		})
	}
}

func TestAdjustTechsWithAdditions_SkipsIDsAlreadyChecked(t *testing.T) {
	// T3 is deprecated but already present in the unchecked list, so it is
	// reported once as removed and never re-validated as a trusted addition.
	result, err := AdjustTechsWithAdditions([]string{"T3"}, []string{"T3"}, scenarioTable())
	require.NoError(t, err)
	assert.Empty(t, result.IDs)
	require.Len(t, result.Adjustments, 1)
	assert.Equal(t, AdjustmentRemoved, result.Adjustments[0].Status)
}
