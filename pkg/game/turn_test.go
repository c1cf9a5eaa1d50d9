package game

import (
	"testing"

	"github.com/hollowmere/encounterd/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turnFixture(t *testing.T, ids ...types.CombatantID) (*TurnController, *EntityStore) {
	t.Helper()
	store := NewEntityStore()
	tc := NewTurnController()
	for _, id := range ids {
		require.NoError(t, store.Add(&types.Combatant{
			ID:             id,
			Name:           "combatant",
			HP:             types.HealthPool{Current: 10, Max: 10},
			Speeds:         map[types.MovementMode]int{types.MovementWalk: 30},
			MovementBudget: 30,
		}))
		require.NoError(t, tc.Append(id))
	}
	return tc, store
}

func TestTurnController_Advance(t *testing.T) {
	tc, store := turnFixture(t, 1, 2, 3)

	report, err := tc.Advance(store)
	require.NoError(t, err)
	assert.Equal(t, types.CombatantID(2), report.ActiveID)
	assert.Equal(t, 1, report.Round)
	assert.False(t, report.Wrapped)

	_, err = tc.Advance(store)
	require.NoError(t, err)
	report, err = tc.Advance(store)
	require.NoError(t, err)
	assert.True(t, report.Wrapped)
	assert.Equal(t, 2, report.Round)
	assert.Equal(t, types.CombatantID(1), report.ActiveID)
	assert.Equal(t, 0, report.ActiveIndex)
}

func TestTurnController_AdvanceEmptyOrder(t *testing.T) {
	tc := NewTurnController()
	_, err := tc.Advance(NewEntityStore())
	assert.Error(t, err)
}

func TestTurnController_WrapResetsFlagsAndConditions(t *testing.T) {
	tc, store := turnFixture(t, 1, 2)
	c1, _ := store.Get(1)
	c1.ReactionUsed = true
	c1.Conditions = []types.Condition{
		{Kind: "poisoned", Remaining: 2},
		{Kind: "stunned", Remaining: 1},
	}

	_, err := tc.Advance(store)
	require.NoError(t, err)
	report, err := tc.Advance(store)
	require.NoError(t, err)

	assert.True(t, report.Wrapped)
	assert.Contains(t, report.ConditionsChanged, types.CombatantID(1))
	assert.False(t, c1.ReactionUsed)
	assert.Equal(t, []types.Condition{{Kind: "poisoned", Remaining: 1}}, c1.Conditions)
}

func TestTurnController_AdvanceResetsBudget(t *testing.T) {
	tc, store := turnFixture(t, 1, 2)
	c2, _ := store.Get(2)
	c2.MovementBudget = 0

	report, err := tc.Advance(store)
	require.NoError(t, err)
	assert.Equal(t, types.CombatantID(2), report.ActiveID)
	assert.Equal(t, 30, c2.MovementBudget)
}

func TestTurnController_Rewind(t *testing.T) {
	tc, store := turnFixture(t, 1, 2)

	_, err := tc.Rewind(store)
	assert.Error(t, err, "cannot rewind before the first turn")

	_, err = tc.Advance(store)
	require.NoError(t, err)
	report, err := tc.Rewind(store)
	require.NoError(t, err)
	assert.Equal(t, types.CombatantID(1), report.ActiveID)
	assert.Equal(t, 1, report.Round)

	// Crossing the round boundary backwards undoes the wrap.
	_, err = tc.Advance(store)
	require.NoError(t, err)
	report, err = tc.Advance(store)
	require.NoError(t, err)
	require.True(t, report.Wrapped)
	report, err = tc.Rewind(store)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Round)
	assert.Equal(t, types.CombatantID(2), report.ActiveID)
}

func TestTurnController_Insert(t *testing.T) {
	tc, store := turnFixture(t, 1, 2, 3)
	require.NoError(t, store.Add(&types.Combatant{ID: 4, HP: types.HealthPool{Current: 1, Max: 1}}))

	_, err := tc.Advance(store)
	require.NoError(t, err)
	require.NoError(t, tc.Insert(4, 0))

	// The active combatant keeps its turn after the shift.
	active, ok := tc.Active()
	require.True(t, ok)
	assert.Equal(t, types.CombatantID(2), active)
	assert.Equal(t, []types.CombatantID{4, 1, 2, 3}, tc.Order())

	assert.Error(t, tc.Insert(4, 0), "duplicate insert is rejected")
}

func TestTurnController_InsertWhileLocked(t *testing.T) {
	tc, store := turnFixture(t, 1, 2)
	require.NoError(t, store.Add(&types.Combatant{ID: 3, HP: types.HealthPool{Current: 1, Max: 1}}))
	tc.SetLocked(true)
	assert.Error(t, tc.Insert(3, 0))
	_, err := tc.Remove(1, store)
	assert.Error(t, err)
}

func TestTurnController_Remove(t *testing.T) {
	t.Run("before the active slot", func(t *testing.T) {
		tc, store := turnFixture(t, 1, 2, 3)
		_, err := tc.Advance(store)
		require.NoError(t, err)

		_, err = tc.Remove(1, store)
		require.NoError(t, err)
		active, _ := tc.Active()
		assert.Equal(t, types.CombatantID(2), active)
		assert.Equal(t, []types.CombatantID{2, 3}, tc.Order())
	})

	t.Run("the active combatant passes the turn on", func(t *testing.T) {
		tc, store := turnFixture(t, 1, 2, 3)
		_, err := tc.Advance(store)
		require.NoError(t, err)

		report, err := tc.Remove(2, store)
		require.NoError(t, err)
		assert.Equal(t, types.CombatantID(3), report.ActiveID)
		assert.False(t, report.Wrapped)
	})

	t.Run("removing the last active entry wraps the round", func(t *testing.T) {
		tc, store := turnFixture(t, 1, 2)
		_, err := tc.Advance(store)
		require.NoError(t, err)

		report, err := tc.Remove(2, store)
		require.NoError(t, err)
		assert.True(t, report.Wrapped)
		assert.Equal(t, 2, report.Round)
		assert.Equal(t, types.CombatantID(1), report.ActiveID)
	})

	t.Run("removing the only entry empties the order", func(t *testing.T) {
		tc, store := turnFixture(t, 1)
		_, err := tc.Remove(1, store)
		require.NoError(t, err)
		assert.Empty(t, tc.Order())
		_, ok := tc.Active()
		assert.False(t, ok)
	})
}
