package messages

import (
	"testing"

	"github.com/hollowmere/encounterd/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerDelta_Redacted(t *testing.T) {
	armorClass := 15
	delta := ServerDelta{
		Version: 5,
		Patches: []Patch{
			{Kind: PatchCombatantHP, CombatantID: 1, Payload: HPPayload{HP: types.HealthPool{Current: 3, Max: 10}}},
			{Kind: PatchCombatantArmorClass, CombatantID: 1, Payload: ArmorClassPayload{ArmorClass: 15}},
			{Kind: PatchCombatantArmorClass, CombatantID: 2, Payload: ArmorClassPayload{ArmorClass: 12}},
			{Kind: PatchCombatantSpawn, CombatantID: 2, Payload: CombatantView{ID: 2, Name: "Goblin", ArmorClass: &armorClass}},
		},
	}

	ownsOne := delta.Redacted(func(id types.CombatantID) bool { return id == 1 })
	require.Len(t, ownsOne.Patches, 3)
	assert.Equal(t, PatchCombatantHP, ownsOne.Patches[0].Kind)
	assert.Equal(t, types.CombatantID(1), ownsOne.Patches[1].CombatantID, "only the owned armor class survives")
	spawn := ownsOne.Patches[2].Payload.(CombatantView)
	assert.Nil(t, spawn.ArmorClass, "spawn views are stripped for non-owners")

	ownsAll := delta.Redacted(func(types.CombatantID) bool { return true })
	assert.Len(t, ownsAll.Patches, 4)
	spawn = ownsAll.Patches[3].Payload.(CombatantView)
	assert.NotNil(t, spawn.ArmorClass)

	// The original delta is never mutated.
	assert.Len(t, delta.Patches, 4)
	original := delta.Patches[3].Payload.(CombatantView)
	assert.NotNil(t, original.ArmorClass)
}

func TestServerSnapshot_Redacted(t *testing.T) {
	ac1, ac2 := 15, 12
	snapshot := ServerSnapshot{
		Version: 7,
		Session: SessionView{
			Combatants: []CombatantView{
				{ID: 1, ArmorClass: &ac1},
				{ID: 2, ArmorClass: &ac2},
			},
		},
	}

	redacted := snapshot.Redacted(func(id types.CombatantID) bool { return id == 2 })
	assert.Nil(t, redacted.Session.Combatants[0].ArmorClass)
	assert.NotNil(t, redacted.Session.Combatants[1].ArmorClass)
	assert.NotNil(t, snapshot.Session.Combatants[0].ArmorClass, "the source snapshot is untouched")
}
