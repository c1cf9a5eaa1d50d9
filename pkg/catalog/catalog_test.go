package catalog

import (
	"testing"

	"github.com/hollowmere/encounterd/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCatalog_Creatures(t *testing.T) {
	c := NewMemoryCatalog()
	record := CreatureRecord{
		ID:     "wolf",
		Name:   "Wolf",
		MaxHP:  11,
		Speeds: map[types.MovementMode]int{types.MovementWalk: 40},
	}
	require.NoError(t, c.RegisterCreature(record))

	got, err := c.Creature("wolf")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	assert.Error(t, c.RegisterCreature(record), "duplicate ids are rejected")

	_, err = c.Creature("dragon")
	require.Error(t, err)
	unknown, ok := err.(*ErrUnknownRecord)
	require.True(t, ok)
	assert.Equal(t, "creature", unknown.Kind)
}

func TestMemoryCatalog_Validation(t *testing.T) {
	c := NewMemoryCatalog()

	assert.Error(t, c.RegisterCreature(CreatureRecord{Name: "Nameless"}), "missing id")
	assert.Error(t, c.RegisterCreature(CreatureRecord{
		ID: "ghost", Name: "Ghost", MaxHP: 0,
		Speeds: map[types.MovementMode]int{types.MovementFly: 40},
	}), "non-positive max hp")
	assert.Error(t, c.RegisterCreature(CreatureRecord{ID: "slug", Name: "Slug", MaxHP: 1}), "no speeds")

	assert.Error(t, c.RegisterForm(FormRecord{ID: "x", Name: "X"}), "form needs a speed")
	assert.Error(t, c.RegisterSpell(SpellRecord{ID: "y", Name: "Y", Level: -1}), "negative level")
}
