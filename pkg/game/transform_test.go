package game

import (
	"testing"

	"github.com/hollowmere/encounterd/pkg/catalog"
	"github.com/hollowmere/encounterd/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bearForm() catalog.FormRecord {
	return catalog.FormRecord{
		ID:           "bear",
		Name:         "Brown Bear",
		Speeds:       map[types.MovementMode]int{types.MovementWalk: 40, types.MovementSwim: 30},
		Strength:     19,
		Dexterity:    10,
		Constitution: 16,
		Actions:      []string{"bite", "claws"},
		TemporaryHP:  12,
	}
}

func druid() *types.Combatant {
	return &types.Combatant{
		ID:           1,
		Name:         "Mirelle",
		HP:           types.HealthPool{Current: 18, Max: 24, Temporary: 3},
		Speeds:       map[types.MovementMode]int{types.MovementWalk: 30},
		Strength:     10,
		Dexterity:    14,
		Constitution: 13,
		Actions:      []string{"staff"},
		Spellcaster:  true,
		AllowedForms: []string{"bear", "wolf"},
		Resources: map[string]*types.ResourcePool{
			types.ResourceShapechange: {Current: 2, Max: 2},
		},
	}
}

func TestApplyTransformation(t *testing.T) {
	c := druid()
	require.Nil(t, applyTransformation(c, bearForm()))

	assert.Equal(t, "Brown Bear", c.Name)
	assert.Equal(t, 19, c.Strength)
	assert.Equal(t, []string{"bite", "claws"}, c.Actions)
	assert.False(t, c.Spellcaster)
	assert.Equal(t, 40, c.Speeds[types.MovementWalk])
	assert.Equal(t, 12, c.HP.Temporary, "form grant replaces the old temporary HP")
	assert.Equal(t, 18, c.HP.Current, "current HP is untouched by the overlay")
	assert.Equal(t, 1, c.Resources[types.ResourceShapechange].Current)

	require.NotNil(t, c.Overlay)
	assert.Equal(t, "bear", c.Overlay.FormID)
	assert.Equal(t, "Mirelle", c.Overlay.Snapshot.Name)
	assert.Equal(t, 3, c.Overlay.Snapshot.TemporaryHP)
	assert.Equal(t, 12, c.Overlay.GrantedTempHP)
}

func TestApplyTransformation_Preconditions(t *testing.T) {
	t.Run("already transformed", func(t *testing.T) {
		c := druid()
		require.Nil(t, applyTransformation(c, bearForm()))
		err := applyTransformation(c, bearForm())
		require.NotNil(t, err)
		assert.Equal(t, CodeAlreadyTransformed, err.Code)
	})

	t.Run("form not on the allow-list", func(t *testing.T) {
		c := druid()
		c.AllowedForms = []string{"wolf"}
		err := applyTransformation(c, bearForm())
		require.NotNil(t, err)
		assert.Equal(t, CodeFormNotAllowed, err.Code)
	})

	t.Run("no uses remaining", func(t *testing.T) {
		c := druid()
		c.Resources[types.ResourceShapechange].Current = 0
		err := applyTransformation(c, bearForm())
		require.NotNil(t, err)
		assert.Equal(t, CodeNoUsesRemaining, err.Code)
		assert.Nil(t, c.Overlay, "a failed apply never mutates")
		assert.Equal(t, "Mirelle", c.Name)
	})
}

func TestRevertTransformation(t *testing.T) {
	t.Run("restores shadowed fields and the intact grant", func(t *testing.T) {
		c := druid()
		require.Nil(t, applyTransformation(c, bearForm()))
		require.Nil(t, revertTransformation(c))

		assert.Equal(t, "Mirelle", c.Name)
		assert.Equal(t, 10, c.Strength)
		assert.True(t, c.Spellcaster)
		assert.Equal(t, 30, c.Speeds[types.MovementWalk])
		assert.Equal(t, 3, c.HP.Temporary, "untouched grant restores the snapshot value")
		assert.Nil(t, c.Overlay)
	})

	t.Run("consumed grant is left alone", func(t *testing.T) {
		c := druid()
		require.Nil(t, applyTransformation(c, bearForm()))
		c.TakeDamage(4)
		require.Equal(t, 8, c.HP.Temporary)

		require.Nil(t, revertTransformation(c))
		assert.Equal(t, 8, c.HP.Temporary, "partially consumed grant is not restored")
	})

	t.Run("not transformed", func(t *testing.T) {
		c := druid()
		err := revertTransformation(c)
		require.NotNil(t, err)
		assert.Equal(t, CodeNotTransformed, err.Code)
	})
}
