package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombatant_TakeDamage(t *testing.T) {
	tests := []struct {
		name   string
		hp     HealthPool
		amount int
		want   HealthPool
	}{
		{
			name:   "plain damage",
			hp:     HealthPool{Current: 20, Max: 20},
			amount: 5,
			want:   HealthPool{Current: 15, Max: 20},
		},
		{
			name:   "temporary absorbs first",
			hp:     HealthPool{Current: 20, Max: 20, Temporary: 5},
			amount: 3,
			want:   HealthPool{Current: 20, Max: 20, Temporary: 2},
		},
		{
			name:   "overflow past temporary",
			hp:     HealthPool{Current: 20, Max: 20, Temporary: 5},
			amount: 8,
			want:   HealthPool{Current: 17, Max: 20, Temporary: 0},
		},
		{
			name:   "clamps at zero",
			hp:     HealthPool{Current: 4, Max: 20},
			amount: 100,
			want:   HealthPool{Current: 0, Max: 20},
		},
		{
			name:   "zero amount is a no-op",
			hp:     HealthPool{Current: 20, Max: 20, Temporary: 5},
			amount: 0,
			want:   HealthPool{Current: 20, Max: 20, Temporary: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Combatant{ID: 1, HP: tt.hp}
			c.TakeDamage(tt.amount)
			assert.Equal(t, tt.want, c.HP)
		})
	}
}

func TestCombatant_SetTemporaryHP(t *testing.T) {
	tests := []struct {
		name  string
		hp    HealthPool
		value int
		want  HealthPool
	}{
		{
			name:  "grant replaces, never sums",
			hp:    HealthPool{Current: 20, Max: 20, Temporary: 8},
			value: 3,
			want:  HealthPool{Current: 20, Max: 20, Temporary: 3},
		},
		{
			name:  "smaller grant re-clamps current",
			hp:    HealthPool{Current: 25, Max: 20, Temporary: 5},
			value: 2,
			want:  HealthPool{Current: 22, Max: 20, Temporary: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Combatant{ID: 1, HP: tt.hp}
			c.SetTemporaryHP(tt.value)
			assert.Equal(t, tt.want, c.HP)
		})
	}
}

func TestCombatant_Heal(t *testing.T) {
	c := &Combatant{ID: 1, HP: HealthPool{Current: 5, Max: 20}}
	c.Heal(30)
	assert.Equal(t, HealthPool{Current: 20, Max: 20}, c.HP)
}

func TestCombatant_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       Combatant
		wantErr bool
	}{
		{
			name: "valid",
			c:    Combatant{ID: 1, HP: HealthPool{Current: 20, Max: 20}},
		},
		{
			name: "current above max plus temporary",
			c:    Combatant{ID: 1, HP: HealthPool{Current: 26, Max: 20, Temporary: 5}},

			wantErr: true,
		},
		{
			name: "current may ride on temporary",
			c:    Combatant{ID: 1, HP: HealthPool{Current: 25, Max: 20, Temporary: 5}},
		},
		{
			name:    "negative current",
			c:       Combatant{ID: 1, HP: HealthPool{Current: -1, Max: 20}},
			wantErr: true,
		},
		{
			name:    "self mount link",
			c:       Combatant{ID: 1, HP: HealthPool{Current: 1, Max: 1}, Mount: &MountLink{Role: MountRoleRider, PartnerID: 1}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCombatant_Clone(t *testing.T) {
	c := &Combatant{
		ID:         1,
		Name:       "Sable",
		HP:         HealthPool{Current: 10, Max: 10},
		Speeds:     map[MovementMode]int{MovementWalk: 30},
		Conditions: []Condition{{Kind: "poisoned", Remaining: 2}},
		Resources:  map[string]*ResourcePool{ResourceShapechange: {Current: 2, Max: 2}},
		Mount:      &MountLink{Role: MountRoleRider, PartnerID: 2},
	}
	clone := c.Clone()

	clone.Speeds[MovementWalk] = 10
	clone.Conditions[0].Remaining = 9
	clone.Resources[ResourceShapechange].Current = 0
	clone.Mount.PartnerID = 7

	assert.Equal(t, 30, c.Speeds[MovementWalk])
	assert.Equal(t, 2, c.Conditions[0].Remaining)
	assert.Equal(t, 2, c.Resources[ResourceShapechange].Current)
	assert.Equal(t, CombatantID(2), c.Mount.PartnerID)
}
