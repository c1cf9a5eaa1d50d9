package game

import (
	"github.com/hollowmere/encounterd/pkg/catalog"
	"github.com/hollowmere/encounterd/pkg/game/types"
)

// applyTransformation swaps the combatant's shadowed fields for the form's
// values after every precondition holds. Check-then-act: no field is touched
// until the whole apply is known to succeed.
func applyTransformation(c *types.Combatant, form catalog.FormRecord) *Error {
	if c.Overlay != nil {
		return preconditionError(CodeAlreadyTransformed, "combatant %d already has an active form", c.ID)
	}
	allowed := false
	for _, id := range c.AllowedForms {
		if id == form.ID {
			allowed = true
			break
		}
	}
	if !allowed {
		return preconditionError(CodeFormNotAllowed, "form %s is not on combatant %d's allow-list", form.ID, c.ID)
	}
	pool, ok := c.Resources[types.ResourceShapechange]
	if !ok || pool.Current <= 0 {
		return preconditionError(CodeNoUsesRemaining, "combatant %d has no %s uses remaining", c.ID, types.ResourceShapechange)
	}

	c.Overlay = &types.TransformationOverlay{
		FormID: form.ID,
		Snapshot: types.FormSnapshot{
			Name:         c.Name,
			Speeds:       c.Speeds,
			Strength:     c.Strength,
			Dexterity:    c.Dexterity,
			Constitution: c.Constitution,
			Actions:      c.Actions,
			BonusActions: c.BonusActions,
			Reactions:    c.Reactions,
			TemporaryHP:  c.HP.Temporary,
			Spellcaster:  c.Spellcaster,
		},
		GrantedTempHP: form.TemporaryHP,
	}

	c.Name = form.Name
	c.Speeds = copyFormSpeeds(form.Speeds)
	c.Strength = form.Strength
	c.Dexterity = form.Dexterity
	c.Constitution = form.Constitution
	c.Actions = append([]string(nil), form.Actions...)
	c.BonusActions = append([]string(nil), form.BonusActions...)
	c.Reactions = append([]string(nil), form.Reactions...)
	c.Spellcaster = form.Spellcaster
	c.SetTemporaryHP(form.TemporaryHP)
	pool.Current--
	return nil
}

// revertTransformation restores the shadowed fields from the overlay's
// snapshot. The snapshotted temporary HP only comes back if the form's grant
// is still intact; a consumed or replaced grant stays as it is.
func revertTransformation(c *types.Combatant) *Error {
	if c.Overlay == nil {
		return preconditionError(CodeNotTransformed, "combatant %d has no active form", c.ID)
	}

	snapshot := c.Overlay.Snapshot
	c.Name = snapshot.Name
	c.Speeds = snapshot.Speeds
	c.Strength = snapshot.Strength
	c.Dexterity = snapshot.Dexterity
	c.Constitution = snapshot.Constitution
	c.Actions = snapshot.Actions
	c.BonusActions = snapshot.BonusActions
	c.Reactions = snapshot.Reactions
	c.Spellcaster = snapshot.Spellcaster
	if c.HP.Temporary == c.Overlay.GrantedTempHP {
		c.SetTemporaryHP(snapshot.TemporaryHP)
	} else {
		// Clamp in case the current value exceeds the restored bounds.
		c.SetTemporaryHP(c.HP.Temporary)
	}
	c.Overlay = nil
	return nil
}

// shadowedFields returns the current values of every field a transformation
// overlay shadows, for inclusion in transform patches.
func shadowedFields(c *types.Combatant) types.FormSnapshot {
	return types.FormSnapshot{
		Name:         c.Name,
		Speeds:       c.Speeds,
		Strength:     c.Strength,
		Dexterity:    c.Dexterity,
		Constitution: c.Constitution,
		Actions:      c.Actions,
		BonusActions: c.BonusActions,
		Reactions:    c.Reactions,
		TemporaryHP:  c.HP.Temporary,
		Spellcaster:  c.Spellcaster,
	}
}

func copyFormSpeeds(speeds map[types.MovementMode]int) map[types.MovementMode]int {
	out := make(map[types.MovementMode]int, len(speeds))
	for mode, feet := range speeds {
		out[mode] = feet
	}
	return out
}
