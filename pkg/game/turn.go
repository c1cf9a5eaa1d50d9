package game

import (
	"fmt"

	"github.com/hollowmere/encounterd/pkg/game/types"
)

// TurnController owns the turn order, the active slot and the round counter.
// Like the entity store it is only mutated from the pipeline goroutine.
type TurnController struct {
	order       []types.CombatantID
	activeIndex int
	round       int
	// locked blocks structural edits to the order while a pending
	// sub-transaction is being resolved.
	locked bool
}

// NewTurnController creates a controller at round one with an empty order.
func NewTurnController() *TurnController {
	return &TurnController{round: 1}
}

// Order returns a copy of the turn order.
func (t *TurnController) Order() []types.CombatantID {
	return append([]types.CombatantID(nil), t.order...)
}

// Round returns the current round counter.
func (t *TurnController) Round() int {
	return t.round
}

// ActiveIndex returns the active slot index.
func (t *TurnController) ActiveIndex() int {
	return t.activeIndex
}

// Active returns the combatant whose turn it is.
func (t *TurnController) Active() (types.CombatantID, bool) {
	if t.activeIndex < 0 || t.activeIndex >= len(t.order) {
		return 0, false
	}
	return t.order[t.activeIndex], true
}

// Contains reports whether the combatant occupies a turn slot.
func (t *TurnController) Contains(id types.CombatantID) bool {
	return t.indexOf(id) >= 0
}

// SetLocked toggles the structural-edit lock held while a sub-transaction
// resolution is in flight.
func (t *TurnController) SetLocked(locked bool) {
	t.locked = locked
}

// Locked reports whether structural edits are currently blocked.
func (t *TurnController) Locked() bool {
	return t.locked
}

// TurnReport describes the outcome of a turn pointer move.
type TurnReport struct {
	Round       int
	ActiveIndex int
	ActiveID    types.CombatantID
	Wrapped     bool
	// ConditionsChanged lists combatants whose condition list changed
	// during a round wrap.
	ConditionsChanged []types.CombatantID
}

// Advance moves the active slot forward. On a round wrap it increments the
// round counter, clears every reaction flag and ticks condition durations
// down, expiring the ones that reach zero. The new active combatant's
// movement budget is reset from its walking speed.
func (t *TurnController) Advance(store *EntityStore) (TurnReport, error) {
	if len(t.order) == 0 {
		return TurnReport{}, fmt.Errorf("turn order is empty")
	}

	report := TurnReport{}
	t.activeIndex++
	if t.activeIndex >= len(t.order) {
		t.activeIndex = 0
		t.round++
		report.Wrapped = true
		report.ConditionsChanged = t.wrapRound(store)
	}

	t.resetActiveBudget(store)

	report.Round = t.round
	report.ActiveIndex = t.activeIndex
	report.ActiveID = t.order[t.activeIndex]
	return report, nil
}

// Rewind moves the active slot backward, undoing a round wrap when crossing
// the start of the order. Condition durations are not re-ticked on rewind.
func (t *TurnController) Rewind(store *EntityStore) (TurnReport, error) {
	if len(t.order) == 0 {
		return TurnReport{}, fmt.Errorf("turn order is empty")
	}
	if t.round == 1 && t.activeIndex == 0 {
		return TurnReport{}, fmt.Errorf("already at the first turn of round 1")
	}

	t.activeIndex--
	if t.activeIndex < 0 {
		t.activeIndex = len(t.order) - 1
		t.round--
	}

	t.resetActiveBudget(store)

	return TurnReport{
		Round:       t.round,
		ActiveIndex: t.activeIndex,
		ActiveID:    t.order[t.activeIndex],
	}, nil
}

// Insert places a combatant into the turn order at the given slot. Inserting
// at or before the active slot shifts the active index so the same combatant
// keeps the turn.
func (t *TurnController) Insert(id types.CombatantID, position int) error {
	if t.locked {
		return fmt.Errorf("turn order is locked during sub-transaction resolution")
	}
	if t.indexOf(id) >= 0 {
		return fmt.Errorf("combatant %d is already in the turn order", id)
	}
	if position < 0 {
		position = 0
	}
	if position > len(t.order) {
		position = len(t.order)
	}

	t.order = append(t.order, 0)
	copy(t.order[position+1:], t.order[position:])
	t.order[position] = id

	if len(t.order) > 1 && position <= t.activeIndex {
		t.activeIndex++
	}
	return nil
}

// Append places a combatant at the end of the turn order.
func (t *TurnController) Append(id types.CombatantID) error {
	return t.Insert(id, len(t.order))
}

// Remove takes a combatant out of the turn order, keeping the active slot on
// a valid entry. Removing the active combatant passes the turn to the next
// slot without skipping anyone; if that crosses the end of the order the
// round wraps as usual.
func (t *TurnController) Remove(id types.CombatantID, store *EntityStore) (TurnReport, error) {
	if t.locked {
		return TurnReport{}, fmt.Errorf("turn order is locked during sub-transaction resolution")
	}
	idx := t.indexOf(id)
	if idx < 0 {
		return TurnReport{}, fmt.Errorf("combatant %d is not in the turn order", id)
	}

	wasActive := idx == t.activeIndex
	t.order = append(t.order[:idx], t.order[idx+1:]...)

	report := TurnReport{}
	if len(t.order) == 0 {
		t.activeIndex = 0
		report.Round = t.round
		return report, nil
	}

	switch {
	case idx < t.activeIndex:
		t.activeIndex--
	case wasActive && t.activeIndex >= len(t.order):
		t.activeIndex = 0
		t.round++
		report.Wrapped = true
		report.ConditionsChanged = t.wrapRound(store)
	}

	if wasActive {
		t.resetActiveBudget(store)
	}

	report.Round = t.round
	report.ActiveIndex = t.activeIndex
	report.ActiveID = t.order[t.activeIndex]
	return report, nil
}

// Restore replaces the controller state from a snapshot.
func (t *TurnController) Restore(order []types.CombatantID, activeIndex, round int) {
	t.order = append([]types.CombatantID(nil), order...)
	t.activeIndex = activeIndex
	t.round = round
	if t.round < 1 {
		t.round = 1
	}
	if t.activeIndex < 0 || t.activeIndex >= len(t.order) {
		t.activeIndex = 0
	}
	t.locked = false
}

func (t *TurnController) indexOf(id types.CombatantID) int {
	for i, entry := range t.order {
		if entry == id {
			return i
		}
	}
	return -1
}

func (t *TurnController) resetActiveBudget(store *EntityStore) {
	active, ok := t.Active()
	if !ok {
		return
	}
	c, ok := store.Get(active)
	if !ok {
		return
	}
	c.MovementBudget = c.Speeds[types.MovementWalk]
}

func (t *TurnController) wrapRound(store *EntityStore) []types.CombatantID {
	var changed []types.CombatantID
	for _, c := range store.All() {
		c.ReactionUsed = false
		if len(c.Conditions) == 0 {
			continue
		}
		remaining := c.Conditions[:0]
		for _, cond := range c.Conditions {
			cond.Remaining--
			if cond.Remaining > 0 {
				remaining = append(remaining, cond)
			}
		}
		c.Conditions = remaining
		changed = append(changed, c.ID)
	}
	return changed
}
