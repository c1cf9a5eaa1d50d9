package messages

import (
	"github.com/hollowmere/encounterd/pkg/game/types"
)

// PatchKind identifies the type of delta entry.
type PatchKind string

const (
	// PatchCombatantSpawn announces a new combatant; payload CombatantView.
	PatchCombatantSpawn PatchKind = "combatant/spawn"
	// PatchCombatantRemove announces a combatant leaving the session.
	PatchCombatantRemove PatchKind = "combatant/remove"
	// PatchCombatantHP updates a combatant's health pool.
	PatchCombatantHP PatchKind = "combatant/hp"
	// PatchCombatantPosition updates a combatant's position.
	PatchCombatantPosition PatchKind = "combatant/position"
	// PatchCombatantMovement updates the remaining per-turn movement budget.
	PatchCombatantMovement PatchKind = "combatant/movement"
	// PatchCombatantMount sets or clears a mount link.
	PatchCombatantMount PatchKind = "combatant/mount"
	// PatchCombatantTransform announces a transformation apply or revert
	// together with the resulting shadowed field values.
	PatchCombatantTransform PatchKind = "combatant/transform"
	// PatchCombatantConditions replaces the condition list.
	PatchCombatantConditions PatchKind = "combatant/conditions"
	// PatchCombatantResource updates a single resource pool.
	PatchCombatantResource PatchKind = "combatant/resource"
	// PatchCombatantArmorClass updates armor class. Only ever delivered to
	// the owning client and admins.
	PatchCombatantArmorClass PatchKind = "combatant/armor_class"
	// PatchSessionTurn updates the round counter and active slot.
	PatchSessionTurn PatchKind = "session/turn"
	// PatchSessionOrder replaces the turn order.
	PatchSessionOrder PatchKind = "session/order"
	// PatchSessionClaim announces a claim being taken or released.
	PatchSessionClaim PatchKind = "session/claim"
	// PatchTransaction announces a pending transaction state change.
	// Terminal states double as removal notices.
	PatchTransaction PatchKind = "transaction/state"
)

// Patch is one entry of a delta: the minimal description of a single field
// group changed by a committed mutation.
type Patch struct {
	Kind        PatchKind         `json:"kind"`
	CombatantID types.CombatantID `json:"combatantID,omitempty"`
	Payload     interface{}       `json:"payload,omitempty"`
}

// HPPayload carries an updated health pool.
type HPPayload struct {
	HP types.HealthPool `json:"hp"`
}

// PositionPayload carries an updated position.
type PositionPayload struct {
	Position types.Position `json:"position"`
}

// MovementPayload carries the remaining movement budget in feet.
type MovementPayload struct {
	Budget int `json:"budget"`
}

// MountPayload carries a mount link; a nil link means the link was cleared.
type MountPayload struct {
	Link *types.MountLink `json:"link"`
}

// TransformPayload carries the post-change values of every field a
// transformation overlay shadows. An empty FormID announces a revert.
type TransformPayload struct {
	FormID string             `json:"formID,omitempty"`
	Stats  types.FormSnapshot `json:"stats"`
}

// ConditionsPayload replaces a combatant's condition list.
type ConditionsPayload struct {
	Conditions []types.Condition `json:"conditions"`
}

// ResourcePayload carries one updated resource pool.
type ResourcePayload struct {
	PoolID string             `json:"poolID"`
	Pool   types.ResourcePool `json:"pool"`
}

// ArmorClassPayload carries an armor class value (owner/admin only).
type ArmorClassPayload struct {
	ArmorClass int `json:"armorClass"`
}

// TurnPayload carries the active turn pointer.
type TurnPayload struct {
	Round       int               `json:"round"`
	ActiveIndex int               `json:"activeIndex"`
	ActiveID    types.CombatantID `json:"activeID"`
}

// OrderPayload replaces the turn order.
type OrderPayload struct {
	TurnOrder []types.CombatantID `json:"turnOrder"`
}

// ClaimPayload announces a claim binding change.
type ClaimPayload struct {
	ClientID    string            `json:"clientID"`
	CombatantID types.CombatantID `json:"combatantID"`
	IsAdmin     bool              `json:"isAdmin"`
	Released    bool              `json:"released,omitempty"`
}

// TransactionView is the wire representation of a pending transaction.
type TransactionView struct {
	ID          string                 `json:"id"`
	Kind        types.TransactionKind  `json:"kind"`
	State       types.TransactionState `json:"state"`
	InitiatorID types.CombatantID      `json:"initiatorID"`
	TargetID    types.CombatantID      `json:"targetID"`
}

// ServerDelta is the outbound description of one committed mutation.
type ServerDelta struct {
	Version uint64  `json:"version"`
	Patches []Patch `json:"patches"`
}

// Redacted returns a copy of the delta with owner-only information removed
// for combatants the receiving client does not control. The owns predicate
// must return true for every combatant when the client is an admin.
func (d ServerDelta) Redacted(owns func(types.CombatantID) bool) ServerDelta {
	out := ServerDelta{Version: d.Version, Patches: make([]Patch, 0, len(d.Patches))}
	for _, p := range d.Patches {
		switch p.Kind {
		case PatchCombatantArmorClass:
			if !owns(p.CombatantID) {
				continue
			}
		case PatchCombatantSpawn:
			if view, ok := p.Payload.(CombatantView); ok && !owns(view.ID) {
				view.ArmorClass = nil
				p.Payload = view
			}
		}
		out.Patches = append(out.Patches, p)
	}
	return out
}
