package messages

import (
	"github.com/hollowmere/encounterd/pkg/game/types"
)

// CombatantView is the wire representation of a combatant. Position is the
// effective position: for a mounted rider it is derived from the mount.
// ArmorClass is nil unless the receiving client owns the combatant or is an
// admin.
type CombatantView struct {
	ID             types.CombatantID             `json:"id"`
	Name           string                        `json:"name"`
	Side           types.Side                    `json:"side"`
	HP             types.HealthPool              `json:"hp"`
	ArmorClass     *int                          `json:"armorClass,omitempty"`
	Speeds         map[types.MovementMode]int    `json:"speeds"`
	MovementBudget int                           `json:"movementBudget"`
	Position       types.Position                `json:"position"`
	Strength       int                           `json:"strength"`
	Dexterity      int                           `json:"dexterity"`
	Constitution   int                           `json:"constitution"`
	Actions        []string                      `json:"actions"`
	BonusActions   []string                      `json:"bonusActions,omitempty"`
	Reactions      []string                      `json:"reactions,omitempty"`
	Spellcaster    bool                          `json:"spellcaster"`
	Conditions     []types.Condition             `json:"conditions,omitempty"`
	Resources      map[string]types.ResourcePool `json:"resources,omitempty"`
	Mount          *types.MountLink              `json:"mount,omitempty"`
	AllowedForms   []string                      `json:"allowedForms,omitempty"`
	Overlay        *types.TransformationOverlay  `json:"overlay,omitempty"`
	TransformedAs  string                        `json:"transformedAs,omitempty"`
	ReactionUsed   bool                          `json:"reactionUsed"`
}

// ClaimView is the wire representation of one client claim.
type ClaimView struct {
	ClientID    string            `json:"clientID"`
	CombatantID types.CombatantID `json:"combatantID"`
	IsAdmin     bool              `json:"isAdmin"`
}

// SessionView is the full session state used for snapshots.
type SessionView struct {
	Round        int                 `json:"round"`
	TurnOrder    []types.CombatantID `json:"turnOrder"`
	ActiveIndex  int                 `json:"activeIndex"`
	Combatants   []CombatantView     `json:"combatants"`
	Transactions []TransactionView   `json:"transactions,omitempty"`
	Claims       []ClaimView         `json:"claims,omitempty"`
}

// ServerSnapshot is a full-state resync message. Clients that detect a
// version gap must apply a snapshot, never replay missed deltas.
type ServerSnapshot struct {
	Version uint64      `json:"version"`
	Session SessionView `json:"session"`
}

// Redacted returns a copy of the snapshot with owner-only information
// removed for combatants the receiving client does not control.
func (s ServerSnapshot) Redacted(owns func(types.CombatantID) bool) ServerSnapshot {
	out := s
	out.Session.Combatants = make([]CombatantView, len(s.Session.Combatants))
	copy(out.Session.Combatants, s.Session.Combatants)
	for i := range out.Session.Combatants {
		if !owns(out.Session.Combatants[i].ID) {
			out.Session.Combatants[i].ArmorClass = nil
		}
	}
	return out
}

// SnapshotBlob is the compressed wire and storage form of a snapshot.
type SnapshotBlob struct {
	Version uint64 `json:"version"`
	Data    []byte `json:"data"`
}
