package types

import (
	"fmt"
	"time"
)

// CombatantID is a stable, opaque identifier for one session participant.
type CombatantID int64

// Side marks which faction a combatant fights for.
type Side string

const (
	SideAlly    Side = "ally"
	SideEnemy   Side = "enemy"
	SideNeutral Side = "neutral"
)

// MovementMode identifies one of a combatant's movement speeds.
type MovementMode string

const (
	MovementWalk  MovementMode = "walk"
	MovementSwim  MovementMode = "swim"
	MovementFly   MovementMode = "fly"
	MovementClimb MovementMode = "climb"
)

// MountCost is the fixed movement allowance (in feet) deducted from a rider's
// per-turn movement budget when a mount attempt succeeds.
const MountCost = 15

// ResourceShapechange is the resource pool consumed by transformation overlays.
const ResourceShapechange = "shapechange"

// ResourceSpellSlots is the resource pool consumed by casting.
const ResourceSpellSlots = "spell_slots"

// HealthPool tracks current, maximum and temporary hit points.
// Temporary hit points are always replaced by a new grant, never summed.
type HealthPool struct {
	Current   int `json:"current"`
	Max       int `json:"max"`
	Temporary int `json:"temporary"`
}

// Condition is an ongoing effect with a remaining duration in rounds.
type Condition struct {
	Kind      string `json:"kind"`
	Remaining int    `json:"remaining"`
}

// ResourcePool is a spendable per-combatant resource (spell slots, uses).
type ResourcePool struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// MountRole marks which half of a mount link a combatant is.
type MountRole string

const (
	MountRoleRider MountRole = "rider"
	MountRoleMount MountRole = "mount"
)

// MountLink couples a rider and a mount. Both combatants carry a link with
// mirrored roles while mounted.
type MountLink struct {
	Role      MountRole   `json:"role"`
	PartnerID CombatantID `json:"partnerID"`
}

// Position is a grid position in the encounter map.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FormSnapshot holds the exact values of the fields a transformation overlay
// shadows, so a revert can restore them verbatim.
type FormSnapshot struct {
	Name         string               `json:"name"`
	Speeds       map[MovementMode]int `json:"speeds"`
	Strength     int                  `json:"strength"`
	Dexterity    int                  `json:"dexterity"`
	Constitution int                  `json:"constitution"`
	Actions      []string             `json:"actions"`
	BonusActions []string             `json:"bonusActions"`
	Reactions    []string             `json:"reactions"`
	TemporaryHP  int                  `json:"temporaryHP"`
	Spellcaster  bool                 `json:"spellcaster"`
}

// TransformationOverlay records an active transformation: the assumed form
// and the snapshot of the fields it replaced. At most one overlay may be
// active per combatant.
type TransformationOverlay struct {
	FormID string `json:"formID"`
	// Snapshot holds the pre-transformation values of every shadowed field.
	Snapshot FormSnapshot `json:"snapshot"`
	// GrantedTempHP is the temporary HP value set by the form at apply time.
	// A revert restores the snapshotted temporary HP only if the current
	// value still equals this grant.
	GrantedTempHP int `json:"grantedTempHP"`
}

// Combatant is one participant in the combat session.
type Combatant struct {
	ID   CombatantID `json:"id"`
	Name string      `json:"name"`
	Side Side        `json:"side"`

	HP HealthPool `json:"hp"`
	// ArmorClass is only ever exposed to the owning client and admins.
	ArmorClass int `json:"armorClass"`

	Speeds map[MovementMode]int `json:"speeds"`
	// MovementBudget is the remaining movement (in feet) for the current turn.
	MovementBudget int `json:"movementBudget"`

	Position Position `json:"position"`

	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`

	Actions      []string `json:"actions"`
	BonusActions []string `json:"bonusActions"`
	Reactions    []string `json:"reactions"`
	Spellcaster  bool     `json:"spellcaster"`

	Conditions []Condition              `json:"conditions"`
	Resources  map[string]*ResourcePool `json:"resources"`

	// AllowedForms is the allow-list of form ids this combatant may assume.
	AllowedForms []string `json:"allowedForms"`

	Mount   *MountLink             `json:"mount,omitempty"`
	Overlay *TransformationOverlay `json:"overlay,omitempty"`

	// ReactionUsed is a once-per-round gating flag, reset on round wrap.
	ReactionUsed bool `json:"reactionUsed"`
}

// Validate checks the combatant's structural invariants.
func (c *Combatant) Validate() error {
	if c.HP.Current < 0 {
		return fmt.Errorf("combatant %d: hp.current %d below zero", c.ID, c.HP.Current)
	}
	if c.HP.Current > c.HP.Max+c.HP.Temporary {
		return fmt.Errorf("combatant %d: hp.current %d exceeds max %d + temporary %d",
			c.ID, c.HP.Current, c.HP.Max, c.HP.Temporary)
	}
	if c.HP.Max < 0 || c.HP.Temporary < 0 {
		return fmt.Errorf("combatant %d: negative hp bounds", c.ID)
	}
	if c.Mount != nil && c.Mount.PartnerID == c.ID {
		return fmt.Errorf("combatant %d: mount link references itself", c.ID)
	}
	return nil
}

// IsMountedRider reports whether the combatant is the rider half of a link.
func (c *Combatant) IsMountedRider() bool {
	return c.Mount != nil && c.Mount.Role == MountRoleRider
}

// SetTemporaryHP replaces the temporary HP value. A new grant never stacks
// with an existing one.
func (c *Combatant) SetTemporaryHP(value int) {
	c.HP.Temporary = value
	if c.HP.Current > c.HP.Max+c.HP.Temporary {
		c.HP.Current = c.HP.Max + c.HP.Temporary
	}
}

// TakeDamage applies damage, consuming temporary HP first and clamping
// current HP at zero.
func (c *Combatant) TakeDamage(amount int) {
	if amount <= 0 {
		return
	}
	if c.HP.Temporary > 0 {
		absorbed := amount
		if absorbed > c.HP.Temporary {
			absorbed = c.HP.Temporary
		}
		c.HP.Temporary -= absorbed
		amount -= absorbed
	}
	c.HP.Current -= amount
	if c.HP.Current < 0 {
		c.HP.Current = 0
	}
}

// Heal restores current HP up to the maximum.
func (c *Combatant) Heal(amount int) {
	if amount <= 0 {
		return
	}
	c.HP.Current += amount
	if c.HP.Current > c.HP.Max {
		c.HP.Current = c.HP.Max
	}
}

// Clone returns a deep copy of the combatant.
func (c *Combatant) Clone() *Combatant {
	clone := *c
	clone.Speeds = copySpeeds(c.Speeds)
	clone.Actions = append([]string(nil), c.Actions...)
	clone.BonusActions = append([]string(nil), c.BonusActions...)
	clone.Reactions = append([]string(nil), c.Reactions...)
	clone.Conditions = append([]Condition(nil), c.Conditions...)
	clone.AllowedForms = append([]string(nil), c.AllowedForms...)
	if c.Resources != nil {
		clone.Resources = make(map[string]*ResourcePool, len(c.Resources))
		for id, pool := range c.Resources {
			p := *pool
			clone.Resources[id] = &p
		}
	}
	if c.Mount != nil {
		link := *c.Mount
		clone.Mount = &link
	}
	if c.Overlay != nil {
		overlay := *c.Overlay
		overlay.Snapshot = copyFormSnapshot(c.Overlay.Snapshot)
		clone.Overlay = &overlay
	}
	return &clone
}

func copySpeeds(speeds map[MovementMode]int) map[MovementMode]int {
	if speeds == nil {
		return nil
	}
	out := make(map[MovementMode]int, len(speeds))
	for mode, feet := range speeds {
		out[mode] = feet
	}
	return out
}

func copyFormSnapshot(s FormSnapshot) FormSnapshot {
	out := s
	out.Speeds = copySpeeds(s.Speeds)
	out.Actions = append([]string(nil), s.Actions...)
	out.BonusActions = append([]string(nil), s.BonusActions...)
	out.Reactions = append([]string(nil), s.Reactions...)
	return out
}

// Claim binds a connected client to the combatant it controls.
// Admin claims bypass turn gating and may act for any combatant.
type Claim struct {
	CombatantID CombatantID `json:"combatantID"`
	IsAdmin     bool        `json:"isAdmin"`
}

// TransactionKind identifies the sub-protocol a pending transaction follows.
type TransactionKind string

const (
	TransactionKindMount TransactionKind = "mount"
	// TransactionKindTransformation exists for symmetry with the wire
	// protocol; transformation requests resolve synchronously and never
	// rest in the pending table.
	TransactionKindTransformation TransactionKind = "transformation"
)

// TransactionState is one state of a sub-transaction state machine.
type TransactionState string

const (
	// TransactionRequested awaits consent from the target's own claim.
	TransactionRequested TransactionState = "requested"
	// TransactionAdminDecision awaits an allow/deny answer from the admin.
	TransactionAdminDecision TransactionState = "admin_decision"
	// TransactionDeniedPendingSave awaits the admin resolving a contested
	// check as pass or fail.
	TransactionDeniedPendingSave TransactionState = "denied_pending_save"
	// TransactionMounted is the terminal success state.
	TransactionMounted TransactionState = "mounted"
	// TransactionDenied is the terminal failure state.
	TransactionDenied TransactionState = "denied"
)

// Terminal reports whether the state ends the transaction.
func (s TransactionState) Terminal() bool {
	return s == TransactionMounted || s == TransactionDenied
}

// PendingTransaction is a multi-step approval workflow in flight.
type PendingTransaction struct {
	ID               string           `json:"id"`
	Kind             TransactionKind  `json:"kind"`
	InitiatorID      CombatantID      `json:"initiatorID"`
	TargetID         CombatantID      `json:"targetID"`
	State            TransactionState `json:"state"`
	CreatedAtVersion uint64           `json:"createdAtVersion"`
	// Touched is the wall time of the last state change, used by the
	// inactivity sweep.
	Touched time.Time `json:"-"`
}

// Session holds the turn-order bookkeeping for the combat session.
type Session struct {
	Round       int           `json:"round"`
	TurnOrder   []CombatantID `json:"turnOrder"`
	ActiveIndex int           `json:"activeIndex"`
	// Version is incremented by every committed mutation and drives
	// delta ordering and resync.
	Version uint64 `json:"version"`
}
