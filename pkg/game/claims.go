package game

import (
	"sort"

	"github.com/hollowmere/encounterd/pkg/game/types"
)

// ClaimRegistry maps connected clients to the combatants they control.
// Mutations happen on the pipeline goroutine only, but reads come from the
// broadcast path as well, so access goes through value copies.
type ClaimRegistry struct {
	claims map[string]types.Claim
}

// NewClaimRegistry creates an empty claim registry.
func NewClaimRegistry() *ClaimRegistry {
	return &ClaimRegistry{
		claims: make(map[string]types.Claim),
	}
}

// Claim binds a client to a combatant, replacing any previous binding the
// client held.
func (r *ClaimRegistry) Claim(clientID string, combatantID types.CombatantID, isAdmin bool) {
	r.claims[clientID] = types.Claim{CombatantID: combatantID, IsAdmin: isAdmin}
}

// Unclaim releases a client's binding and returns it.
func (r *ClaimRegistry) Unclaim(clientID string) (types.Claim, bool) {
	claim, ok := r.claims[clientID]
	if ok {
		delete(r.claims, clientID)
	}
	return claim, ok
}

// Get returns a client's claim.
func (r *ClaimRegistry) Get(clientID string) (types.Claim, bool) {
	claim, ok := r.claims[clientID]
	return claim, ok
}

// IsAdmin reports whether a client holds an admin claim.
func (r *ClaimRegistry) IsAdmin(clientID string) bool {
	claim, ok := r.claims[clientID]
	return ok && claim.IsAdmin
}

// Owns reports whether a client may see owner-only fields of a combatant.
// Admins own everything.
func (r *ClaimRegistry) Owns(clientID string, combatantID types.CombatantID) bool {
	claim, ok := r.claims[clientID]
	if !ok {
		return false
	}
	return claim.IsAdmin || claim.CombatantID == combatantID
}

// OwnerOf returns the client holding a non-admin claim on the combatant.
func (r *ClaimRegistry) OwnerOf(combatantID types.CombatantID) (string, bool) {
	for clientID, claim := range r.claims {
		if !claim.IsAdmin && claim.CombatantID == combatantID {
			return clientID, true
		}
	}
	return "", false
}

// All returns every claim keyed by client id, ordered by client id.
func (r *ClaimRegistry) All() []ClaimEntry {
	out := make([]ClaimEntry, 0, len(r.claims))
	for clientID, claim := range r.claims {
		out = append(out, ClaimEntry{ClientID: clientID, Claim: claim})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}

// ClaimEntry pairs a claim with the client holding it.
type ClaimEntry struct {
	ClientID string
	Claim    types.Claim
}
