package game

import (
	"fmt"
	"sort"

	"github.com/hollowmere/encounterd/pkg/game/types"
)

// EntityStore holds every combatant in the session. It is only ever touched
// from the pipeline goroutine, so it carries no locking.
type EntityStore struct {
	combatants map[types.CombatantID]*types.Combatant
	maxID      types.CombatantID
}

// NewEntityStore creates an empty entity store.
func NewEntityStore() *EntityStore {
	return &EntityStore{
		combatants: make(map[types.CombatantID]*types.Combatant),
	}
}

// AllocateID returns the next unused combatant id.
func (s *EntityStore) AllocateID() types.CombatantID {
	s.maxID++
	return s.maxID
}

// Add inserts a combatant. The id must be unique.
func (s *EntityStore) Add(c *types.Combatant) error {
	if c == nil {
		return fmt.Errorf("combatant is nil")
	}
	if _, exists := s.combatants[c.ID]; exists {
		return fmt.Errorf("combatant %d already exists", c.ID)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("failed to validate combatant: %v", err)
	}
	s.combatants[c.ID] = c
	if c.ID > s.maxID {
		s.maxID = c.ID
	}
	return nil
}

// Get returns the combatant with the given id.
func (s *EntityStore) Get(id types.CombatantID) (*types.Combatant, bool) {
	c, ok := s.combatants[id]
	return c, ok
}

// Remove deletes the combatant with the given id.
func (s *EntityStore) Remove(id types.CombatantID) bool {
	if _, ok := s.combatants[id]; !ok {
		return false
	}
	delete(s.combatants, id)
	return true
}

// Len returns the number of combatants.
func (s *EntityStore) Len() int {
	return len(s.combatants)
}

// All returns every combatant ordered by id.
func (s *EntityStore) All() []*types.Combatant {
	out := make([]*types.Combatant, 0, len(s.combatants))
	for _, c := range s.combatants {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EffectivePosition returns the position a combatant occupies. A mounted
// rider's position is derived from its mount and never read from its own
// stored field while the link exists.
func (s *EntityStore) EffectivePosition(id types.CombatantID) (types.Position, bool) {
	c, ok := s.combatants[id]
	if !ok {
		return types.Position{}, false
	}
	if c.IsMountedRider() {
		mount, ok := s.combatants[c.Mount.PartnerID]
		if !ok {
			return c.Position, true
		}
		return mount.Position, true
	}
	return c.Position, true
}

// Validate checks every combatant plus the symmetry of all mount links.
func (s *EntityStore) Validate() error {
	for _, c := range s.combatants {
		if err := c.Validate(); err != nil {
			return err
		}
		if c.Mount == nil {
			continue
		}
		partner, ok := s.combatants[c.Mount.PartnerID]
		if !ok {
			return fmt.Errorf("combatant %d: mount partner %d does not exist", c.ID, c.Mount.PartnerID)
		}
		if partner.Mount == nil || partner.Mount.PartnerID != c.ID {
			return fmt.Errorf("combatant %d: mount link to %d is not mirrored", c.ID, c.Mount.PartnerID)
		}
		if partner.Mount.Role == c.Mount.Role {
			return fmt.Errorf("combatant %d: mount link to %d has duplicate role %s", c.ID, c.Mount.PartnerID, c.Mount.Role)
		}
	}
	return nil
}
