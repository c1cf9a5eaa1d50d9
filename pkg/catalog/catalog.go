package catalog

import (
	"fmt"
	"sync"

	"github.com/hollowmere/encounterd/pkg/game/types"
)

// CreatureRecord is a validated static creature definition used when
// spawning combatants.
type CreatureRecord struct {
	ID           string
	Name         string
	MaxHP        int
	ArmorClass   int
	Speeds       map[types.MovementMode]int
	Strength     int
	Dexterity    int
	Constitution int
	Actions      []string
	BonusActions []string
	Reactions    []string
	Spellcaster  bool
	AllowedForms []string
	// Resources maps pool ids to their maximum values.
	Resources map[string]int
}

// FormRecord is a validated transformation form definition.
type FormRecord struct {
	ID           string
	Name         string
	Speeds       map[types.MovementMode]int
	Strength     int
	Dexterity    int
	Constitution int
	Actions      []string
	BonusActions []string
	Reactions    []string
	// TemporaryHP is granted on apply, replacing any existing value.
	TemporaryHP int
	Spellcaster bool
}

// SpellRecord is a validated static spell definition.
type SpellRecord struct {
	ID            string
	Name          string
	Level         int
	DamageFormula string
	Condition     string
	// Duration is the applied condition duration in rounds.
	Duration int
}

// Catalog resolves static content records by kind and id. Records are
// read-only; validation happens at registration so the session core never
// inspects untyped content.
type Catalog interface {
	Creature(id string) (CreatureRecord, error)
	Form(id string) (FormRecord, error)
	Spell(id string) (SpellRecord, error)
}

// ErrUnknownRecord is returned when a record id does not resolve.
type ErrUnknownRecord struct {
	Kind string
	ID   string
}

func (e *ErrUnknownRecord) Error() string {
	return fmt.Sprintf("unknown %s record: %s", e.Kind, e.ID)
}

// MemoryCatalog is an in-memory Catalog populated at startup.
type MemoryCatalog struct {
	mu        sync.RWMutex
	creatures map[string]CreatureRecord
	forms     map[string]FormRecord
	spells    map[string]SpellRecord
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		creatures: make(map[string]CreatureRecord),
		forms:     make(map[string]FormRecord),
		spells:    make(map[string]SpellRecord),
	}
}

// RegisterCreature validates and stores a creature record.
func (c *MemoryCatalog) RegisterCreature(record CreatureRecord) error {
	if record.ID == "" || record.Name == "" {
		return fmt.Errorf("creature record requires id and name")
	}
	if record.MaxHP <= 0 {
		return fmt.Errorf("creature %s: max hp must be positive", record.ID)
	}
	if len(record.Speeds) == 0 {
		return fmt.Errorf("creature %s: at least one movement speed required", record.ID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.creatures[record.ID]; exists {
		return fmt.Errorf("creature %s already registered", record.ID)
	}
	c.creatures[record.ID] = record
	return nil
}

// RegisterForm validates and stores a form record.
func (c *MemoryCatalog) RegisterForm(record FormRecord) error {
	if record.ID == "" || record.Name == "" {
		return fmt.Errorf("form record requires id and name")
	}
	if len(record.Speeds) == 0 {
		return fmt.Errorf("form %s: at least one movement speed required", record.ID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.forms[record.ID]; exists {
		return fmt.Errorf("form %s already registered", record.ID)
	}
	c.forms[record.ID] = record
	return nil
}

// RegisterSpell validates and stores a spell record.
func (c *MemoryCatalog) RegisterSpell(record SpellRecord) error {
	if record.ID == "" || record.Name == "" {
		return fmt.Errorf("spell record requires id and name")
	}
	if record.Level < 0 {
		return fmt.Errorf("spell %s: level must not be negative", record.ID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.spells[record.ID]; exists {
		return fmt.Errorf("spell %s already registered", record.ID)
	}
	c.spells[record.ID] = record
	return nil
}

func (c *MemoryCatalog) Creature(id string) (CreatureRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.creatures[id]
	if !ok {
		return CreatureRecord{}, &ErrUnknownRecord{Kind: "creature", ID: id}
	}
	return record, nil
}

func (c *MemoryCatalog) Form(id string) (FormRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.forms[id]
	if !ok {
		return FormRecord{}, &ErrUnknownRecord{Kind: "form", ID: id}
	}
	return record, nil
}

func (c *MemoryCatalog) Spell(id string) (SpellRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.spells[id]
	if !ok {
		return SpellRecord{}, &ErrUnknownRecord{Kind: "spell", ID: id}
	}
	return record, nil
}
