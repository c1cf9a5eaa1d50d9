package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// ContentFile is the on-disk catalog format: one JSON document holding every
// static record the session can reference.
type ContentFile struct {
	Creatures []CreatureRecord `json:"creatures"`
	Forms     []FormRecord     `json:"forms"`
	Spells    []SpellRecord    `json:"spells"`
}

// LoadFile reads a content file and returns a populated catalog. Every
// record is validated on the way in; a single bad record fails the load.
func LoadFile(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %v", err)
	}

	content := &ContentFile{}
	if err := json.Unmarshal(data, content); err != nil {
		return nil, fmt.Errorf("failed to parse content file: %v", err)
	}

	c := NewMemoryCatalog()
	for _, record := range content.Creatures {
		if err := c.RegisterCreature(record); err != nil {
			return nil, fmt.Errorf("failed to register creature: %v", err)
		}
	}
	for _, record := range content.Forms {
		if err := c.RegisterForm(record); err != nil {
			return nil, fmt.Errorf("failed to register form: %v", err)
		}
	}
	for _, record := range content.Spells {
		if err := c.RegisterSpell(record); err != nil {
			return nil, fmt.Errorf("failed to register spell: %v", err)
		}
	}
	return c, nil
}
