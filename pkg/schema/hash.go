// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

type canonicalField struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Optional bool      `json:"optional"`
}

type canonicalEntity struct {
	Name         string           `json:"name"`
	HashModifier string           `json:"hashModifier,omitempty"`
	Fields       []canonicalField `json:"fields"`
}

// Hash returns the identity hash of the entity.
//
// Only the entity name, hash modifier and the name, type and optionality of each field contribute.
// Renaming ids and defaults do not, so they can be edited without forcing a migration.
func (e *Entity) Hash() string {
	c := canonicalEntity{
		Name:         e.Name,
		HashModifier: e.HashModifier,
		Fields:       make([]canonicalField, 0, len(e.Fields)),
	}
	for _, f := range e.Fields {
		c.Fields = append(c.Fields, canonicalField{Name: f.Name, Type: f.Type, Optional: f.Optional})
	}
	sort.Slice(c.Fields, func(i, j int) bool { return c.Fields[i].Name < c.Fields[j].Name })

	// marshalling plain structs of strings and bools cannot fail
	b, _ := json.Marshal(c)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// SameHashes returns true when both schemas have identical entity hashes for the configuration
func SameHashes(a, b *Schema, configuration string) bool {
	if a == nil || b == nil {
		return false
	}
	return equalHashes(a.EntityHashes(configuration), b.EntityHashes(configuration))
}

func equalHashes(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for name, h := range a {
		if b[name] != h {
			return false
		}
	}
	return true
}
