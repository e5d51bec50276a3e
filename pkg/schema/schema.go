// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"sort"

	"github.com/hashgraph/solo-storekeeper/pkg/sanity"
)

// FieldType is the storage type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeFloat   FieldType = "float"
	TypeBoolean FieldType = "boolean"
	TypeBytes   FieldType = "bytes"
)

// Valid returns true if t is one of the supported field types
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeBytes:
		return true
	}
	return false
}

// Field is a single attribute of an entity.
//
// RenamingID links a field to its name in an earlier schema version so that a rename can be inferred.
// Default is used to populate the field when rows are copied from a version that did not have it.
type Field struct {
	Name       string    `yaml:"name" json:"name" toml:"name"`
	Type       FieldType `yaml:"type" json:"type" toml:"type"`
	Optional   bool      `yaml:"optional,omitempty" json:"optional,omitempty" toml:"optional"`
	Default    any       `yaml:"default,omitempty" json:"default,omitempty" toml:"default"`
	RenamingID string    `yaml:"renamingId,omitempty" json:"renamingId,omitempty" toml:"renamingId"`
}

// HasDefault returns true if the field declares a default value
func (f *Field) HasDefault() bool {
	return f.Default != nil
}

// Entity is a named record type made of fields.
//
// HashModifier changes the identity hash without changing the fields, which forces a new version to be
// distinguishable from an older one with the same shape.
type Entity struct {
	Name         string  `yaml:"name" json:"name" toml:"name"`
	Fields       []Field `yaml:"fields" json:"fields" toml:"fields"`
	RenamingID   string  `yaml:"renamingId,omitempty" json:"renamingId,omitempty" toml:"renamingId"`
	HashModifier string  `yaml:"hashModifier,omitempty" json:"hashModifier,omitempty" toml:"hashModifier"`
}

// Field returns the field with the given name
func (e *Entity) Field(name string) (*Field, bool) {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i], true
		}
	}
	return nil, false
}

// FieldNames returns the field names in declaration order
func (e *Entity) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Schema is one version of a data model.
//
// Configurations name subsets of entities. An empty configuration name, or a name the schema does not
// declare, selects every entity.
type Schema struct {
	Version        string              `yaml:"version" json:"version" toml:"version"`
	Entities       []Entity            `yaml:"entities" json:"entities" toml:"entities"`
	Configurations map[string][]string `yaml:"configurations,omitempty" json:"configurations,omitempty" toml:"configurations"`
}

// Entity returns the entity with the given name
func (s *Schema) Entity(name string) (*Entity, bool) {
	for i := range s.Entities {
		if s.Entities[i].Name == name {
			return &s.Entities[i], true
		}
	}
	return nil, false
}

// EntitiesFor returns the entities that belong to the given configuration
func (s *Schema) EntitiesFor(configuration string) []Entity {
	names, ok := s.Configurations[configuration]
	if configuration == "" || !ok {
		return s.Entities
	}

	selected := make([]Entity, 0, len(names))
	for _, name := range names {
		if e, found := s.Entity(name); found {
			selected = append(selected, *e)
		}
	}
	return selected
}

// EntityHashes returns the identity hash of every entity in the configuration keyed by entity name
func (s *Schema) EntityHashes(configuration string) map[string]string {
	entities := s.EntitiesFor(configuration)
	hashes := make(map[string]string, len(entities))
	for i := range entities {
		hashes[entities[i].Name] = entities[i].Hash()
	}
	return hashes
}

// EntityNames returns the sorted entity names of the configuration
func (s *Schema) EntityNames(configuration string) []string {
	entities := s.EntitiesFor(configuration)
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that names are valid identifiers, are unique and that field types are known.
func (s *Schema) Validate() error {
	if err := sanity.ValidateIdentifier(s.Version); err != nil {
		return InvalidSchema.Wrap(err, "invalid schema version").WithProperty(PropertyVersion, s.Version)
	}

	seen := map[string]bool{}
	for _, e := range s.Entities {
		if err := sanity.ValidateIdentifier(e.Name); err != nil {
			return InvalidSchema.Wrap(err, "invalid entity name in schema %s", s.Version).
				WithProperty(PropertyVersion, s.Version)
		}
		if seen[e.Name] {
			return InvalidSchema.New("duplicate entity %s in schema %s", e.Name, s.Version).
				WithProperty(PropertyVersion, s.Version)
		}
		seen[e.Name] = true

		fields := map[string]bool{}
		for _, f := range e.Fields {
			if err := sanity.ValidateIdentifier(f.Name); err != nil {
				return InvalidSchema.Wrap(err, "invalid field name in entity %s of schema %s", e.Name, s.Version).
					WithProperty(PropertyVersion, s.Version)
			}
			if fields[f.Name] {
				return InvalidSchema.New("duplicate field %s.%s in schema %s", e.Name, f.Name, s.Version).
					WithProperty(PropertyVersion, s.Version)
			}
			fields[f.Name] = true

			if !f.Type.Valid() {
				return InvalidSchema.New("unknown type %q for field %s.%s in schema %s", f.Type, e.Name, f.Name, s.Version).
					WithProperty(PropertyVersion, s.Version)
			}
		}
	}

	for name, members := range s.Configurations {
		for _, member := range members {
			if !seen[member] {
				return InvalidSchema.New("configuration %q of schema %s references unknown entity %s", name, s.Version, member).
					WithProperty(PropertyVersion, s.Version)
			}
		}
	}

	return nil
}
