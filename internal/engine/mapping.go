// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/hashgraph/solo-storekeeper/pkg/schema"
)

// FieldMapping maps one destination field. When Source is empty the field is populated with Default.
type FieldMapping struct {
	Source      string `yaml:"source,omitempty" json:"source,omitempty"`
	Destination string `yaml:"destination" json:"destination"`
	Default     any    `yaml:"default,omitempty" json:"default,omitempty"`
}

// TransformFunc rewrites a destination row after its fields were mapped
type TransformFunc func(row map[string]any) (map[string]any, error)

// EntityMapping maps one destination entity. An empty Source creates the entity without rows.
type EntityMapping struct {
	Source      string         `yaml:"source,omitempty" json:"source,omitempty"`
	Destination string         `yaml:"destination" json:"destination"`
	Fields      []FieldMapping `yaml:"fields,omitempty" json:"fields,omitempty"`
	Transform   TransformFunc  `yaml:"-" json:"-"`
}

// Field returns the mapping of the destination field
func (em *EntityMapping) Field(destination string) (*FieldMapping, bool) {
	for i := range em.Fields {
		if em.Fields[i].Destination == destination {
			return &em.Fields[i], true
		}
	}
	return nil, false
}

// Mapping describes how every entity of a destination schema version is populated from a source version.
// Source entities that are not referenced are dropped.
type Mapping struct {
	Source      string          `yaml:"source" json:"source"`
	Destination string          `yaml:"destination" json:"destination"`
	Entities    []EntityMapping `yaml:"entities" json:"entities"`
	// Explicit is true for mappings supplied by the application rather than inferred
	Explicit bool `yaml:"-" json:"-"`
}

// Entity returns the mapping of the destination entity
func (m *Mapping) Entity(destination string) (*EntityMapping, bool) {
	for i := range m.Entities {
		if m.Entities[i].Destination == destination {
			return &m.Entities[i], true
		}
	}
	return nil, false
}

// Covers returns true if the mapping was declared for the pair of versions
func (m *Mapping) Covers(src, dst *schema.Schema) bool {
	return m != nil && src != nil && dst != nil && m.Source == src.Version && m.Destination == dst.Version
}

// Validate checks that the mapping only references known entities and fields and that every required
// destination field is populated
func (m *Mapping) Validate(src, dst *schema.Schema) error {
	if m == nil {
		return InvalidMapping.New("mapping is nil")
	}
	if !m.Covers(src, dst) {
		return InvalidMapping.New("mapping %s -> %s does not match versions %s -> %s",
			m.Source, m.Destination, versionOf(src), versionOf(dst))
	}

	seen := map[string]bool{}
	for _, em := range m.Entities {
		de, ok := dst.Entity(em.Destination)
		if !ok {
			return InvalidMapping.New("mapping %s -> %s references unknown destination entity %s",
				m.Source, m.Destination, em.Destination)
		}
		if seen[em.Destination] {
			return InvalidMapping.New("mapping %s -> %s maps entity %s twice", m.Source, m.Destination, em.Destination)
		}
		seen[em.Destination] = true

		var se *schema.Entity
		if em.Source != "" {
			if se, ok = src.Entity(em.Source); !ok {
				return InvalidMapping.New("mapping %s -> %s references unknown source entity %s",
					m.Source, m.Destination, em.Source)
			}
		}

		for _, fm := range em.Fields {
			if _, ok := de.Field(fm.Destination); !ok {
				return InvalidMapping.New("mapping %s -> %s references unknown field %s.%s",
					m.Source, m.Destination, em.Destination, fm.Destination)
			}
			if fm.Source == "" {
				continue
			}
			if se == nil {
				return InvalidMapping.New("mapping %s -> %s maps field %s.%s from an entity without source",
					m.Source, m.Destination, em.Destination, fm.Destination)
			}
			if _, ok := se.Field(fm.Source); !ok {
				return InvalidMapping.New("mapping %s -> %s references unknown source field %s.%s",
					m.Source, m.Destination, em.Source, fm.Source)
			}
		}

		if em.Transform != nil || se == nil {
			continue
		}
		for _, f := range de.Fields {
			if f.Optional || f.HasDefault() {
				continue
			}
			if fm, ok := em.Field(f.Name); !ok || (fm.Source == "" && fm.Default == nil) {
				return InvalidMapping.New("mapping %s -> %s leaves required field %s.%s unpopulated",
					m.Source, m.Destination, em.Destination, f.Name)
			}
		}
	}

	return nil
}

func versionOf(s *schema.Schema) string {
	if s == nil {
		return "<nil>"
	}
	return s.Version
}
