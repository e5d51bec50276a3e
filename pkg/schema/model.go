// SPDX-License-Identifier: Apache-2.0

package schema

// Model is the full set of historical schema versions of an application together with the current one
type Model struct {
	schemas map[string]*Schema
	order   []string
	current string
}

// NewModel validates the schemas and returns a model whose current version is current.
func NewModel(current string, schemas ...*Schema) (*Model, error) {
	m := &Model{
		schemas: make(map[string]*Schema, len(schemas)),
		order:   make([]string, 0, len(schemas)),
		current: current,
	}

	for _, s := range schemas {
		if s == nil {
			return nil, InvalidSchema.New("nil schema in model")
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, exists := m.schemas[s.Version]; exists {
			return nil, InvalidSchema.New("duplicate schema version %s", s.Version).
				WithProperty(PropertyVersion, s.Version)
		}
		m.schemas[s.Version] = s
		m.order = append(m.order, s.Version)
	}

	if _, ok := m.schemas[current]; !ok {
		return nil, SchemaNotFound.New("current schema version %q is not part of the model", current).
			WithProperty(PropertyVersion, current)
	}

	return m, nil
}

// Current returns the schema the application uses now
func (m *Model) Current() *Schema {
	return m.schemas[m.current]
}

// Schema returns the schema with the given version id
func (m *Model) Schema(version string) (*Schema, bool) {
	s, ok := m.schemas[version]
	return s, ok
}

// Versions returns the version ids in declaration order
func (m *Model) Versions() []string {
	return append([]string(nil), m.order...)
}

// Detect returns the schema whose entity hashes match the metadata.
//
// The current schema is checked first, the remaining versions in declaration order, so that two versions
// with identical hashes resolve to the most relevant one.
func (m *Model) Detect(md Metadata, configuration string) (*Schema, bool) {
	if cur := m.Current(); md.Matches(cur, configuration) {
		return cur, true
	}
	for _, v := range m.order {
		if v == m.current {
			continue
		}
		if s := m.schemas[v]; md.Matches(s, configuration) {
			return s, true
		}
	}
	return nil, false
}
