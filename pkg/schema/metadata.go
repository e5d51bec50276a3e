// SPDX-License-Identifier: Apache-2.0

package schema

// Metadata is what a store records about the schema it was last saved with
type Metadata struct {
	StoreType    string            `yaml:"storeType" json:"storeType"`
	Version      string            `yaml:"version,omitempty" json:"version,omitempty"`
	EntityHashes map[string]string `yaml:"entityHashes" json:"entityHashes"`
}

// NewMetadata builds the metadata a store of the given type records when saved with s
func NewMetadata(storeType string, s *Schema, configuration string) Metadata {
	return Metadata{
		StoreType:    storeType,
		Version:      s.Version,
		EntityHashes: s.EntityHashes(configuration),
	}
}

// Matches returns true when every entity of the configuration is recorded with the same identity hash and
// the metadata records no entity the schema lacks
func (m Metadata) Matches(s *Schema, configuration string) bool {
	if s == nil {
		return false
	}
	for name, h := range s.EntityHashes(configuration) {
		if m.EntityHashes[name] != h {
			return false
		}
	}
	for name := range m.EntityHashes {
		if _, ok := s.Entity(name); !ok {
			return false
		}
	}
	return true
}
