// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"strings"

	"github.com/hashgraph/solo-storekeeper/pkg/schema"
)

// Infer computes the lightweight mapping between two schema versions.
//
// Destination entities and fields are matched to the source by renaming id first and by name otherwise.
// Source entities and fields without a match are dropped. A new field must be optional or declare a
// default. A field whose type changes, or that becomes required without a default, cannot be inferred.
func Infer(src, dst *schema.Schema) (*Mapping, error) {
	if src == nil || dst == nil {
		return nil, MappingNotInferable.New("both schema versions are required")
	}

	m := &Mapping{Source: src.Version, Destination: dst.Version}
	var problems []string

	for _, de := range dst.Entities {
		se := matchEntity(src, &de)
		if se == nil {
			// new entity, created empty
			m.Entities = append(m.Entities, EntityMapping{Destination: de.Name})
			continue
		}

		em := EntityMapping{Source: se.Name, Destination: de.Name}
		for _, df := range de.Fields {
			sf := matchField(se, &df)
			if sf == nil {
				if !df.Optional && !df.HasDefault() {
					problems = append(problems, "new required field "+de.Name+"."+df.Name+" has no default")
					continue
				}
				em.Fields = append(em.Fields, FieldMapping{Destination: df.Name, Default: df.Default})
				continue
			}

			if sf.Type != df.Type {
				problems = append(problems, "field "+de.Name+"."+df.Name+" changes type from "+
					string(sf.Type)+" to "+string(df.Type))
				continue
			}
			if sf.Optional && !df.Optional && !df.HasDefault() {
				problems = append(problems, "field "+de.Name+"."+df.Name+" becomes required without a default")
				continue
			}
			em.Fields = append(em.Fields, FieldMapping{Source: sf.Name, Destination: df.Name, Default: df.Default})
		}
		m.Entities = append(m.Entities, em)
	}

	if len(problems) > 0 {
		return nil, MappingNotInferable.New("cannot infer mapping %s -> %s: %s",
			src.Version, dst.Version, strings.Join(problems, "; "))
	}

	return m, nil
}

func matchEntity(src *schema.Schema, de *schema.Entity) *schema.Entity {
	if de.RenamingID != "" {
		if se, ok := src.Entity(de.RenamingID); ok {
			return se
		}
	}
	if se, ok := src.Entity(de.Name); ok {
		return se
	}
	return nil
}

func matchField(se *schema.Entity, df *schema.Field) *schema.Field {
	if df.RenamingID != "" {
		if sf, ok := se.Field(df.RenamingID); ok {
			return sf
		}
	}
	if sf, ok := se.Field(df.Name); ok {
		return sf
	}
	return nil
}
