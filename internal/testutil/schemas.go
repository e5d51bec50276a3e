// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashgraph/solo-storekeeper/internal/chain"
	"github.com/hashgraph/solo-storekeeper/pkg/schema"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// The people fixtures describe four versions of a small address book:
//
//	V1: Person{name, age?}
//	V2: adds Person.email with a default (inferable)
//	V3: Person.age becomes a string (needs an explicit mapping)
//	V4: adds the Note entity (inferable)

// PeopleV1 returns the first version of the address book schema
func PeopleV1() *schema.Schema {
	return &schema.Schema{
		Version: "V1",
		Entities: []schema.Entity{
			{Name: "Person", Fields: []schema.Field{
				{Name: "name", Type: schema.TypeString},
				{Name: "age", Type: schema.TypeInteger, Optional: true},
			}},
		},
	}
}

// PeopleV2 adds an email with a default
func PeopleV2() *schema.Schema {
	s := PeopleV1()
	s.Version = "V2"
	s.Entities[0].Fields = append(s.Entities[0].Fields,
		schema.Field{Name: "email", Type: schema.TypeString, Default: "unknown@example.com"})
	return s
}

// PeopleV3 changes the type of age
func PeopleV3() *schema.Schema {
	s := PeopleV2()
	s.Version = "V3"
	s.Entities[0].Fields[1].Type = schema.TypeString
	return s
}

// PeopleV4 adds notes
func PeopleV4() *schema.Schema {
	s := PeopleV3()
	s.Version = "V4"
	s.Entities = append(s.Entities, schema.Entity{
		Name:   "Note",
		Fields: []schema.Field{{Name: "text", Type: schema.TypeString}},
	})
	return s
}

// PeopleModel returns a model of all people versions with the given current version
func PeopleModel(t *testing.T, current string) *schema.Model {
	t.Helper()
	m, err := schema.NewModel(current, PeopleV1(), PeopleV2(), PeopleV3(), PeopleV4())
	require.NoError(t, err)
	return m
}

// PeopleChain returns the declared chain V1 -> V2 -> V3 -> V4
func PeopleChain() *chain.Graph {
	return chain.MustFromList("V1", "V2", "V3", "V4")
}

// WriteSchemaDir writes every schema to dir as YAML and returns dir
func WriteSchemaDir(t *testing.T, dir string, schemas ...*schema.Schema) string {
	t.Helper()
	for _, s := range schemas {
		b, err := yaml.Marshal(s)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, s.Version+".yaml"), b, 0o644))
	}
	return dir
}
