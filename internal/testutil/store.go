// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hashgraph/solo-storekeeper/pkg/schema"
	"github.com/stretchr/testify/require"
)

// StoreSeeder creates and fills stores
type StoreSeeder interface {
	Create(ctx context.Context, location string, s *schema.Schema, configuration string) error
	Insert(ctx context.Context, location string, entity string, rows ...map[string]any) error
}

// SeedPeopleStore creates dir/people.store at V1 holding three people and returns its path
func SeedPeopleStore(t *testing.T, eng StoreSeeder, dir string) string {
	t.Helper()
	ctx := context.Background()
	location := filepath.Join(dir, "people.store")
	require.NoError(t, eng.Create(ctx, location, PeopleV1(), ""))
	require.NoError(t, eng.Insert(ctx, location, "Person",
		map[string]any{"name": "Ada", "age": 36},
		map[string]any{"name": "Grace", "age": 45},
		map[string]any{"name": "Alan"},
	))
	return location
}
