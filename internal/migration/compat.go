// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"github.com/hashgraph/solo-storekeeper/pkg/schema"
)

// IsCompatible returns true if a store recorded with md can be opened under s without migration.
//
// Every entity of the configuration must be recorded with the same identity hash and the metadata must not
// record an entity s lacks.
func IsCompatible(md schema.Metadata, configuration string, s *schema.Schema) bool {
	return md.Matches(s, configuration)
}
