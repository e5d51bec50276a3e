// SPDX-License-Identifier: Apache-2.0

package migration

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace = errorx.NewNamespace("migration")

	// MetadataUnreadable means the schema metadata of a store could not be read
	MetadataUnreadable = ErrorsNamespace.NewType("metadata_unreadable")
	// SourceVersionUnknown means no schema version of the model matches the store
	SourceVersionUnknown = ErrorsNamespace.NewType("source_version_unknown", errorx.NotFound())
	// MappingUnresolved means no path or no mapping leads from the store's version to the target
	MappingUnresolved = ErrorsNamespace.NewType("mapping_unresolved")
	// MigrationStepFailed means the engine failed to migrate one step
	MigrationStepFailed = ErrorsNamespace.NewType("migration_step_failed")
	// ReplaceFailed means the migrated store could not be swapped into place
	ReplaceFailed = ErrorsNamespace.NewType("replace_failed")

	PropertySourceVersion      = errorx.RegisterPrintableProperty("source_version")
	PropertyDestinationVersion = errorx.RegisterPrintableProperty("destination_version")
	PropertyLocation           = errorx.RegisterPrintableProperty("location")
)
