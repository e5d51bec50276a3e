// SPDX-License-Identifier: Apache-2.0

// Package engine defines what the migration layer needs from a persistence engine: reading the metadata of a
// store file, inferring mappings between schema versions and copying a store into a new file under a new
// schema. Implementations live in sub packages.
package engine

import (
	"context"

	"github.com/hashgraph/solo-storekeeper/pkg/schema"
)

// ProgressFunc receives the completed fraction of a copy migration, in the range [0,1]
type ProgressFunc func(fraction float64)

// CopyRequest describes a destination-copy migration: SourcePath is read under Source and a new store is
// written to DestinationPath under Destination. The source file is never modified.
type CopyRequest struct {
	SourcePath      string
	DestinationPath string
	Source          *schema.Schema
	Destination     *schema.Schema
	Mapping         *Mapping
	Configuration   string
}

// MetadataReader reads the schema metadata recorded in a store file without opening it under any schema
type MetadataReader interface {
	ReadMetadata(ctx context.Context, location string) (schema.Metadata, error)
}

// MappingInferrer infers a mapping between two schema versions, or fails when none can be inferred
type MappingInferrer interface {
	InferMapping(ctx context.Context, src, dst *schema.Schema) (*Mapping, error)
}

// MappingProvider supplies an explicit mapping for a pair of schema versions when it has one
type MappingProvider interface {
	MappingFor(ctx context.Context, src, dst *schema.Schema) (*Mapping, bool)
}

// CopyMigrator migrates a store by copying it into a new file
type CopyMigrator interface {
	// Flush checkpoints any write-ahead log of the store at location so that the main file is complete.
	Flush(ctx context.Context, location string, src *schema.Schema) error
	// MigrateCopy writes a new store at req.DestinationPath. Progress is reported through progress when
	// it is not nil.
	MigrateCopy(ctx context.Context, req CopyRequest, progress ProgressFunc) error
}

// Engine is a persistence engine usable by the migration layer
type Engine interface {
	MetadataReader
	MappingInferrer
	CopyMigrator

	// StoreType names the store format recorded in metadata
	StoreType() string
}
