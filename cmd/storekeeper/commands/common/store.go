// SPDX-License-Identifier: Apache-2.0

package common

import (
	"path/filepath"
	"time"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/solo-storekeeper/internal/config"
	"github.com/hashgraph/solo-storekeeper/internal/engine"
	"github.com/hashgraph/solo-storekeeper/internal/engine/sqlitestore"
	"github.com/hashgraph/solo-storekeeper/internal/stack"
	"github.com/hashgraph/solo-storekeeper/pkg/fsx"
	"github.com/hashgraph/solo-storekeeper/pkg/schema"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
)

// StoreFlags holds the flags shared by every command operating on a store
type StoreFlags struct {
	Store         string
	SchemaDir     string
	Current       string
	Configuration string
	Chain         []string
	Mappings      string
	LockTimeout   time.Duration
}

// Register adds the store flags to cmd
func (f *StoreFlags) Register(cmd *cobra.Command) {
	FlagStore.SetVarP(cmd, &f.Store, false)
	FlagSchemaDir.SetVarP(cmd, &f.SchemaDir, false)
	FlagCurrentVersion.SetVarP(cmd, &f.Current, false)
	FlagConfiguration.SetVarP(cmd, &f.Configuration, false)
	FlagChain.SetVarP(cmd, &f.Chain, false)
	FlagMappings.SetVarP(cmd, &f.Mappings, false)
	FlagLockTimeout.SetVarP(cmd, &f.LockTimeout, false)
}

// Apply writes the flags over the loaded configuration and validates the result.
// Relative paths are resolved against the working directory.
func (f *StoreFlags) Apply() (config.Config, error) {
	store, err := absPath(f.Store)
	if err != nil {
		return config.Config{}, err
	}
	schemaDir, err := absPath(f.SchemaDir)
	if err != nil {
		return config.Config{}, err
	}
	mappings, err := absPath(f.Mappings)
	if err != nil {
		return config.Config{}, err
	}

	config.OverrideStoreConfig(config.StoreConfig{
		Path:           store,
		SchemaDir:      schemaDir,
		CurrentVersion: f.Current,
		Configuration:  f.Configuration,
	})
	config.OverrideMigrationConfig(config.MigrationConfig{
		Chain:        f.Chain,
		MappingsFile: mappings,
		LockTimeout:  f.LockTimeout,
	})

	cfg := config.Get()
	if err = cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	if cfg.Store.Path == "" {
		return config.Config{}, errorx.IllegalArgument.New("store path is required").
			WithProperty(errorx.PropertyPayload(), "--"+FlagStore.Name)
	}
	if cfg.Store.SchemaDir == "" {
		return config.Config{}, errorx.IllegalArgument.New("schema directory is required").
			WithProperty(errorx.PropertyPayload(), "--"+FlagSchemaDir.Name)
	}

	return cfg, nil
}

func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errorx.IllegalArgument.Wrap(err, "invalid path %q", p)
	}
	return abs, nil
}

// NewEngine returns the store engine
func NewEngine() *sqlitestore.Engine {
	return sqlitestore.New(sqlitestore.WithLogger(logx.As()))
}

// LoadModel loads the schema model described by cfg. Without a current version the latest schema
// file wins.
func LoadModel(cfg config.Config) (*schema.Model, error) {
	fm, err := fsx.NewManager()
	if err != nil {
		return nil, err
	}
	if !fm.IsDirectory(cfg.Store.SchemaDir) {
		return nil, errorx.IllegalArgument.New("schema directory %s does not exist", cfg.Store.SchemaDir).
			WithProperty(errorx.PropertyPayload(), "--"+FlagSchemaDir.Name)
	}

	current := cfg.Store.CurrentVersion
	if current == "" {
		schemas, err := schema.LoadDir(cfg.Store.SchemaDir)
		if err != nil {
			return nil, err
		}
		if len(schemas) == 0 {
			return nil, errorx.IllegalArgument.New("no schema files found in %s", cfg.Store.SchemaDir).
				WithProperty(errorx.PropertyPayload(), "--"+FlagSchemaDir.Name)
		}
		return schema.NewModel(schemas[len(schemas)-1].Version, schemas...)
	}

	return schema.LoadModel(cfg.Store.SchemaDir, current)
}

// NewStack builds a stack from cfg
func NewStack(cfg config.Config) (*stack.Stack, error) {
	model, err := LoadModel(cfg)
	if err != nil {
		return nil, err
	}

	graph, err := cfg.Migration.Graph()
	if err != nil {
		return nil, err
	}

	opts := []stack.Option{
		stack.WithLogger(logx.As()),
		stack.WithConfiguration(cfg.Store.Configuration),
		stack.WithLockTimeout(cfg.Migration.LockTimeout),
		stack.WithLockDir(cfg.Migration.LockDir),
		stack.WithWorkDir(cfg.Migration.WorkDir),
	}

	if cfg.Migration.MappingsFile != "" {
		provider, err := engine.LoadMappings(cfg.Migration.MappingsFile)
		if err != nil {
			return nil, err
		}
		logx.As().Debug().Int("mappings", provider.Len()).Str("file", cfg.Migration.MappingsFile).
			Msg("Loaded explicit mappings")
		opts = append(opts, stack.WithMappingProviders(provider))
	}

	return stack.New(model, graph, NewEngine(), opts...)
}

// ResolveTarget returns the schema of version, or the current schema when version is empty
func ResolveTarget(model *schema.Model, version string) (*schema.Schema, error) {
	if version == "" {
		return model.Current(), nil
	}
	s, ok := model.Schema(version)
	if !ok {
		return nil, schema.SchemaNotFound.New("no schema file for version %s", version).
			WithProperty(schema.PropertyVersion, version)
	}
	return s, nil
}
