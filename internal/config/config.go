// SPDX-License-Identifier: Apache-2.0

// Package config holds the storekeeper configuration: where the store and its schema files live, how the
// schema versions chain together, and where upgrades take their locks and stage migrated copies.
// Values come from the file given with --config, STOREKEEPER_* environment variables and command flags.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/solo-storekeeper/internal/chain"
	"github.com/hashgraph/solo-storekeeper/pkg/sanity"
	"github.com/joomcode/errorx"
	"github.com/spf13/viper"
)

const (
	EnvPrefix          = "STOREKEEPER"
	DefaultLockTimeout = 30 * time.Second
)

// Config holds the global configuration for the application.
type Config struct {
	Log       logx.LoggingConfig `yaml:"log" json:"log"`
	Store     StoreConfig        `yaml:"store" json:"store"`
	Migration MigrationConfig    `yaml:"migration" json:"migration"`
}

// StoreConfig represents the `store` configuration block.
type StoreConfig struct {
	Path           string `yaml:"path" json:"path"`
	Configuration  string `yaml:"configuration" json:"configuration"` // optional subset of entities
	SchemaDir      string `yaml:"schemaDir" json:"schemaDir"`
	CurrentVersion string `yaml:"currentVersion" json:"currentVersion"`
}

// Validate checks paths and identifiers of the store block
func (s *StoreConfig) Validate() error {
	if s.Path != "" {
		if _, err := sanity.SanitizePath(s.Path); err != nil {
			return InvalidError.Wrap(err, "invalid store path: %s", s.Path).WithProperty(PropertyKey, "store.path")
		}
	}

	if s.SchemaDir != "" {
		if _, err := sanity.SanitizePath(s.SchemaDir); err != nil {
			return InvalidError.Wrap(err, "invalid schema directory: %s", s.SchemaDir).
				WithProperty(PropertyKey, "store.schemaDir")
		}
	}

	if s.CurrentVersion != "" {
		if err := sanity.ValidateIdentifier(s.CurrentVersion); err != nil {
			return InvalidError.Wrap(err, "invalid current version").WithProperty(PropertyKey, "store.currentVersion")
		}
	}

	if s.Configuration != "" {
		if err := sanity.ValidateIdentifier(s.Configuration); err != nil {
			return InvalidError.Wrap(err, "invalid configuration name").WithProperty(PropertyKey, "store.configuration")
		}
	}

	return nil
}

// EdgeConfig declares that stores at From migrate to To
type EdgeConfig struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// MigrationConfig represents the `migration` configuration block.
// Chain and Pairs are two ways of declaring the version graph; at most one may be set.
type MigrationConfig struct {
	Chain        []string      `yaml:"chain" json:"chain"`
	Pairs        []EdgeConfig  `yaml:"pairs" json:"pairs"`
	MappingsFile string        `yaml:"mappingsFile" json:"mappingsFile"`
	LockTimeout  time.Duration `yaml:"lockTimeout" json:"lockTimeout"`
	LockDir      string        `yaml:"lockDir" json:"lockDir"`
	WorkDir      string        `yaml:"workDir" json:"workDir"` // defaults to the directory of the store
}

// Validate checks the migration block
func (m *MigrationConfig) Validate() error {
	if len(m.Chain) > 0 && len(m.Pairs) > 0 {
		return InvalidError.New("migration.chain and migration.pairs are mutually exclusive").
			WithProperty(PropertyKey, "migration")
	}

	for _, v := range m.Chain {
		if err := sanity.ValidateIdentifier(v); err != nil {
			return InvalidError.Wrap(err, "invalid version in migration chain").WithProperty(PropertyKey, "migration.chain")
		}
	}

	for _, p := range m.Pairs {
		for _, v := range []string{p.From, p.To} {
			if err := sanity.ValidateIdentifier(v); err != nil {
				return InvalidError.Wrap(err, "invalid version in migration pairs").WithProperty(PropertyKey, "migration.pairs")
			}
		}
	}

	paths := []struct {
		key   string
		value string
	}{
		{"migration.mappingsFile", m.MappingsFile},
		{"migration.lockDir", m.LockDir},
		{"migration.workDir", m.WorkDir},
	}
	for _, p := range paths {
		if p.value == "" {
			continue
		}
		if _, err := sanity.SanitizePath(p.value); err != nil {
			return InvalidError.Wrap(err, "invalid path: %s", p.value).WithProperty(PropertyKey, p.key)
		}
	}

	if m.LockTimeout < 0 {
		return InvalidError.New("lock timeout cannot be negative: %s", m.LockTimeout).
			WithProperty(PropertyKey, "migration.lockTimeout")
	}

	return nil
}

// Graph builds the declared version graph. Without a declaration the graph is empty.
func (m *MigrationConfig) Graph() (*chain.Graph, error) {
	switch {
	case len(m.Chain) > 0 && len(m.Pairs) > 0:
		return nil, InvalidError.New("migration.chain and migration.pairs are mutually exclusive")
	case len(m.Chain) > 0:
		return chain.FromList(m.Chain...)
	case len(m.Pairs) > 0:
		edges := make([]chain.Edge, 0, len(m.Pairs))
		for _, p := range m.Pairs {
			edges = append(edges, chain.Edge{Source: p.From, Destination: p.To})
		}
		return chain.FromPairs(edges)
	default:
		return chain.Empty(), nil
	}
}

// Validate validates all configuration fields to ensure they are safe and secure.
func (c Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Migration.Validate(); err != nil {
		return err
	}

	// migrated copies are renamed over the store, so they are staged below the store's directory
	if c.Store.Path != "" && c.Migration.WorkDir != "" {
		if _, err := sanity.ValidatePathWithinBase(filepath.Dir(c.Store.Path), c.Migration.WorkDir); err != nil {
			return InvalidError.Wrap(err, "work directory must be inside the store directory").
				WithProperty(PropertyKey, "migration.workDir")
		}
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Log: logx.LoggingConfig{
			Level:          "Info",
			ConsoleLogging: true,
			FileLogging:    false,
		},
		Migration: MigrationConfig{
			LockTimeout: DefaultLockTimeout,
		},
	}
}

var globalConfig = defaultConfig()

// Initialize loads the configuration from the specified file.
// Values may be overridden with STOREKEEPER_ prefixed environment variables, e.g. STOREKEEPER_STORE_PATH.
//
// Parameters:
//   - path: The path to the configuration file.
//
// Returns:
//   - An error if the configuration cannot be loaded.
func Initialize(path string) error {
	if path != "" {
		globalConfig = defaultConfig()
		viper.Reset()
		viper.SetConfigFile(path)
		viper.SetEnvPrefix(EnvPrefix)
		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		err := viper.ReadInConfig()
		if err != nil {
			return NotFoundError.Wrap(err, "failed to read config file: %s", path).
				WithProperty(errorx.PropertyPayload(), path)
		}

		migrateOldConfigKeys()

		if err := viper.Unmarshal(&globalConfig); err != nil {
			return errorx.IllegalFormat.Wrap(err, "failed to parse configuration").
				WithProperty(errorx.PropertyPayload(), path)
		}
	}

	return nil
}

// Get returns the loaded configuration.
//
// Returns:
//   - The global configuration.
func Get() Config {
	return globalConfig
}

func Set(c *Config) error {
	globalConfig = *c
	return nil
}

// Reset restores the default configuration
func Reset() {
	globalConfig = defaultConfig()
	viper.Reset()
}

// OverrideStoreConfig updates the store configuration with provided overrides.
// Empty string values are ignored (not applied).
func OverrideStoreConfig(overrides StoreConfig) {
	if overrides.Path != "" {
		globalConfig.Store.Path = overrides.Path
	}
	if overrides.Configuration != "" {
		globalConfig.Store.Configuration = overrides.Configuration
	}
	if overrides.SchemaDir != "" {
		globalConfig.Store.SchemaDir = overrides.SchemaDir
	}
	if overrides.CurrentVersion != "" {
		globalConfig.Store.CurrentVersion = overrides.CurrentVersion
	}
}

// OverrideMigrationConfig updates the migration configuration with provided overrides.
// Empty values are ignored. A chain override replaces any declared pairs.
func OverrideMigrationConfig(overrides MigrationConfig) {
	if len(overrides.Chain) > 0 {
		globalConfig.Migration.Chain = overrides.Chain
		globalConfig.Migration.Pairs = nil
	}
	if overrides.MappingsFile != "" {
		globalConfig.Migration.MappingsFile = overrides.MappingsFile
	}
	if overrides.LockTimeout > 0 {
		globalConfig.Migration.LockTimeout = overrides.LockTimeout
	}
	if overrides.LockDir != "" {
		globalConfig.Migration.LockDir = overrides.LockDir
	}
	if overrides.WorkDir != "" {
		globalConfig.Migration.WorkDir = overrides.WorkDir
	}
}
