// SPDX-License-Identifier: Apache-2.0

// Package config migration.go keeps configuration files written for older releases working.
//
// Deprecated keys:
//   - store.schemas       -> store.schemaDir
//   - store.version       -> store.currentVersion
//   - migration.mappings  -> migration.mappingsFile

package config

import (
	"github.com/automa-saga/logx"
	"github.com/spf13/viper"
)

// deprecatedKeyMappings defines the mapping from old (deprecated) keys to new keys.
var deprecatedKeyMappings = []struct {
	oldKey string
	newKey string
}{
	{"store.schemas", "store.schemaDir"},
	{"store.version", "store.currentVersion"},
	{"migration.mappings", "migration.mappingsFile"},
}

// migrateOldConfigKeys copies deprecated keys to their new names and logs a deprecation warning for each.
func migrateOldConfigKeys() {
	for _, mapping := range deprecatedKeyMappings {
		migrateKey(mapping.oldKey, mapping.newKey)
	}
}

// migrateKey only migrates if the new key is not already set and the old key exists.
func migrateKey(oldKey, newKey string) {
	if !viper.IsSet(newKey) && viper.IsSet(oldKey) {
		value := viper.Get(oldKey)
		viper.Set(newKey, value)

		logx.As().Warn().
			Str("oldKey", oldKey).
			Str("newKey", newKey).
			Msg("DEPRECATION WARNING: Config field is deprecated and will be removed in a future release. Please update your config file.")
	}
}
