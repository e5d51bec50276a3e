// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a single schema from a .yaml, .yml or .toml file
func LoadFile(path string) (*Schema, error) {
	var s Schema

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, ReadError.Wrap(err, "failed to read schema file").WithProperty(PropertyPath, path)
		}
		if err = yaml.Unmarshal(b, &s); err != nil {
			return nil, InvalidSchema.Wrap(err, "failed to parse schema file").WithProperty(PropertyPath, path)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, &s); err != nil {
			return nil, InvalidSchema.Wrap(err, "failed to parse schema file").WithProperty(PropertyPath, path)
		}
	default:
		return nil, InvalidSchema.New("unsupported schema file extension %q", filepath.Ext(path)).
			WithProperty(PropertyPath, path)
	}

	if err := s.Validate(); err != nil {
		return nil, InvalidSchema.Wrap(err, "invalid schema file").WithProperty(PropertyPath, path)
	}

	return &s, nil
}

// LoadDir reads every schema file of dir, sorted by file name
func LoadDir(dir string) ([]*Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ReadError.Wrap(err, "failed to read schema directory").WithProperty(PropertyPath, dir)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".toml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	schemas := make([]*Schema, 0, len(names))
	for _, name := range names {
		s, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}

	return schemas, nil
}

// LoadModel reads every schema of dir and builds a model with the given current version
func LoadModel(dir string, current string) (*Model, error) {
	schemas, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return NewModel(current, schemas...)
}
