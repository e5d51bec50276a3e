// SPDX-License-Identifier: Apache-2.0

package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashgraph/solo-storekeeper/internal/config"
	"github.com/hashgraph/solo-storekeeper/internal/testutil"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagDefinition_String(t *testing.T) {
	for _, persistent := range []bool{true, false} {
		fp := FlagDefinition[string]{Name: "name", ShortName: "n", Description: "a name", Default: "default"}
		var v string
		cmd := &cobra.Command{}
		if persistent {
			require.NoError(t, fp.varP(cmd, &v, false))
		} else {
			require.NoError(t, fp.varNP(cmd, &v, false))
		}

		get := fp.Value
		if persistent {
			get = fp.ValueP
		}

		got, err := get(cmd, nil)
		require.NoError(t, err)
		assert.Equal(t, "default", got)

		got, err = get(cmd, []string{"--name", "alice"})
		require.NoError(t, err)
		assert.Equal(t, "alice", got)
		assert.Equal(t, "alice", v)
	}
}

func TestFlagDefinition_Types(t *testing.T) {
	cmd := &cobra.Command{}

	yes := FlagDefinition[bool]{Name: "yes", ShortName: "y", Default: false}
	chain := FlagDefinition[[]string]{Name: "chain", Default: nil}
	timeout := FlagDefinition[time.Duration]{Name: "timeout", Default: time.Second}
	count := FlagDefinition[int]{Name: "count", Default: 3}

	var (
		b  bool
		ss []string
		d  time.Duration
		i  int
	)
	require.NoError(t, yes.varNP(cmd, &b, false))
	require.NoError(t, chain.varNP(cmd, &ss, false))
	require.NoError(t, timeout.varNP(cmd, &d, false))
	require.NoError(t, count.varNP(cmd, &i, false))

	args := []string{"-y", "--chain", "V1,V2", "--timeout", "5s", "--count", "7"}

	gotB, err := yes.Value(cmd, args)
	require.NoError(t, err)
	assert.True(t, gotB)

	gotSS, err := chain.Value(cmd, args)
	require.NoError(t, err)
	assert.Equal(t, []string{"V1", "V2"}, gotSS)

	gotD, err := timeout.Value(cmd, args)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, gotD)

	gotI, err := count.Value(cmd, args)
	require.NoError(t, err)
	assert.Equal(t, 7, gotI)
}

func TestFlagDefinition_Errors(t *testing.T) {
	fp := FlagDefinition[string]{Name: "name"}
	require.Error(t, fp.varNP(&cobra.Command{}, nil, false))
	require.Error(t, fp.varNP(nil, new(string), false))

	unsupported := FlagDefinition[float32]{Name: "ratio"}
	require.Error(t, unsupported.varNP(&cobra.Command{}, new(float32), false))
}

func TestFlagDefinition_MarkRequired(t *testing.T) {
	fp := FlagDefinition[string]{Name: "store"}
	var v string
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	require.NoError(t, fp.varNP(cmd, &v, true))

	cmd.SetArgs([]string{})
	require.Error(t, cmd.Execute())
}

// ==========================================
// StoreFlags
// ==========================================

func TestStoreFlags_Apply(t *testing.T) {
	// Given
	config.Reset()
	t.Cleanup(config.Reset)

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	flags := StoreFlags{
		Store:       "people.store",
		SchemaDir:   "schemas",
		Current:     "V2",
		Chain:       []string{"V1", "V2"},
		LockTimeout: 2 * time.Second,
	}

	// When
	cfg, err := flags.Apply()

	// Then
	require.NoError(t, err)
	realDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, []string{filepath.Join(dir, "people.store"), filepath.Join(realDir, "people.store")}, cfg.Store.Path)
	assert.True(t, filepath.IsAbs(cfg.Store.SchemaDir))
	assert.Equal(t, "V2", cfg.Store.CurrentVersion)
	assert.Equal(t, []string{"V1", "V2"}, cfg.Migration.Chain)
	assert.Equal(t, 2*time.Second, cfg.Migration.LockTimeout)
}

func TestStoreFlags_ApplyRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		flags StoreFlags
		check func(t *testing.T, err error)
	}{
		{
			name:  "missing store",
			flags: StoreFlags{SchemaDir: "/tmp/schemas"},
			check: func(t *testing.T, err error) {
				assert.True(t, errorx.IsOfType(err, errorx.IllegalArgument))
			},
		},
		{
			name:  "missing schema directory",
			flags: StoreFlags{Store: "/tmp/people.store"},
			check: func(t *testing.T, err error) {
				assert.True(t, errorx.IsOfType(err, errorx.IllegalArgument))
			},
		},
		{
			name:  "invalid version in chain",
			flags: StoreFlags{Store: "/tmp/people.store", SchemaDir: "/tmp/schemas", Chain: []string{"V1", "V 2"}},
			check: func(t *testing.T, err error) {
				assert.True(t, errorx.IsOfType(err, config.InvalidError))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.Reset()
			t.Cleanup(config.Reset)

			_, err := tt.flags.Apply()
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestLoadModel_DefaultsToLastSchemaFile(t *testing.T) {
	dir := testutil.WriteSchemaDir(t, t.TempDir(), testutil.PeopleV1(), testutil.PeopleV2(), testutil.PeopleV3())

	model, err := LoadModel(config.Config{Store: config.StoreConfig{SchemaDir: dir}})
	require.NoError(t, err)
	assert.Equal(t, "V3", model.Current().Version)

	target, err := ResolveTarget(model, "V2")
	require.NoError(t, err)
	assert.Equal(t, "V2", target.Version)

	_, err = ResolveTarget(model, "V7")
	require.Error(t, err)
}

func TestLoadModel_MissingSchemaDir(t *testing.T) {
	// Given
	dir := filepath.Join(t.TempDir(), "missing")

	// When
	_, err := LoadModel(config.Config{Store: config.StoreConfig{SchemaDir: dir, CurrentVersion: "V1"}})

	// Then
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, errorx.IllegalArgument))
	assert.Contains(t, err.Error(), "does not exist")
}
