// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/solo-storekeeper/cmd/storekeeper/commands/tui"
	"github.com/hashgraph/solo-storekeeper/internal/config"
	"github.com/hashgraph/solo-storekeeper/internal/engine/sqlitestore"
	"github.com/hashgraph/solo-storekeeper/internal/migration"
	"github.com/hashgraph/solo-storekeeper/internal/testutil"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const ageAsTextMappings = `mappings:
  - source: V2
    destination: V3
    entities:
      - source: Person
        destination: Person
        fields:
          - {source: name, destination: name}
          - {source: age, destination: age}
          - {source: email, destination: email}
`

func TestMain(m *testing.M) {
	_ = logx.Initialize(logx.LoggingConfig{
		Level:          "error",
		ConsoleLogging: true,
	})
	os.Exit(m.Run())
}

type cliFixture struct {
	dir      string
	schemas  string
	store    string
	mappings string
	eng      *sqlitestore.Engine
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	config.Reset()
	t.Cleanup(config.Reset)

	dir := t.TempDir()
	schemas := filepath.Join(dir, "schemas")
	require.NoError(t, os.MkdirAll(schemas, 0o755))
	testutil.WriteSchemaDir(t, schemas,
		testutil.PeopleV1(), testutil.PeopleV2(), testutil.PeopleV3(), testutil.PeopleV4())

	mappings := filepath.Join(dir, "mappings.yaml")
	require.NoError(t, os.WriteFile(mappings, []byte(ageAsTextMappings), 0o644))

	eng := sqlitestore.New(sqlitestore.WithLogger(testutil.Nop()))
	store := testutil.SeedPeopleStore(t, eng, dir)

	return &cliFixture{dir: dir, schemas: schemas, store: store, mappings: mappings, eng: eng}
}

// args returns the store flags of the fixture followed by extra
func (f *cliFixture) args(cmd string, extra ...string) []string {
	return append([]string{cmd,
		"--store", f.store,
		"--schemas", f.schemas,
		"--chain", "V1,V2,V3,V4",
		"--mappings", f.mappings,
	}, extra...)
}

func (f *cliFixture) version(t *testing.T) string {
	t.Helper()
	md, err := f.eng.ReadMetadata(context.Background(), f.store)
	require.NoError(t, err)
	return md.Version
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return testutil.ExecuteCmd(t, newRootCmd(), args...)
}

// ==========================================
// check / forecast / inspect
// ==========================================

func TestCheckCmd(t *testing.T) {
	// Given
	f := newCLIFixture(t)

	// When
	out, err := execute(t, f.args("check")...)

	// Then
	require.NoError(t, err)
	var got checkOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, checkOutput{Store: f.store, Detected: "V1", Target: "V4", Migration: "heavyweight"}, got)
}

func TestCheckCmd_LightweightTarget(t *testing.T) {
	f := newCLIFixture(t)

	out, err := execute(t, f.args("check", "--target", "V2")...)

	require.NoError(t, err)
	var got checkOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "lightweight", got.Migration)
	assert.Equal(t, "V2", got.Target)
}

func TestForecastCmd_JSON(t *testing.T) {
	// Given
	f := newCLIFixture(t)

	// When
	out, err := execute(t, f.args("forecast", "--output", "json")...)

	// Then
	require.NoError(t, err)
	var got forecastOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "heavyweight", got.Type)
	require.Len(t, got.Steps, 3)
	assert.Equal(t, "V1-to-V2", got.Steps[0].Id)
	assert.Equal(t, []string{"lightweight", "heavyweight", "lightweight"},
		[]string{got.Steps[0].Type, got.Steps[1].Type, got.Steps[2].Type})
	assert.Equal(t, "V1", f.version(t), "forecast must not touch the store")
}

func TestForecastCmd_MissingMapping(t *testing.T) {
	f := newCLIFixture(t)

	_, err := execute(t, "forecast", "--store", f.store, "--schemas", f.schemas, "--chain", "V1,V2,V3,V4")

	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, migration.MappingUnresolved), "got %v", err)
}

func TestInspectCmd(t *testing.T) {
	f := newCLIFixture(t)

	out, err := execute(t, f.args("inspect")...)

	require.NoError(t, err)
	var got inspectOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, sqlitestore.StoreType, got.StoreType)
	assert.Equal(t, "V1", got.Matches)
	assert.Equal(t, "V4", got.Current)
	assert.False(t, got.UpToDate)
	assert.Contains(t, got.EntityHashes, "Person")
}

func TestInspectCmd_UnreadableStore(t *testing.T) {
	f := newCLIFixture(t)
	garbage := filepath.Join(f.dir, "garbage.store")
	require.NoError(t, os.WriteFile(garbage, []byte("not a store"), 0o644))

	_, err := execute(t, "inspect", "--store", garbage, "--schemas", f.schemas)

	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, migration.MetadataUnreadable), "got %v", err)
}

// ==========================================
// init
// ==========================================

func TestInitCmd(t *testing.T) {
	// Given
	f := newCLIFixture(t)
	location := filepath.Join(f.dir, "fresh.store")

	// When
	out, err := execute(t, "init", "--store", location, "--schemas", f.schemas, "--schema-version", "V2")

	// Then
	require.NoError(t, err)
	assert.Contains(t, out, "at schema version V2")
	md, err := f.eng.ReadMetadata(context.Background(), location)
	require.NoError(t, err)
	assert.Equal(t, "V2", md.Version)

	// an existing store is never overwritten
	_, err = execute(t, "init", "--store", location, "--schemas", f.schemas)
	require.Error(t, err)
}

func TestInitCmd_UnknownVersion(t *testing.T) {
	f := newCLIFixture(t)

	_, err := execute(t, "init", "--store", filepath.Join(f.dir, "x.store"), "--schemas", f.schemas,
		"--schema-version", "V9")

	require.Error(t, err)
	assert.True(t, errorx.HasTrait(err, errorx.NotFound()))
}

// ==========================================
// upgrade
// ==========================================

func TestUpgradeCmd(t *testing.T) {
	// Given
	f := newCLIFixture(t)
	reports := filepath.Join(f.dir, "reports")

	// When
	out, err := execute(t, f.args("upgrade", "--yes", "--no-tui", "--report-dir", reports)...)

	// Then
	require.NoError(t, err)
	assert.Contains(t, out, "Store upgraded")
	assert.Equal(t, "V4", f.version(t))

	rows, err := f.eng.Rows(context.Background(), f.store, "Person")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	entries, err := os.ReadDir(reports)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// a second run has nothing to do
	out, err = execute(t, f.args("upgrade", "--no-tui")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Store is up to date")
}

func TestUpgradeCmd_LightweightNeedsNoConfirmation(t *testing.T) {
	f := newCLIFixture(t)
	orig := tui.Confirm
	tui.Confirm = func(string, string) (bool, error) {
		t.Fatal("lightweight upgrades must not ask for confirmation")
		return false, nil
	}
	t.Cleanup(func() { tui.Confirm = orig })

	_, err := execute(t, f.args("upgrade", "--target", "V2", "--no-tui")...)

	require.NoError(t, err)
	assert.Equal(t, "V2", f.version(t))
}

func TestUpgradeCmd_HeavyweightDeclined(t *testing.T) {
	// Given
	f := newCLIFixture(t)
	asked := false
	orig := tui.Confirm
	tui.Confirm = func(string, string) (bool, error) {
		asked = true
		return false, nil
	}
	t.Cleanup(func() { tui.Confirm = orig })

	// When
	out, err := execute(t, f.args("upgrade", "--no-tui")...)

	// Then
	require.NoError(t, err)
	assert.True(t, asked)
	assert.Contains(t, out, "Upgrade cancelled")
	assert.Equal(t, "V1", f.version(t))
}

func TestUpgradeCmd_FailureLeavesStoreUnchanged(t *testing.T) {
	// Given a V2 -> V3 mapping that reads a field V2 does not have
	f := newCLIFixture(t)
	broken := `mappings:
  - source: V2
    destination: V3
    entities:
      - source: Person
        destination: Person
        fields:
          - {source: name, destination: name}
          - {source: phone, destination: age}
          - {source: email, destination: email}
`
	require.NoError(t, os.WriteFile(f.mappings, []byte(broken), 0o644))

	// When
	_, err := execute(t, f.args("upgrade", "--yes", "--no-tui")...)

	// Then
	require.Error(t, err)
	assert.Equal(t, "V1", f.version(t))
}

func TestStoreFlags_Required(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	_, err := execute(t, "check", "--schemas", t.TempDir())

	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, errorx.IllegalArgument))
}
