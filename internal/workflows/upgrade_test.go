// SPDX-License-Identifier: Apache-2.0

package workflows

import (
	"context"
	"testing"

	"github.com/automa-saga/automa"
	"github.com/hashgraph/solo-storekeeper/internal/engine"
	"github.com/hashgraph/solo-storekeeper/internal/engine/sqlitestore"
	"github.com/hashgraph/solo-storekeeper/internal/migration"
	"github.com/hashgraph/solo-storekeeper/internal/testutil"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ageAsText() *engine.Mapping {
	return &engine.Mapping{
		Source:      "V2",
		Destination: "V3",
		Explicit:    true,
		Entities: []engine.EntityMapping{{
			Source:      "Person",
			Destination: "Person",
			Fields: []engine.FieldMapping{
				{Source: "name", Destination: "name"},
				{Source: "age", Destination: "age"},
				{Source: "email", Destination: "email"},
			},
		}},
	}
}

type fixture struct {
	eng      *sqlitestore.Engine
	x        *migration.Executor
	location string
	ws       *migration.Workspace
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	eng := sqlitestore.New(sqlitestore.WithLogger(testutil.Nop()))
	location := testutil.SeedPeopleStore(t, eng, t.TempDir())

	x, err := migration.NewExecutor(eng, migration.WithLogger(testutil.Nop()))
	require.NoError(t, err)

	ws, err := x.NewWorkspace(location, "")
	require.NoError(t, err)
	t.Cleanup(ws.Close)

	return &fixture{eng: eng, x: x, location: location, ws: ws}
}

// plan returns V1 -> V2 (inferred) -> V3 (explicit), with mutate applied to the explicit mapping
func (f *fixture) plan(t *testing.T, mutate func(m *engine.Mapping)) *migration.Plan {
	t.Helper()
	inferred, err := f.eng.InferMapping(context.Background(), testutil.PeopleV1(), testutil.PeopleV2())
	require.NoError(t, err)

	explicit := ageAsText()
	if mutate != nil {
		mutate(explicit)
	}

	return &migration.Plan{Steps: []migration.Step{
		{Source: testutil.PeopleV1(), Destination: testutil.PeopleV2(), Mapping: inferred, Type: migration.Lightweight},
		{Source: testutil.PeopleV2(), Destination: testutil.PeopleV3(), Mapping: explicit, Type: migration.Heavyweight},
	}}
}

func TestRunUpgrade_MultiHop(t *testing.T) {
	// Given
	f := newFixture(t)
	progress := migration.NewProgress(2)
	var snapshots []migration.ProgressSnapshot
	progress.Observe(func(s migration.ProgressSnapshot) { snapshots = append(snapshots, s) })

	u := &Upgrade{
		Executor:  f.x,
		Plan:      f.plan(t, nil),
		Location:  f.location,
		Workspace: f.ws,
		Progress:  progress,
	}

	// When
	result, report := RunUpgrade(context.Background(), u)

	// Then
	require.NoError(t, result.Err)
	assert.Equal(t, []migration.Type{migration.Lightweight, migration.Heavyweight}, result.Types)
	require.NotNil(t, report)
	assert.Equal(t, automa.StatusSuccess, report.Status)
	require.Len(t, report.StepReports, 3)
	assert.Equal(t, "migrate-V1-to-V2", report.StepReports[0].Id)
	assert.Equal(t, "migrate-V2-to-V3", report.StepReports[1].Id)
	assert.Equal(t, "commit-store", report.StepReports[2].Id)

	md, err := f.eng.ReadMetadata(context.Background(), f.location)
	require.NoError(t, err)
	assert.Equal(t, "V3", md.Version)

	rows, err := f.eng.Rows(context.Background(), f.location, "Person")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "unknown@example.com", rows[0]["email"])

	assert.Equal(t, 1.0, progress.Snapshot().Fraction())
	require.NotEmpty(t, snapshots)
	for i := 1; i < len(snapshots); i++ {
		assert.GreaterOrEqual(t, snapshots[i].Completed, snapshots[i-1].Completed)
	}
}

func TestRunUpgrade_MidChainFailureKeepsStore(t *testing.T) {
	// Given a second step whose transform fails
	f := newFixture(t)
	u := &Upgrade{
		Executor: f.x,
		Plan: f.plan(t, func(m *engine.Mapping) {
			m.Entities[0].Transform = func(map[string]any) (map[string]any, error) {
				return nil, errorx.IllegalState.New("cannot convert age")
			}
		}),
		Location:  f.location,
		Workspace: f.ws,
	}

	// When
	result, report := RunUpgrade(context.Background(), u)

	// Then
	require.False(t, result.Succeeded())
	assert.True(t, errorx.IsOfType(result.Err, migration.MigrationStepFailed))
	v, ok := errorx.ExtractProperty(result.Err, migration.PropertyDestinationVersion)
	require.True(t, ok)
	assert.Equal(t, "V3", v)
	require.NotNil(t, report)
	assert.Equal(t, automa.StatusFailed, report.Status)

	md, err := f.eng.ReadMetadata(context.Background(), f.location)
	require.NoError(t, err)
	assert.Equal(t, "V1", md.Version)
	assert.Less(t, u.Progress.Snapshot().Fraction(), 1.0)

	// And a re-run with a working mapping succeeds from the same version
	ws, err := f.x.NewWorkspace(f.location, "")
	require.NoError(t, err)
	defer ws.Close()

	result, _ = RunUpgrade(context.Background(), &Upgrade{
		Executor:  f.x,
		Plan:      f.plan(t, nil),
		Location:  f.location,
		Workspace: ws,
	})
	require.NoError(t, result.Err)

	md, err = f.eng.ReadMetadata(context.Background(), f.location)
	require.NoError(t, err)
	assert.Equal(t, "V3", md.Version)
}

func TestRunUpgrade_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, _ := RunUpgrade(ctx, &Upgrade{
		Executor:  f.x,
		Plan:      f.plan(t, nil),
		Location:  f.location,
		Workspace: f.ws,
	})

	require.False(t, result.Succeeded())
	md, err := f.eng.ReadMetadata(context.Background(), f.location)
	require.NoError(t, err)
	assert.Equal(t, "V1", md.Version)
}

func TestNewUpgradeWorkflow_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name    string
		upgrade *Upgrade
	}{
		{name: "no executor", upgrade: &Upgrade{Plan: f.plan(t, nil), Location: f.location, Workspace: f.ws}},
		{name: "empty plan", upgrade: &Upgrade{Executor: f.x, Plan: &migration.Plan{}, Location: f.location, Workspace: f.ws}},
		{name: "no location", upgrade: &Upgrade{Executor: f.x, Plan: f.plan(t, nil), Workspace: f.ws}},
		{name: "no workspace", upgrade: &Upgrade{Executor: f.x, Plan: f.plan(t, nil), Location: f.location}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUpgradeWorkflow(tt.upgrade)
			require.Error(t, err)
			assert.True(t, errorx.IsOfType(err, errorx.IllegalArgument))

			result, report := RunUpgrade(context.Background(), tt.upgrade)
			assert.False(t, result.Succeeded())
			assert.Nil(t, report)
		})
	}
}
