// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/hashgraph/solo-storekeeper/internal/chain"
	"github.com/hashgraph/solo-storekeeper/internal/engine"
	"github.com/hashgraph/solo-storekeeper/internal/engine/sqlitestore"
	"github.com/hashgraph/solo-storekeeper/internal/migration"
	"github.com/hashgraph/solo-storekeeper/internal/testutil"
	"github.com/hashgraph/solo-storekeeper/pkg/schema"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const waitTimeout = 10 * time.Second

// ageAsText is the explicit mapping for the V2 -> V3 type change of Person.age
func ageAsText() *engine.Mapping {
	return &engine.Mapping{
		Source:      "V2",
		Destination: "V3",
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

func brokenAgeAsText() *engine.Mapping {
	m := ageAsText()
	m.Entities[0].Transform = func(map[string]any) (map[string]any, error) {
		return nil, errorx.IllegalState.New("cannot convert age")
	}
	return m
}

type StackTestSuite struct {
	suite.Suite
	ctx      context.Context
	eng      *sqlitestore.Engine
	dir      string
	location string
	stack    *Stack
}

func (st *StackTestSuite) SetupTest() {
	req := require.New(st.T())

	st.ctx = context.Background()
	st.eng = sqlitestore.New(sqlitestore.WithLogger(testutil.Nop()))
	st.dir = st.T().TempDir()
	st.location = testutil.SeedPeopleStore(st.T(), st.eng, st.dir)
	st.stack = st.newStack()
	req.NotNil(st.stack)
}

func (st *StackTestSuite) TearDownTest() {
	if st.stack != nil {
		st.Require().NoError(st.stack.Close())
	}
}

func (st *StackTestSuite) newStack(opts ...Option) *Stack {
	s, err := New(testutil.PeopleModel(st.T(), "V3"), chain.MustFromList("V1", "V2", "V3"), st.eng,
		append([]Option{WithLogger(testutil.Nop())}, opts...)...)
	st.Require().NoError(err)
	return s
}

func (st *StackTestSuite) version() string {
	md, err := st.eng.ReadMetadata(st.ctx, st.location)
	st.Require().NoError(err)
	return md.Version
}

// upgrade runs an upgrade to the current version and returns the result received by the completion
func (st *StackTestSuite) upgrade(providers ...engine.MappingProvider) (migration.Result, *Operation) {
	results := make(chan migration.Result, 1)
	op := st.stack.UpgradeIfNeeded(st.ctx, st.location, nil, providers, func(r migration.Result) {
		results <- r
	})

	select {
	case r := <-results:
		return r, op
	case <-time.After(waitTimeout):
		st.FailNow("completion was not delivered")
	}
	return migration.Result{}, op
}

func (st *StackTestSuite) TestNoMigrationFastPath() {
	req := st.Require()

	// Given a store already at the current version
	location := filepath.Join(st.dir, "current.store")
	req.NoError(st.eng.Create(st.ctx, location, testutil.PeopleV3(), ""))
	before, err := os.Stat(location)
	req.NoError(err)

	// When
	results := make(chan migration.Result, 1)
	op := st.stack.UpgradeIfNeeded(st.ctx, location, nil, nil, func(r migration.Result) { results <- r })

	// Then
	r := <-results
	req.True(r.Succeeded())
	req.NotNil(r.Types)
	req.Empty(r.Types)
	req.Equal(r, op.Wait())
	req.Nil(op.Report())
	req.Equal(1.0, op.Progress().Snapshot().Fraction())

	after, err := os.Stat(location)
	req.NoError(err)
	req.Equal(before.Size(), after.Size())
	md, err := st.eng.ReadMetadata(st.ctx, location)
	req.NoError(err)
	req.Equal("V3", md.Version)
}

func (st *StackTestSuite) TestNewOperationReportsNoProgress() {
	req := st.Require()

	op := newOperation(st.location)

	snapshot := op.Progress().Snapshot()
	req.Equal(0, snapshot.Total)
	req.False(snapshot.Finished)
	req.Equal(0.0, snapshot.Fraction())
}

func (st *StackTestSuite) TestMultiHopUpgrade() {
	req := st.Require()

	r, op := st.upgrade(engine.NewStaticProvider(ageAsText()))

	req.NoError(r.Err)
	req.Equal([]migration.Type{migration.Lightweight, migration.Heavyweight}, r.Types)
	req.Equal("V3", st.version())

	snapshot := op.Progress().Snapshot()
	req.Equal(2, snapshot.Total)
	req.Equal(1.0, snapshot.Fraction())
	req.NotNil(op.Report())

	rows, err := st.eng.Rows(st.ctx, st.location, "Person")
	req.NoError(err)
	req.Len(rows, 3)

	// no workspace is left behind
	entries, err := os.ReadDir(st.dir)
	req.NoError(err)
	for _, e := range entries {
		req.False(e.IsDir(), "unexpected directory %s", e.Name())
	}
}

func (st *StackTestSuite) TestMidChainFailureLeavesStoreUnchanged() {
	req := st.Require()

	r, op := st.upgrade(engine.NewStaticProvider(brokenAgeAsText()))

	req.False(r.Succeeded())
	req.True(errorx.IsOfType(r.Err, migration.MigrationStepFailed))
	req.Equal("V1", st.version())
	req.Less(op.Progress().Snapshot().Fraction(), 1.0)

	rows, err := st.eng.Rows(st.ctx, st.location, "Person")
	req.NoError(err)
	req.Len(rows, 3)
}

func (st *StackTestSuite) TestIdempotentRerunAfterFailure() {
	req := st.Require()
	providers := []engine.MappingProvider{engine.NewStaticProvider(ageAsText())}

	before, err := st.stack.Forecast(st.ctx, st.location, nil, providers)
	req.NoError(err)

	r, _ := st.upgrade(engine.NewStaticProvider(brokenAgeAsText()))
	req.False(r.Succeeded())

	after, err := st.stack.Forecast(st.ctx, st.location, nil, providers)
	req.NoError(err)
	req.Equal(before, after)

	r, _ = st.upgrade(providers...)
	req.NoError(r.Err)
	req.Equal(before, r.Types)
	req.Equal("V3", st.version())

	// a second run finds nothing to do
	r, _ = st.upgrade(providers...)
	req.NoError(r.Err)
	req.Empty(r.Types)
}

func (st *StackTestSuite) TestMetadataUnreadable() {
	req := st.Require()

	garbage := filepath.Join(st.dir, "garbage.store")
	req.NoError(os.WriteFile(garbage, []byte("not a store"), 0o644))

	for _, location := range []string{filepath.Join(st.dir, "missing.store"), garbage} {
		results := make(chan migration.Result, 1)
		op := st.stack.UpgradeIfNeeded(st.ctx, location, nil, nil, func(r migration.Result) { results <- r })

		r := <-results
		req.False(r.Succeeded())
		req.True(errorx.IsOfType(r.Err, migration.MetadataUnreadable), "location %s: %v", location, r.Err)
		req.Equal(r.Err, op.Wait().Err)

		_, err := st.stack.CheckNeeded(st.ctx, location, nil)
		req.True(errorx.IsOfType(err, migration.MetadataUnreadable))
	}

	_, err := os.Stat(filepath.Join(st.dir, "missing.store"))
	req.True(os.IsNotExist(err))
}

func (st *StackTestSuite) TestUnresolvableHopDoesNotTouchStore() {
	req := st.Require()

	r, op := st.upgrade()

	req.False(r.Succeeded())
	req.True(errorx.IsOfType(r.Err, migration.MappingUnresolved))
	req.Nil(op.Report())
	req.Equal("V1", st.version())
}

func (st *StackTestSuite) TestForecastAndCheckNeeded() {
	req := st.Require()

	types, err := st.stack.Forecast(st.ctx, st.location, nil, []engine.MappingProvider{engine.NewStaticProvider(ageAsText())})
	req.NoError(err)
	req.Equal([]migration.Type{migration.Lightweight, migration.Heavyweight}, types)

	// without a provider the V2 -> V3 hop cannot be resolved
	_, err = st.stack.CheckNeeded(st.ctx, st.location, nil)
	req.True(errorx.IsOfType(err, migration.MappingUnresolved))

	// V2 is reachable by inference alone
	v2, ok := st.stack.Model().Schema("V2")
	req.True(ok)
	kind, err := st.stack.CheckNeeded(st.ctx, st.location, v2)
	req.NoError(err)
	req.Equal(migration.Lightweight, kind)

	req.Equal("V1", st.version())
}

func (st *StackTestSuite) TestStackProvidersAreUsed() {
	req := st.Require()
	s := st.newStack(WithMappingProviders(engine.NewStaticProvider(ageAsText())))
	defer func() { req.NoError(s.Close()) }()

	kind, err := s.CheckNeeded(st.ctx, st.location, nil)
	req.NoError(err)
	req.Equal(migration.Heavyweight, kind)

	md, detected, err := s.Inspect(st.ctx, st.location)
	req.NoError(err)
	req.Equal("V1", md.Version)
	req.NotNil(detected)
	req.Equal("V1", detected.Version)
}

func (st *StackTestSuite) TestCompletionIsDeliveredThroughDispatcher() {
	req := st.Require()

	var mu sync.Mutex
	var queued []func()
	s := st.newStack(WithDispatcher(DispatcherFunc(func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		queued = append(queued, fn)
	})))
	defer func() { req.NoError(s.Close()) }()

	location := filepath.Join(st.dir, "current.store")
	req.NoError(st.eng.Create(st.ctx, location, testutil.PeopleV3(), ""))

	calls := 0
	op := s.UpgradeIfNeeded(st.ctx, location, nil, nil, func(migration.Result) { calls++ })

	select {
	case <-op.Done():
	case <-time.After(waitTimeout):
		st.FailNow("operation did not finish")
	}
	req.True(op.Wait().Succeeded())
	req.Equal(0, calls, "completion must not run outside the dispatcher")

	mu.Lock()
	req.Len(queued, 1)
	queued[0]()
	mu.Unlock()
	req.Equal(1, calls)
}

func (st *StackTestSuite) TestUpgradesOfOneStoreAreSerialized() {
	req := st.Require()
	providers := []engine.MappingProvider{engine.NewStaticProvider(ageAsText())}

	first := st.stack.UpgradeIfNeeded(st.ctx, st.location, nil, providers, nil)
	second := st.stack.UpgradeIfNeeded(st.ctx, filepath.Join(st.dir, ".", "people.store"), nil, providers, nil)
	req.Equal(first.Location(), second.Location())

	r1 := first.Wait()
	r2 := second.Wait()
	req.NoError(r1.Err)
	req.NoError(r2.Err)
	req.Len(r1.Types, 2)
	req.Empty(r2.Types)
	req.Equal("V3", st.version())
}

func (st *StackTestSuite) TestLockHeldByAnotherProcess() {
	req := st.Require()
	lockDir := filepath.Join(st.dir, "locks")
	s := st.newStack(WithLockDir(lockDir), WithLockTimeout(300*time.Millisecond))
	defer func() { req.NoError(s.Close()) }()

	req.NoError(os.MkdirAll(lockDir, 0o755))
	held := flock.New(s.lockPath(st.location))
	locked, err := held.TryLock()
	req.NoError(err)
	req.True(locked)
	defer func() { _ = held.Unlock() }()

	r := s.UpgradeIfNeeded(st.ctx, st.location, nil, []engine.MappingProvider{engine.NewStaticProvider(ageAsText())}, nil).Wait()
	req.False(r.Succeeded())
	req.True(errorx.IsOfType(r.Err, LockFailed))
	req.Equal("V1", st.version())
}

func (st *StackTestSuite) TestClosedStackRejectsUpgrades() {
	req := st.Require()
	s := st.newStack()
	req.NoError(s.Close())
	req.NoError(s.Close())

	results := make(chan migration.Result, 1)
	op := s.UpgradeIfNeeded(st.ctx, st.location, nil, nil, func(r migration.Result) { results <- r })

	r := <-results
	req.True(errorx.IsOfType(r.Err, Closed))
	req.Equal(r.Err, op.Wait().Err)
	req.Equal("V1", st.version())
}

func (st *StackTestSuite) TestCreatedDirectoriesArePrivate() {
	req := st.Require()
	lockDir := filepath.Join(st.dir, "run", "locks")
	workDir := filepath.Join(st.dir, "scratch", "migrations")
	s := st.newStack(WithLockDir(lockDir), WithWorkDir(workDir))
	defer func() { req.NoError(s.Close()) }()

	r := s.UpgradeIfNeeded(st.ctx, st.location, nil, []engine.MappingProvider{engine.NewStaticProvider(ageAsText())}, nil).Wait()
	req.NoError(r.Err)

	for _, dir := range []string{lockDir, workDir} {
		fi, err := os.Stat(dir)
		req.NoError(err)
		req.Equal(os.FileMode(0o700), fi.Mode().Perm(), dir)
	}
}

func (st *StackTestSuite) TestCloseFromCompletion() {
	req := st.Require()
	s := st.newStack()

	location := filepath.Join(st.dir, "current.store")
	req.NoError(st.eng.Create(st.ctx, location, testutil.PeopleV3(), ""))

	closed := make(chan error, 1)
	s.UpgradeIfNeeded(st.ctx, location, nil, nil, func(migration.Result) { closed <- s.Close() })

	select {
	case err := <-closed:
		req.NoError(err)
	case <-time.After(waitTimeout):
		st.FailNow("Close called from a completion did not return")
	}

	r := s.UpgradeIfNeeded(st.ctx, location, nil, nil, nil).Wait()
	req.True(errorx.IsOfType(r.Err, Closed))
}

func (st *StackTestSuite) TestSharedMetadataReadIgnoresCallerCancellation() {
	req := st.Require()
	s, err := New(testutil.PeopleModel(st.T(), "V3"), chain.MustFromList("V1", "V2", "V3"),
		&cancelAwareEngine{Engine: st.eng}, WithLogger(testutil.Nop()))
	req.NoError(err)
	defer func() { req.NoError(s.Close()) }()

	ctx, cancel := context.WithCancel(st.ctx)
	cancel()

	md, err := s.readMetadata(ctx, st.location, false)
	req.NoError(err)
	req.Equal("V1", md.Version)
}

// cancelAwareEngine fails metadata reads once their context is done
type cancelAwareEngine struct {
	*sqlitestore.Engine
}

func (e *cancelAwareEngine) ReadMetadata(ctx context.Context, location string) (schema.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return schema.Metadata{}, err
	}
	return e.Engine.ReadMetadata(ctx, location)
}

func TestStackTestSuite(t *testing.T) {
	suite.Run(t, new(StackTestSuite))
}

func TestNew_Validation(t *testing.T) {
	eng := sqlitestore.New(sqlitestore.WithLogger(testutil.Nop()))
	model := testutil.PeopleModel(t, "V3")

	_, err := New(nil, nil, eng)
	require.Error(t, err)
	_, err = New(model, nil, nil)
	require.Error(t, err)

	s, err := New(model, nil, eng, WithLogger(testutil.Nop()))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
