// SPDX-License-Identifier: Apache-2.0

// Package stack serializes schema upgrades of store files and reports their outcome asynchronously.
//
// A Stack owns one serial queue per store location. UpgradeIfNeeded reads the metadata of the store, plans
// the migration to the target schema and runs it as an upgrade workflow on the queue of that store while
// holding a cross-process lock file. The result is delivered through the returned Operation and through
// an optional completion, which always runs on the stack's dispatcher and never on the calling goroutine.
package stack

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/hashgraph/solo-storekeeper/internal/chain"
	"github.com/hashgraph/solo-storekeeper/internal/engine"
	"github.com/hashgraph/solo-storekeeper/internal/migration"
	"github.com/hashgraph/solo-storekeeper/internal/workflows"
	"github.com/hashgraph/solo-storekeeper/internal/workflows/steps"
	"github.com/hashgraph/solo-storekeeper/pkg/fsx"
	"github.com/hashgraph/solo-storekeeper/pkg/schema"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// privateDirMode is used for the lock and work directories the stack creates. They hold copies of store data.
const privateDirMode = 0o700

// Completion receives the result of an upgrade
type Completion func(result migration.Result)

// Operation is the handle of a running upgrade
type Operation struct {
	location string
	progress *migration.Progress
	done     chan struct{}

	mu     sync.Mutex
	result migration.Result
	report *automa.Report
}

func newOperation(location string) *Operation {
	return &Operation{
		location: location,
		progress: migration.NewProgress(0),
		done:     make(chan struct{}),
	}
}

// Location returns the cleaned absolute path of the store
func (o *Operation) Location() string {
	return o.location
}

// Progress returns the progress of the operation. Its total is the number of planned steps.
func (o *Operation) Progress() *migration.Progress {
	return o.progress
}

// Done is closed once the result is known
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the operation has finished and returns its result
func (o *Operation) Wait() migration.Result {
	<-o.done
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Report returns the workflow report of a finished operation that executed migration steps
func (o *Operation) Report() *automa.Report {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.report
}

// Stack migrates the stores of one schema model
type Stack struct {
	model    *schema.Model
	engine   engine.Engine
	planner  *migration.Planner
	executor *migration.Executor

	logger        *zerolog.Logger
	configuration string
	dispatcher    Dispatcher
	callbacks     *serialQueue
	lockDir       string
	lockTimeout   time.Duration
	workDir       string
	fs            fsx.Manager
	providers     []engine.MappingProvider

	mu         sync.Mutex
	queues     map[string]*serialQueue
	closed     bool
	reads      singleflight.Group
	completing atomic.Int32
}

// New returns a stack migrating stores of model along graph with eng
func New(model *schema.Model, graph *chain.Graph, eng engine.Engine, opts ...Option) (*Stack, error) {
	if model == nil {
		return nil, errorx.IllegalArgument.New("schema model is required")
	}
	if eng == nil {
		return nil, errorx.IllegalArgument.New("engine is required")
	}

	s := &Stack{
		model:       model,
		engine:      eng,
		logger:      logx.As(),
		lockTimeout: DefaultLockTimeout,
		queues:      map[string]*serialQueue{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.fs == nil {
		fm, err := fsx.NewManager(fsx.WithDirectoryMode(privateDirMode))
		if err != nil {
			return nil, err
		}
		s.fs = fm
	}
	if s.dispatcher == nil {
		s.callbacks = newSerialQueue()
		s.dispatcher = s.callbacks
	}

	planner, err := migration.NewPlanner(model, graph, eng, migration.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	executor, err := migration.NewExecutor(eng, migration.WithLogger(s.logger), migration.WithFileSystem(s.fs))
	if err != nil {
		return nil, err
	}
	s.planner = planner
	s.executor = executor

	return s, nil
}

// Model returns the schema model of the stack
func (s *Stack) Model() *schema.Model {
	return s.model
}

// UpgradeIfNeeded migrates the store at location to target, or to the model's current schema when target is
// nil. Explicit mappings are taken from providers first and then from the stack's own providers.
//
// The upgrade runs on the queue of the store, after any upgrade of the same store requested earlier.
// completion, when not nil, is called exactly once through the dispatcher.
func (s *Stack) UpgradeIfNeeded(ctx context.Context, location string, target *schema.Schema,
	providers []engine.MappingProvider, completion Completion) *Operation {
	path, err := cleanLocation(location)
	op := newOperation(path)
	if err != nil {
		s.finish(op, migration.Failure(err), nil, completion)
		return op
	}
	if target == nil {
		target = s.model.Current()
	}

	q, err := s.queue(path)
	if err != nil {
		s.finish(op, migration.Failure(err), nil, completion)
		return op
	}

	job := func() {
		result, report := s.upgrade(ctx, op, target, providers)
		s.finish(op, result, report, completion)
	}
	if !q.Submit(job) {
		s.finish(op, migration.Failure(Closed.New("stack is closed")), nil, completion)
	}

	return op
}

func (s *Stack) upgrade(ctx context.Context, op *Operation, target *schema.Schema,
	providers []engine.MappingProvider) (migration.Result, *automa.Report) {
	location := op.location
	logger := s.logger.With().Str("location", location).Logger()

	// fail before locking when the store cannot be inspected at all
	if _, err := s.readMetadata(ctx, location, true); err != nil {
		return migration.Failure(err), nil
	}

	release, err := s.lock(ctx, location)
	if err != nil {
		return migration.Failure(err), nil
	}
	defer release()

	md, err := s.readMetadata(ctx, location, true)
	if err != nil {
		return migration.Failure(err), nil
	}

	plan, err := s.planner.Plan(ctx, md, s.configuration, target, s.mergeProviders(providers))
	if err != nil {
		logger.Error().Err(err).Str("target", target.Version).Msg("Failed to plan store upgrade")
		return migration.Failure(err), nil
	}

	if plan.IsEmpty() {
		logger.Debug().Str("target", target.Version).Msg("Store is up to date")
		op.progress.Complete()
		return migration.Success(nil), nil
	}

	op.progress.SetTotal(len(plan.Steps))
	logger.Info().Str("plan", plan.Summary()).Msg("Upgrading store")

	ws, err := s.executor.NewWorkspace(location, s.workDir)
	if err != nil {
		return migration.Failure(migration.MigrationStepFailed.Wrap(err, "failed to create migration workspace").
			WithProperty(migration.PropertyLocation, location)), nil
	}
	defer ws.Close()

	result, report := workflows.RunUpgrade(ctx, &workflows.Upgrade{
		Executor:  s.executor,
		Plan:      plan,
		Location:  location,
		Workspace: ws,
		Progress:  op.progress,
		Outcome:   steps.NewOutcome(),
	})
	if result.Succeeded() {
		logger.Info().Str("type", plan.Type().String()).Msg("Store upgraded")
	} else {
		logger.Error().Err(result.Err).Msg("Store upgrade failed, store left unchanged")
	}

	return result, report
}

// finish records the result of op and hands completion to the dispatcher
func (s *Stack) finish(op *Operation, result migration.Result, report *automa.Report, completion Completion) {
	op.mu.Lock()
	op.result = result
	op.report = report
	op.mu.Unlock()

	if completion != nil {
		s.dispatcher.Dispatch(func() {
			s.completing.Add(1)
			defer s.completing.Add(-1)
			completion(result)
		})
	}
	close(op.done)
}

// Forecast returns the types of the steps an upgrade of the store at location to target would run
func (s *Stack) Forecast(ctx context.Context, location string, target *schema.Schema,
	providers []engine.MappingProvider) ([]migration.Type, error) {
	plan, err := s.plan(ctx, location, target, providers)
	if err != nil {
		return nil, err
	}
	return plan.Types(), nil
}

// CheckNeeded classifies the upgrade of the store at location to target. An error means the store could not
// be inspected or no migration path exists.
func (s *Stack) CheckNeeded(ctx context.Context, location string, target *schema.Schema) (migration.Type, error) {
	plan, err := s.plan(ctx, location, target, nil)
	if err != nil {
		return migration.NoMigration, err
	}
	return plan.Type(), nil
}

// Plan returns the migration plan of the store at location without executing it
func (s *Stack) Plan(ctx context.Context, location string, target *schema.Schema,
	providers []engine.MappingProvider) (*migration.Plan, error) {
	return s.plan(ctx, location, target, providers)
}

func (s *Stack) plan(ctx context.Context, location string, target *schema.Schema,
	providers []engine.MappingProvider) (*migration.Plan, error) {
	path, err := cleanLocation(location)
	if err != nil {
		return nil, err
	}
	if target == nil {
		target = s.model.Current()
	}

	md, err := s.readMetadata(ctx, path, false)
	if err != nil {
		return nil, err
	}

	return s.planner.Plan(ctx, md, s.configuration, target, s.mergeProviders(providers))
}

// Inspect returns the metadata recorded in the store at location and the model version it matches, if any
func (s *Stack) Inspect(ctx context.Context, location string) (schema.Metadata, *schema.Schema, error) {
	path, err := cleanLocation(location)
	if err != nil {
		return schema.Metadata{}, nil, err
	}

	md, err := s.readMetadata(ctx, path, false)
	if err != nil {
		return schema.Metadata{}, nil, err
	}

	detected, ok := s.model.Detect(md, s.configuration)
	if !ok {
		return md, nil, nil
	}
	return md, detected, nil
}

// readMetadata reads the metadata of the store at location. Concurrent reads of one location share a single
// read unless fresh is set.
func (s *Stack) readMetadata(ctx context.Context, location string, fresh bool) (schema.Metadata, error) {
	if fresh {
		s.reads.Forget(location)
	}

	// the read is shared, so one caller's cancellation must not fail the others
	readCtx := context.WithoutCancel(ctx)
	v, err, _ := s.reads.Do(location, func() (interface{}, error) {
		return s.engine.ReadMetadata(readCtx, location)
	})
	if err != nil {
		return schema.Metadata{}, migration.MetadataUnreadable.Wrap(err, "failed to read metadata of store %q", location).
			WithProperty(migration.PropertyLocation, location)
	}
	return v.(schema.Metadata), nil
}

func (s *Stack) mergeProviders(providers []engine.MappingProvider) []engine.MappingProvider {
	out := make([]engine.MappingProvider, 0, len(providers)+len(s.providers))
	for _, p := range providers {
		if p != nil {
			out = append(out, p)
		}
	}
	return append(out, s.providers...)
}

// queue returns the serial queue of location
func (s *Stack) queue(location string) (*serialQueue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, Closed.New("stack is closed")
	}

	q, ok := s.queues[location]
	if !ok {
		q = newSerialQueue()
		s.queues[location] = q
	}
	return q, nil
}

// Close waits for queued upgrades and their completions. Operations requested afterwards fail.
// Called from a completion, Close waits for the upgrades only.
func (s *Stack) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	queues := make([]*serialQueue, 0, len(s.queues))
	for _, q := range s.queues {
		queues = append(queues, q)
	}
	s.mu.Unlock()

	for _, q := range queues {
		q.Close()
	}
	switch {
	case s.callbacks == nil:
	case s.completing.Load() > 0:
		// waiting would include the running completion
		s.callbacks.Stop()
	default:
		s.callbacks.Close()
	}
	return nil
}

func cleanLocation(location string) (string, error) {
	if location == "" {
		return "", errorx.IllegalArgument.New("store location is required")
	}
	path, err := filepath.Abs(location)
	if err != nil {
		return "", errorx.IllegalArgument.Wrap(err, "invalid store location %q", location)
	}
	return filepath.Clean(path), nil
}
