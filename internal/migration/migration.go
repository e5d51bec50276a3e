// SPDX-License-Identifier: Apache-2.0

// Package migration plans and executes progressive schema migrations of a store file.
//
// A store records the identity hashes of the schema it was saved with. When those hashes do not match the
// schema the application wants to use, the Planner walks the declared version chain from the recorded
// version to the target and resolves a mapping for every hop:
//
//	planner := migration.NewPlanner(model, graph, engine, migration.WithLogger(logger))
//	plan, err := planner.Plan(ctx, md, "", model.Current(), providers)
//
// The Executor then runs each step as a destination copy into a private workspace and finally swaps the
// last copy into place:
//
//	executor, err := migration.NewExecutor(engine)
//	ws, err := executor.NewWorkspace(location, "")
//	defer ws.Close()
//	err = executor.Execute(ctx, plan.Steps[0], location, ws.StepPath(0, plan.Steps[0]), sink)
//	err = executor.Commit(ctx, ws.StepPath(0, plan.Steps[0]), location)
//
// The store file is only ever touched by Commit, so a failure at any earlier point leaves it as it was.
package migration

import (
	"github.com/automa-saga/logx"
	"github.com/hashgraph/solo-storekeeper/pkg/fsx"
	"github.com/rs/zerolog"
)

type options struct {
	logger *zerolog.Logger
	fs     fsx.Manager
}

// Option configures a Planner or an Executor.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFileSystem sets the file system manager used by the Executor.
func WithFileSystem(fm fsx.Manager) Option {
	return func(o *options) {
		if fm != nil {
			o.fs = fm
		}
	}
}

func newOptions(opts ...Option) *options {
	o := &options{logger: logx.As()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
