// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hashgraph/solo-storekeeper/internal/engine"
	"github.com/hashgraph/solo-storekeeper/pkg/fsx"
	"github.com/hashgraph/solo-storekeeper/pkg/sanity"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
)

// sideFileSuffixes are the files SQLite style engines keep next to a store
var sideFileSuffixes = []string{"-wal", "-shm", "-journal"}

// Executor runs single migration steps and swaps migrated stores into place
type Executor struct {
	engine engine.CopyMigrator
	fs     fsx.Manager
	logger *zerolog.Logger
}

// NewExecutor returns an executor that migrates with the given engine
func NewExecutor(e engine.CopyMigrator, opts ...Option) (*Executor, error) {
	if e == nil {
		return nil, errorx.IllegalArgument.New("copy migrator is required")
	}

	o := newOptions(opts...)
	if o.fs == nil {
		fm, err := fsx.NewManager()
		if err != nil {
			return nil, err
		}
		o.fs = fm
	}

	return &Executor{engine: e, fs: o.fs, logger: o.logger}, nil
}

// Execute migrates the store at source into a new store at destination according to step.
//
// The write-ahead log of source is flushed first so that the copy sees every committed change. Progress is
// forwarded to sink clamped to [0,1] and never decreasing. On failure the partial destination is removed.
// A cancelled ctx is only honoured before the step starts.
func (x *Executor) Execute(ctx context.Context, step Step, source, destination string, sink ProgressFunc) error {
	if step.Source == nil || step.Destination == nil || step.Mapping == nil {
		return errorx.IllegalArgument.New("step is incomplete")
	}

	fail := func(err error, msg string) error {
		return MigrationStepFailed.Wrap(err, "%s migration from %s to %s failed: %s",
			step.Type, step.Source.Version, step.Destination.Version, msg).
			WithProperty(PropertySourceVersion, step.Source.Version).
			WithProperty(PropertyDestinationVersion, step.Destination.Version).
			WithProperty(PropertyLocation, source)
	}

	if err := ctx.Err(); err != nil {
		return fail(err, "cancelled")
	}

	// a started unit runs to completion
	ctx = context.WithoutCancel(ctx)

	if err := x.engine.Flush(ctx, source, step.Source); err != nil {
		return fail(err, "flush")
	}

	last, emitted := 0.0, false
	forward := func(f float64) {
		f = clamp(f)
		if emitted && f <= last {
			return
		}
		last, emitted = f, true
		if sink != nil {
			sink(f)
		}
	}

	x.logger.Info().
		Str("step", step.ID()).
		Str("type", step.Type.String()).
		Str("source", source).
		Str("destination", destination).
		Msg("Executing migration step")

	err := x.engine.MigrateCopy(ctx, engine.CopyRequest{
		SourcePath:      source,
		DestinationPath: destination,
		Source:          step.Source,
		Destination:     step.Destination,
		Mapping:         step.Mapping,
		Configuration:   step.Configuration,
	}, forward)
	if err != nil {
		x.logger.Error().Err(err).Str("step", step.ID()).Msg("Migration step failed")
		x.Discard(destination)
		return fail(err, "copy")
	}

	forward(1)
	x.logger.Info().Str("step", step.ID()).Msg("Migration step completed")
	return nil
}

// Commit atomically replaces store with staged and removes the side files left by the replaced store.
// On failure store is left untouched and staged is discarded.
func (x *Executor) Commit(ctx context.Context, staged, store string) error {
	if err := ctx.Err(); err != nil {
		x.Discard(staged)
		return ReplaceFailed.Wrap(err, "commit cancelled").WithProperty(PropertyLocation, store)
	}

	if err := x.fs.Rename(staged, store); err != nil {
		x.logger.Error().Err(err).Str("location", store).Msg("Failed to replace store")
		x.Discard(staged)
		return ReplaceFailed.Wrap(err, "failed to replace %s with the migrated store", store).
			WithProperty(PropertyLocation, store)
	}

	fsx.Discard(x.fs, x.logger, sideFiles(store)...)

	x.logger.Info().Str("location", store).Msg("Replaced store with migrated copy")
	return nil
}

// Discard removes path and its side files. Failures are logged.
func (x *Executor) Discard(path string) {
	if path == "" {
		return
	}
	fsx.Discard(x.fs, x.logger, append([]string{path}, sideFiles(path)...)...)
}

func sideFiles(path string) []string {
	out := make([]string, 0, len(sideFileSuffixes))
	for _, suffix := range sideFileSuffixes {
		out = append(out, path+suffix)
	}
	return out
}

// Workspace is a private scratch directory holding the intermediate copies of a migration
type Workspace struct {
	Dir    string
	fs     fsx.Manager
	logger *zerolog.Logger
}

// NewWorkspace creates a scratch directory for migrating store. The directory is created in workDir, or
// next to store when workDir is empty, so that the final rename stays on one file system.
func (x *Executor) NewWorkspace(store string, workDir string) (*Workspace, error) {
	if workDir == "" {
		workDir = filepath.Dir(store)
	}

	if err := x.fs.CreateDirectory(workDir, true); err != nil {
		return nil, err
	}

	name, err := sanity.Filename(filepath.Base(store))
	if err != nil {
		name = "store"
	}
	dir, err := x.fs.MkdirTemp(workDir, fmt.Sprintf(".%s.migration-%s-", name, uuid.NewString()[:8]))
	if err != nil {
		return nil, err
	}

	x.logger.Debug().Str("dir", dir).Str("location", store).Msg("Created migration workspace")
	return &Workspace{Dir: dir, fs: x.fs, logger: x.logger}, nil
}

// StepPath returns the path of the copy produced by step i
func (w *Workspace) StepPath(i int, step Step) string {
	return filepath.Join(w.Dir, fmt.Sprintf("%02d-%s.store", i, step.Destination.Version))
}

// Close removes the workspace and everything left in it. Failures are logged.
func (w *Workspace) Close() {
	if w == nil || w.Dir == "" {
		return
	}
	fsx.DiscardAll(w.fs, w.logger, w.Dir)
}
