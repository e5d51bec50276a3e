// SPDX-License-Identifier: Apache-2.0

package workflows

import (
	"context"

	"github.com/automa-saga/automa"
	"github.com/hashgraph/solo-storekeeper/internal/migration"
	"github.com/hashgraph/solo-storekeeper/internal/workflows/steps"
	"github.com/joomcode/errorx"
)

const UpgradeWorkflowID = "upgrade-store"

// Upgrade is one execution of a migration plan against the store at Location
type Upgrade struct {
	Executor  *migration.Executor
	Plan      *migration.Plan
	Location  string
	Workspace *migration.Workspace
	Progress  *migration.Progress
	Outcome   *steps.Outcome
}

func (u *Upgrade) validate() error {
	switch {
	case u.Executor == nil:
		return errorx.IllegalArgument.New("executor is required")
	case u.Plan.IsEmpty():
		return errorx.IllegalArgument.New("plan has no steps")
	case u.Location == "":
		return errorx.IllegalArgument.New("store location is required")
	case u.Workspace == nil:
		return errorx.IllegalArgument.New("workspace is required")
	}
	return nil
}

// NewUpgradeWorkflow chains one migration unit per plan step followed by the commit unit.
//
// The first unit reads the store itself and every later unit reads the copy staged by its predecessor, so the store
// is only touched by the commit unit once every step has succeeded.
func NewUpgradeWorkflow(u *Upgrade) (*automa.WorkflowBuilder, error) {
	if err := u.validate(); err != nil {
		return nil, err
	}
	if u.Progress == nil {
		u.Progress = migration.NewProgress(len(u.Plan.Steps))
	}
	if u.Outcome == nil {
		u.Outcome = steps.NewOutcome()
	}

	units := make([]automa.Builder, 0, len(u.Plan.Steps)+1)
	source := u.Location
	for i, step := range u.Plan.Steps {
		staged := u.Workspace.StepPath(i, step)
		units = append(units, steps.MigrationStep(u.Executor, step, source, staged, u.Progress.Unit(i), u.Outcome))
		source = staged
	}
	units = append(units, steps.CommitStep(u.Executor, source, u.Location, u.Outcome))

	return automa.NewWorkflowBuilder().
		WithId(UpgradeWorkflowID).
		Steps(units...).
		WithExecutionMode(automa.RollbackOnError), nil
}

// RunUpgrade executes the upgrade workflow and returns its result together with the workflow report
func RunUpgrade(ctx context.Context, u *Upgrade) (migration.Result, *automa.Report) {
	wb, err := NewUpgradeWorkflow(u)
	if err != nil {
		return migration.Failure(err), nil
	}

	wf, err := wb.Build()
	if err != nil {
		return migration.Failure(errorx.IllegalState.Wrap(err, "failed to build upgrade workflow")), nil
	}

	report := wf.Execute(ctx)
	if report != nil && report.HasError() && u.Outcome.Err() == nil {
		u.Outcome.Fail(migration.MigrationStepFailed.Wrap(report.Error, "upgrade workflow failed").
			WithProperty(migration.PropertyLocation, u.Location))
	}

	result := u.Outcome.Result()
	if result.Succeeded() {
		u.Progress.Complete()
	}
	return result, report
}
