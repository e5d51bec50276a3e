// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"

	"github.com/automa-saga/automa"
	"github.com/hashgraph/solo-storekeeper/internal/migration"
	"github.com/hashgraph/solo-storekeeper/internal/workflows/notify"
)

const CommitStepID = "commit-store"

// CommitStep returns the unit that replaces store with the staged result of the last migration step.
// A committed store cannot be restored, so rollback only reports what happened.
func CommitStep(x *migration.Executor, staged, store string, outcome *Outcome) automa.Builder {
	return automa.NewStepBuilder().WithId(CommitStepID).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Replacing store with migrated copy")
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to replace store")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Store replaced with migrated copy")
		}).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			meta := map[string]string{
				MetaLocation: store,
				MetaStaged:   staged,
			}

			if err := x.Commit(ctx, staged, store); err != nil {
				outcome.Fail(err)
				return automa.FailureReport(stp, automa.WithError(err), automa.WithMetadata(meta))
			}
			stp.State().Local().Set(CommittedByThisStep, true)

			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithRollback(func(ctx context.Context, stp automa.Step) *automa.Report {
			if done, _ := stp.State().Local().Bool(CommittedByThisStep); !done {
				return automa.SkippedReport(stp, automa.WithDetail("store was not replaced by this step, skipping rollback"))
			}
			return automa.SkippedReport(stp, automa.WithDetail("a committed store is kept"))
		})
}
