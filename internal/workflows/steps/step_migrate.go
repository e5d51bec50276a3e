// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"

	"github.com/automa-saga/automa"
	"github.com/hashgraph/solo-storekeeper/internal/migration"
	"github.com/hashgraph/solo-storekeeper/internal/workflows/notify"
)

// MigrationStepID returns the automa step id of a migration step
func MigrationStepID(step migration.Step) string {
	return "migrate-" + step.ID()
}

// MigrationStep returns a unit that migrates the store at source into a new store at destination.
// Rollback removes destination if this unit produced it.
func MigrationStep(x *migration.Executor, step migration.Step, source, destination string,
	sink migration.ProgressFunc, outcome *Outcome) automa.Builder {
	return automa.NewStepBuilder().WithId(MigrationStepID(step)).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Migrating store from %s to %s (%s)",
				step.Source.Version, step.Destination.Version, step.Type)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to migrate store from %s to %s",
				step.Source.Version, step.Destination.Version)
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Migrated store from %s to %s",
				step.Source.Version, step.Destination.Version)
		}).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			meta := map[string]string{
				MetaSource:      step.Source.Version,
				MetaDestination: step.Destination.Version,
				MetaType:        step.Type.String(),
				MetaStaged:      destination,
			}

			progress := func(fraction float64) {
				notify.As().StepProgress(ctx, stp, fraction)
				if sink != nil {
					sink(fraction)
				}
			}

			if err := x.Execute(ctx, step, source, destination, progress); err != nil {
				outcome.Fail(err)
				return automa.FailureReport(stp, automa.WithError(err), automa.WithMetadata(meta))
			}
			stp.State().Local().Set(ProducedByThisStep, true)
			outcome.Completed(step.Type)

			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithRollback(func(ctx context.Context, stp automa.Step) *automa.Report {
			if done, _ := stp.State().Local().Bool(ProducedByThisStep); !done {
				return automa.SkippedReport(stp, automa.WithDetail("store copy was not produced by this step, skipping rollback"))
			}

			x.Discard(destination)
			return automa.SuccessReport(stp)
		})
}
