// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/solo-storekeeper/cmd/storekeeper/commands/common"
	"github.com/hashgraph/solo-storekeeper/cmd/storekeeper/commands/tui"
	"github.com/hashgraph/solo-storekeeper/internal/migration"
	"github.com/hashgraph/solo-storekeeper/internal/stack"
	"github.com/spf13/cobra"
)

func newUpgradeCmd() *cobra.Command {
	var (
		flags         common.StoreFlags
		flagTarget    string
		flagYes       bool
		flagNoTUI     bool
		flagReportDir string
	)

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Migrate a store to the target schema",
		Long: "Migrate a store step by step to the target schema. The store is replaced only after every step " +
			"succeeded; on failure it is left unchanged.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.Apply()
			if err != nil {
				return err
			}

			s, err := common.NewStack(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			target, err := common.ResolveTarget(s.Model(), flagTarget)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			location := cfg.Store.Path
			plan, err := s.Plan(ctx, location, target, nil)
			if err != nil {
				return err
			}

			if plan.IsEmpty() {
				cmd.Println(tui.RenderSummary(location, migration.Success(nil)))
				return nil
			}

			cmd.Println(tui.RenderPlan(location, plan))
			if plan.Type() == migration.Heavyweight && !flagYes {
				ok, err := tui.Confirm(
					fmt.Sprintf("Upgrade %s to %s?", filepath.Base(location), target.Version),
					"Heavyweight steps copy every record and may take a while.")
				if err != nil {
					return err
				}
				if !ok {
					logx.As().Info().Str("location", location).Msg("Upgrade cancelled by user")
					cmd.Println("Upgrade cancelled")
					return nil
				}
			}

			op := s.UpgradeIfNeeded(ctx, location, target, nil, nil)

			var result migration.Result
			if flagNoTUI {
				result = waitWithLogs(op)
			} else {
				result = tui.RunProgress(ctx, cmd.ErrOrStderr(),
					fmt.Sprintf("Upgrading %s to %s", filepath.Base(location), target.Version), op, cancel)
			}

			common.CheckWorkflowReport(op.Report(), flagReportDir)
			cmd.Println(tui.RenderSummary(location, result))

			return result.Err
		},
	}

	flags.Register(cmd)
	common.FlagTarget.SetVar(cmd, &flagTarget, false)
	common.FlagYes.SetVar(cmd, &flagYes, false)
	common.FlagNoTUI.SetVar(cmd, &flagNoTUI, false)
	common.FlagReportDir.SetVar(cmd, &flagReportDir, false)

	return cmd
}

// waitWithLogs logs every progress change of op until it finishes
func waitWithLogs(op *stack.Operation) migration.Result {
	logger := logx.As().With().Str("location", op.Location()).Logger()
	op.Progress().Observe(func(s migration.ProgressSnapshot) {
		logger.Info().
			Float64("completed", s.Completed).
			Int("total", s.Total).
			Msg("Upgrade progress")
	})

	result := op.Wait()
	if result.Succeeded() {
		logger.Info().Int("steps", len(result.Types)).Msg("Upgrade finished")
	} else {
		logger.Error().Err(result.Err).Msg("Upgrade failed")
	}
	return result
}
