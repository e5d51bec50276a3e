// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/solo-storekeeper/cmd/storekeeper/commands/version"
	"github.com/hashgraph/solo-storekeeper/internal/config"
	"github.com/hashgraph/solo-storekeeper/internal/doctor"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
)

// examples:
// ./storekeeper check --config ./storekeeper.yaml
// ./storekeeper forecast --store ./people.store --schemas ./schemas --chain V1,V2,V3
// ./storekeeper upgrade --config ./storekeeper.yaml --mappings ./mappings.yaml --yes
// ./storekeeper init --store ./people.store --schemas ./schemas --schema-version V1

var (
	// Used for flags.
	flagConfig       string
	flagVersion      bool
	flagOutputFormat string

	rootCmd = newRootCmd()
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storekeeper",
		Short: "Progressive schema migration for file-backed stores",
		Long:  "Solo Storekeeper - Plans and runs step-by-step schema migrations of store files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagVersion {
				return version.PrintVersion(cmd, flagOutputFormat)
			}

			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path")

	// support '--version', '-v' to show version information
	cmd.PersistentFlags().BoolVarP(&flagVersion, "version", "v", false, "Show version")
	cmd.PersistentFlags().StringVarP(&flagOutputFormat, "output", "o", "yaml", "Output format (yaml|json)")

	// keep the order of commands as added
	cobra.EnableCommandSorting = false

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newForecastCmd())
	cmd.AddCommand(newUpgradeCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(version.GetCmd())

	return cmd
}

// Execute executes the root command.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errorx.IllegalArgument.New("context is required")
	}

	cobra.OnInitialize(func() {
		initConfig(ctx)
	})

	_, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		// typed errors are diagnosed as they are
		if errorx.Cast(err) != nil {
			return err
		}
		return errorx.IllegalState.Wrap(err, "failed to execute command")
	}

	return nil
}

func initConfig(ctx context.Context) {
	var err error
	err = config.Initialize(flagConfig)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}

	logConfig := config.Get().Log
	err = logx.Initialize(logConfig)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}
}
