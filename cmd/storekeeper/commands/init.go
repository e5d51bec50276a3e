// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/automa-saga/logx"
	"github.com/hashgraph/solo-storekeeper/cmd/storekeeper/commands/common"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var (
		flags       common.StoreFlags
		flagVersion string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty store",
		Long:  "Create an empty store file at the given schema version, the current one by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.Apply()
			if err != nil {
				return err
			}

			model, err := common.LoadModel(cfg)
			if err != nil {
				return err
			}

			s, err := common.ResolveTarget(model, flagVersion)
			if err != nil {
				return err
			}

			if err = common.NewEngine().Create(cmd.Context(), cfg.Store.Path, s, cfg.Store.Configuration); err != nil {
				return err
			}

			logx.As().Info().Str("location", cfg.Store.Path).Str("version", s.Version).Msg("Created store")
			cmd.Printf("Created store %s at schema version %s\n", cfg.Store.Path, s.Version)
			return nil
		},
	}

	flags.Register(cmd)
	common.FlagVersion.SetVar(cmd, &flagVersion, false)

	return cmd
}
