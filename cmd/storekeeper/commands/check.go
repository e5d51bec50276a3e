// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/hashgraph/solo-storekeeper/cmd/storekeeper/commands/common"
	"github.com/spf13/cobra"
)

type checkOutput struct {
	Store     string `yaml:"store" json:"store"`
	Detected  string `yaml:"detected,omitempty" json:"detected,omitempty"`
	Target    string `yaml:"target" json:"target"`
	Migration string `yaml:"migration" json:"migration"`
}

func newCheckCmd() *cobra.Command {
	var (
		flags      common.StoreFlags
		flagTarget string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a store needs a migration",
		Long:  "Classify the migration the store needs to reach the target schema: none, lightweight or heavyweight",
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

			needed, err := s.CheckNeeded(cmd.Context(), cfg.Store.Path, target)
			if err != nil {
				return err
			}

			out := checkOutput{Store: cfg.Store.Path, Target: target.Version, Migration: needed.String()}
			if _, detected, err := s.Inspect(cmd.Context(), cfg.Store.Path); err == nil && detected != nil {
				out.Detected = detected.Version
			}
			return common.PrintOutput(cmd, out)
		},
	}

	flags.Register(cmd)
	common.FlagTarget.SetVar(cmd, &flagTarget, false)

	return cmd
}
