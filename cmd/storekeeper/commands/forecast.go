// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/hashgraph/solo-storekeeper/cmd/storekeeper/commands/common"
	"github.com/hashgraph/solo-storekeeper/internal/migration"
	"github.com/spf13/cobra"
)

type forecastStep struct {
	Id          string `yaml:"id" json:"id"`
	Source      string `yaml:"source" json:"source"`
	Destination string `yaml:"destination" json:"destination"`
	Type        string `yaml:"type" json:"type"`
}

type forecastOutput struct {
	Store  string         `yaml:"store" json:"store"`
	Target string         `yaml:"target" json:"target"`
	Type   string         `yaml:"type" json:"type"`
	Steps  []forecastStep `yaml:"steps" json:"steps"`
}

func newForecastOutput(store, target string, plan *migration.Plan) forecastOutput {
	out := forecastOutput{Store: store, Target: target, Type: plan.Type().String(), Steps: []forecastStep{}}
	for _, s := range plan.Steps {
		out.Steps = append(out.Steps, forecastStep{
			Id:          s.ID(),
			Source:      s.Source.Version,
			Destination: s.Destination.Version,
			Type:        s.Type.String(),
		})
	}
	return out
}

func newForecastCmd() *cobra.Command {
	var (
		flags      common.StoreFlags
		flagTarget string
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Show the migration steps an upgrade would run",
		Long:  "Plan the upgrade of a store to the target schema without touching the store",
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

			plan, err := s.Plan(cmd.Context(), cfg.Store.Path, target, nil)
			if err != nil {
				return err
			}

			return common.PrintOutput(cmd, newForecastOutput(cfg.Store.Path, target.Version, plan))
		},
	}

	flags.Register(cmd)
	common.FlagTarget.SetVar(cmd, &flagTarget, false)

	return cmd
}
