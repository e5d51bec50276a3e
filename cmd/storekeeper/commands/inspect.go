// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/hashgraph/solo-storekeeper/cmd/storekeeper/commands/common"
	"github.com/spf13/cobra"
)

type inspectOutput struct {
	Store        string            `yaml:"store" json:"store"`
	StoreType    string            `yaml:"storeType" json:"storeType"`
	Recorded     string            `yaml:"recorded,omitempty" json:"recorded,omitempty"`
	Matches      string            `yaml:"matches,omitempty" json:"matches,omitempty"`
	Current      string            `yaml:"current" json:"current"`
	UpToDate     bool              `yaml:"upToDate" json:"upToDate"`
	EntityHashes map[string]string `yaml:"entityHashes" json:"entityHashes"`
}

func newInspectCmd() *cobra.Command {
	var flags common.StoreFlags

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the schema metadata recorded in a store",
		Long:  "Print the metadata of a store and the schema version it matches, if any",
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

			md, detected, err := s.Inspect(cmd.Context(), cfg.Store.Path)
			if err != nil {
				return err
			}

			out := inspectOutput{
				Store:        cfg.Store.Path,
				StoreType:    md.StoreType,
				Recorded:     md.Version,
				Current:      s.Model().Current().Version,
				EntityHashes: md.EntityHashes,
			}
			if detected != nil {
				out.Matches = detected.Version
				out.UpToDate = detected.Version == out.Current
			}
			return common.PrintOutput(cmd, out)
		},
	}

	flags.Register(cmd)

	return cmd
}
