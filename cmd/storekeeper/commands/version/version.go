// SPDX-License-Identifier: Apache-2.0

package version

import (
	"github.com/hashgraph/solo-storekeeper/internal/version"
	"github.com/spf13/cobra"
)

var (
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Long:  "Show the version, commit and Go version storekeeper was built with",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString("output")
			if err != nil || format == "" {
				format = version.FormatYAML
			}
			return PrintVersion(cmd, format)
		},
	}
)

func GetCmd() *cobra.Command {
	return versionCmd
}

// PrintVersion prints the version information in format (yaml|json)
func PrintVersion(cmd *cobra.Command, format string) error {
	output, err := version.Get().Format(format)
	if err != nil {
		return err
	}
	cmd.Println(output)
	return nil
}
