// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
)

// PrepareSubCmdForTest wraps sub in a bare root command so it can be executed on its own.
func PrepareSubCmdForTest(sub *cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "root"}
	root.AddCommand(sub)
	return root
}

// ExecuteCmd runs root with args and returns what it wrote to stdout
func ExecuteCmd(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}
