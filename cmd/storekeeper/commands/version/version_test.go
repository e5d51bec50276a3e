// SPDX-License-Identifier: Apache-2.0

package version

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hashgraph/solo-storekeeper/internal/testutil"
	"github.com/hashgraph/solo-storekeeper/internal/version"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPrintVersion(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		unmarshal func([]byte, any) error
	}{
		{"yaml", version.FormatYAML, yaml.Unmarshal},
		{"json", version.FormatJSON, json.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetOut(&buf)

			require.NoError(t, PrintVersion(cmd, tt.format))

			var info version.Info
			require.NoError(t, tt.unmarshal(buf.Bytes(), &info))
			assert.Equal(t, version.Get(), info)
		})
	}
}

func TestPrintVersion_UnsupportedFormat(t *testing.T) {
	cmd := &cobra.Command{}
	err := PrintVersion(cmd, "xml")
	require.Error(t, err)
}

func TestVersionCmd_DefaultsToYAML(t *testing.T) {
	// Given
	root := testutil.PrepareSubCmdForTest(GetCmd())

	// When
	out, err := testutil.ExecuteCmd(t, root, "version")

	// Then
	require.NoError(t, err)
	assert.Contains(t, out, "version: "+version.Number())
}
