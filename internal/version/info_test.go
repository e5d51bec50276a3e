// SPDX-License-Identifier: Apache-2.0

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfo_Format(t *testing.T) {
	info := Info{Number: "0.1.0", Commit: "abc123", GoVersion: "go1.25.2"}

	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{format: FormatYAML, want: "version: 0.1.0\ncommit: abc123\ngo: go1.25.2\n"},
		{format: "JSON", want: `{"version":"0.1.0","commit":"abc123","go":"go1.25.2"}`},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := info.Format(tt.format)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGet(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.Number)
	assert.NotContains(t, info.Number, "\n")
	assert.NotEmpty(t, info.GoVersion)
}
