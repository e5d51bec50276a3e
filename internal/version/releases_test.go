// SPDX-License-Identifier: Apache-2.0

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMode(t *testing.T) {
	tests := []struct {
		buildMode string
		release   bool
	}{
		{buildMode: "release", release: true},
		{buildMode: "  release\n", release: true},
		{buildMode: "Release", release: false},
		{buildMode: "dev", release: false},
		{buildMode: "", release: false},
	}

	for _, tt := range tests {
		t.Run(tt.buildMode, func(t *testing.T) {
			orig := buildMode
			buildMode = tt.buildMode
			t.Cleanup(func() { buildMode = orig })

			assert.Equal(t, tt.release, IsReleaseBuild())
			if tt.release {
				assert.Equal(t, "release", BuildMode())
			} else {
				assert.Equal(t, "dev", BuildMode())
			}
		})
	}
}
