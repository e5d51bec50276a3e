// SPDX-License-Identifier: Apache-2.0

// Package version identifies the storekeeper binary. The same Info is printed by `storekeeper version` and
// attached to every error diagnosis, so reports of failed upgrades name the exact build that ran them.
package version

import (
	"encoding/json"
	"runtime"
	"strings"

	"github.com/joomcode/errorx"
	"gopkg.in/yaml.v3"
)

// Info describes the running storekeeper build
type Info struct {
	Number    string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	GoVersion string `json:"go" yaml:"go"`
	Build     string `json:"build,omitempty" yaml:"build,omitempty"`
}

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Format renders v as yaml or json
func (v Info) Format(format string) (string, error) {
	var output []byte
	var err error
	switch strings.ToLower(format) {
	case FormatJSON:
		output, err = json.Marshal(v)
		if err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "Error marshaling version info to JSON")
		}
	case FormatYAML:
		output, err = yaml.Marshal(v)
		if err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "Error marshaling version info to YAML")
		}
	default:
		return "", errorx.IllegalFormat.New("unsupported format: %s", format)
	}

	return string(output), nil
}

var (
	versionInfo Info
)

func init() {
	versionInfo = Info{
		Number:    Number(),
		Commit:    Commit(),
		GoVersion: runtime.Version(),
		Build:     BuildMode(),
	}
}

func Get() Info {
	return versionInfo
}
