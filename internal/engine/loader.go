// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"os"

	"gopkg.in/yaml.v3"
)

type mappingFile struct {
	Mappings []*Mapping `yaml:"mappings"`
}

// LoadMappings reads explicit mappings from a YAML file of the form
//
//	mappings:
//	  - source: V2
//	    destination: V3
//	    entities:
//	      - source: Person
//	        destination: Contact
//	        fields:
//	          - {source: name, destination: fullName}
//	          - {destination: email, default: ""}
func LoadMappings(path string) (*StaticProvider, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, InvalidMapping.Wrap(err, "failed to read mappings file").WithProperty(PropertyPath, path)
	}

	var mf mappingFile
	if err = yaml.Unmarshal(b, &mf); err != nil {
		return nil, InvalidMapping.Wrap(err, "failed to parse mappings file").WithProperty(PropertyPath, path)
	}

	for i, m := range mf.Mappings {
		if m == nil || m.Source == "" || m.Destination == "" {
			return nil, InvalidMapping.New("mapping #%d must name a source and a destination version", i).
				WithProperty(PropertyPath, path)
		}
	}

	return NewStaticProvider(mf.Mappings...), nil
}
