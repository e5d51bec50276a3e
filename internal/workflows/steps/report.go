// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/automa-saga/automa"
	"gopkg.in/yaml.v3"
)

// PrintWorkflowReport prints the workflow execution report in YAML format.
// If path is set the report is saved there as well.
var PrintWorkflowReport = func(report *automa.Report, path string) {
	b, err := yaml.Marshal(report)
	if err != nil {
		fmt.Printf("Failed to marshal report: %v\n", err)
		return
	}
	fmt.Printf("Workflow Execution Report:\n%s\n", b)

	if path == "" {
		return
	}
	if err = WriteWorkflowReport(report, path); err != nil {
		fmt.Printf("Failed to save report: %v\n", err)
	}
}

// WriteWorkflowReport saves the workflow execution report to path in YAML format
func WriteWorkflowReport(report *automa.Report, path string) error {
	b, err := yaml.Marshal(report)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, b, 0o644)
}
