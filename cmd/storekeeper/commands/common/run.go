// SPDX-License-Identifier: Apache-2.0

package common

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/hashgraph/solo-storekeeper/internal/workflows/steps"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// CheckWorkflowReport prints the report of an upgrade workflow and saves it in reportDir when set
func CheckWorkflowReport(report *automa.Report, reportDir string) string {
	if report == nil {
		return ""
	}

	reportPath := ""
	if reportDir != "" {
		timestamp := time.Now().Format("20060102_150405")
		reportPath = filepath.Join(reportDir, fmt.Sprintf("upgrade_report_%s.yaml", timestamp))
	}

	steps.PrintWorkflowReport(report, reportPath)
	if reportPath != "" {
		logx.As().Info().Str("report_path", reportPath).Msg("Workflow report is saved")
	}
	return reportPath
}

// PrintOutput writes v to the output of cmd in the format selected with --output
func PrintOutput(cmd *cobra.Command, v any) error {
	format, err := cmd.Flags().GetString("output")
	if err != nil || format == "" {
		format = "yaml"
	}

	var b []byte
	switch strings.ToLower(format) {
	case "json":
		b, err = json.MarshalIndent(v, "", "  ")
	case "yaml":
		b, err = yaml.Marshal(v)
	default:
		return errorx.IllegalFormat.New("unsupported output format: %s", format)
	}
	if err != nil {
		return errorx.IllegalFormat.Wrap(err, "failed to format output")
	}

	cmd.Println(strings.TrimRight(string(b), "\n"))
	return nil
}

// DefaultRunE shows the help message. Every command gets a run function so that cobra marks it runnable.
func DefaultRunE(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}
