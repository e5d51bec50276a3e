// SPDX-License-Identifier: Apache-2.0

package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/charmbracelet/lipgloss"
	"github.com/hashgraph/solo-storekeeper/internal/chain"
	"github.com/hashgraph/solo-storekeeper/internal/config"
	"github.com/hashgraph/solo-storekeeper/internal/engine"
	"github.com/hashgraph/solo-storekeeper/internal/migration"
	"github.com/hashgraph/solo-storekeeper/internal/stack"
	"github.com/hashgraph/solo-storekeeper/internal/version"
	"github.com/hashgraph/solo-storekeeper/internal/workflows/notify"
	"github.com/hashgraph/solo-storekeeper/pkg/schema"
	"github.com/joomcode/errorx"
)

type ErrorDiagnosis struct {
	Error      error    `yaml:"error" json:"error"`
	Message    string   `yaml:"message" json:"message"`
	Cause      string   `yaml:"cause" json:"cause"`
	ErrorType  string   `yaml:"errorType" json:"errorType"`
	TraceId    string   `yaml:"traceId" json:"traceId"`
	Commit     string   `yaml:"commit" json:"commit"`
	Version    string   `yaml:"version" json:"version"`
	Pid        int      `yaml:"pid" json:"pid"`
	Code       int      `yaml:"code" json:"code"`
	Logfile    string   `yaml:"log" json:"log"`
	Resolution []string `yaml:"steps" json:"steps"`
}

// exit is replaced in tests
var exit = os.Exit

func toErrorCode(err error) int {
	switch {
	case errorx.IsOfType(err, errorx.IllegalArgument), errorx.IsOfType(err, config.InvalidError),
		errorx.IsOfType(err, engine.InvalidMapping), errorx.IsOfType(err, chain.InvalidGraph),
		errorx.IsOfType(err, schema.InvalidSchema):
		return 10400
	case errorx.IsOfType(err, migration.MappingUnresolved):
		return 10409
	case errorx.IsOfType(err, migration.MetadataUnreadable):
		return 10422
	case errorx.IsOfType(err, stack.LockFailed):
		return 10423
	case errorx.IsOfType(err, migration.MigrationStepFailed):
		return 10501
	case errorx.IsOfType(err, migration.ReplaceFailed):
		return 10502
	default:
		if errorx.HasTrait(err, errorx.NotFound()) {
			return 10404
		}
		return 10500
	}
}

func toErrorMessage(err error) (string, string) {
	e := errorx.Cast(err)
	if e == nil {
		return err.Error(), ""
	}

	if e.Cause() == nil {
		return e.Message(), ""
	}
	return e.Message(), fmt.Sprintf("%s", e.Cause())
}

func property(err error, p errorx.Property) string {
	if v, ok := errorx.ExtractProperty(err, p); ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

func findResolution(err error) []string {
	location := property(err, migration.PropertyLocation)

	switch {
	case errorx.IsOfType(err, errorx.IllegalArgument):
		if arg, ok := errorx.ExtractProperty(err, errorx.PropertyPayload()); ok {
			return []string{fmt.Sprintf("Ensure %q is provided.", arg)}
		}
		return []string{"Ensure all required arguments are provided."}
	case errorx.IsOfType(err, errorx.IllegalFormat):
		return []string{"Ensure provided data is in correct format."}
	case errorx.IsOfType(err, config.NotFoundError):
		if arg, ok := errorx.ExtractProperty(err, errorx.PropertyPayload()); ok {
			return []string{fmt.Sprintf("Ensure configuration file %q exists, is correctly formatted and accessible", arg)}
		}
		return []string{"Ensure configuration file exists and is accessible."}
	case errorx.IsOfType(err, config.InvalidError):
		if key := property(err, config.PropertyKey); key != "" {
			return []string{fmt.Sprintf("Fix the value of %q in the configuration file or the matching flag.", key)}
		}
		return []string{"Fix the configuration file."}
	case errorx.IsOfType(err, migration.MetadataUnreadable):
		return []string{
			fmt.Sprintf("Ensure the store %q exists and is readable.", location),
			"Run 'storekeeper inspect' to see what the store records.",
		}
	case errorx.IsOfType(err, migration.SourceVersionUnknown):
		return []string{
			"The store was saved with a schema that is not among the schema files.",
			"Add the schema file of that version to the schema directory.",
		}
	case errorx.IsOfType(err, migration.MappingUnresolved):
		return []string{
			fmt.Sprintf("Add an explicit mapping from %s to %s to the mappings file.",
				orUnknown(property(err, migration.PropertySourceVersion)),
				orUnknown(property(err, migration.PropertyDestinationVersion))),
			"Or declare a migration chain whose hops can be inferred.",
		}
	case errorx.IsOfType(err, migration.MigrationStepFailed), errorx.IsOfType(err, migration.ReplaceFailed):
		return []string{
			fmt.Sprintf("The store %q was left unchanged.", location),
			"Fix the cause above and run 'storekeeper upgrade' again.",
		}
	case errorx.IsOfType(err, stack.LockFailed):
		return []string{
			"Another process is upgrading the store.",
			"Wait for it to finish or increase migration.lockTimeout.",
		}
	case errorx.IsOfType(err, engine.InvalidMapping):
		return []string{fmt.Sprintf("Fix the mappings file %s.", orUnknown(property(err, engine.PropertyPath)))}
	case errorx.IsOfType(err, chain.InvalidGraph):
		return []string{"Fix migration.chain or migration.pairs: every version may appear once and the graph must not loop."}
	case errorx.IsOfType(err, schema.InvalidSchema), errorx.IsOfType(err, schema.ReadError):
		return []string{fmt.Sprintf("Fix the schema file %s.", orUnknown(property(err, schema.PropertyPath)))}
	default:
		return []string{"Check error message for details or contact support"}
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}

// Diagnose attempts to find a resolution and provide a human friendly error response
func Diagnose(ctx context.Context, ex error) *ErrorDiagnosis {
	var traceId string
	if v, ok := ctx.Value("traceId").(string); ok {
		traceId = v
	}

	msg, cause := toErrorMessage(ex)
	return &ErrorDiagnosis{
		Error:      ex,
		ErrorType:  errorx.GetTypeName(ex),
		Message:    msg,
		Cause:      cause,
		TraceId:    traceId,
		Code:       toErrorCode(ex),
		Commit:     version.Commit(),
		Version:    version.Number(),
		Pid:        os.Getpid(),
		Logfile:    config.Get().Log.Filename,
		Resolution: findResolution(ex),
	}
}

// Print writes the diagnosis and the resolution steps to w.
// Optional instructions are printed before the default resolution steps.
func Print(w io.Writer, resp *ErrorDiagnosis, instructions ...string) {
	row := func(label string, value any, style lipgloss.Style) string {
		return LabelStyle.Render(label+":") + " " + style.Render(fmt.Sprintf("%v", value))
	}

	rows := []string{ErrorStyle.Render("Error Diagnostics"), row("Error", resp.Message, lipgloss.NewStyle())}
	if resp.Cause != "" {
		rows = append(rows, row("Cause", resp.Cause, lipgloss.NewStyle()))
	}
	rows = append(rows,
		row("Error Type", resp.ErrorType, lipgloss.NewStyle()),
		row("Error Code", resp.Code, lipgloss.NewStyle()),
		row("Commit", resp.Commit, MutedStyle),
		row("Pid", resp.Pid, MutedStyle),
		row("TraceId", resp.TraceId, MutedStyle),
		row("Version", resp.Version, MutedStyle),
	)
	if resp.Logfile != "" {
		rows = append(rows, row("Logfile", resp.Logfile, InfoStyle))
	}
	_, _ = fmt.Fprintln(w, ErrorBoxStyle.Render(strings.Join(rows, "\n")))

	steps := []string{WarningStyle.Render("Resolution")}
	for _, in := range instructions {
		if in != "" {
			steps = append(steps, strings.Split(in, "\n")...)
		}
	}
	for _, r := range resp.Resolution {
		steps = append(steps, "- "+r)
	}
	_, _ = fmt.Fprintln(w, ResolutionBoxStyle.Render(strings.Join(steps, "\n")))
}

// CheckErr prints diagnosis and exit with error code 1
// Optional instructions can be provided to give additional context to the user
func CheckErr(ctx context.Context, err error, instructions ...string) {
	logx.As().Error().Err(err).Msg("error occurred")
	_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)

	Print(os.Stderr, Diagnose(ctx, err), instructions...)
	exit(1)
}

// CheckReportErr diagnoses the deepest failed unit of report
func CheckReportErr(ctx context.Context, report *automa.Report) {
	failed := notify.RootCause(report)
	if failed == nil {
		return
	}

	CheckErr(ctx, failed.Error, GetInstructionsFromReport(report))
}

// GetInstructionsFromReport recursively searches for instructions in report metadata.
// Returns the first non-empty instructions found in the report tree, or an empty string if none exist.
func GetInstructionsFromReport(report *automa.Report) string {
	if report == nil {
		return ""
	}

	if instructions, ok := report.Metadata["instructions"]; ok {
		return instructions
	}

	for _, stepReport := range report.StepReports {
		if instructions := GetInstructionsFromReport(stepReport); instructions != "" {
			return instructions
		}
	}

	return ""
}
