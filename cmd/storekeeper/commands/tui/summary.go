// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hashgraph/solo-storekeeper/internal/migration"
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// RenderPlan describes a plan before it is executed
func RenderPlan(location string, plan *migration.Plan) string {
	rows := []string{
		titleStyle.Render("Upgrade plan"),
		row("Store", location),
		row("Type", planType(plan.Type())),
	}
	for i, s := range plan.Steps {
		rows = append(rows, row(fmt.Sprintf("Step %d", i+1), fmt.Sprintf("%s (%s)", s.ID(), s.Type)))
	}
	if plan.Type() == migration.Heavyweight {
		rows = append(rows, "", warningStyle.Render(iconWarning+" heavyweight steps copy every record of the store"))
	}
	return boxStyle.Render(strings.Join(rows, "\n"))
}

// RenderSummary describes the outcome of an upgrade
func RenderSummary(location string, result migration.Result) string {
	if !result.Succeeded() {
		return boxStyle.Render(strings.Join([]string{
			errorStyle.Render(iconError + " Upgrade failed"),
			row("Store", location),
			row("Error", result.Err.Error()),
			mutedStyle.Render("the store was left unchanged"),
		}, "\n"))
	}

	if len(result.Types) == 0 {
		return boxStyle.Render(strings.Join([]string{
			successStyle.Render(iconSuccess + " Store is up to date"),
			row("Store", location),
		}, "\n"))
	}

	types := make([]string, 0, len(result.Types))
	for _, t := range result.Types {
		types = append(types, t.String())
	}
	return boxStyle.Render(strings.Join([]string{
		successStyle.Render(iconSuccess + " Store upgraded"),
		row("Store", location),
		row("Steps", fmt.Sprintf("%d", len(result.Types))),
		row("Types", strings.Join(types, ", ")),
	}, "\n"))
}

func planType(t migration.Type) string {
	if t == migration.Heavyweight {
		return warningStyle.Render(t.String())
	}
	return t.String()
}
