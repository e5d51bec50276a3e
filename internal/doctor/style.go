// SPDX-License-Identifier: Apache-2.0

package doctor

import "github.com/charmbracelet/lipgloss"

// Terminal styles shared by the CLI
var (
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	WarningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	LabelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	InfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	ErrorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(0, 1)
	ResolutionBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("11")).
				Padding(0, 1)
	SummaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("14")).
			Padding(0, 1)
)
