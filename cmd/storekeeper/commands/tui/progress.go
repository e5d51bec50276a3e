// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/automa-saga/logx"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashgraph/solo-storekeeper/internal/migration"
)

const (
	refreshInterval = 100 * time.Millisecond
	maxBarWidth     = 60
)

// Upgrade is what the progress view observes
type Upgrade interface {
	Progress() *migration.Progress
	Wait() migration.Result
}

type tickMsg time.Time

type doneMsg struct {
	result migration.Result
}

// ProgressModel shows a progress bar until an upgrade finishes
type ProgressModel struct {
	title      string
	upgrade    Upgrade
	cancel     context.CancelFunc
	bar        progress.Model
	snapshot   migration.ProgressSnapshot
	result     *migration.Result
	cancelling bool
}

// NewProgressModel returns a model observing upgrade. cancel is called when the user interrupts.
func NewProgressModel(title string, upgrade Upgrade, cancel context.CancelFunc) ProgressModel {
	return ProgressModel{
		title:   title,
		upgrade: upgrade,
		cancel:  cancel,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func wait(u Upgrade) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{result: u.Wait()}
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(tick(), wait(m.upgrade))
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			// the upgrade stops between steps and reports back through doneMsg
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = max(min(msg.Width-4, maxBarWidth), 10)
		return m, nil

	case tickMsg:
		if m.result != nil {
			return m, nil
		}
		m.snapshot = m.upgrade.Progress().Snapshot()
		return m, tick()

	case doneMsg:
		r := msg.result
		m.result = &r
		m.snapshot = m.upgrade.Progress().Snapshot()
		return m, tea.Quit
	}

	return m, nil
}

func (m ProgressModel) View() string {
	status := fmt.Sprintf("%.1f of %d steps", m.snapshot.Completed, m.snapshot.Total)
	switch {
	case m.result == nil && !m.snapshot.Finished && m.snapshot.Total == 0 && !m.cancelling:
		status = "planning..."
	case m.result != nil && m.result.Succeeded():
		status = successStyle.Render(iconSuccess + " done")
	case m.result != nil:
		status = errorStyle.Render(iconError + " failed")
	case m.cancelling:
		status = warningStyle.Render("cancelling after the current step...")
	}

	return titleStyle.Render(m.title) + "\n" +
		m.bar.ViewAs(m.snapshot.Fraction()) + "\n" +
		mutedStyle.Render(status) + "\n"
}

// Result returns the result of the upgrade once it has finished
func (m ProgressModel) Result() (migration.Result, bool) {
	if m.result == nil {
		return migration.Result{}, false
	}
	return *m.result, true
}

// RunProgress shows the progress of upgrade on out until it finishes and returns its result
func RunProgress(ctx context.Context, out io.Writer, title string, upgrade Upgrade, cancel context.CancelFunc) migration.Result {
	p := tea.NewProgram(NewProgressModel(title, upgrade, cancel),
		tea.WithContext(ctx),
		tea.WithOutput(out),
	)

	final, err := p.Run()
	if m, ok := final.(ProgressModel); ok {
		if result, done := m.Result(); done {
			return result
		}
	}
	if err != nil && ctx.Err() == nil {
		logx.As().Warn().Err(err).Msg("Progress view stopped, waiting for the upgrade to finish")
	}

	return upgrade.Wait()
}
