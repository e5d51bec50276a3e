// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashgraph/solo-storekeeper/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpgrade struct {
	progress *migration.Progress
	result   migration.Result
}

func (f *fakeUpgrade) Progress() *migration.Progress { return f.progress }
func (f *fakeUpgrade) Wait() migration.Result       { return f.result }

func TestProgressModel_Update(t *testing.T) {
	tests := []struct {
		name         string
		msg          tea.Msg
		expectCmd    bool
		expectDone   bool
		expectCancel bool
	}{
		{
			name:      "tick refreshes the snapshot",
			msg:       tickMsg{},
			expectCmd: true,
		},
		{
			name:       "done quits",
			msg:        doneMsg{result: migration.Success([]migration.Type{migration.Lightweight})},
			expectCmd:  true,
			expectDone: true,
		},
		{
			name:         "ctrl+c cancels the upgrade",
			msg:          tea.KeyMsg{Type: tea.KeyCtrlC},
			expectCancel: true,
		},
		{
			name: "window size resizes the bar",
			msg:  tea.WindowSizeMsg{Width: 200, Height: 40},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			p := migration.NewProgress(2)
			p.Advance(1)
			cancelled := false
			m := NewProgressModel("Upgrading", &fakeUpgrade{progress: p}, func() { cancelled = true })

			// When
			next, cmd := m.Update(tt.msg)

			// Then
			pm, ok := next.(ProgressModel)
			require.True(t, ok)
			assert.Equal(t, tt.expectCmd, cmd != nil)
			assert.Equal(t, tt.expectCancel, cancelled)
			_, done := pm.Result()
			assert.Equal(t, tt.expectDone, done)

			if _, isTick := tt.msg.(tickMsg); isTick {
				assert.Equal(t, 0.5, pm.snapshot.Fraction())
			}
			if _, isSize := tt.msg.(tea.WindowSizeMsg); isSize {
				assert.Equal(t, maxBarWidth, pm.bar.Width)
			}
		})
	}
}

func TestProgressModel_View(t *testing.T) {
	// Given
	p := migration.NewProgress(1)
	m := NewProgressModel("Upgrading people.store", &fakeUpgrade{progress: p}, nil)

	// When
	next, _ := m.Update(doneMsg{result: migration.Failure(errors.New("boom"))})

	// Then
	view := next.View()
	assert.Contains(t, view, "Upgrading people.store")
	assert.Contains(t, view, "failed")
}

func TestProgressModel_ViewBeforePlanning(t *testing.T) {
	// Given
	m := NewProgressModel("Upgrading people.store", &fakeUpgrade{progress: migration.NewProgress(0)}, nil)

	// When
	next, _ := m.Update(tickMsg{})

	// Then
	pm := next.(ProgressModel)
	assert.Equal(t, 0.0, pm.snapshot.Fraction())
	assert.Contains(t, pm.View(), "planning...")
}

func TestRenderSummary(t *testing.T) {
	tests := []struct {
		name     string
		result   migration.Result
		contains []string
	}{
		{
			name:     "up to date",
			result:   migration.Success(nil),
			contains: []string{"Store is up to date", "/data/people.store"},
		},
		{
			name:     "upgraded",
			result:   migration.Success([]migration.Type{migration.Lightweight, migration.Heavyweight}),
			contains: []string{"Store upgraded", "lightweight, heavyweight"},
		},
		{
			name:     "failed",
			result:   migration.Failure(errors.New("disk full")),
			contains: []string{"Upgrade failed", "disk full", "left unchanged"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderSummary("/data/people.store", tt.result)
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
		})
	}
}
