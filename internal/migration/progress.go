// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"math"
	"sync"
)

// ProgressFunc receives the completed fraction of a single step
type ProgressFunc func(fraction float64)

// ProgressSnapshot is a read-only view of a Progress
type ProgressSnapshot struct {
	Total     int     `yaml:"total" json:"total"`
	Completed float64 `yaml:"completed" json:"completed"`
	Finished  bool    `yaml:"finished" json:"finished"`
}

// Fraction returns the completed share of the work in [0,1]. It is 0 while the total is unknown.
func (s ProgressSnapshot) Fraction() float64 {
	if s.Finished {
		return 1
	}
	if s.Total <= 0 {
		return 0
	}
	return s.Completed / float64(s.Total)
}

// Progress tracks an operation made of Total units. Completed units only grow and never exceed Total.
type Progress struct {
	mu        sync.Mutex
	total     int
	completed float64
	finished  bool
	observers []func(ProgressSnapshot)
}

// NewProgress returns a progress of total units
func NewProgress(total int) *Progress {
	if total < 0 {
		total = 0
	}
	return &Progress{total: total}
}

// Observe registers fn to be called after every change
func (p *Progress) Observe(fn func(ProgressSnapshot)) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

// Snapshot returns the current state
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

func (p *Progress) snapshot() ProgressSnapshot {
	return ProgressSnapshot{Total: p.total, Completed: p.completed, Finished: p.finished}
}

// SetTotal changes the number of units. It is only effective while nothing has been completed.
func (p *Progress) SetTotal(total int) {
	p.mu.Lock()
	if p.completed > 0 || p.finished || total < 0 {
		p.mu.Unlock()
		return
	}
	p.total = total
	p.mu.Unlock()
	p.notify()
}

// Advance sets the completed units to units, clamped to [0,Total]. Values below the current state are ignored.
func (p *Progress) Advance(units float64) {
	p.mu.Lock()
	if units > float64(p.total) {
		units = float64(p.total)
	}
	if units <= p.completed {
		p.mu.Unlock()
		return
	}
	p.completed = units
	p.finished = p.total > 0 && units == float64(p.total)
	p.mu.Unlock()
	p.notify()
}

// Complete marks every unit as done. It also finishes an operation that turned out to have no units.
func (p *Progress) Complete() {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.completed = float64(p.total)
	p.finished = true
	p.mu.Unlock()
	p.notify()
}

// Unit returns a sink for the fraction of unit i, which advances the progress to i+fraction
func (p *Progress) Unit(i int) ProgressFunc {
	return func(fraction float64) {
		p.Advance(float64(i) + clamp(fraction))
	}
}

func (p *Progress) notify() {
	p.mu.Lock()
	s := p.snapshot()
	observers := make([]func(ProgressSnapshot), len(p.observers))
	copy(observers, p.observers)
	p.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}

func clamp(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
