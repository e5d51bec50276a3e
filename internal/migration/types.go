// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"fmt"
	"strings"

	"github.com/hashgraph/solo-storekeeper/internal/engine"
	"github.com/hashgraph/solo-storekeeper/pkg/schema"
)

// Type classifies a migration step or plan
type Type int

const (
	NoMigration Type = iota
	Lightweight
	Heavyweight
)

func (t Type) String() string {
	switch t {
	case Lightweight:
		return "lightweight"
	case Heavyweight:
		return "heavyweight"
	default:
		return "none"
	}
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Step migrates a store from one schema version to the next
type Step struct {
	Source        *schema.Schema
	Destination   *schema.Schema
	Mapping       *engine.Mapping
	Type          Type
	Configuration string
}

// ID identifies the step, e.g. "V1-to-V2"
func (s Step) ID() string {
	return s.Source.Version + "-to-" + s.Destination.Version
}

// Plan is the ordered list of steps from the store's version to the target
type Plan struct {
	Steps         []Step
	Configuration string
}

// IsEmpty returns true when no migration is needed
func (p *Plan) IsEmpty() bool {
	return p == nil || len(p.Steps) == 0
}

// Type returns Heavyweight if any step is heavyweight, Lightweight for any other non-empty plan and
// NoMigration for an empty one
func (p *Plan) Type() Type {
	if p.IsEmpty() {
		return NoMigration
	}
	for _, s := range p.Steps {
		if s.Type == Heavyweight {
			return Heavyweight
		}
	}
	return Lightweight
}

// Types returns the type of every step in order
func (p *Plan) Types() []Type {
	types := make([]Type, 0)
	if p == nil {
		return types
	}
	for _, s := range p.Steps {
		types = append(types, s.Type)
	}
	return types
}

// Validate checks that consecutive steps chain and that the last step reaches target
func (p *Plan) Validate(target *schema.Schema) error {
	if p.IsEmpty() {
		return nil
	}

	for i, s := range p.Steps {
		if s.Source == nil || s.Destination == nil || s.Mapping == nil {
			return MappingUnresolved.New("step %d of the plan is incomplete", i)
		}
		if i > 0 && p.Steps[i-1].Destination.Version != s.Source.Version {
			return MappingUnresolved.New("step %s does not continue step %s", s.ID(), p.Steps[i-1].ID())
		}
	}

	last := p.Steps[len(p.Steps)-1].Destination
	if last.Version != target.Version && !schema.SameHashes(last, target, p.Configuration) {
		return MappingUnresolved.New("plan ends at %s instead of %s", last.Version, target.Version).
			WithProperty(PropertyDestinationVersion, target.Version)
	}

	return nil
}

// Summary describes the plan in a human-readable way
func (p *Plan) Summary() string {
	if p.IsEmpty() {
		return "no migration required"
	}

	if len(p.Steps) == 1 {
		s := p.Steps[0]
		return fmt.Sprintf("1 %s migration required: %s", s.Type, s.ID())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d migrations required (%s):\n", len(p.Steps), p.Type()))
	for i, s := range p.Steps {
		sb.WriteString(fmt.Sprintf("  %d. %s - %s\n", i+1, s.ID(), s.Type))
	}
	return sb.String()
}

// Result is the outcome of an upgrade: the types of the executed steps on success, or the first error
type Result struct {
	Types []Type
	Err   error
}

// Success returns a successful result. An empty list means no migration was needed.
func Success(types []Type) Result {
	if types == nil {
		types = []Type{}
	}
	return Result{Types: types}
}

// Failure returns a failed result
func Failure(err error) Result {
	return Result{Err: err}
}

// Succeeded returns true if the result carries no error
func (r Result) Succeeded() bool {
	return r.Err == nil
}
