// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"sync"

	"github.com/hashgraph/solo-storekeeper/pkg/schema"
)

// ProviderFunc adapts a function to a MappingProvider
type ProviderFunc func(ctx context.Context, src, dst *schema.Schema) (*Mapping, bool)

func (f ProviderFunc) MappingFor(ctx context.Context, src, dst *schema.Schema) (*Mapping, bool) {
	return f(ctx, src, dst)
}

type versionPair struct {
	source      string
	destination string
}

// StaticProvider serves explicit mappings keyed by source and destination version
type StaticProvider struct {
	mu       sync.RWMutex
	mappings map[versionPair]*Mapping
}

// NewStaticProvider returns a provider for the given mappings, all of which are marked explicit
func NewStaticProvider(mappings ...*Mapping) *StaticProvider {
	p := &StaticProvider{mappings: make(map[versionPair]*Mapping, len(mappings))}
	for _, m := range mappings {
		p.Add(m)
	}
	return p
}

// Add registers a mapping, replacing any mapping for the same pair of versions
func (p *StaticProvider) Add(m *Mapping) {
	if m == nil {
		return
	}
	m.Explicit = true

	p.mu.Lock()
	defer p.mu.Unlock()
	p.mappings[versionPair{source: m.Source, destination: m.Destination}] = m
}

// Len returns the number of registered mappings
func (p *StaticProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.mappings)
}

func (p *StaticProvider) MappingFor(_ context.Context, src, dst *schema.Schema) (*Mapping, bool) {
	if src == nil || dst == nil {
		return nil, false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.mappings[versionPair{source: src.Version, destination: dst.Version}]
	return m, ok
}
