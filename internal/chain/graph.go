// SPDX-License-Identifier: Apache-2.0

// Package chain describes the declared progression of schema versions an application has gone through.
//
// A Graph is a set of disjoint linear chains: every version has at most one successor and at most one
// predecessor, and following successors always terminates.
package chain

import (
	"sort"
	"strings"
)

// Edge is a declared migration from one schema version to the next
type Edge struct {
	Source      string `yaml:"source" json:"source"`
	Destination string `yaml:"destination" json:"destination"`
}

// Graph is an immutable schema version graph. The zero value is an empty graph.
type Graph struct {
	edges  map[string]string
	roots  []string
	leaves []string
	single string
}

// Empty returns a graph without versions
func Empty() *Graph {
	return &Graph{edges: map[string]string{}}
}

// Single returns a graph made of one version and no edges
func Single(version string) *Graph {
	return &Graph{edges: map[string]string{}, single: version}
}

// FromList builds a linear chain v0 -> v1 -> ... -> vn.
// A list of one version yields a single-version graph; an empty list yields an empty graph.
func FromList(versions ...string) (*Graph, error) {
	switch len(versions) {
	case 0:
		return Empty(), nil
	case 1:
		if versions[0] == "" {
			return nil, InvalidGraph.New("version id cannot be empty")
		}
		return Single(versions[0]), nil
	}

	seen := make(map[string]bool, len(versions))
	for _, v := range versions {
		if v == "" {
			return nil, InvalidGraph.New("version id cannot be empty")
		}
		if seen[v] {
			return nil, InvalidGraph.New("duplicate version %s in chain %s", v, strings.Join(versions, " -> "))
		}
		seen[v] = true
	}

	edges := make([]Edge, 0, len(versions)-1)
	for i := 0; i < len(versions)-1; i++ {
		edges = append(edges, Edge{Source: versions[i], Destination: versions[i+1]})
	}
	return FromPairs(edges)
}

// FromMap builds a graph from a source to destination map
func FromMap(pairs map[string]string) (*Graph, error) {
	edges := make([]Edge, 0, len(pairs))
	for src, dst := range pairs {
		edges = append(edges, Edge{Source: src, Destination: dst})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Source < edges[j].Source })
	return FromPairs(edges)
}

// FromPairs builds a graph from explicit edges.
//
// It rejects empty version ids, self loops, two edges leaving the same version, two edges entering the
// same version and cycles.
func FromPairs(pairs []Edge) (*Graph, error) {
	edges := make(map[string]string, len(pairs))
	predecessors := make(map[string]string, len(pairs))

	for _, e := range pairs {
		if e.Source == "" || e.Destination == "" {
			return nil, InvalidGraph.New("version id cannot be empty in edge %q -> %q", e.Source, e.Destination)
		}
		if e.Source == e.Destination {
			return nil, InvalidGraph.New("version %s cannot migrate to itself", e.Source)
		}
		if dst, ok := edges[e.Source]; ok {
			return nil, InvalidGraph.New("version %s has two successors: %s and %s", e.Source, dst, e.Destination)
		}
		if src, ok := predecessors[e.Destination]; ok {
			return nil, InvalidGraph.New("version %s has two predecessors: %s and %s", e.Destination, src, e.Source)
		}
		edges[e.Source] = e.Destination
		predecessors[e.Destination] = e.Source
	}

	// a walk longer than the number of edges can only happen on a cycle
	for start := range edges {
		cur := start
		for steps := 0; ; steps++ {
			next, ok := edges[cur]
			if !ok {
				break
			}
			if steps >= len(edges) {
				return nil, InvalidGraph.New("cycle detected through version %s", start)
			}
			cur = next
		}
	}

	g := &Graph{edges: edges}
	for src := range edges {
		if _, ok := predecessors[src]; !ok {
			g.roots = append(g.roots, src)
		}
	}
	for dst := range predecessors {
		if _, ok := edges[dst]; !ok {
			g.leaves = append(g.leaves, dst)
		}
	}
	sort.Strings(g.roots)
	sort.Strings(g.leaves)

	return g, nil
}

// MustFromList is like FromList but panics on an invalid declaration
func MustFromList(versions ...string) *Graph {
	g, err := FromList(versions...)
	if err != nil {
		panic(err)
	}
	return g
}

// MustFromPairs is like FromPairs but panics on an invalid declaration
func MustFromPairs(pairs ...Edge) *Graph {
	g, err := FromPairs(pairs)
	if err != nil {
		panic(err)
	}
	return g
}

// Contains returns true if the version is part of the graph
func (g *Graph) Contains(version string) bool {
	if g == nil || version == "" {
		return false
	}
	if g.single == version {
		return true
	}
	if _, ok := g.edges[version]; ok {
		return true
	}
	for _, dst := range g.edges {
		if dst == version {
			return true
		}
	}
	return false
}

// NextVersion returns the successor of version
func (g *Graph) NextVersion(version string) (string, bool) {
	if g == nil {
		return "", false
	}
	next, ok := g.edges[version]
	return next, ok
}

// Roots returns the sorted versions that have a successor but no predecessor
func (g *Graph) Roots() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.roots...)
}

// Leaves returns the sorted versions that have a predecessor but no successor
func (g *Graph) Leaves() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.leaves...)
}

// Edges returns all edges sorted by source version
func (g *Graph) Edges() []Edge {
	if g == nil {
		return nil
	}
	out := make([]Edge, 0, len(g.edges))
	for src, dst := range g.edges {
		out = append(out, Edge{Source: src, Destination: dst})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Chains returns every linear chain of the graph, each from its root to its leaf, sorted by root
func (g *Graph) Chains() [][]string {
	var chains [][]string
	for _, root := range g.Roots() {
		c := []string{root}
		for next, ok := g.NextVersion(root); ok; next, ok = g.NextVersion(next) {
			c = append(c, next)
		}
		chains = append(chains, c)
	}
	return chains
}

// Len returns the number of edges
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.edges)
}

// IsEmpty returns true if the graph contains no version
func (g *Graph) IsEmpty() bool {
	return g.Len() == 0 && (g == nil || g.single == "")
}

// IsTrivial returns true if the graph declares no edge, which means no progressive chain was declared
func (g *Graph) IsTrivial() bool {
	return g.Len() == 0
}

// String renders the chains of the graph, e.g. "V1 -> V2 -> V3"
func (g *Graph) String() string {
	if g.IsEmpty() {
		return "<empty>"
	}
	if g.IsTrivial() {
		return g.single
	}
	parts := make([]string, 0)
	for _, c := range g.Chains() {
		parts = append(parts, strings.Join(c, " -> "))
	}
	return strings.Join(parts, "; ")
}
