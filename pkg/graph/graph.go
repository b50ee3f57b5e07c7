// Package graph materializes dependency graphs by iterative traversal over a
// dependency source.
//
// A [Graph] maps every visited package identifier to its ordered list of
// direct dependencies. [Build] constructs one from a root identifier and a
// resolve function, skipping already-visited nodes so that cyclic sources
// terminate, and downgrading per-node resolution failures to empty dependency
// lists so that a partial graph is always produced.
package graph

import "slices"

// Graph is an insertion-ordered mapping from visited package identifier to
// its ordered direct-dependency list.
//
// A Graph is append-only while being built and is owned exclusively by the
// building call until [Build] returns. It is not safe for concurrent
// mutation; concurrent reads after construction are fine.
type Graph struct {
	order []string
	deps  map[string][]string
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{deps: make(map[string][]string)}
}

// add records id with its dependency list. The first record for an id wins;
// later calls for the same id are ignored.
func (g *Graph) add(id string, deps []string) {
	if _, ok := g.deps[id]; ok {
		return
	}
	g.order = append(g.order, id)
	g.deps[id] = deps
}

// Has reports whether id was visited during the build.
func (g *Graph) Has(id string) bool {
	_, ok := g.deps[id]
	return ok
}

// Deps returns the recorded direct dependencies of id in source order.
// Unknown identifiers yield nil.
func (g *Graph) Deps(id string) []string {
	return slices.Clone(g.deps[id])
}

// IDs returns all visited identifiers in the order they were first visited.
func (g *Graph) IDs() []string {
	return slices.Clone(g.order)
}

// Len returns the number of visited identifiers.
func (g *Graph) Len() int { return len(g.deps) }

// EdgeCount returns the total number of recorded dependency edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, d := range g.deps {
		n += len(d)
	}
	return n
}

// Lookup adapts the graph to the tree renderer's lookup contract. It is a
// pure in-memory lookup and never fails; unknown identifiers yield no
// dependencies.
func (g *Graph) Lookup(id string) ([]string, error) {
	return g.Deps(id), nil
}
