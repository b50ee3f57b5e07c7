package graph

import (
	"context"
	"slices"

	"deptree/pkg/filter"
)

const (
	DefaultMaxDepth = 50   // Default maximum dependency depth
	DefaultMaxNodes = 5000 // Default maximum packages to visit
)

// ResolveFunc resolves a package identifier to its ordered direct-dependency
// identifiers. It may fail per call; [Build] treats any failure as "no
// dependencies available" for that node.
type ResolveFunc func(ctx context.Context, id string) ([]string, error)

// Options configures graph construction.
type Options struct {
	MaxDepth int                  // Maximum depth to traverse (default: 50)
	MaxNodes int                  // Maximum packages to visit (default: 5000)
	Filter   filter.Substring     // Identifiers containing this are recorded as stubs
	Logger   func(string, ...any) // Diagnostic callback for swallowed errors (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Build materializes the dependency graph reachable from root.
//
// Traversal is iterative and stack-based. Children are pushed in reverse
// order so that popping visits siblings left to right, mirroring a
// depth-first visit; this ordering is what makes rendered output
// reproducible. A node is marked visited the moment it is popped, before its
// dependencies are resolved, so a cycle back to an in-progress node is
// skipped rather than re-expanded. The first visit of a node wins;
// dependency lists are never merged across discovery paths.
//
// Identifiers matching opts.Filter are recorded with an empty dependency
// list and not descended into. Non-matching nodes have matching dependencies
// removed from their recorded lists. Nodes past the depth or node budget are
// likewise recorded as unexpanded stubs.
//
// Resolution failures never abort the build: the failing node is recorded
// with no dependencies and the error goes to opts.Logger only.
func Build(ctx context.Context, root string, resolve ResolveFunc, opts Options) *Graph {
	opts = opts.WithDefaults()
	g := New()

	type item struct {
		id    string
		depth int
	}
	stack := []item{{id: root}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if g.Has(cur.id) {
			continue
		}

		if opts.Filter.Excludes(cur.id) {
			g.add(cur.id, nil)
			continue
		}

		deps, err := resolve(ctx, cur.id)
		if err != nil {
			opts.Logger("resolve failed: %s: %v", cur.id, err)
			g.add(cur.id, nil)
			continue
		}

		deps = slices.DeleteFunc(slices.Clone(deps), opts.Filter.Excludes)
		g.add(cur.id, deps)

		if cur.depth >= opts.MaxDepth {
			continue
		}
		for i := len(deps) - 1; i >= 0; i-- {
			if g.Len()+len(stack) >= opts.MaxNodes {
				break
			}
			stack = append(stack, item{id: deps[i], depth: cur.depth + 1})
		}
	}

	return g
}
