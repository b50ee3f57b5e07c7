// Package tree renders dependency trees as indented, cycle-annotated ASCII.
//
// Rendering works against any dependency lookup: a live source (each visit
// may re-fetch) or a previously built [deptree/pkg/graph.Graph] (no I/O
// during rendering). Output is deterministic for a fixed lookup: children
// appear in lookup order and repeated renders are byte-identical.
package tree

import (
	"fmt"
	"io"
	"slices"

	"deptree/pkg/filter"
)

// Connector glyphs and indentation units. The prefix grows by one 4-column
// unit per level: a pass-through bar under an earlier sibling, blank space
// under a last sibling.
const (
	connectorMid  = "├── "
	connectorLast = "└── "
	extendMid     = "│   "
	extendLast    = "    "

	// CycleMarker annotates a back-edge to an ancestor. The node is printed
	// once with this suffix and never expanded.
	CycleMarker = " (.cycle.)"
)

// LookupFunc returns the ordered direct dependencies of id. Failures are
// treated as "no dependencies" at the point of use and never abort
// rendering.
type LookupFunc func(id string) ([]string, error)

// Render writes the dependency tree rooted at root to w.
//
// The root line is the bare identifier; descendants are prefixed with
// connector glyphs. A node whose identifier matches f contributes no output
// at all, its subtree included. Note the asymmetry with the graph builder,
// which records filtered nodes as stubs; the renderer omits them entirely.
// The last-child connector is chosen after filtering. A node already present on the current
// root-to-parent path is printed once with [CycleMarker] and not expanded.
//
// The only errors returned are write failures on w.
func Render(w io.Writer, root string, lookup LookupFunc, f filter.Substring) error {
	if f.Excludes(root) {
		return nil
	}
	if _, err := fmt.Fprintln(w, root); err != nil {
		return err
	}
	return renderChildren(w, root, lookup, f, []string{root}, "")
}

// renderChildren looks up and renders the children of id under the given
// accumulated prefix. path holds the identifiers from the root to id,
// inclusive.
func renderChildren(w io.Writer, id string, lookup LookupFunc, f filter.Substring, path []string, prefix string) error {
	deps, err := lookup(id)
	if err != nil {
		deps = nil
	}
	deps = slices.DeleteFunc(slices.Clone(deps), f.Excludes)

	for i, child := range deps {
		last := i == len(deps)-1
		if err := renderNode(w, child, lookup, f, path, prefix, last); err != nil {
			return err
		}
	}
	return nil
}

// renderNode renders one non-root node and recurses into its subtree.
func renderNode(w io.Writer, id string, lookup LookupFunc, f filter.Substring, path []string, prefix string, last bool) error {
	connector := connectorMid
	extend := extendMid
	if last {
		connector = connectorLast
		extend = extendLast
	}

	if slices.Contains(path, id) {
		_, err := fmt.Fprintln(w, prefix+connector+id+CycleMarker)
		return err
	}
	if _, err := fmt.Fprintln(w, prefix+connector+id); err != nil {
		return err
	}

	childPath := append(slices.Clip(path), id)
	return renderChildren(w, id, lookup, f, childPath, prefix+extend)
}
