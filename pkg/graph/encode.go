package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// Doc is the canonical serialization format for built graphs, used by the
// export command and the HTTP API. Nodes are sorted by ID for deterministic
// output regardless of traversal order.
type Doc struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a serialized graph node.
type Node struct {
	ID string `json:"id"`
}

// Edge is a serialized directed dependency.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ToDoc converts a Graph to its serialization format. Nodes are sorted by
// ID; edges keep the per-node dependency order grouped by sorted source
// node.
func ToDoc(g *Graph) Doc {
	ids := g.IDs()
	slices.Sort(ids)

	doc := Doc{Nodes: make([]Node, len(ids))}
	for i, id := range ids {
		doc.Nodes[i] = Node{ID: id}
		for _, dep := range g.Deps(id) {
			doc.Edges = append(doc.Edges, Edge{From: id, To: dep})
		}
	}
	return doc
}

// Marshal serializes a Graph to indented JSON bytes.
func Marshal(g *Graph) ([]byte, error) {
	return json.MarshalIndent(ToDoc(g), "", "  ")
}

// Write serializes a Graph as JSON to w.
func Write(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToDoc(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
