// Package fixture implements a dependency source backed by a local JSON test
// graph.
//
// The file format is a single JSON object mapping package identifiers to
// arrays of dependency identifiers:
//
//	{"A": ["B", "C"], "B": ["C"], "C": []}
//
// Fixture graphs may contain cycles; the graph builder and tree renderer are
// responsible for handling them.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"deptree/pkg/source"
)

// Source resolves identifiers against an in-memory test graph loaded from a
// JSON file. Resolution never fails: identifiers absent from the graph have
// no dependencies.
type Source struct {
	graph map[string][]string
	path  string
}

// Load reads and validates a test graph file. It fails if the file is
// missing or is not a JSON object of string-to-string-array entries.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("test graph file not found: %s", path)
		}
		return nil, fmt.Errorf("read test graph: %w", err)
	}

	var graph map[string][]string
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("load test graph %s: %w", path, err)
	}

	return &Source{graph: graph, path: path}, nil
}

// Resolve returns the fixture's dependency list for id. Unknown identifiers
// resolve to no dependencies.
func (s *Source) Resolve(ctx context.Context, id string) ([]string, error) {
	return slices.Clone(s.graph[id]), nil
}

// Has reports whether id is a key in the test graph. The CLI uses this to
// reject root packages that are not part of the fixture.
func (s *Source) Has(id string) bool {
	_, ok := s.graph[id]
	return ok
}

// Name returns "fixture".
func (s *Source) Name() string { return "fixture" }

var _ source.Source = (*Source)(nil)
