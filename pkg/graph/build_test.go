package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"deptree/pkg/filter"
)

// mapResolver resolves from a static adjacency map, recording visit order.
// Identifiers listed in fail return an error instead.
func mapResolver(m map[string][]string, fail map[string]bool, calls *[]string) ResolveFunc {
	return func(ctx context.Context, id string) ([]string, error) {
		if calls != nil {
			*calls = append(*calls, id)
		}
		if fail[id] {
			return nil, errors.New("boom")
		}
		return m[id], nil
	}
}

func TestBuildAcyclic(t *testing.T) {
	m := map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"D"},
		"D": {},
	}
	var calls []string
	g := Build(context.Background(), "A", mapResolver(m, nil, &calls), Options{})

	wantIDs := []string{"A", "B", "D", "C"}
	if got := g.IDs(); !slices.Equal(got, wantIDs) {
		t.Errorf("IDs() = %v, want %v", got, wantIDs)
	}

	// Every reachable node resolved exactly once.
	if !slices.Equal(calls, wantIDs) {
		t.Errorf("resolve calls = %v, want %v", calls, wantIDs)
	}

	for id, deps := range m {
		if got := g.Deps(id); !slices.Equal(got, deps) {
			t.Errorf("Deps(%s) = %v, want %v", id, got, deps)
		}
	}
	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount() = %d, want 4", g.EdgeCount())
	}
}

func TestBuildSiblingOrder(t *testing.T) {
	// Children must be visited left to right relative to their siblings,
	// depth-first: A, X, X1, Y, Z.
	m := map[string][]string{
		"A": {"X", "Y", "Z"},
		"X": {"X1"},
	}
	var calls []string
	Build(context.Background(), "A", mapResolver(m, nil, &calls), Options{})

	want := []string{"A", "X", "X1", "Y", "Z"}
	if !slices.Equal(calls, want) {
		t.Errorf("visit order = %v, want %v", calls, want)
	}
}

func TestBuildCycle(t *testing.T) {
	tests := []struct {
		name string
		m    map[string][]string
		root string
		want []string
	}{
		{
			name: "SelfCycle",
			m:    map[string][]string{"A": {"A"}},
			root: "A",
			want: []string{"A"},
		},
		{
			name: "TwoNodeCycle",
			m:    map[string][]string{"A": {"B"}, "B": {"A"}},
			root: "A",
			want: []string{"A", "B"},
		},
		{
			name: "LongCycle",
			m:    map[string][]string{"A": {"B"}, "B": {"C"}, "C": {"A"}},
			root: "A",
			want: []string{"A", "B", "C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Build(context.Background(), tt.root, mapResolver(tt.m, nil, nil), Options{})
			if got := g.IDs(); !slices.Equal(got, tt.want) {
				t.Errorf("IDs() = %v, want %v", got, tt.want)
			}
			// Back-edges stay recorded even though the target is not re-expanded.
			for id, deps := range tt.m {
				if got := g.Deps(id); !slices.Equal(got, deps) {
					t.Errorf("Deps(%s) = %v, want %v", id, got, deps)
				}
			}
		})
	}
}

func TestBuildFirstPopWins(t *testing.T) {
	// D is reachable via B and C; it must be resolved only once and keep
	// the dependency list from its first visit.
	m := map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"D"},
		"D": {"E"},
		"E": {},
	}
	var calls []string
	g := Build(context.Background(), "A", mapResolver(m, nil, &calls), Options{})

	resolvedD := 0
	for _, id := range calls {
		if id == "D" {
			resolvedD++
		}
	}
	if resolvedD != 1 {
		t.Errorf("D resolved %d times, want 1", resolvedD)
	}
	if got := g.Deps("D"); !slices.Equal(got, []string{"E"}) {
		t.Errorf("Deps(D) = %v, want [E]", got)
	}
}

func TestBuildFilter(t *testing.T) {
	m := map[string][]string{
		"A":    {"B", "BAD", "C"},
		"B":    {"C"},
		"C":    {},
		"BAD":  {"C"},
		"BADX": {},
	}
	var calls []string
	g := Build(context.Background(), "A", mapResolver(m, nil, &calls), Options{
		Filter: filter.Substring("BAD"),
	})

	// Matching children are removed from the recorded list.
	if got := g.Deps("A"); !slices.Equal(got, []string{"B", "C"}) {
		t.Errorf("Deps(A) = %v, want [B C]", got)
	}
	// Filtered children are never descended into.
	if slices.Contains(calls, "BAD") {
		t.Error("filtered dependency BAD was resolved")
	}
	if g.Has("BAD") {
		t.Error("filtered dependency BAD appears in the graph")
	}
}

func TestBuildFilteredRootIsStub(t *testing.T) {
	// A filtered node that is itself reached is recorded as a stub with no
	// dependencies, and its subtree is never explored.
	m := map[string][]string{
		"BAD": {"B"},
		"B":   {},
	}
	var calls []string
	g := Build(context.Background(), "BAD", mapResolver(m, nil, &calls), Options{
		Filter: filter.Substring("BAD"),
	})

	if !g.Has("BAD") {
		t.Fatal("filtered root missing from graph")
	}
	if got := g.Deps("BAD"); len(got) != 0 {
		t.Errorf("Deps(BAD) = %v, want empty", got)
	}
	if len(calls) != 0 {
		t.Errorf("resolver called %d times for a filtered root, want 0", len(calls))
	}
}

func TestBuildResolveFailure(t *testing.T) {
	m := map[string][]string{
		"A": {"B", "C"},
		"C": {"D"},
		"D": {},
	}
	var logged []string
	g := Build(context.Background(), "A",
		mapResolver(m, map[string]bool{"B": true}, nil),
		Options{Logger: func(format string, args ...any) {
			logged = append(logged, fmt.Sprintf(format, args...))
		}})

	// The failing node is recorded with no dependencies and traversal
	// continues past it.
	if got := g.Deps("B"); len(got) != 0 {
		t.Errorf("Deps(B) = %v, want empty", got)
	}
	if !g.Has("C") || !g.Has("D") {
		t.Error("traversal aborted after a per-node failure")
	}
	if len(logged) != 1 {
		t.Errorf("logged %d diagnostics, want 1", len(logged))
	}
}

func TestBuildRootFailure(t *testing.T) {
	g := Build(context.Background(), "A",
		mapResolver(nil, map[string]bool{"A": true}, nil), Options{})

	if !g.Has("A") {
		t.Fatal("root missing from graph")
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}

func TestBuildMaxDepth(t *testing.T) {
	m := map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"D"},
		"D": {},
	}
	g := Build(context.Background(), "A", mapResolver(m, nil, nil), Options{MaxDepth: 1})

	// Depth 0 is the root, depth 1 is B; B's list is recorded but C is
	// never visited.
	if !g.Has("B") {
		t.Error("B should be visited at depth 1")
	}
	if g.Has("C") {
		t.Error("C should be beyond the depth limit")
	}
	if got := g.Deps("B"); !slices.Equal(got, []string{"C"}) {
		t.Errorf("Deps(B) = %v, want [C]", got)
	}
}

func TestBuildMaxNodes(t *testing.T) {
	// A wide fan-out capped at 3 visited nodes.
	m := map[string][]string{
		"A": {"B", "C", "D", "E", "F"},
	}
	g := Build(context.Background(), "A", mapResolver(m, nil, nil), Options{MaxNodes: 3})

	if g.Len() > 3 {
		t.Errorf("Len() = %d, want <= 3", g.Len())
	}
	if !g.Has("A") {
		t.Error("root must always be visited")
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()
	if opts.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", opts.MaxDepth, DefaultMaxDepth)
	}
	if opts.MaxNodes != DefaultMaxNodes {
		t.Errorf("MaxNodes = %d, want %d", opts.MaxNodes, DefaultMaxNodes)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a no-op")
	}

	custom := Options{MaxDepth: 3, MaxNodes: 10}.WithDefaults()
	if custom.MaxDepth != 3 || custom.MaxNodes != 10 {
		t.Error("WithDefaults must not override explicit values")
	}
}
