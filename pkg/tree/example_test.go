package tree_test

import (
	"os"

	"deptree/pkg/filter"
	"deptree/pkg/tree"
)

func ExampleRender() {
	deps := map[string][]string{
		"A": {"B", "C"},
		"B": {"C"},
	}
	lookup := func(id string) ([]string, error) { return deps[id], nil }

	tree.Render(os.Stdout, "A", lookup, "")
	// Output:
	// A
	// ├── B
	// │   └── C
	// └── C
}

func ExampleRender_cycle() {
	deps := map[string][]string{
		"A": {"B"},
		"B": {"A"},
	}
	lookup := func(id string) ([]string, error) { return deps[id], nil }

	tree.Render(os.Stdout, "A", lookup, "")
	// Output:
	// A
	// └── B
	//     └── A (.cycle.)
}

func ExampleRender_filter() {
	deps := map[string][]string{
		"A": {"B", "C"},
		"B": {"C"},
	}
	lookup := func(id string) ([]string, error) { return deps[id], nil }

	tree.Render(os.Stdout, "A", lookup, filter.Substring("C"))
	// Output:
	// A
	// └── B
}
