// Package source defines the dependency source capability consumed by the
// graph builder and tree renderer, and the sentinel errors shared by its
// implementations.
//
// Implementations live in the subpackages: [deptree/pkg/source/maven]
// resolves against a Maven repository over HTTP, and
// [deptree/pkg/source/fixture] resolves against a local JSON test graph.
package source

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a package does not exist in the repository.
	ErrNotFound = errors.New("package not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors,
	// 5xx responses).
	ErrNetwork = errors.New("network error")
)

// Source resolves a package identifier to its ordered direct-dependency
// identifiers. Resolve may fail per call; callers below the root treat any
// failure as "no dependencies available".
type Source interface {
	// Resolve returns the direct dependencies of id in repository order.
	Resolve(ctx context.Context, id string) ([]string, error)
	// Name returns the source's identifier (e.g., "maven", "fixture").
	Name() string
}

// Func adapts a plain function to the Source interface. It is mostly useful
// in tests.
type Func func(ctx context.Context, id string) ([]string, error)

// Resolve calls the wrapped function.
func (f Func) Resolve(ctx context.Context, id string) ([]string, error) { return f(ctx, id) }

// Name returns "func".
func (f Func) Name() string { return "func" }
