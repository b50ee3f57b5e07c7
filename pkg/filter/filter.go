// Package filter provides the substring exclusion predicate shared by the
// graph builder and the tree renderer.
//
// A single [Substring] value is supplied once per invocation and applied
// identically wherever package identifiers are considered, so that the
// materialized graph and the rendered tree always agree on what is excluded.
package filter

import "strings"

// Substring excludes identifiers containing it. The empty string excludes
// nothing.
type Substring string

// Excludes reports whether id should be excluded: the filter is non-empty and
// id contains it. Matching is exact substring matching on the raw identifier
// text; no normalization is performed.
func (s Substring) Excludes(id string) bool {
	return s != "" && strings.Contains(id, string(s))
}

// IsZero reports whether the filter excludes nothing.
func (s Substring) IsZero() bool { return s == "" }
