// Package diff computes typed change-sets between two canonical graphs.
//
// Entities are matched by ID. For nodes and then edges, the head document is
// walked first to find additions and updates, then the base document to find
// removals:
//
//	results := diff.Diff(base, head)
//	// [{node-updated n1} {node-added n2} {edge-removed e3}]
//
// An entity is "updated" when its whole value differs by deep structural
// equality ([graph.Node.Equal], [graph.Edge.Equal]). When an ID occurs more
// than once in one document, the last occurrence is compared.
//
// Diff is total: nil documents are treated as empty and no error is returned.
package diff

import (
	"github.com/matzehuels/nmcanvas/pkg/graph"
)

// Type classifies a change.
type Type string

// Change types.
const (
	NodeAdded   Type = "node-added"
	NodeUpdated Type = "node-updated"
	NodeRemoved Type = "node-removed"
	EdgeAdded   Type = "edge-added"
	EdgeUpdated Type = "edge-updated"
	EdgeRemoved Type = "edge-removed"
)

// Types lists change types in result order.
var Types = []Type{NodeAdded, NodeUpdated, NodeRemoved, EdgeAdded, EdgeUpdated, EdgeRemoved}

// Result is one classified change for one entity ID.
type Result struct {
	Type    Type          `json:"type"`
	ID      string        `json:"id"`
	Details []FieldChange `json:"details,omitempty"`
}

// Options configures DiffWithOptions.
type Options struct {
	// Details populates Result.Details for updated entities.
	Details bool
}

// Diff returns the changes that turn base into head.
func Diff(base, head *graph.Graph) []Result {
	return DiffWithOptions(base, head, Options{})
}

// DiffWithOptions is Diff with field-level details on request.
func DiffWithOptions(base, head *graph.Graph, opts Options) []Result {
	results := make([]Result, 0)
	results = appendChanges(results, graph.NodeIndex(base), graph.NodeIndex(head),
		NodeAdded, NodeUpdated, NodeRemoved, graph.Node.Equal, nodeFields, opts)
	results = appendChanges(results, graph.EdgeIndex(base), graph.EdgeIndex(head),
		EdgeAdded, EdgeUpdated, EdgeRemoved, graph.Edge.Equal, edgeFields, opts)
	return results
}

func appendChanges[T any](
	out []Result,
	base, head *graph.Index[T],
	added, updated, removed Type,
	equal func(T, T) bool,
	fields func(T) map[string]any,
	opts Options,
) []Result {
	for _, id := range head.IDs() {
		h, _ := head.Get(id)
		b, ok := base.Get(id)
		switch {
		case !ok:
			out = append(out, Result{Type: added, ID: id})
		case !equal(b, h):
			r := Result{Type: updated, ID: id}
			if opts.Details {
				r.Details = compareFields(fields(b), fields(h))
			}
			out = append(out, r)
		}
	}
	for _, id := range base.IDs() {
		if !head.Has(id) {
			out = append(out, Result{Type: removed, ID: id})
		}
	}
	return out
}

// Summary counts results by type.
func Summary(results []Result) map[Type]int {
	counts := make(map[Type]int, len(Types))
	for _, r := range results {
		counts[r.Type]++
	}
	return counts
}

// Filter returns the results whose type is one of types.
func Filter(results []Result, types ...Type) []Result {
	want := make(map[Type]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []Result
	for _, r := range results {
		if want[r.Type] {
			out = append(out, r)
		}
	}
	return out
}

// Changed returns the IDs touched by results, keyed by change type. Renderers
// use it to highlight entities.
func Changed(results []Result) map[Type]map[string]bool {
	out := make(map[Type]map[string]bool)
	for _, r := range results {
		if out[r.Type] == nil {
			out[r.Type] = make(map[string]bool)
		}
		out[r.Type][r.ID] = true
	}
	return out
}
