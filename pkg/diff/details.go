package diff

import (
	"sort"

	"github.com/matzehuels/nmcanvas/pkg/graph"
)

// FieldChange describes one top-level field that differs between the base
// and head version of an entity. Before or After is nil when the field is
// absent on that side.
type FieldChange struct {
	Field  string `json:"field"`
	Before any    `json:"before,omitempty"`
	After  any    `json:"after,omitempty"`
}

func nodeFields(n graph.Node) map[string]any {
	m := map[string]any{"id": n.ID, "kind": string(n.Kind), "label": n.Label}
	if len(n.Metadata) > 0 {
		m["metadata"] = n.Metadata
	}
	if n.Doc != "" {
		m["doc"] = n.Doc
	}
	return m
}

func edgeFields(e graph.Edge) map[string]any {
	m := map[string]any{"id": e.ID, "from": e.From, "to": e.To, "kind": string(e.Kind)}
	if len(e.Constraints) > 0 {
		m["constraints"] = e.Constraints
	}
	return m
}

// compareFields lists the fields whose values differ, sorted by name.
func compareFields(before, after map[string]any) []FieldChange {
	var out []FieldChange
	for k, b := range before {
		a, ok := after[k]
		if !ok || !graph.DeepEqual(b, a) {
			out = append(out, FieldChange{Field: k, Before: b, After: a})
		}
	}
	for k, a := range after {
		if _, ok := before[k]; !ok {
			out = append(out, FieldChange{Field: k, After: a})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
