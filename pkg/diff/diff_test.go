package diff

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/matzehuels/nmcanvas/pkg/graph"
	"github.com/matzehuels/nmcanvas/pkg/ops"
)

func sample() *graph.Graph {
	return &graph.Graph{
		Version: "1.0.0",
		Nodes: []graph.Node{
			{ID: "r1", Kind: graph.NodeKindRoute, Label: "Public API"},
			{ID: "s1", Kind: graph.NodeKindService, Label: "Orders", Metadata: map[string]any{"replicas": 3, "tags": []any{"a"}}},
			{ID: "b1", Kind: graph.NodeKindBackend, Label: "Postgres"},
		},
		Edges: []graph.Edge{
			{ID: "e1", From: "r1", To: "s1", Kind: graph.EdgeKindRouteToService},
			{ID: "e2", From: "s1", To: "b1", Kind: graph.EdgeKindServiceToBackend, Constraints: map[string]any{"pool": 10}},
		},
	}
}

func types(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = string(r.Type) + ":" + r.ID
	}
	return out
}

func TestDiffSelfIsEmpty(t *testing.T) {
	g := sample()
	if got := Diff(g, g); len(got) != 0 {
		t.Errorf("Diff(g, g) = %v, want empty", got)
	}
	if got := Diff(g, g.Clone()); len(got) != 0 {
		t.Errorf("Diff(g, clone) = %v, want empty", got)
	}
	if got := Diff(nil, nil); got == nil || len(got) != 0 {
		t.Errorf("Diff(nil, nil) = %#v, want empty non-nil", got)
	}
}

func TestDiffOrdering(t *testing.T) {
	base := sample()
	head := sample()

	head.Nodes = append(head.Nodes[:2], graph.Node{ID: "p1", Kind: graph.NodeKindPolicy, Label: "RateLimit"})
	head.Nodes[0].Label = "Edge API"
	head.Edges[1].Constraints = map[string]any{"pool": 20}
	head.Edges = append(head.Edges[1:], graph.Edge{ID: "e3", From: "p1", To: "s1", Kind: graph.EdgeKindCondition})

	want := []string{
		"node-updated:r1",
		"node-added:p1",
		"node-removed:b1",
		"edge-updated:e2",
		"edge-added:e3",
		"edge-removed:e1",
	}
	if got := types(Diff(base, head)); !reflect.DeepEqual(got, want) {
		t.Errorf("Diff =\n%v\nwant\n%v", got, want)
	}
}

func TestDiffSymmetry(t *testing.T) {
	a := sample()
	b := sample()
	b.Nodes = append(b.Nodes[1:], graph.Node{ID: "t1", Kind: graph.NodeKindTransform})
	b.Edges = b.Edges[:1]

	inverse := map[Type]Type{
		NodeAdded: NodeRemoved, NodeRemoved: NodeAdded,
		EdgeAdded: EdgeRemoved, EdgeRemoved: EdgeAdded,
		NodeUpdated: NodeUpdated, EdgeUpdated: EdgeUpdated,
	}

	forward := Diff(a, b)
	backward := map[string]bool{}
	for _, key := range types(Diff(b, a)) {
		backward[key] = true
	}
	if len(forward) != len(backward) {
		t.Fatalf("forward %v and backward %v differ in size", forward, backward)
	}
	for _, r := range forward {
		if !backward[string(inverse[r.Type])+":"+r.ID] {
			t.Errorf("%s %s has no inverse", r.Type, r.ID)
		}
	}
}

func TestDiffNestedChanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *graph.Graph)
		want   []string
	}{
		{"nested slice element", func(g *graph.Graph) { g.Nodes[1].Metadata["tags"] = []any{"b"} }, []string{"node-updated:s1"}},
		{"number representation only", func(g *graph.Graph) { g.Nodes[1].Metadata["replicas"] = json.Number("3") }, nil},
		{"empty vs nil metadata", func(g *graph.Graph) { g.Nodes[0].Metadata = map[string]any{} }, nil},
		{"constraint added", func(g *graph.Graph) { g.Edges[0].Constraints = map[string]any{"x": true} }, []string{"edge-updated:e1"}},
		{"edge endpoint", func(g *graph.Graph) { g.Edges[0].To = "b1" }, []string{"edge-updated:e1"}},
		{"reordering only", func(g *graph.Graph) { g.Nodes[0], g.Nodes[2] = g.Nodes[2], g.Nodes[0] }, nil},
		{"document metadata ignored", func(g *graph.Graph) { g.Metadata = &graph.GraphMetadata{Version: "9"} }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := sample()
			head := base.Clone()
			tt.mutate(head)
			got := types(Diff(base, head))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Diff = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiffDuplicateIDsLastWins(t *testing.T) {
	base := &graph.Graph{Nodes: []graph.Node{{ID: "a", Label: "x"}}}
	head := &graph.Graph{Nodes: []graph.Node{{ID: "a", Label: "y"}, {ID: "b"}, {ID: "a", Label: "x"}}}

	want := []string{"node-added:b"}
	if got := types(Diff(base, head)); !reflect.DeepEqual(got, want) {
		t.Errorf("Diff = %v, want %v", got, want)
	}
}

func TestDiffScenario(t *testing.T) {
	original := &graph.Graph{Nodes: []graph.Node{{ID: "n1", Kind: "Route", Label: "R1"}}, Edges: []graph.Edge{}}

	result, _, err := ops.Apply(original.Clone(), []ops.Operation{
		ops.UpdateNode("n1", map[string]any{"label": "R1-renamed"}),
		ops.AddNode(graph.Node{ID: "n2", Kind: "Service", Label: "S1"}),
	}, ops.Options{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := []Result{{Type: NodeUpdated, ID: "n1"}, {Type: NodeAdded, ID: "n2"}}
	if got := Diff(original, result); !reflect.DeepEqual(got, want) {
		t.Errorf("Diff = %+v, want %+v", got, want)
	}
}

func TestDiffIdempotentUpdate(t *testing.T) {
	original := sample()
	g := original.Clone()
	update := ops.UpdateNode("r1", map[string]any{"label": "L"})

	for range 2 {
		if _, _, err := ops.Apply(g, []ops.Operation{update}, ops.Options{}); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}

	want := []Result{{Type: NodeUpdated, ID: "r1"}}
	if got := Diff(original, g); !reflect.DeepEqual(got, want) {
		t.Errorf("Diff = %+v, want %+v", got, want)
	}
}

func TestDiffDetails(t *testing.T) {
	base := sample()
	head := base.Clone()
	head.Nodes[1].Label = "Orders v2"
	head.Nodes[1].Metadata = nil
	head.Nodes[1].Doc = "docs/orders.md"

	results := DiffWithOptions(base, head, Options{Details: true})
	if len(results) != 1 {
		t.Fatalf("results = %+v", results)
	}

	fields := make([]string, len(results[0].Details))
	for i, c := range results[0].Details {
		fields[i] = c.Field
	}
	if want := []string{"doc", "label", "metadata"}; !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}

	label := results[0].Details[1]
	if label.Before != "Orders" || label.After != "Orders v2" {
		t.Errorf("label change = %+v", label)
	}
	if doc := results[0].Details[0]; doc.Before != nil || doc.After != "docs/orders.md" {
		t.Errorf("doc change = %+v", doc)
	}

	if plain := Diff(base, head); plain[0].Details != nil {
		t.Error("Diff should not populate details")
	}
}

func TestSummaryAndFilter(t *testing.T) {
	results := []Result{
		{Type: NodeAdded, ID: "a"},
		{Type: NodeAdded, ID: "b"},
		{Type: EdgeRemoved, ID: "e"},
	}

	s := Summary(results)
	if s[NodeAdded] != 2 || s[EdgeRemoved] != 1 || s[NodeUpdated] != 0 {
		t.Errorf("Summary = %v", s)
	}

	if got := Filter(results, EdgeRemoved, EdgeAdded); len(got) != 1 || got[0].ID != "e" {
		t.Errorf("Filter = %v", got)
	}

	changed := Changed(results)
	if !changed[NodeAdded]["b"] || changed[NodeRemoved]["a"] {
		t.Errorf("Changed = %v", changed)
	}
}
