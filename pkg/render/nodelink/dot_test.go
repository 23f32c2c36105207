package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/nmcanvas/pkg/diff"
	"github.com/matzehuels/nmcanvas/pkg/graph"
)

func base() *graph.Graph {
	return &graph.Graph{
		Version: "1",
		Nodes: []graph.Node{
			{ID: "r1", Kind: graph.NodeKindRoute, Label: "Public API"},
			{ID: "s1", Kind: graph.NodeKindService, Label: "Orders"},
			{ID: "old", Kind: graph.NodeKindBackend, Label: "Legacy DB"},
		},
		Edges: []graph.Edge{
			{ID: "e1", From: "r1", To: "s1", Kind: graph.EdgeKindRouteToService},
			{ID: "e2", From: "s1", To: "old", Kind: graph.EdgeKindServiceToBackend},
		},
	}
}

func head() *graph.Graph {
	return &graph.Graph{
		Version: "1",
		Nodes: []graph.Node{
			{ID: "r1", Kind: graph.NodeKindRoute, Label: "Public API v2"},
			{ID: "s1", Kind: graph.NodeKindService, Label: "Orders", Metadata: map[string]any{"replicas": 3}},
			{ID: "db", Kind: graph.NodeKindBackend},
		},
		Edges: []graph.Edge{
			{ID: "e1", From: "r1", To: "s1", Kind: graph.EdgeKindRouteToService},
			{ID: "e3", From: "s1", To: "db", Kind: graph.EdgeKindServiceToBackend},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(head(), Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=LR;",
		`"r1" [label="Public API v2", fillcolor="#dbeafe"];`,
		`"db" [label="db", fillcolor="#fef9c3"];`,
		`"r1" -> "s1" [label="route_to_service"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "penwidth") {
		t.Error("no overlay expected without changes")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(head(), Options{Detailed: true, Direction: "TB"})

	if !strings.Contains(dot, "rankdir=TB;") {
		t.Error("direction not applied")
	}
	if !strings.Contains(dot, `label="Orders\ns1 (service)\nreplicas: 3"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
}

func TestToDOTOverlay(t *testing.T) {
	b, h := base(), head()
	dot := ToDOT(h, Options{Changes: diff.Diff(b, h), Base: b})

	tests := []struct {
		name, want string
	}{
		{"added node", `"db" [label="db", fillcolor="#fef9c3", color="#16a34a", penwidth=2];`},
		{"updated node", `"r1" [label="Public API v2", fillcolor="#dbeafe", color="#ea580c", penwidth=2];`},
		{"removed node", `"old" [label="Legacy DB", fillcolor="#fef9c3", color="#dc2626", penwidth=2, style="rounded,filled,dashed"`},
		{"added edge", `"s1" -> "db" [label="service_to_backend", color="#16a34a", penwidth=2];`},
		{"removed edge", `"s1" -> "old" [label="service_to_backend", color="#dc2626", penwidth=2, style=dashed];`},
		{"unchanged edge", `"r1" -> "s1" [label="route_to_service"];`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(dot, tt.want) {
				t.Errorf("DOT missing %q:\n%s", tt.want, dot)
			}
		})
	}
}

func TestToDOTOverlayWithoutBase(t *testing.T) {
	b, h := base(), head()
	dot := ToDOT(h, Options{Changes: diff.Diff(b, h)})

	if strings.Contains(dot, `"old"`) {
		t.Error("removed node drawn without a base graph")
	}
}

func TestToDOTNilGraph(t *testing.T) {
	dot := ToDOT(nil, Options{})
	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("unexpected DOT:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))

	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if out != want {
		t.Errorf("got %s\nwant %s", out, want)
	}

	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should pass through")
	}
}
