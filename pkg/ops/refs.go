package ops

import (
	"fmt"

	"github.com/matzehuels/nmcanvas/pkg/errors"
	"github.com/matzehuels/nmcanvas/pkg/graph"
)

// CheckReferences reports every edge endpoint that does not name an existing
// node. Findings are DANGLING_REFERENCE warnings with Index -1, in edge order.
func CheckReferences(g *graph.Graph) []Warning {
	if g == nil {
		return nil
	}
	nodes := graph.NodeIndex(g)

	var out []Warning
	for _, e := range g.Edges {
		for _, end := range []struct{ name, id string }{{"from", e.From}, {"to", e.To}} {
			if nodes.Has(end.id) {
				continue
			}
			out = append(out, Warning{
				Index:   -1,
				Code:    errors.ErrCodeDanglingReference,
				ID:      e.ID,
				Message: fmt.Sprintf("edge %q: %s %q does not match any node", e.ID, end.name, end.id),
			})
		}
	}
	return out
}
