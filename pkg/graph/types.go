package graph

import (
	"bytes"
	"encoding/json"
	"maps"
)

// =============================================================================
// Kinds
// =============================================================================

// NodeKind classifies a node in the topology.
type NodeKind string

// Node kinds as they appear on the wire.
const (
	NodeKindRoute     NodeKind = "route"
	NodeKindService   NodeKind = "service"
	NodeKindBackend   NodeKind = "backend"
	NodeKindPolicy    NodeKind = "policy"
	NodeKindTransform NodeKind = "transform"
)

// NodeKinds lists every known node kind in declaration order.
var NodeKinds = []NodeKind{
	NodeKindRoute,
	NodeKindService,
	NodeKindBackend,
	NodeKindPolicy,
	NodeKindTransform,
}

// Known reports whether k is one of the declared node kinds.
func (k NodeKind) Known() bool {
	for _, known := range NodeKinds {
		if k == known {
			return true
		}
	}
	return false
}

// EdgeKind classifies the relationship an edge expresses.
type EdgeKind string

// Edge kinds as they appear on the wire.
const (
	EdgeKindRouteToService   EdgeKind = "route_to_service"
	EdgeKindServiceToBackend EdgeKind = "service_to_backend"
	EdgeKindDependsOn        EdgeKind = "depends_on"
	EdgeKindCondition        EdgeKind = "condition"
)

// EdgeKinds lists every known edge kind in declaration order.
var EdgeKinds = []EdgeKind{
	EdgeKindRouteToService,
	EdgeKindServiceToBackend,
	EdgeKindDependsOn,
	EdgeKindCondition,
}

// Known reports whether k is one of the declared edge kinds.
func (k EdgeKind) Known() bool {
	for _, known := range EdgeKinds {
		if k == known {
			return true
		}
	}
	return false
}

// =============================================================================
// Graph - Canonical Document
// =============================================================================

// Graph is the canonical graph document: the unit of persistence and the
// unit of diff comparison.
//
// Node and edge order is insertion order. It is preserved across mutation
// but is not significant for equality or diffing; identity is by ID.
type Graph struct {
	Version  string         `json:"version"`
	Nodes    []Node         `json:"nodes"`
	Edges    []Edge         `json:"edges"`
	Metadata *GraphMetadata `json:"metadata,omitempty"`
}

// NodeCount returns the number of entries in the node sequence, duplicates included.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of entries in the edge sequence, duplicates included.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// Clone returns a deep copy of g. Mapping fields are copied recursively so
// the clone can be mutated without affecting g.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := &Graph{Version: g.Version}
	if g.Nodes != nil {
		out.Nodes = make([]Node, len(g.Nodes))
		for i, n := range g.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}
	if g.Edges != nil {
		out.Edges = make([]Edge, len(g.Edges))
		for i, e := range g.Edges {
			out.Edges[i] = e.Clone()
		}
	}
	if g.Metadata != nil {
		m := g.Metadata.Clone()
		out.Metadata = &m
	}
	return out
}

// =============================================================================
// Node
// =============================================================================

// Node is a single element of the topology.
type Node struct {
	ID       string         `json:"id"`
	Kind     NodeKind       `json:"kind"`
	Label    string         `json:"label"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Doc      string         `json:"doc,omitempty"` // reference to a markdown sidecar
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Metadata = CloneMap(n.Metadata)
	return n
}

// Equal reports whether n and other hold the same value in every field.
// Metadata is compared recursively and independent of key order.
func (n Node) Equal(other Node) bool {
	return n.ID == other.ID &&
		n.Kind == other.Kind &&
		n.Label == other.Label &&
		n.Doc == other.Doc &&
		DeepEqual(n.Metadata, other.Metadata)
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// =============================================================================
// Edge
// =============================================================================

// Edge is a typed, directed relationship between two nodes.
type Edge struct {
	ID          string         `json:"id"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	Kind        EdgeKind       `json:"kind"`
	Constraints map[string]any `json:"constraints,omitempty"`
}

// Clone returns a deep copy of e.
func (e Edge) Clone() Edge {
	e.Constraints = CloneMap(e.Constraints)
	return e
}

// Equal reports whether e and other hold the same value in every field.
func (e Edge) Equal(other Edge) bool {
	return e.ID == other.ID &&
		e.From == other.From &&
		e.To == other.To &&
		e.Kind == other.Kind &&
		DeepEqual(e.Constraints, other.Constraints)
}

// =============================================================================
// GraphMetadata
// =============================================================================

// GraphMetadata describes the document as a whole. Fields other than the
// named ones are kept in Extra and written back inline, so unknown keys
// survive a decode/encode round trip.
type GraphMetadata struct {
	Version     string         `json:"version"`
	Environment string         `json:"environment,omitempty"`
	Layout      map[string]any `json:"layout,omitempty"`
	Extra       map[string]any `json:"-"`
}

// Clone returns a deep copy of m.
func (m GraphMetadata) Clone() GraphMetadata {
	m.Layout = CloneMap(m.Layout)
	m.Extra = CloneMap(m.Extra)
	return m
}

// Equal reports whether m and other are deeply equal, Extra included.
func (m GraphMetadata) Equal(other GraphMetadata) bool {
	return m.Version == other.Version &&
		m.Environment == other.Environment &&
		DeepEqual(m.Layout, other.Layout) &&
		DeepEqual(m.Extra, other.Extra)
}

// metadataKnownKeys are the keys owned by named GraphMetadata fields.
var metadataKnownKeys = map[string]bool{"version": true, "environment": true, "layout": true}

// MarshalJSON writes the named fields followed by Extra at the same level.
func (m GraphMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+3)
	for k, v := range m.Extra {
		if !metadataKnownKeys[k] {
			out[k] = v
		}
	}
	out["version"] = m.Version
	if m.Environment != "" {
		out["environment"] = m.Environment
	}
	if len(m.Layout) > 0 {
		out["layout"] = m.Layout
	}
	return json.Marshal(out)
}

// UnmarshalJSON fills the named fields and collects every other key into Extra.
func (m *GraphMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	*m = GraphMetadata{}
	if v, ok := raw["version"].(string); ok {
		m.Version = v
	}
	if v, ok := raw["environment"].(string); ok {
		m.Environment = v
	}
	if v, ok := raw["layout"].(map[string]any); ok {
		m.Layout = v
	}
	for k, v := range raw {
		if metadataKnownKeys[k] {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		m.Extra[k] = v
	}
	return nil
}

// CloneMap returns a recursive copy of m. Nested maps and slices are copied;
// scalar values are shared. A nil map stays nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		s := make([]any, len(t))
		for i, item := range t {
			s[i] = cloneValue(item)
		}
		return s
	default:
		return v
	}
}
