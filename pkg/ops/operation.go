// Package ops applies batches of mutation operations to a canonical graph.
//
// An [Operation] is a tagged union: a [Type] naming one of six mutations and
// a raw JSON payload. [Apply] runs a batch strictly in order against a single
// document and returns the same document together with a [Report].
//
// # Semantics
//
//   - addNode / addEdge append the payload entity. Duplicate IDs are accepted
//     unless [Options.RejectDuplicateIDs] is set.
//   - removeNode / removeEdge drop every entity with the payload ID.
//   - updateNode / updateEdge shallow-merge the payload into every entity with
//     the payload ID. Fields present in the payload overwrite, absent fields
//     are kept, nested maps are replaced wholesale.
//
// Unknown operation types are skipped with an UNRECOGNIZED_OPERATION warning.
// Updates and removals that match nothing are silent no-ops. There is no
// rollback: when an operation fails, earlier mutations in the batch remain.
package ops

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/nmcanvas/pkg/graph"
)

// Type identifies an operation variant.
type Type string

// Operation types.
const (
	TypeAddNode    Type = "addNode"
	TypeRemoveNode Type = "removeNode"
	TypeUpdateNode Type = "updateNode"
	TypeAddEdge    Type = "addEdge"
	TypeRemoveEdge Type = "removeEdge"
	TypeUpdateEdge Type = "updateEdge"
)

// Types lists the recognized operation types.
var Types = []Type{
	TypeAddNode, TypeRemoveNode, TypeUpdateNode,
	TypeAddEdge, TypeRemoveEdge, TypeUpdateEdge,
}

// Known reports whether t is one of the recognized operation types.
func (t Type) Known() bool {
	switch t {
	case TypeAddNode, TypeRemoveNode, TypeUpdateNode,
		TypeAddEdge, TypeRemoveEdge, TypeUpdateEdge:
		return true
	}
	return false
}

// Operation is a single mutation instruction.
type Operation struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (op Operation) String() string {
	return fmt.Sprintf("%s %s", op.Type, op.Payload)
}

// AddNode returns an addNode operation for n.
func AddNode(n graph.Node) Operation {
	return Operation{Type: TypeAddNode, Payload: payload(n)}
}

// RemoveNode returns a removeNode operation for id.
func RemoveNode(id string) Operation {
	return Operation{Type: TypeRemoveNode, Payload: payload(map[string]any{"id": id})}
}

// UpdateNode returns an updateNode operation setting fields on node id.
func UpdateNode(id string, fields map[string]any) Operation {
	return Operation{Type: TypeUpdateNode, Payload: payload(withID(id, fields))}
}

// AddEdge returns an addEdge operation for e.
func AddEdge(e graph.Edge) Operation {
	return Operation{Type: TypeAddEdge, Payload: payload(e)}
}

// RemoveEdge returns a removeEdge operation for id.
func RemoveEdge(id string) Operation {
	return Operation{Type: TypeRemoveEdge, Payload: payload(map[string]any{"id": id})}
}

// UpdateEdge returns an updateEdge operation setting fields on edge id.
func UpdateEdge(id string, fields map[string]any) Operation {
	return Operation{Type: TypeUpdateEdge, Payload: payload(withID(id, fields))}
}

func withID(id string, fields map[string]any) map[string]any {
	m := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		m[k] = v
	}
	m["id"] = id
	return m
}

// payload encodes v. Values that cannot be encoded yield a JSON null, which
// Apply rejects as INVALID_OPERATION.
func payload(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}
