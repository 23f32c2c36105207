package ops

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/nmcanvas/pkg/errors"
	"github.com/matzehuels/nmcanvas/pkg/graph"
)

// Options configures Apply.
type Options struct {
	// RejectDuplicateIDs makes addNode/addEdge fail with DUPLICATE_ID when
	// the ID is already present, and with INVALID_OPERATION when the ID is
	// empty or otherwise unusable.
	RejectDuplicateIDs bool

	// CheckReferences runs CheckReferences after the batch and appends its
	// findings to the report as warnings.
	CheckReferences bool
}

// Warning is a non-fatal finding raised while applying a batch.
type Warning struct {
	Index   int         `json:"index"` // operation index, -1 for document-level findings
	Code    errors.Code `json:"code"`
	ID      string      `json:"id,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.Index < 0 {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s: operation %d: %s", w.Code, w.Index, w.Message)
}

// Report summarizes a batch.
type Report struct {
	Applied  map[Type]int `json:"applied"`
	Warnings []Warning    `json:"warnings,omitempty"`
	// Misses holds the indexes of updates and removals that matched nothing.
	Misses []int `json:"misses,omitempty"`
	// Processed counts the operations handled, skipped unknown types
	// included. When Apply fails it is the index of the failing operation.
	Processed int `json:"processed"`
}

// Total returns the number of applied operations.
func (r Report) Total() int {
	n := 0
	for _, c := range r.Applied {
		n += c
	}
	return n
}

// Apply runs ops in order against g, mutating it, and returns g.
//
// Apply stops at the first operation it cannot execute (a payload that is
// not a JSON object or does not decode, or a duplicate ID in strict mode) and
// returns the partially mutated document with the error.
func Apply(g *graph.Graph, ops []Operation, opts Options) (*graph.Graph, Report, error) {
	report := Report{Applied: make(map[Type]int)}
	if g == nil {
		return nil, report, errors.New(errors.ErrCodeInvalidInput, "cannot apply operations to a nil document")
	}

	for i, op := range ops {
		matched, err := applyOne(g, op, opts)
		if err != nil {
			return g, report, opError(i, op, err)
		}
		report.Processed++
		switch {
		case !op.Type.Known():
			report.Warnings = append(report.Warnings, Warning{
				Index:   i,
				Code:    errors.ErrCodeUnrecognizedOperation,
				Message: fmt.Sprintf("unknown operation type %q", op.Type),
			})
			continue
		case !matched:
			report.Misses = append(report.Misses, i)
		}
		report.Applied[op.Type]++
	}

	if opts.CheckReferences {
		report.Warnings = append(report.Warnings, CheckReferences(g)...)
	}
	return g, report, nil
}

func opError(i int, op Operation, err error) error {
	if e, ok := err.(*errors.Error); ok {
		return &errors.Error{
			Code:    e.Code,
			Message: fmt.Sprintf("operation %d (%s): %s", i, op.Type, e.Message),
			Cause:   e.Cause,
		}
	}
	return errors.Wrap(errors.ErrCodeInvalidOperation, err, "operation %d (%s)", i, op.Type)
}

// applyOne executes a single operation. matched is false for updates and
// removals that found no target.
func applyOne(g *graph.Graph, op Operation, opts Options) (matched bool, err error) {
	switch op.Type {
	case TypeAddNode:
		var n graph.Node
		if err := decodeEntity(op.Payload, &n); err != nil {
			return false, err
		}
		if opts.RejectDuplicateIDs {
			if err := errors.ValidateEntityID(n.ID); err != nil {
				return false, errors.Wrap(errors.ErrCodeInvalidOperation, err, "node id %q", n.ID)
			}
			if hasNode(g, n.ID) {
				return false, errors.New(errors.ErrCodeDuplicateID, "node %q already exists", n.ID)
			}
		}
		g.Nodes = append(g.Nodes, n)
		return true, nil

	case TypeAddEdge:
		var e graph.Edge
		if err := decodeEntity(op.Payload, &e); err != nil {
			return false, err
		}
		if opts.RejectDuplicateIDs {
			if err := errors.ValidateEntityID(e.ID); err != nil {
				return false, errors.Wrap(errors.ErrCodeInvalidOperation, err, "edge id %q", e.ID)
			}
			if hasEdge(g, e.ID) {
				return false, errors.New(errors.ErrCodeDuplicateID, "edge %q already exists", e.ID)
			}
		}
		g.Edges = append(g.Edges, e)
		return true, nil

	case TypeRemoveNode:
		id, _, ok, err := targetID(op.Payload)
		if err != nil || !ok {
			return false, err
		}
		before := len(g.Nodes)
		g.Nodes = filter(g.Nodes, func(n graph.Node) bool { return n.ID != id })
		return len(g.Nodes) != before, nil

	case TypeRemoveEdge:
		id, _, ok, err := targetID(op.Payload)
		if err != nil || !ok {
			return false, err
		}
		before := len(g.Edges)
		g.Edges = filter(g.Edges, func(e graph.Edge) bool { return e.ID != id })
		return len(g.Edges) != before, nil

	case TypeUpdateNode:
		id, fields, ok, err := targetID(op.Payload)
		if err != nil || !ok {
			return false, err
		}
		for i := range g.Nodes {
			if g.Nodes[i].ID != id {
				continue
			}
			merged, err := merge(g.Nodes[i], fields)
			if err != nil {
				return matched, err
			}
			g.Nodes[i] = merged
			matched = true
		}
		return matched, nil

	case TypeUpdateEdge:
		id, fields, ok, err := targetID(op.Payload)
		if err != nil || !ok {
			return false, err
		}
		for i := range g.Edges {
			if g.Edges[i].ID != id {
				continue
			}
			merged, err := merge(g.Edges[i], fields)
			if err != nil {
				return matched, err
			}
			g.Edges[i] = merged
			matched = true
		}
		return matched, nil
	}
	return false, nil
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := items[:0]
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	clear(items[len(out):])
	return out
}

func hasNode(g *graph.Graph, id string) bool {
	for _, n := range g.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

func hasEdge(g *graph.Graph, id string) bool {
	for _, e := range g.Edges {
		if e.ID == id {
			return true
		}
	}
	return false
}

// payloadObject decodes a payload that must be a JSON object.
func payloadObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "payload must be a JSON object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOperation, err, "decode payload")
	}
	return fields, nil
}

// targetID extracts the id an update or removal refers to. ok is false when
// the payload carries no id, a null id or a non-string id: no entity ID can
// equal such a value, so the operation is valid and matches nothing.
func targetID(raw json.RawMessage) (id string, fields map[string]json.RawMessage, ok bool, err error) {
	fields, err = payloadObject(raw)
	if err != nil {
		return "", nil, false, err
	}
	idRaw, present := fields["id"]
	if !present {
		return "", fields, false, nil
	}
	var p *string
	if err := json.Unmarshal(idRaw, &p); err != nil || p == nil {
		return "", fields, false, nil
	}
	return *p, fields, true, nil
}

func decodeEntity(raw json.RawMessage, v any) error {
	if _, err := payloadObject(raw); err != nil {
		return err
	}
	if err := decodeNumbers(raw, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOperation, err, "decode payload")
	}
	return nil
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
