package ops

import (
	"encoding/json"

	"github.com/matzehuels/nmcanvas/pkg/errors"
	"github.com/matzehuels/nmcanvas/pkg/graph"
)

// entity is the set of types an update can merge into.
type entity interface {
	graph.Node | graph.Edge
}

// merge overlays fields onto the JSON form of current and decodes the
// result into a fresh value. A field present with null resets it to its zero
// value. Fields the entity does not define are ignored.
func merge[T entity](current T, fields map[string]json.RawMessage) (T, error) {
	var zero T

	data, err := json.Marshal(current)
	if err != nil {
		return zero, errors.Wrap(errors.ErrCodeInternal, err, "encode entity")
	}
	base := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &base); err != nil {
		return zero, errors.Wrap(errors.ErrCodeInternal, err, "decode entity")
	}

	for k, v := range fields {
		base[k] = v
	}

	data, err = json.Marshal(base)
	if err != nil {
		return zero, errors.Wrap(errors.ErrCodeInvalidOperation, err, "encode merged entity")
	}
	var out T
	if err := decodeNumbers(data, &out); err != nil {
		return zero, errors.Wrap(errors.ErrCodeInvalidOperation, err, "payload field has the wrong type")
	}
	return out, nil
}
