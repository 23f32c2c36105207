package graph

import (
	"encoding/json"
	"math/big"
	"reflect"
)

// DeepEqual reports whether a and b hold the same JSON value.
//
// Maps are compared by key set and recursively by value, so key order never
// matters. A nil map equals an empty one. Numbers are compared by value
// regardless of their Go representation, which makes json.Number("1"),
// float64(1) and int(1) equal. Slices are compared element by element.
func DeepEqual(a, b any) bool {
	if isEmptyMap(a) && isEmptyMap(b) {
		return true
	}

	if na, ok := toNumber(a); ok {
		nb, ok := toNumber(b)
		return ok && na.Cmp(nb) == 0
	}

	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !DeepEqual(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !DeepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	}

	return reflect.DeepEqual(a, b)
}

func isEmptyMap(v any) bool {
	switch m := v.(type) {
	case nil:
		return false
	case map[string]any:
		return len(m) == 0
	}
	return false
}

// toNumber converts numeric values to an exact rational for comparison.
func toNumber(v any) (*big.Rat, bool) {
	r := new(big.Rat)
	switch n := v.(type) {
	case json.Number:
		if _, ok := r.SetString(n.String()); ok {
			return r, true
		}
		return nil, false
	case float64:
		if r.SetFloat64(n) == nil {
			return nil, false
		}
		return r, true
	case float32:
		if r.SetFloat64(float64(n)) == nil {
			return nil, false
		}
		return r, true
	case int:
		return r.SetInt64(int64(n)), true
	case int32:
		return r.SetInt64(int64(n)), true
	case int64:
		return r.SetInt64(n), true
	case uint:
		return r.SetUint64(uint64(n)), true
	case uint64:
		return r.SetUint64(n), true
	}
	return nil, false
}
