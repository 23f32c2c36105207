package graph

// Index maps IDs to entities while remembering the order in which IDs were
// first seen. When an ID occurs more than once the last entity wins but the
// ID keeps its original position.
type Index[T any] struct {
	order []string
	items map[string]T
}

// IDs returns the indexed IDs in first-seen order.
func (ix *Index[T]) IDs() []string { return ix.order }

// Get returns the entity stored for id.
func (ix *Index[T]) Get(id string) (T, bool) {
	v, ok := ix.items[id]
	return v, ok
}

// Has reports whether id is indexed.
func (ix *Index[T]) Has(id string) bool {
	_, ok := ix.items[id]
	return ok
}

// Len returns the number of distinct IDs.
func (ix *Index[T]) Len() int { return len(ix.order) }

func newIndex[T any](n int) *Index[T] {
	return &Index[T]{order: make([]string, 0, n), items: make(map[string]T, n)}
}

func (ix *Index[T]) put(id string, v T) {
	if _, seen := ix.items[id]; !seen {
		ix.order = append(ix.order, id)
	}
	ix.items[id] = v
}

// NodeIndex builds an ID index over g's nodes. A nil graph yields an empty index.
func NodeIndex(g *Graph) *Index[Node] {
	if g == nil {
		return newIndex[Node](0)
	}
	ix := newIndex[Node](len(g.Nodes))
	for _, n := range g.Nodes {
		ix.put(n.ID, n)
	}
	return ix
}

// EdgeIndex builds an ID index over g's edges. A nil graph yields an empty index.
func EdgeIndex(g *Graph) *Index[Edge] {
	if g == nil {
		return newIndex[Edge](0)
	}
	ix := newIndex[Edge](len(g.Edges))
	for _, e := range g.Edges {
		ix.put(e.ID, e)
	}
	return ix
}
