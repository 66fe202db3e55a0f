package bsp

import (
	"cmp"
	"fmt"
	"slices"
)

// VertexID identifies a vertex inside one layer of a layered graph.
type VertexID struct {
	Layer int
	ID    int64
}

// String renders the ID as "layer_id".
func (id VertexID) String() string { return fmt.Sprintf("%d_%d", id.Layer, id.ID) }

// Up returns the ID of the same vertex one layer above.
func (id VertexID) Up() VertexID { return VertexID{Layer: id.Layer + 1, ID: id.ID} }

// Down returns the ID of the same vertex one layer below.
func (id VertexID) Down() VertexID { return VertexID{Layer: id.Layer - 1, ID: id.ID} }

// Compare orders IDs by layer, then by ID.
func (id VertexID) Compare(other VertexID) int {
	if c := cmp.Compare(id.Layer, other.Layer); c != 0 {
		return c
	}
	return cmp.Compare(id.ID, other.ID)
}

// Vertex is a graph vertex owned by exactly one partition.
// Edges maps target IDs to integer edge weights.
type Vertex[V any] struct {
	ID    VertexID
	Value V
	Edges map[VertexID]int
}

// NewVertex creates a vertex with an empty edge set.
func NewVertex[V any](id VertexID, value V) *Vertex[V] {
	return &Vertex[V]{ID: id, Value: value, Edges: make(map[VertexID]int)}
}

// Neighbors returns the targets of all edges that stay in the given layer,
// sorted by ID.
func (v *Vertex[V]) Neighbors(layer int) []VertexID {
	out := make([]VertexID, 0, len(v.Edges))
	for t := range v.Edges {
		if t.Layer == layer {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, VertexID.Compare)
	return out
}

// Degree counts the edges that stay in the given layer.
func (v *Vertex[V]) Degree(layer int) int {
	n := 0
	for t := range v.Edges {
		if t.Layer == layer {
			n++
		}
	}
	return n
}

// EdgeWeight returns the weight of the edge to target, or 0 when absent.
func (v *Vertex[V]) EdgeWeight(target VertexID) int {
	return v.Edges[target]
}
