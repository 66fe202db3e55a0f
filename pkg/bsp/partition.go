package bsp

import (
	"context"
	"slices"
)

type envelope[M any] struct {
	to  VertexID
	msg M
}

type edgeRequest struct {
	from, to VertexID
	weight   int
}

// partition owns a disjoint subset of the vertices. During a superstep only
// the goroutine computing the partition touches its fields.
type partition[V, M, G any, R Reduction[R]] struct {
	index    int
	vertices map[VertexID]*Vertex[V]
	order    []VertexID
	dirty    bool
	inbox    map[VertexID][]M

	outbox    [][]envelope[M]
	reduction R
	added     []*Vertex[V]
	edges     []edgeRequest
	sent      int64
}

func newPartition[V, M, G any, R Reduction[R]](index int) *partition[V, M, G, R] {
	return &partition[V, M, G, R]{
		index:    index,
		vertices: make(map[VertexID]*Vertex[V]),
		inbox:    make(map[VertexID][]M),
	}
}

func (p *partition[V, M, G, R]) begin(partitions int, reduction R) {
	p.outbox = make([][]envelope[M], partitions)
	p.reduction = reduction
	p.added = nil
	p.edges = nil
	p.sent = 0
	if p.dirty {
		slices.SortFunc(p.order, VertexID.Compare)
		p.dirty = false
	}
}

func (p *partition[V, M, G, R]) compute(ctx context.Context, c *Context[V, M, G, R], comp Computation[V, M, G, R]) error {
	for i, id := range p.order {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := comp.Compute(c, p.vertices[id], p.inbox[id]); err != nil {
			return err
		}
	}
	return nil
}
