package bsp

import "github.com/charmbracelet/log"

// Context is the view of the running superstep handed to a computation.
// A Context is bound to one partition and must not be shared across
// goroutines.
type Context[V, M, G any, R Reduction[R]] struct {
	superstep int
	globals   G
	part      *partition[V, M, G, R]
	engine    *Engine[V, M, G, R]
}

// Superstep returns the index of the running superstep.
func (c *Context[V, M, G, R]) Superstep() int { return c.superstep }

// Globals returns the values broadcast by the master for this superstep.
// They are shared by all partitions and must be treated as read-only.
func (c *Context[V, M, G, R]) Globals() G { return c.globals }

// Reduce returns the partition-local reduction for this superstep.
func (c *Context[V, M, G, R]) Reduce() R { return c.part.reduction }

// Logger returns the engine logger.
func (c *Context[V, M, G, R]) Logger() *log.Logger { return c.engine.logger }

// Send queues a message for delivery at the next superstep.
func (c *Context[V, M, G, R]) Send(to VertexID, msg M) {
	t := partitionOf(to, len(c.engine.partitions))
	c.part.outbox[t] = append(c.part.outbox[t], envelope[M]{to: to, msg: msg})
	c.part.sent++
}

// SendToNeighbors sends msg to every neighbor of v on the given layer.
func (c *Context[V, M, G, R]) SendToNeighbors(v *Vertex[V], layer int, msg M) {
	for _, n := range v.Neighbors(layer) {
		c.Send(n, msg)
	}
}

// AddVertex requests the creation of a vertex. The request is applied at the
// barrier; if a vertex with the same ID already exists the request is ignored.
func (c *Context[V, M, G, R]) AddVertex(id VertexID, value V) {
	c.part.added = append(c.part.added, NewVertex(id, value))
}

// AddEdge requests a directed edge, applied at the barrier after vertex
// additions. Requests for unknown sources are ignored.
func (c *Context[V, M, G, R]) AddEdge(from, to VertexID, weight int) {
	c.part.edges = append(c.part.edges, edgeRequest{from: from, to: to, weight: weight})
}
