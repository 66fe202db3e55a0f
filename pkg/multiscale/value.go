package multiscale

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/orrery/pkg/astral"
	"github.com/matzehuels/orrery/pkg/bsp"
)

// Value is the state a vertex carries across supersteps.
type Value struct {
	Pos       r2.Vec
	Component int64
	Body      astral.Body

	// OneDegree lists pruned one-degree neighbours waiting for
	// reintegration; Pruned counts them, including any whose IDs are unknown.
	OneDegree []int64
	Pruned    int

	force r2.Vec
	seen  map[int64]struct{}
	known map[int64]r2.Vec // last seen positions of in-layer neighbours
}

// Engine, Context and Vertex specialise the bsp types for this package.
type (
	Engine  = bsp.Engine[Value, Message, *Globals, *Reductions]
	Context = bsp.Context[Value, Message, *Globals, *Reductions]
	Vertex  = bsp.Vertex[Value]
)

func newValue(pos r2.Vec, component int64, lowerLevelWeight int) Value {
	return Value{Pos: pos, Component: component, Body: astral.NewBody(lowerLevelWeight)}
}

// onLayer reports whether v belongs to the layer the superstep works on.
func onLayer(ctx *Context, v *Vertex) bool {
	return v.ID.Layer == ctx.Globals().Layer
}

func sibling(v *Vertex, id int64) bsp.VertexID {
	return bsp.VertexID{Layer: v.ID.Layer, ID: id}
}
