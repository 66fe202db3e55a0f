package multiscale

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/orrery/pkg/bsp"
)

// reintegrateOneDegree puts the pruned neighbours of a layer 0 vertex back
// as real vertices around it.
func reintegrateOneDegree(ctx *Context, v *Vertex, _ []Message) error {
	if v.ID.Layer != 0 || len(v.Value.OneDegree) == 0 {
		return nil
	}
	g := ctx.Globals()
	val := &v.Value

	ids := make([]int64, 0, len(val.known))
	for id := range val.known {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, cmp.Compare)
	neighbors := make([]r2.Vec, len(ids))
	for i, id := range ids {
		neighbors[i] = val.known[id]
	}

	placed := g.Reintegrator.Place(val.Pos, neighbors, len(val.OneDegree), g.Radius)
	for i, id := range val.OneDegree {
		if i >= len(placed) {
			break
		}
		child := bsp.VertexID{ID: id}
		nv := newValue(placed[i], val.Component, 1)
		nv.known = map[int64]r2.Vec{v.ID.ID: val.Pos}
		ctx.AddVertex(child, nv)
		ctx.AddEdge(v.ID, child, 1)
		ctx.AddEdge(child, v.ID, 1)
	}
	val.Pruned = max(val.Pruned-len(val.OneDegree), 0)
	val.OneDegree = nil
	return nil
}

func noop(*Context, *Vertex, []Message) error { return nil }

// arrange moves every component of layer 0 to its place on the canvas.
func arrange(ctx *Context, v *Vertex, _ []Message) error {
	if v.ID.Layer != 0 {
		return nil
	}
	if t, ok := ctx.Globals().Transforms[v.Value.Component]; ok {
		v.Value.Pos = t.Apply(v.Value.Pos)
	}
	return nil
}
