package multiscale

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/orrery/pkg/astral"
)

// broadcast sends the coordinates of every vertex of the current layer to
// its own copy and to the copies of its neighbours one layer below.
func broadcast(ctx *Context, v *Vertex, _ []Message) error {
	if !onLayer(ctx, v) {
		return nil
	}
	m := Message{Kind: kindCoords, Sender: v.ID.ID, Payload: v.ID.ID, Value: v.Value.Pos}
	ctx.Send(v.ID.Down(), m)
	for _, n := range v.Neighbors(v.ID.Layer) {
		ctx.Send(n.Down(), m)
	}
	return nil
}

// place runs on the finer layer: every sun takes the coordinates of its
// coarse copy and seeds its planets and moons from the recorded paths.
func place(ctx *Context, v *Vertex, msgs []Message) error {
	if !onLayer(ctx, v) {
		return nil
	}
	b := &v.Value.Body
	if b.Role() != astral.Sun {
		return nil
	}

	refs := make(map[int64]r2.Vec, len(msgs))
	for _, m := range msgs {
		if m.Kind == kindCoords {
			refs[m.Payload] = m.Value
		}
	}
	p, ok := refs[v.ID.ID]
	if !ok {
		p = v.Value.Pos
	}
	v.Value.Pos = p

	g := ctx.Globals()
	seeds := seedDependents(p, refs, b.Planets(), b.Moons(), g.EdgeLength/2)
	for _, s := range seeds {
		msg := Message{Kind: kindPlace, Sender: v.ID.ID, Payload: s.id, Value: s.pos}
		if s.moon {
			msg.TTL = 1
			ctx.SendToNeighbors(v, v.ID.Layer, msg)
			continue
		}
		ctx.Send(sibling(v, s.id), msg)
	}
	return nil
}

type placement struct {
	id   int64
	pos  r2.Vec
	moon bool
}

// seedDependents computes a position for every dependent of a sun at p.
// Dependents with no path to a known neighbour system are spread on a ring
// of the given radius around p.
func seedDependents(p r2.Vec, refs map[int64]r2.Vec, planets, moons []astral.Dependent, radius float64) []placement {
	var out []placement
	var lost []int
	add := func(deps []astral.Dependent, moon bool) {
		for _, d := range deps {
			pos, ok := interpolate(p, d.Paths, refs)
			out = append(out, placement{id: d.ID, pos: pos, moon: moon})
			if !ok {
				lost = append(lost, len(out)-1)
			}
		}
	}
	add(planets, false)
	add(moons, true)

	for i, idx := range lost {
		angle := 2 * math.Pi * float64(i) / float64(len(lost))
		out[idx].pos = r2.Add(p, r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)})
	}
	return out
}

// interpolate averages P + (P - R) * positionInPath/pathLength over every
// path whose referenced sun R has known coordinates.
func interpolate(p r2.Vec, paths []astral.Path, refs map[int64]r2.Vec) (r2.Vec, bool) {
	var sum r2.Vec
	n := 0
	for _, path := range paths {
		ref, ok := refs[path.ReferencedSun]
		if !ok {
			continue
		}
		sum = r2.Add(sum, r2.Scale(path.Ratio(), r2.Sub(p, ref)))
		n++
	}
	if n == 0 {
		return p, false
	}
	return r2.Add(p, r2.Scale(1/float64(n), sum)), true
}

// settle applies placements addressed to the vertex itself and relays the
// ones meant for a neighbour. With Clear set the astral state of the layer
// is dropped afterwards.
func settle(ctx *Context, v *Vertex, msgs []Message) error {
	if !onLayer(ctx, v) {
		return nil
	}
	for _, m := range msgs {
		if m.Kind != kindPlace {
			continue
		}
		if m.Payload == v.ID.ID {
			v.Value.Pos = m.Value
			continue
		}
		if m.TTL > 0 {
			target := sibling(v, m.Payload)
			if _, ok := v.Edges[target]; ok {
				ctx.Send(target, m.propagateAndDie(v.ID.ID))
			}
		}
	}
	if ctx.Globals().Clear {
		v.Value.Body.ClearAstralInfo()
	}
	return nil
}
