package multiscale

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/orrery/pkg/force"
)

// explore resets the per-layer scratch state and reports the bounding box
// and the number of vertices of every component.
func explore(ctx *Context, v *Vertex, _ []Message) error {
	if !onLayer(ctx, v) {
		return nil
	}
	val := &v.Value
	val.force = r2.Vec{}
	val.seen = nil

	r := ctx.Reduce()
	r.extend(val.Component, val.Pos)
	r.Members[val.Component]++
	r.Nodes[val.Component] += 1 + val.Pruned
	r.Vertices++
	return nil
}

// scale stretches every component to the size it needs for its vertex
// count: p' = (p - min) * scale, per axis.
func scale(ctx *Context, v *Vertex, _ []Message) error {
	if !onLayer(ctx, v) {
		return nil
	}
	g := ctx.Globals()
	c := v.Value.Component
	s, ok := g.Scales[c]
	if !ok {
		return nil
	}
	d := r2.Sub(v.Value.Pos, g.Boxes[c].Min)
	v.Value.Pos = r2.Vec{X: d.X * s.X, Y: d.Y * s.Y}
	return nil
}

// limit clamps each axis of d to the matching temperature while keeping
// the direction of d.
func limit(d, temp r2.Vec) r2.Vec {
	n := r2.Norm(d)
	if n == 0 {
		return r2.Vec{}
	}
	return r2.Vec{
		X: d.X / n * math.Min(n, temp.X),
		Y: d.Y / n * math.Min(n, temp.Y),
	}
}

// seed moves every vertex by its accumulated force and starts a new flood
// of position floods.
func seed(ctx *Context, v *Vertex, _ []Message) error {
	if !onLayer(ctx, v) {
		return nil
	}
	g := ctx.Globals()
	val := &v.Value

	disp := limit(val.force, g.Temps[val.Component])
	val.Pos = r2.Add(val.Pos, disp)
	if !g.FirstCycle && r2.Norm(disp) < g.Accuracy*g.EdgeLength {
		ctx.Reduce().Settled++
	}
	val.force = r2.Vec{}
	val.seen = make(map[int64]struct{})

	ctx.SendToNeighbors(v, v.ID.Layer, Message{
		Kind:    kindFlood,
		TTL:     g.TTL - 1,
		Value:   val.Pos,
		Sender:  v.ID.ID,
		Payload: v.ID.ID,
		Degree:  v.Degree(v.ID.Layer),
	})
	return nil
}

// propagate accumulates forces from incoming floods and forwards the ones
// that still have hops left. Every flood is applied and forwarded at most
// once per cycle.
func propagate(ctx *Context, v *Vertex, msgs []Message) error {
	if !onLayer(ctx, v) {
		return nil
	}
	g := ctx.Globals()
	val := &v.Value
	if val.seen == nil {
		val.seen = make(map[int64]struct{})
	}
	id := v.ID.ID
	deg := v.Degree(v.ID.Layer)
	forwarded := false

	for _, m := range msgs {
		if m.Kind != kindFlood || m.Payload == id {
			continue
		}
		if _, ok := val.seen[m.Payload]; ok {
			continue
		}
		val.seen[m.Payload] = struct{}{}

		delta := r2.Sub(val.Pos, m.Value)
		dist := force.Dist(delta)
		if dist < force.Epsilon {
			delta = jitter(id, m.Payload)
			dist = force.Dist(delta)
		}
		val.force = r2.Add(val.force, r2.Scale(g.Repulsion, g.Model.Repulsive(delta, dist, deg, m.Degree)))

		if m.Sender == m.Payload {
			if _, adjacent := v.Edges[sibling(v, m.Payload)]; adjacent {
				val.force = r2.Sub(val.force, g.Model.Attractive(delta, dist, g.EdgeLength, deg, m.Degree))
				if val.known == nil {
					val.known = make(map[int64]r2.Vec)
				}
				val.known[m.Payload] = m.Value
			}
		}

		if m.TTL > 0 {
			fwd := m.propagate(id)
			for _, n := range v.Neighbors(v.ID.Layer) {
				if n.ID != m.Sender {
					ctx.Send(n, fwd)
					forwarded = true
				}
			}
		}
	}

	r := ctx.Reduce()
	r.Quiet = r.Quiet && !forwarded
	return nil
}

// jitter separates two coincident vertices along a direction derived from
// their IDs. jitter(a, b) == -jitter(b, a), so the pair pushes apart.
func jitter(self, other int64) r2.Vec {
	lo, hi := min(self, other), max(self, other)
	h := uint64(lo)*0x9E3779B97F4A7C15 ^ uint64(hi)*0xC2B2AE3D27D4EB4F
	angle := float64(h>>11) / float64(1<<53) * 2 * math.Pi
	d := r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
	if self > other {
		d = r2.Scale(-1, d)
	}
	return r2.Scale(force.Epsilon, d)
}
