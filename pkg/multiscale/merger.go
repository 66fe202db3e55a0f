package multiscale

import (
	"cmp"
	"slices"

	"github.com/matzehuels/orrery/pkg/astral"
	"github.com/matzehuels/orrery/pkg/bsp"
)

// census counts the vertices, directed edges and edge weights of layer 0.
func census(ctx *Context, v *Vertex, _ []Message) error {
	if v.ID.Layer != 0 {
		return nil
	}
	c := LayerCount{Vertices: 1}
	for _, n := range v.Neighbors(0) {
		c.Edges++
		c.EdgeWeight += v.EdgeWeight(n)
	}
	ctx.Reduce().addLayer(0, c)
	return nil
}

// beats reports whether priority (d1, id1) wins over (d2, id2): higher
// degree first, lower ID on ties.
func beats(d1 int, id1 int64, d2 int, id2 int64) bool {
	if d1 != d2 {
		return d1 > d2
	}
	return id1 < id2
}

func propose(ctx *Context, v *Vertex, msgs []Message) error {
	if !onLayer(ctx, v) {
		return nil
	}
	b := &v.Value.Body
	if b.Role() == astral.Sun {
		for _, m := range msgs {
			if m.Kind == kindMoonAck {
				b.AddMoon(m.Payload, m.Mass)
			}
		}
	}
	if b.Assigned {
		return nil
	}
	ctx.Reduce().Unassigned++
	ctx.SendToNeighbors(v, v.ID.Layer, Message{
		Kind:   kindProposal,
		Sender: v.ID.ID,
		Degree: v.Degree(v.ID.Layer),
	})
	return nil
}

func elect(ctx *Context, v *Vertex, msgs []Message) error {
	if !onLayer(ctx, v) || v.Value.Body.Assigned {
		return nil
	}
	deg := v.Degree(v.ID.Layer)
	for _, m := range msgs {
		if m.Kind == kindProposal && !beats(deg, v.ID.ID, m.Degree, m.Sender) {
			return nil
		}
	}

	b := &v.Value.Body
	b.SetAsSun()
	b.Assigned = true
	ctx.Reduce().Suns++
	for _, n := range v.Neighbors(v.ID.Layer) {
		ctx.Send(n, Message{
			Kind:   kindSunOffer,
			TTL:    2,
			Sun:    v.ID.ID,
			Sender: v.ID.ID,
			Degree: deg,
			Weight: v.EdgeWeight(n),
		})
	}
	return nil
}

func claimPlanets(ctx *Context, v *Vertex, msgs []Message) error {
	if !onLayer(ctx, v) || v.Value.Body.Assigned {
		return nil
	}
	var best *Message
	for i := range msgs {
		m := &msgs[i]
		if m.Kind != kindSunOffer {
			continue
		}
		if best == nil || beats(m.Degree, m.Sun, best.Degree, best.Sun) {
			best = m
		}
	}
	if best == nil {
		return nil
	}

	b := &v.Value.Body
	b.SetAsPlanet(best.Sun, best.Weight)
	b.Assigned = true
	ctx.Send(sibling(v, best.Sun), Message{
		Kind:   kindPlanetAck,
		Sender: v.ID.ID,
		Mass:   b.LowerLevelWeight(),
	})

	relay := best.propagate(v.ID.ID)
	relay.Kind = kindMoonOffer
	for _, n := range v.Neighbors(v.ID.Layer) {
		if n.ID == best.Sun {
			continue
		}
		m := relay
		m.Weight = best.Weight + v.EdgeWeight(n)
		ctx.Send(n, m)
	}
	return nil
}

func claimMoons(ctx *Context, v *Vertex, msgs []Message) error {
	if !onLayer(ctx, v) {
		return nil
	}
	b := &v.Value.Body
	if b.Role() == astral.Sun {
		for _, m := range msgs {
			if m.Kind == kindPlanetAck {
				b.AddPlanet(m.Sender, m.Mass)
			}
		}
		return nil
	}
	if b.Assigned {
		return nil
	}

	var offers []Message
	for _, m := range msgs {
		if m.Kind == kindMoonOffer {
			offers = append(offers, m)
		}
	}
	if len(offers) == 0 {
		return nil
	}
	slices.SortFunc(offers, func(a, b Message) int {
		return cmp.Or(cmp.Compare(a.Weight, b.Weight), cmp.Compare(a.Sun, b.Sun), cmp.Compare(a.Sender, b.Sender))
	})
	best := offers[0]
	b.SetAsMoon(best.Sun, best.Sender, best.Weight)
	b.Assigned = true
	for _, m := range offers[1:] {
		if m.Sun == best.Sun {
			b.AddToProxies(m.Sender)
		}
	}
	ctx.Send(sibling(v, best.Sender), Message{
		Kind:    kindMoonAck,
		Sender:  v.ID.ID,
		Payload: v.ID.ID,
		Sun:     best.Sun,
		Mass:    b.LowerLevelWeight(),
	})
	return nil
}

// relayMoonAcks forwards acknowledgements from moons to the sun of the
// planet they chose as proxy. The moon stays in Payload.
func relayMoonAcks(ctx *Context, v *Vertex, msgs []Message) error {
	if !onLayer(ctx, v) || v.Value.Body.Role() != astral.Planet {
		return nil
	}
	sun, _ := v.Value.Body.Sun()
	for _, m := range msgs {
		if m.Kind == kindMoonAck {
			ctx.Send(sibling(v, sun), m.propagate(v.ID.ID))
		}
	}
	return nil
}

// systemOf returns the sun a body belongs to.
func systemOf(v *Vertex) int64 {
	if sun, ok := v.Value.Body.Sun(); ok {
		return sun
	}
	return v.ID.ID
}

func advertise(ctx *Context, v *Vertex, _ []Message) error {
	if !onLayer(ctx, v) {
		return nil
	}
	b := &v.Value.Body
	ctx.SendToNeighbors(v, v.ID.Layer, Message{
		Kind:   kindAdvert,
		Sender: v.ID.ID,
		Sun:    systemOf(v),
		Hops:   b.DistanceFromSun(),
		Weight: b.WeightFromSun(),
	})
	return nil
}

// report turns adverts from other systems into neighbour-system reports
// addressed to the own sun.
func report(ctx *Context, v *Vertex, msgs []Message) error {
	if !onLayer(ctx, v) {
		return nil
	}
	b := &v.Value.Body
	own := systemOf(v)
	acc := max(b.WeightFromSun(), 0)
	hops := max(b.DistanceFromSun(), 0)

	var reports []Message
	for _, m := range msgs {
		if m.Kind != kindAdvert || m.Sun == own {
			continue
		}
		reports = append(reports, Message{
			Kind:        kindReport,
			Sender:      v.ID.ID,
			Payload:     v.ID.ID,
			Sun:         m.Sun,
			Weight:      acc + v.EdgeWeight(sibling(v, m.Sender)) + max(m.Weight, 0),
			Hops:        hops,
			PathLength:  hops + 1 + max(m.Hops, 0),
			Accumulator: acc,
		})
	}
	if len(reports) == 0 {
		return nil
	}

	if b.Role() == astral.Sun {
		applyReports(b, reports)
		return nil
	}
	proxy, ok := route(v)
	if !ok {
		return nil
	}
	for _, r := range reports {
		ctx.Send(sibling(v, proxy), r)
	}
	return nil
}

// route returns the body a dependent sends its reports through: the sun
// for a planet, and for a moon the first of its proxies still linked on
// this layer.
func route(v *Vertex) (int64, bool) {
	b := &v.Value.Body
	if b.Role() == astral.Moon {
		for _, p := range b.Proxies() {
			if _, ok := v.Edges[sibling(v, p)]; ok {
				return p, true
			}
		}
	}
	return b.Proxy()
}

// collect lets suns apply incoming reports and planets pass on the reports
// of moons routed through them.
func collect(ctx *Context, v *Vertex, msgs []Message) error {
	if !onLayer(ctx, v) {
		return nil
	}
	var reports []Message
	for _, m := range msgs {
		if m.Kind == kindReport {
			reports = append(reports, m)
		}
	}
	if len(reports) == 0 {
		return nil
	}

	b := &v.Value.Body
	switch b.Role() {
	case astral.Sun:
		applyReports(b, reports)
	case astral.Planet:
		sun, _ := b.Sun()
		for _, r := range reports {
			ctx.Send(sibling(v, sun), r.propagate(v.ID.ID))
		}
	}
	return nil
}

// applyReports records reports in a deterministic order so that ties in
// neighbour weight resolve the same way on every run.
func applyReports(b *astral.Body, reports []Message) {
	slices.SortFunc(reports, func(x, y Message) int {
		return cmp.Or(cmp.Compare(x.Sun, y.Sun), cmp.Compare(x.Payload, y.Payload), cmp.Compare(x.Weight, y.Weight))
	})
	for _, r := range reports {
		b.AddNeighbourSystem(r.Sun, r.Weight, astral.Referrer{
			Body:                r.Payload,
			DistanceAccumulator: r.Accumulator,
			PositionInPath:      r.Hops,
			PathLength:          r.PathLength,
		})
	}
}

// build spawns the coarse copy of every sun on the next layer.
func build(ctx *Context, v *Vertex, _ []Message) error {
	if !onLayer(ctx, v) || v.Value.Body.Role() != astral.Sun {
		return nil
	}
	b := &v.Value.Body
	up := v.ID.Up()
	ctx.AddVertex(up, newValue(v.Value.Pos, v.Value.Component, b.AstralWeight()))
	ctx.AddEdge(v.ID, up, 1)
	ctx.AddEdge(up, v.ID, 1)

	c := LayerCount{Vertices: 1}
	for _, n := range b.NeighbourSystems() {
		w := max(n.Weight, 1)
		ctx.AddEdge(up, bsp.VertexID{Layer: up.Layer, ID: n.Sun}, w)
		c.Edges++
		c.EdgeWeight += w
	}
	ctx.Reduce().addLayer(up.Layer, c)
	ctx.Reduce().addLayer(v.ID.Layer, LayerCount{Planets: b.PlanetsNo(), Moons: b.MoonsNo()})
	return nil
}
