package multiscale

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/orrery/pkg/bsp"
	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/graph"
)

// Result is a finished layout.
type Result struct {
	Positions  []graph.Position
	Components []graph.ComponentInfo
	Layers     []LayerReport

	Supersteps int
	Messages   map[string]int64
	Dropped    int64
	// Trace lists the computations in the order they ran.
	Trace []string
}

// Layout converts the result into a graph.Layout.
func (r *Result) Layout(runID string) graph.Layout {
	l := graph.Layout{
		RunID:      runID,
		Positions:  r.Positions,
		Components: r.Components,
	}
	l.Bounds()
	return l
}

// driver adapts Master to bsp.Master and reports progress.
type driver struct {
	ctx    context.Context
	master *Master
	cfg    Config
	state  State
	trace  []string
}

func (d *driver) Compute(superstep int, in *Reductions) (directive, error) {
	prev := d.state
	next, dir, err := d.master.Step(d.state, in)
	if err != nil {
		return dir, err
	}
	d.state = next
	if !dir.Halt {
		d.trace = append(d.trace, dir.Computation)
	}

	if next.Phase != prev.Phase || next.Layer != prev.Layer || superstep == 0 {
		d.cfg.Logger.Debug("phase", "phase", next.Phase, "layer", next.Layer, "superstep", superstep)
		d.cfg.Hooks.OnPhase(d.ctx, d.cfg.RunID, next.Phase.String(), next.Layer)
	}
	if prev.Phase == PhaseMerging && next.Phase != PhaseMerging {
		for l := 0; l < next.Top; l++ {
			c := next.Counts[l]
			d.cfg.Logger.Debug("layer coarsened", "layer", l, "vertices", c.Vertices,
				"suns", next.Counts[l+1].Vertices, "planets", c.Planets, "moons", c.Moons)
		}
		c := next.Counts[next.Top]
		d.cfg.Logger.Info("coarsening done", "layers", next.Top+1, "top_vertices", c.Vertices, "top_edges", c.UndirectedEdges())
	}
	if len(next.Reports) > len(prev.Reports) {
		r := next.Reports[len(next.Reports)-1]
		d.cfg.Logger.Info("layer laid out",
			"layer", r.Layer, "vertices", r.Vertices, "edges", r.Edges,
			"ttl", r.TTL, "supersteps", r.Supersteps, "cycles", r.Cycles, "converged", r.Converged)
		d.cfg.Hooks.OnLayerComplete(d.ctx, d.cfg.RunID, r.Layer, r.Supersteps, r.Converged)
	}
	return dir, nil
}

// Run lays out the graph described by records.
func Run(ctx context.Context, records []graph.Record, cfg Config) (*Result, error) {
	cfg.SetDefaults()
	logger := cfg.Logger

	master, adaptOK, reintOK := NewMaster(cfg)
	if !adaptOK {
		logger.Warn("unknown adaptation strategy, using default", "name", cfg.Adaptation)
	}
	if !reintOK {
		logger.Warn("unknown reintegration strategy, using default", "name", cfg.Reintegration)
	}

	records, rep := graph.Normalize(records)
	if rep.DanglingEdges+rep.SelfLoops+rep.AddedReverse+rep.DuplicateEdges > 0 {
		logger.Debug("input normalized",
			"dangling", rep.DanglingEdges, "self_loops", rep.SelfLoops,
			"added_reverse", rep.AddedReverse, "duplicates", rep.DuplicateEdges)
	}
	if len(records) == 0 {
		return &Result{Messages: map[string]int64{}}, nil
	}

	engine := bsp.NewEngine[Value, Message, *Globals](bsp.Config{
		Workers:       cfg.Workers,
		MaxSupersteps: cfg.MaxSupersteps,
		Logger:        logger,
	}, newReductions)
	register(engine)
	load(engine, records)

	d := &driver{ctx: ctx, master: master, cfg: cfg}
	cfg.Hooks.OnRunStart(ctx, cfg.RunID, len(records))
	start := time.Now()
	err := engine.Run(ctx, d)
	stats := engine.Stats()
	cfg.Hooks.OnRunComplete(ctx, cfg.RunID, stats.Supersteps, time.Since(start), err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeCanceled, err, "layout canceled")
		}
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "layout failed")
	}

	res := &Result{
		Layers:     d.state.Reports,
		Supersteps: stats.Supersteps,
		Messages:   stats.Messages,
		Dropped:    stats.Dropped,
		Trace:      d.trace,
	}
	for _, v := range engine.Vertices() {
		if v.ID.Layer != 0 {
			continue
		}
		res.Positions = append(res.Positions, graph.Position{
			ID:        v.ID.ID,
			X:         v.Value.Pos.X,
			Y:         v.Value.Pos.Y,
			Component: v.Value.Component,
		})
	}
	for c, t := range d.state.Transforms {
		res.Components = append(res.Components, graph.ComponentInfo{
			ID:      c,
			Nodes:   d.state.Nodes[c],
			Scale:   t.Scale,
			OffsetX: t.Offset.X,
			OffsetY: t.Offset.Y,
		})
	}
	slices.SortFunc(res.Components, func(a, b graph.ComponentInfo) int {
		return cmp.Or(cmp.Compare(b.Nodes, a.Nodes), cmp.Compare(a.ID, b.ID))
	})
	logger.Info("layout done", "vertices", len(res.Positions), "components", len(res.Components),
		"layers", len(res.Layers), "supersteps", res.Supersteps, "elapsed", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// load adds layer 0. Pruned neighbour IDs that clash with input vertices
// are kept as a count only.
func load(e *Engine, records []graph.Record) {
	ids := make(map[int64]struct{}, len(records))
	for _, r := range records {
		ids[r.ID] = struct{}{}
	}
	spiral := allAtOrigin(records)

	for i, r := range records {
		pos := r2.Vec{X: r.X, Y: r.Y}
		if spiral {
			pos = goldenSpiral(i)
		}
		val := newValue(pos, r.Component, 1)
		val.Pruned = max(r.OneDegreeCount, len(r.OneDegree))
		for _, od := range r.OneDegree {
			if _, clash := ids[od]; clash {
				continue
			}
			ids[od] = struct{}{}
			val.OneDegree = append(val.OneDegree, od)
		}

		v := bsp.NewVertex(bsp.VertexID{ID: r.ID}, val)
		for _, edge := range r.Edges {
			v.Edges[bsp.VertexID{ID: edge.Target}] = 1
		}
		e.AddVertex(v)
	}
}

func allAtOrigin(records []graph.Record) bool {
	for _, r := range records {
		if r.X != 0 || r.Y != 0 {
			return false
		}
	}
	return len(records) > 1
}

// goldenSpiral spreads vertices evenly over a disc.
func goldenSpiral(i int) r2.Vec {
	angle := float64(i) * math.Pi * (3 - math.Sqrt(5))
	radius := math.Sqrt(float64(i) + 0.5)
	return r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
}
