package multiscale

import (
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/orrery/pkg/adapt"
	"github.com/matzehuels/orrery/pkg/bsp"
	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/force"
	"github.com/matzehuels/orrery/pkg/gridpack"
	"github.com/matzehuels/orrery/pkg/reintegrate"
)

// Computation names.
const (
	compCensus         = "census"
	compPropose        = "propose"
	compElect          = "elect"
	compClaimPlanets   = "claim-planets"
	compClaimMoons     = "claim-moons"
	compRelay          = "relay"
	compAdvertise      = "advertise"
	compReport         = "report"
	compCollect        = "collect"
	compCollectRelayed = "collect-relayed"
	compBuild          = "build"
	compExplore        = "explore"
	compScale          = "scale"
	compSeed           = "seed"
	compPropagate      = "propagate"
	compBroadcast      = "broadcast"
	compPlace          = "place"
	compSettle         = "settle"
	compSettleFinal    = "settle-final"
	compReintegrate    = "reintegrate"
	compNoop           = "noop"
	compArrange        = "arrange"
)

func register(e *Engine) {
	fns := map[string]func(*Context, *Vertex, []Message) error{
		compCensus:         census,
		compPropose:        propose,
		compElect:          elect,
		compClaimPlanets:   claimPlanets,
		compClaimMoons:     claimMoons,
		compRelay:          relayMoonAcks,
		compAdvertise:      advertise,
		compReport:         report,
		compCollect:        collect,
		compCollectRelayed: collect,
		compBuild:          build,
		compExplore:        explore,
		compScale:          scale,
		compSeed:           seed,
		compPropagate:      propagate,
		compBroadcast:      broadcast,
		compPlace:          place,
		compSettle:         settle,
		compSettleFinal:    settle,
		compReintegrate:    reintegrateOneDegree,
		compNoop:           noop,
		compArrange:        arrange,
	}
	for name, fn := range fns {
		e.Register(name, bsp.ComputeFunc[Value, Message, *Globals, *Reductions](fn))
	}
}

// Phase is the coarse stage of a run.
type Phase int

const (
	PhaseMerging Phase = iota
	PhaseLayout
	PhasePlacing
	PhaseReintegrating
	PhaseHalted
)

func (p Phase) String() string {
	switch p {
	case PhaseMerging:
		return "merging"
	case PhaseLayout:
		return "layout"
	case PhasePlacing:
		return "placing"
	case PhaseReintegrating:
		return "reintegrating"
	case PhaseHalted:
		return "halted"
	}
	return "unknown"
}

// LayerTuning is the resolved tuning of one layer.
type LayerTuning struct {
	adapt.Tuning
	EdgeLength float64
	Repulsion  float64
}

// LayerReport summarizes the layout of one layer.
type LayerReport struct {
	Layer      int     `json:"layer"`
	Vertices   int     `json:"vertices"`
	Edges      int     `json:"edges"`
	EdgeLength float64 `json:"edge_length"`
	TTL        int     `json:"ttl"`
	Supersteps int     `json:"supersteps"`
	Cycles     int     `json:"cycles"`
	Converged  bool    `json:"converged"`
}

// State is everything the master remembers between supersteps. Step never
// mutates the maps of the state it receives.
type State struct {
	Phase Phase
	Last  string
	Layer int
	Top   int

	Counts map[int]LayerCount
	Suns   int
	Tuning map[int]LayerTuning

	LayerSteps int
	Cycles     int

	Boxes      map[int64]gridpack.Box
	Nodes      map[int64]int
	Scales     map[int64]r2.Vec
	Temps      map[int64]r2.Vec
	Transforms map[int64]gridpack.Transform

	Reports []LayerReport
}

// Master decides which computation runs next.
type Master struct {
	cfg          Config
	k            float64
	strategy     adapt.Strategy
	reintegrator reintegrate.Strategy
	model        force.Model
}

// NewMaster resolves the strategies named in cfg. Unknown names fall back to
// the defaults; the returned flags report whether each name was recognised.
func NewMaster(cfg Config) (m *Master, adaptOK, reintegrateOK bool) {
	cfg.SetDefaults()
	strategy, adaptOK := adapt.Lookup(cfg.Adaptation, cfg.staticTuning())
	reint, reintegrateOK := reintegrate.Lookup(cfg.Reintegration, cfg.ConeWidth)
	return &Master{
		cfg:          cfg,
		k:            cfg.EdgeLength(),
		strategy:     strategy,
		reintegrator: reint,
		model:        force.FR{},
	}, adaptOK, reintegrateOK
}

type directive = bsp.Directive[*Globals]

// Step advances the state machine by one superstep. in holds the reductions
// of the superstep named by s.Last.
func (m *Master) Step(s State, in *Reductions) (State, directive, error) {
	if in == nil {
		in = newReductions()
	}
	if len(in.Layers) > 0 {
		counts := maps.Clone(s.Counts)
		if counts == nil {
			counts = make(map[int]LayerCount)
		}
		for l, c := range in.Layers {
			counts[l] = counts[l].add(c)
		}
		s.Counts = counts
	}

	switch s.Last {
	case "":
		return m.run(s, compCensus, &Globals{})
	case compCensus, compBuild:
		if s.Last == compBuild {
			s.Layer++
		}
		return m.beginMerge(s)

	case compPropose:
		if in.Unassigned > 0 {
			return m.run(s, compElect, &Globals{Layer: s.Layer})
		}
		if s.Suns >= s.Counts[s.Layer].Vertices {
			s.Top = s.Layer
			return m.beginLayout(s)
		}
		return m.run(s, compAdvertise, &Globals{Layer: s.Layer})
	case compElect:
		s.Suns += in.Suns
		return m.run(s, compClaimPlanets, &Globals{Layer: s.Layer})
	case compClaimPlanets:
		return m.run(s, compClaimMoons, &Globals{Layer: s.Layer})
	case compClaimMoons:
		return m.run(s, compRelay, &Globals{Layer: s.Layer})
	case compRelay:
		return m.run(s, compPropose, &Globals{Layer: s.Layer})
	case compAdvertise:
		return m.run(s, compReport, &Globals{Layer: s.Layer})
	case compReport:
		return m.run(s, compCollect, &Globals{Layer: s.Layer})
	case compCollect:
		return m.run(s, compCollectRelayed, &Globals{Layer: s.Layer})
	case compCollectRelayed:
		return m.run(s, compBuild, &Globals{Layer: s.Layer})

	case compExplore:
		if s.Phase == PhaseReintegrating {
			return m.pack(s, in)
		}
		return m.scaleLayer(s, in)
	case compScale:
		return m.seed(s, true)
	case compSeed:
		return m.afterSeed(s, in)
	case compPropagate:
		if in.Quiet {
			return m.seed(s, false)
		}
		if s.LayerSteps >= m.cfg.Budget {
			return m.layerDone(s, false)
		}
		return m.propagate(s)

	case compBroadcast:
		s.Layer--
		t, next, err := m.tuning(s, s.Layer)
		if err != nil {
			return next, directive{}, err
		}
		return m.run(next, compPlace, &Globals{Layer: next.Layer, EdgeLength: t.EdgeLength})
	case compPlace:
		return m.run(s, compSettle, &Globals{Layer: s.Layer})
	case compSettle:
		return m.run(s, compSettleFinal, &Globals{Layer: s.Layer, Clear: true})
	case compSettleFinal:
		return m.beginLayout(s)

	case compReintegrate:
		return m.run(s, compNoop, &Globals{})
	case compNoop:
		return m.run(s, compExplore, &Globals{})
	case compArrange:
		s.Phase = PhaseHalted
		return s, directive{Halt: true}, nil
	}
	return s, directive{}, errors.New(errors.ErrCodeInternal, "no transition after %q", s.Last)
}

func (m *Master) run(s State, name string, g *Globals) (State, directive, error) {
	s.Last = name
	return s, directive{Computation: name, Globals: g}, nil
}

// beginMerge coarsens the current layer, or makes it the top layer when it
// is small enough or the layer limit is reached.
func (m *Master) beginMerge(s State) (State, directive, error) {
	c := s.Counts[s.Layer]
	if c.Vertices <= m.cfg.MinVertices || s.Layer >= m.cfg.MaxLayers-1 {
		s.Top = s.Layer
		return m.beginLayout(s)
	}
	s.Phase = PhaseMerging
	s.Suns = 0
	return m.run(s, compPropose, &Globals{Layer: s.Layer})
}

// tuning resolves and memoizes the tuning of layer.
func (m *Master) tuning(s State, layer int) (LayerTuning, State, error) {
	if t, ok := s.Tuning[layer]; ok {
		return t, s, nil
	}
	c, ok := s.Counts[layer]
	if !ok {
		return LayerTuning{}, s, errors.New(errors.ErrCodeConfig, "no vertex count for layer %d", layer)
	}
	t := adapt.Tune(m.strategy, adapt.Layer{
		Index:    layer,
		Layers:   s.Top + 1,
		Vertices: c.Vertices,
		Edges:    c.UndirectedEdges(),
	})
	if layer == 0 {
		t.K = min(t.K, 2)
	}
	t.K = max(t.K, 1)

	lt := LayerTuning{Tuning: t, EdgeLength: m.k * c.MeanEdgeWeight()}
	lt.Repulsion = m.cfg.RepulsionOverride
	if lt.Repulsion <= 0 {
		lt.Repulsion = lt.EdgeLength * lt.EdgeLength * repulsionFactor
	}

	tunings := maps.Clone(s.Tuning)
	if tunings == nil {
		tunings = make(map[int]LayerTuning)
	}
	tunings[layer] = lt
	s.Tuning = tunings
	return lt, s, nil
}

func (m *Master) beginLayout(s State) (State, directive, error) {
	s.Phase = PhaseLayout
	s.LayerSteps = 0
	s.Cycles = 0
	_, s, err := m.tuning(s, s.Layer)
	if err != nil {
		return s, directive{}, err
	}
	return m.run(s, compExplore, &Globals{Layer: s.Layer})
}

// scaleLayer sizes every component for its node count and sets its
// starting temperature to the scaled size divided by the temperature factor.
func (m *Master) scaleLayer(s State, in *Reductions) (State, directive, error) {
	t := s.Tuning[s.Layer]
	k := t.EdgeLength
	f := t.TempFactor
	if f <= 0 {
		f = DefaultTempFactor
	}
	scales := make(map[int64]r2.Vec, len(in.Boxes))
	temps := make(map[int64]r2.Vec, len(in.Boxes))
	for c, b := range in.Boxes {
		w := b.Width() + k
		h := b.Height() + k
		ratio := h / w
		n := float64(in.Nodes[c])
		width := math.Sqrt(n/ratio) * k
		height := ratio * width
		scales[c] = r2.Vec{X: width / w, Y: height / h}
		temps[c] = r2.Vec{X: width / f, Y: height / f}
	}
	s.Boxes = maps.Clone(in.Boxes)
	s.Nodes = maps.Clone(in.Nodes)
	s.Scales = scales
	s.Temps = temps
	return m.run(s, compScale, &Globals{Layer: s.Layer, Boxes: s.Boxes, Scales: scales})
}

func (m *Master) layoutGlobals(s State, first bool) *Globals {
	t := s.Tuning[s.Layer]
	return &Globals{
		Layer:      s.Layer,
		EdgeLength: t.EdgeLength,
		Repulsion:  t.Repulsion,
		TTL:        t.K,
		Accuracy:   t.Accuracy,
		FirstCycle: first,
		Model:      m.model,
		Temps:      s.Temps,
	}
}

func (m *Master) seed(s State, first bool) (State, directive, error) {
	if !first {
		cool := force.Linear{Rate: s.Tuning[s.Layer].Cooling}
		temps := make(map[int64]r2.Vec, len(s.Temps))
		for c, t := range s.Temps {
			temps[c] = r2.Vec{X: cool.Cool(t.X), Y: cool.Cool(t.Y)}
		}
		s.Temps = temps
	}
	s.Cycles++
	s.LayerSteps++
	return m.run(s, compSeed, m.layoutGlobals(s, first))
}

func (m *Master) propagate(s State) (State, directive, error) {
	s.LayerSteps++
	return m.run(s, compPropagate, m.layoutGlobals(s, false))
}

func (m *Master) afterSeed(s State, in *Reductions) (State, directive, error) {
	vertices := s.Counts[s.Layer].Vertices
	if vertices == 0 || (s.Cycles > 1 && float64(in.Settled)/float64(vertices) > m.cfg.Threshold) {
		return m.layerDone(s, true)
	}
	if s.LayerSteps >= m.cfg.Budget {
		return m.layerDone(s, false)
	}
	return m.propagate(s)
}

// layerDone records the finished layer and moves on to placing the layer
// below, or to the halting sequence on layer 0.
func (m *Master) layerDone(s State, converged bool) (State, directive, error) {
	t := s.Tuning[s.Layer]
	c := s.Counts[s.Layer]
	s.Reports = append(slices.Clip(s.Reports), LayerReport{
		Layer:      s.Layer,
		Vertices:   c.Vertices,
		Edges:      c.UndirectedEdges(),
		EdgeLength: t.EdgeLength,
		TTL:        t.K,
		Supersteps: s.LayerSteps,
		Cycles:     s.Cycles,
		Converged:  converged,
	})
	if s.Layer > 0 {
		s.Phase = PhasePlacing
		return m.run(s, compBroadcast, &Globals{Layer: s.Layer})
	}
	s.Phase = PhaseReintegrating
	return m.run(s, compReintegrate, &Globals{
		Reintegrator: m.reintegrator,
		Radius:       m.cfg.ReintegrationRadius * t.EdgeLength,
	})
}

// pack lays out the components of the final drawing side by side.
func (m *Master) pack(s State, in *Reductions) (State, directive, error) {
	comps := make([]gridpack.Component, 0, len(in.Boxes))
	for c, b := range in.Boxes {
		comps = append(comps, gridpack.Component{ID: c, Box: b, Nodes: in.Nodes[c]})
	}
	s.Boxes = maps.Clone(in.Boxes)
	s.Nodes = maps.Clone(in.Nodes)
	s.Transforms = gridpack.Pack(comps, gridpack.Options{Padding: m.cfg.Padding, MinRatio: m.cfg.MinRatio})
	return m.run(s, compArrange, &Globals{Transforms: s.Transforms})
}
