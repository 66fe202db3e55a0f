package multiscale

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/orrery/pkg/force"
	"github.com/matzehuels/orrery/pkg/gridpack"
	"github.com/matzehuels/orrery/pkg/reintegrate"
)

// Globals is broadcast by the master before a superstep. Computations must
// treat it and its maps as read-only.
type Globals struct {
	Layer int

	EdgeLength float64
	Repulsion  float64
	TTL        int
	Accuracy   float64
	FirstCycle bool
	Model      force.Model

	Boxes  map[int64]gridpack.Box
	Scales map[int64]r2.Vec
	Temps  map[int64]r2.Vec

	Clear bool

	Reintegrator reintegrate.Strategy
	Radius       float64

	Transforms map[int64]gridpack.Transform
}

// LayerCount describes the size of one layer. Edges counts directed edges,
// so every undirected edge is counted from both ends. Planets and Moons are
// the dependents registered by the suns of the layer once it is coarsened.
type LayerCount struct {
	Vertices   int
	Edges      int
	EdgeWeight int
	Planets    int
	Moons      int
}

// UndirectedEdges is Edges/2.
func (c LayerCount) UndirectedEdges() int { return c.Edges / 2 }

// MeanEdgeWeight is the average weight of an edge, 1 for a layer without
// edges.
func (c LayerCount) MeanEdgeWeight() float64 {
	if c.Edges == 0 || c.EdgeWeight == 0 {
		return 1
	}
	return float64(c.EdgeWeight) / float64(c.Edges)
}

func (c LayerCount) add(o LayerCount) LayerCount {
	return LayerCount{
		Vertices:   c.Vertices + o.Vertices,
		Edges:      c.Edges + o.Edges,
		EdgeWeight: c.EdgeWeight + o.EdgeWeight,
		Planets:    c.Planets + o.Planets,
		Moons:      c.Moons + o.Moons,
	}
}

// Reductions is what vertices report to the master in one superstep.
type Reductions struct {
	Unassigned int
	Suns       int
	Layers     map[int]LayerCount

	Boxes    map[int64]gridpack.Box
	Members  map[int64]int // layer vertices per component
	Nodes    map[int64]int // vertices including pruned ones per component
	Vertices int

	Settled int
	// Quiet is the AND of "forwarded nothing" over all vertices.
	Quiet bool
}

func newReductions() *Reductions {
	return &Reductions{
		Layers:  make(map[int]LayerCount),
		Boxes:   make(map[int64]gridpack.Box),
		Members: make(map[int64]int),
		Nodes:   make(map[int64]int),
		Quiet:   true,
	}
}

// Merge folds o into r: counters add, boxes widen, Quiet is AND-ed.
func (r *Reductions) Merge(o *Reductions) *Reductions {
	r.Unassigned += o.Unassigned
	r.Suns += o.Suns
	for l, c := range o.Layers {
		r.Layers[l] = r.Layers[l].add(c)
	}
	for c, b := range o.Boxes {
		if cur, ok := r.Boxes[c]; ok {
			r.Boxes[c] = union(cur, b)
		} else {
			r.Boxes[c] = b
		}
	}
	for c, n := range o.Members {
		r.Members[c] += n
	}
	for c, n := range o.Nodes {
		r.Nodes[c] += n
	}
	r.Vertices += o.Vertices
	r.Settled += o.Settled
	r.Quiet = r.Quiet && o.Quiet
	return r
}

func (r *Reductions) addLayer(layer int, c LayerCount) {
	r.Layers[layer] = r.Layers[layer].add(c)
}

func (r *Reductions) extend(component int64, p r2.Vec) {
	b, ok := r.Boxes[component]
	if !ok {
		r.Boxes[component] = gridpack.Box{Min: p, Max: p}
		return
	}
	r.Boxes[component] = union(b, gridpack.Box{Min: p, Max: p})
}

func union(a, b gridpack.Box) gridpack.Box {
	return gridpack.Box{
		Min: r2.Vec{X: math.Min(a.Min.X, b.Min.X), Y: math.Min(a.Min.Y, b.Min.Y)},
		Max: r2.Vec{X: math.Max(a.Max.X, b.Max.X), Y: math.Max(a.Max.Y, b.Max.Y)},
	}
}
