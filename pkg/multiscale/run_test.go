package multiscale

import (
	"context"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/orrery/pkg/graph"
	"github.com/matzehuels/orrery/pkg/gridpack"
)

// grid returns a rows x cols lattice with IDs starting at first.
func grid(rows, cols int, first int64, component int64) []graph.Record {
	id := func(r, c int) int64 { return first + int64(r*cols+c) }
	var out []graph.Record
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			rec := graph.Record{ID: id(r, c), Component: component, X: float64(c), Y: float64(r)}
			if c > 0 {
				rec.Edges = append(rec.Edges, graph.Edge{Target: id(r, c-1)})
			}
			if c < cols-1 {
				rec.Edges = append(rec.Edges, graph.Edge{Target: id(r, c+1)})
			}
			if r > 0 {
				rec.Edges = append(rec.Edges, graph.Edge{Target: id(r-1, c)})
			}
			if r < rows-1 {
				rec.Edges = append(rec.Edges, graph.Edge{Target: id(r+1, c)})
			}
			out = append(out, rec)
		}
	}
	return out
}

func cycle(n int, first int64, component int64) []graph.Record {
	out := make([]graph.Record, n)
	for i := range out {
		prev := first + int64((i+n-1)%n)
		next := first + int64((i+1)%n)
		out[i] = graph.Record{
			ID:        first + int64(i),
			Component: component,
			X:         math.Cos(float64(i)),
			Y:         math.Sin(float64(i)),
			Edges:     []graph.Edge{{Target: prev}, {Target: next}},
		}
	}
	return out
}

func testConfig() Config {
	return Config{Workers: 3, Budget: 200, MinVertices: 8}
}

func positionsByID(res *Result) map[int64]r2.Vec {
	out := make(map[int64]r2.Vec, len(res.Positions))
	for _, p := range res.Positions {
		out[p.ID] = r2.Vec{X: p.X, Y: p.Y}
	}
	return out
}

func checkFinite(t *testing.T, res *Result) {
	t.Helper()
	for _, p := range res.Positions {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			t.Fatalf("vertex %d has position (%v, %v)", p.ID, p.X, p.Y)
		}
	}
}

func TestRunGridCoarsens(t *testing.T) {
	records := grid(8, 8, 0, 0)
	res, err := Run(context.Background(), records, testConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Positions) != len(records) {
		t.Fatalf("got %d positions, want %d", len(res.Positions), len(records))
	}
	checkFinite(t, res)

	if len(res.Layers) < 2 {
		t.Fatalf("laid out %d layers, want a coarser layer above the input", len(res.Layers))
	}
	if res.Layers[len(res.Layers)-1].Layer != 0 {
		t.Errorf("last laid out layer = %d, want 0", res.Layers[len(res.Layers)-1].Layer)
	}
	for i := 1; i < len(res.Layers); i++ {
		if res.Layers[i].Vertices <= res.Layers[i-1].Vertices {
			t.Errorf("layer %d has %d vertices, not more than layer above (%d)",
				res.Layers[i].Layer, res.Layers[i].Vertices, res.Layers[i-1].Vertices)
		}
	}

	n := len(res.Trace)
	want := []string{compReintegrate, compNoop, compExplore, compArrange}
	if n < len(want) {
		t.Fatalf("trace too short: %v", res.Trace)
	}
	for i, name := range want {
		if res.Trace[n-len(want)+i] != name {
			t.Fatalf("trace ends with %v, want %v", res.Trace[n-len(want):], want)
		}
	}
	if res.Messages[compPropagate] == 0 {
		t.Error("no force messages were exchanged")
	}

	pos := positionsByID(res)
	seen := make(map[r2.Vec]int64)
	for id, p := range pos {
		if other, dup := seen[p]; dup {
			t.Errorf("vertices %d and %d share position %v", id, other, p)
		}
		seen[p] = id
	}
}

func TestRunComponentsDoNotOverlap(t *testing.T) {
	records := append(cycle(12, 0, 0), cycle(6, 100, 100)...)
	records = append(records, grid(3, 3, 200, 200)...)

	res, err := Run(context.Background(), records, testConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFinite(t, res)
	if len(res.Components) != 3 {
		t.Fatalf("got %d components, want 3", len(res.Components))
	}
	if res.Components[0].ID != 0 || res.Components[0].Scale != 1 {
		t.Errorf("largest component = %+v, want component 0 unscaled", res.Components[0])
	}

	boxes := make(map[int64]gridpack.Box)
	for _, p := range res.Positions {
		v := r2.Vec{X: p.X, Y: p.Y}
		b, ok := boxes[p.Component]
		if !ok {
			boxes[p.Component] = gridpack.Box{Min: v, Max: v}
			continue
		}
		boxes[p.Component] = union(b, gridpack.Box{Min: v, Max: v})
	}
	ids := []int64{0, 100, 200}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			if gridpack.Overlaps(boxes[ids[i]], boxes[ids[j]]) {
				t.Errorf("components %d and %d overlap: %+v %+v", ids[i], ids[j], boxes[ids[i]], boxes[ids[j]])
			}
		}
	}
}

func TestRunReintegratesOneDegree(t *testing.T) {
	records := cycle(6, 0, 0)
	records[0].OneDegree = []int64{50, 51, 52}
	records[0].OneDegreeCount = 3
	records[3].OneDegreeCount = 2

	cfg := testConfig()
	res, err := Run(context.Background(), records, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFinite(t, res)
	if len(res.Positions) != 9 {
		t.Fatalf("got %d positions, want 6 input and 3 reintegrated", len(res.Positions))
	}
	if got := res.Components[0].Nodes; got != 11 {
		t.Errorf("component nodes = %d, want 11", got)
	}

	pos := positionsByID(res)
	cfg.SetDefaults()
	radius := cfg.ReintegrationRadius * cfg.EdgeLength()
	for _, id := range []int64{50, 51, 52} {
		p, ok := pos[id]
		if !ok {
			t.Fatalf("one-degree vertex %d missing", id)
		}
		if d := r2.Norm(r2.Sub(p, pos[0])); math.Abs(d-radius) > 1e-6 {
			t.Errorf("vertex %d at distance %v from its anchor, want %v", id, d, radius)
		}
	}
}

func TestRunAllAtOrigin(t *testing.T) {
	records := cycle(10, 0, 0)
	for i := range records {
		records[i].X, records[i].Y = 0, 0
	}
	res, err := Run(context.Background(), records, testConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFinite(t, res)
	pos := positionsByID(res)
	if near(pos[0], pos[5]) {
		t.Errorf("opposite vertices coincide at %v", pos[0])
	}
}

func TestRunEmpty(t *testing.T) {
	res, err := Run(context.Background(), nil, Config{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Positions) != 0 {
		t.Errorf("got %d positions, want none", len(res.Positions))
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, grid(4, 4, 0, 0), testConfig())
	if err == nil {
		t.Fatal("expected an error for a canceled context")
	}
}

func TestRunUnknownStrategiesFallBack(t *testing.T) {
	cfg := testConfig()
	cfg.Adaptation = "bogus"
	cfg.Reintegration = "bogus"
	res, err := Run(context.Background(), cycle(5, 0, 0), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFinite(t, res)
}

func TestResultLayout(t *testing.T) {
	res := &Result{Positions: []graph.Position{{ID: 1, X: -1, Y: 2}, {ID: 2, X: 3, Y: 5}}}
	l := res.Layout("run-1")
	if l.RunID != "run-1" || l.Width != 4 || l.Height != 3 {
		t.Errorf("layout = %+v", l)
	}
}

func TestRunSquareScenario(t *testing.T) {
	records := cycle(4, 1, 0)
	corners := []r2.Vec{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 20}, {X: 0, Y: 20}}
	for i := range records {
		records[i].X, records[i].Y = corners[i].X, corners[i].Y
	}
	res, err := Run(context.Background(), records, Config{NodeSeparation: 20, Workers: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFinite(t, res)
	if len(res.Positions) != 4 {
		t.Fatalf("got %d positions, want 4", len(res.Positions))
	}
	if len(res.Layers) != 1 || res.Layers[0].EdgeLength != 20 {
		t.Fatalf("layers = %+v, want layer 0 alone with k = 20", res.Layers)
	}
	if len(res.Components) != 1 {
		t.Fatalf("got %d components, want 1", len(res.Components))
	}
	if c := res.Components[0]; c.OffsetX != 0 || c.OffsetY != 0 || c.Scale != 1 {
		t.Errorf("component = %+v, want offset (0, 0) and scale 1", c)
	}
}

func TestRunSettledNeverDecreases(t *testing.T) {
	square := cycle(4, 0, 0)
	corners := []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	for i := range square {
		square[i].X, square[i].Y = corners[i].X, corners[i].Y
	}
	tests := []struct {
		name    string
		records []graph.Record
	}{
		{"edge", []graph.Record{
			{ID: 1, X: 0, Y: 0, Edges: []graph.Edge{{Target: 2}}},
			{ID: 2, X: 3, Y: 4, Edges: []graph.Edge{{Target: 1}}},
		}},
		{"square", square},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.records, Config{Budget: 400})
			var settled []int
			h.after[compSeed] = func(in *Reductions) {
				if h.s.Phase == PhaseLayout {
					settled = append(settled, in.Settled)
				}
			}
			h.run(t)

			if len(settled) < 2 {
				t.Fatalf("only %d seed cycles ran", len(settled))
			}
			for i := 1; i < len(settled); i++ {
				if settled[i] < settled[i-1] {
					t.Fatalf("settled count fell from %d to %d at cycle %d: %v", settled[i-1], settled[i], i+1, settled)
				}
			}
		})
	}
}
