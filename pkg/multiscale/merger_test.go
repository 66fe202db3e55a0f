package multiscale

import (
	"context"
	"math/rand/v2"
	"slices"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/orrery/pkg/astral"
	"github.com/matzehuels/orrery/pkg/bsp"
	"github.com/matzehuels/orrery/pkg/graph"
)

// harness drives an engine with the real master. after[name] runs once the
// computation name has finished, with its reductions; stop halts the run
// when it returns true for a transition.
type harness struct {
	m     *Master
	e     *Engine
	s     State
	after map[string]func(in *Reductions)
	stop  func(prev, next State) bool
}

func (h *harness) Compute(_ int, in *Reductions) (directive, error) {
	if f := h.after[h.s.Last]; f != nil {
		f(in)
	}
	prev := h.s
	next, dir, err := h.m.Step(h.s, in)
	if err != nil {
		return dir, err
	}
	h.s = next
	if h.stop != nil && h.stop(prev, next) {
		return directive{Halt: true}, nil
	}
	return dir, nil
}

func newHarness(t *testing.T, records []graph.Record, cfg Config) *harness {
	t.Helper()
	records, _ = graph.Normalize(records)
	e := bsp.NewEngine[Value, Message, *Globals](bsp.Config{Workers: 3}, newReductions)
	register(e)
	load(e, records)
	return &harness{m: newTestMaster(t, cfg), e: e, after: map[string]func(*Reductions){}}
}

func (h *harness) run(t *testing.T) {
	t.Helper()
	if err := h.e.Run(context.Background(), h); err != nil {
		t.Fatalf("engine: %v", err)
	}
}

func (h *harness) vertex(t *testing.T, layer int, id int64) *Vertex {
	t.Helper()
	v, ok := h.e.Vertex(bsp.VertexID{Layer: layer, ID: id})
	if !ok {
		t.Fatalf("vertex %d_%d missing", layer, id)
	}
	return v
}

// mergedOnce stops right after layer 0 has been coarsened into layer 1.
func mergedOnce(prev, next State) bool {
	return prev.Phase == PhaseMerging && next.Phase == PhaseLayout
}

// oneMerge coarsens exactly once, however small the graph.
func oneMerge() Config {
	return Config{MinVertices: 1, MaxLayers: 2, Budget: 30}
}

func line(n int) []graph.Record {
	out := make([]graph.Record, n)
	for i := range out {
		out[i] = graph.Record{ID: int64(i), X: float64(i), Y: float64(i * i)}
		if i > 0 {
			out[i].Edges = append(out[i].Edges, graph.Edge{Target: int64(i - 1)})
		}
		if i < n-1 {
			out[i].Edges = append(out[i].Edges, graph.Edge{Target: int64(i + 1)})
		}
	}
	return out
}

// randomGraph is a ring with extra random chords, so it stays connected.
func randomGraph(n, chords int, seed uint64) []graph.Record {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := cycle(n, 0, 0)
	for range chords {
		a, b := rng.IntN(n), rng.IntN(n)
		if a == b {
			continue
		}
		out[a].Edges = append(out[a].Edges, graph.Edge{Target: int64(b)})
		out[b].Edges = append(out[b].Edges, graph.Edge{Target: int64(a)})
	}
	return out
}

func containsDependent(deps []astral.Dependent, id int64) bool {
	return slices.ContainsFunc(deps, func(d astral.Dependent) bool { return d.ID == id })
}

func TestMergerRegistersEveryDependent(t *testing.T) {
	tests := []struct {
		name    string
		records []graph.Record
	}{
		{"path", line(5)},
		{"grid", grid(8, 8, 0, 0)},
		{"cycle", cycle(40, 0, 0)},
		{"random", randomGraph(300, 150, 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.records, oneMerge())
			h.stop = mergedOnce
			h.run(t)

			var suns, planets, moons, registered int
			for _, v := range h.e.Vertices() {
				if v.ID.Layer != 0 {
					continue
				}
				b := &v.Value.Body
				switch b.Role() {
				case astral.Asteroid:
					t.Errorf("vertex %d is still an asteroid", v.ID.ID)
				case astral.Sun:
					suns++
					registered += b.PlanetsNo() + b.MoonsNo()
					if _, ok := h.e.Vertex(v.ID.Up()); !ok {
						t.Errorf("sun %d has no coarse copy", v.ID.ID)
					}
				case astral.Planet:
					planets++
					sun, _ := b.Sun()
					s := h.vertex(t, 0, sun)
					if s.Value.Body.Role() != astral.Sun || !containsDependent(s.Value.Body.Planets(), v.ID.ID) {
						t.Errorf("planet %d not registered by sun %d", v.ID.ID, sun)
					}
					if v.EdgeWeight(s.ID) == 0 {
						t.Errorf("planet %d is not adjacent to its sun %d", v.ID.ID, sun)
					}
				case astral.Moon:
					moons++
					sun, _ := b.Sun()
					s := h.vertex(t, 0, sun)
					if s.Value.Body.Role() != astral.Sun || !containsDependent(s.Value.Body.Moons(), v.ID.ID) {
						t.Errorf("moon %d not registered by sun %d", v.ID.ID, sun)
					}
					proxy, _ := b.Proxy()
					if !containsDependent(s.Value.Body.Planets(), proxy) || v.EdgeWeight(sibling(v, proxy)) == 0 {
						t.Errorf("moon %d routes through %d, not an adjacent planet of sun %d", v.ID.ID, proxy, sun)
					}
				}
			}
			if registered != planets+moons {
				t.Errorf("suns registered %d dependents, layer has %d planets and %d moons", registered, planets, moons)
			}
			if c := h.s.Counts[0]; c.Planets != planets || c.Moons != moons {
				t.Errorf("layer counts report %d planets and %d moons, want %d and %d", c.Planets, c.Moons, planets, moons)
			}
			if got := h.s.Counts[1].Vertices; got != suns {
				t.Errorf("coarse layer has %d vertices, want one per sun (%d)", got, suns)
			}
		})
	}
}

func TestMergerPathMoonReportsNeighbourSystem(t *testing.T) {
	h := newHarness(t, line(5), oneMerge())
	h.stop = mergedOnce
	h.run(t)

	// 1 wins the first election; 0 and 2 become its planets, 3 its moon
	// through 2, and 4 is left to form a system of its own.
	sun := &h.vertex(t, 0, 1).Value.Body
	if sun.Role() != astral.Sun {
		t.Fatalf("vertex 1 is a %s, want sun", sun.Role())
	}
	planets := sun.Planets()
	if len(planets) != 2 || planets[0].ID != 0 || planets[1].ID != 2 {
		t.Fatalf("planets = %+v, want 0 and 2", planets)
	}
	moons := sun.Moons()
	if len(moons) != 1 || moons[0].ID != 3 {
		t.Fatalf("moons = %+v, want 3", moons)
	}
	if len(moons[0].Paths) != 1 || moons[0].Paths[0].ReferencedSun != 4 {
		t.Fatalf("moon 3 paths = %+v, want one toward sun 4", moons[0].Paths)
	}
	if p := moons[0].Paths[0]; p.PositionInPath != 2 || p.PathLength != 3 {
		t.Errorf("moon 3 path = %+v, want position 2 of 3", p)
	}
	if got := sun.NeighbourSystems(); len(got) != 1 || got[0].Sun != 4 {
		t.Errorf("neighbour systems = %+v, want sun 4", got)
	}
	if h.vertex(t, 0, 4).Value.Body.Role() != astral.Sun {
		t.Error("vertex 4 should be a sun")
	}
}

// placerSeeds computes where place sends every dependent of layer 0, from
// the coordinates broadcast by layer 1.
func placerSeeds(h *harness, radius float64) map[int64]r2.Vec {
	coarse := make([]*Vertex, 0)
	for _, v := range h.e.Vertices() {
		if v.ID.Layer == 1 {
			coarse = append(coarse, v)
		}
	}
	want := make(map[int64]r2.Vec)
	for _, v := range h.e.Vertices() {
		if v.ID.Layer != 0 || v.Value.Body.Role() != astral.Sun {
			continue
		}
		up := v.ID.Up()
		refs := make(map[int64]r2.Vec)
		for _, u := range coarse {
			if u.ID == up || slices.Contains(u.Neighbors(1), up) {
				refs[u.ID.ID] = u.Value.Pos
			}
		}
		p, ok := refs[v.ID.ID]
		if !ok {
			p = v.Value.Pos
		}
		want[v.ID.ID] = p
		for _, s := range seedDependents(p, refs, v.Value.Body.Planets(), v.Value.Body.Moons(), radius) {
			want[s.id] = s.pos
		}
	}
	return want
}

func TestPlacerSeedsEveryDependent(t *testing.T) {
	tests := []struct {
		name    string
		records []graph.Record
	}{
		{"path", line(5)},
		{"grid", grid(6, 6, 0, 0)},
		{"random", randomGraph(120, 60, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := make(map[int64]r2.Vec)
			for _, r := range tt.records {
				raw[r.ID] = r2.Vec{X: r.X, Y: r.Y}
			}

			h := newHarness(t, tt.records, oneMerge())
			var want map[int64]r2.Vec
			moons := make(map[int64]bool)
			h.after[compPlace] = func(*Reductions) {
				for _, v := range h.e.Vertices() {
					if v.ID.Layer == 0 && v.Value.Body.Role() == astral.Moon {
						moons[v.ID.ID] = true
					}
				}
				want = placerSeeds(h, h.s.Tuning[0].EdgeLength/2)
			}
			h.after[compSettle] = func(*Reductions) {
				// Moon placements are still one relay away.
				for id := range moons {
					if got := h.vertex(t, 0, id).Value.Pos; got != raw[id] {
						t.Errorf("moon %d moved to %v before the final settle", id, got)
					}
				}
			}
			var settled bool
			h.after[compSettleFinal] = func(*Reductions) {
				settled = true
				for id, w := range want {
					v := h.vertex(t, 0, id)
					if v.Value.Pos != w {
						t.Errorf("vertex %d at %v, want %v", id, v.Value.Pos, w)
					}
					if v.Value.Body.Role() != astral.Asteroid {
						t.Errorf("vertex %d still a %s after the final settle", id, v.Value.Body.Role())
					}
				}
			}
			h.stop = func(prev, next State) bool {
				return prev.Phase == PhasePlacing && next.Phase == PhaseLayout
			}
			h.run(t)

			if !settled {
				t.Fatal("placing never finished")
			}
			if len(moons) == 0 {
				t.Fatal("test graph produced no moons")
			}
			if len(want) != len(tt.records) {
				t.Errorf("placed %d vertices, want all %d", len(want), len(tt.records))
			}
			for id := range moons {
				if want[id] == raw[id] {
					t.Errorf("moon %d seeded at its input position", id)
				}
			}
		})
	}
}
