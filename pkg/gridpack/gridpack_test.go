package gridpack

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func box(x0, y0, x1, y1 float64) Box {
	return Box{Min: r2.Vec{X: x0, Y: y0}, Max: r2.Vec{X: x1, Y: y1}}
}

func TestPackTwoComponentsScenario(t *testing.T) {
	comps := []Component{
		{ID: 1, Box: box(0, 0, 10, 10), Nodes: 5},
		{ID: 2, Box: box(-50, -50, 50, 50), Nodes: 100},
	}
	got := Pack(comps, Options{Padding: DefaultPadding, MinRatio: DefaultMinRatio})

	big := got[2]
	if big.Scale != 1 || big.Offset != (r2.Vec{}) {
		t.Errorf("largest transform = %+v, want scale 1 and zero offset", big)
	}
	small := got[1]
	if small.Scale != 0.2 {
		t.Errorf("small scale = %v, want 0.2", small.Scale)
	}
	if small.Offset.X != 100+DefaultPadding || small.Offset.Y != 0 {
		t.Errorf("small offset = %v, want {120 0}", small.Offset)
	}
}

func TestPackSingleComponent(t *testing.T) {
	got := Pack([]Component{{ID: 7, Box: box(3, 4, 5, 6), Nodes: 4}}, Options{Padding: 20, MinRatio: 0.2})
	tr := got[7]
	if tr.Scale != 1 || tr.Offset != (r2.Vec{}) {
		t.Fatalf("transform = %+v", tr)
	}
	if p := tr.Apply(r2.Vec{X: 3, Y: 4}); p != (r2.Vec{}) {
		t.Errorf("Apply(min) = %v, want origin", p)
	}
}

func TestPackNoOverlap(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.IntN(30)
		comps := make([]Component, n)
		for i := range comps {
			x, y := rng.Float64()*200-100, rng.Float64()*200-100
			w, h := rng.Float64()*80, rng.Float64()*80
			comps[i] = Component{ID: int64(i), Box: box(x, y, x+w, y+h), Nodes: 1 + rng.IntN(500)}
		}
		got := Pack(comps, Options{Padding: 5, MinRatio: 0.2})
		if len(got) != n {
			t.Fatalf("trial %d: %d transforms for %d components", trial, len(got), n)
		}

		placed := make([]Box, n)
		for i, c := range comps {
			placed[i] = got[c.ID].ApplyBox(c.Box)
		}
		for i := range placed {
			for j := i + 1; j < n; j++ {
				if Overlaps(placed[i], placed[j]) {
					t.Fatalf("trial %d: components %d and %d overlap: %v %v", trial, i, j, placed[i], placed[j])
				}
			}
		}
	}
}

func TestPackTiesKeepIDOrder(t *testing.T) {
	comps := []Component{
		{ID: 9, Box: box(0, 0, 1, 1), Nodes: 3},
		{ID: 4, Box: box(0, 0, 1, 1), Nodes: 3},
		{ID: 6, Box: box(0, 0, 1, 1), Nodes: 3},
	}
	got := Pack(comps, Options{Padding: 1, MinRatio: 0.2})
	if got[4].Offset != (r2.Vec{}) {
		t.Errorf("lowest ID should be anchored at origin, got %+v", got[4])
	}
	if !(got[6].Offset.Y < got[9].Offset.Y || got[6].Offset.X < got[9].Offset.X) {
		t.Errorf("component 6 should be placed before 9: %v %v", got[6].Offset, got[9].Offset)
	}
}

func TestPackGridColumns(t *testing.T) {
	// Five small components: ceil(sqrt(5)) = 3 columns, two rows.
	comps := []Component{{ID: 0, Box: box(0, 0, 10, 10), Nodes: 10}}
	for i := 1; i <= 5; i++ {
		comps = append(comps, Component{ID: int64(i), Box: box(0, 0, 10, 10), Nodes: 10})
	}
	got := Pack(comps, Options{Padding: 2, MinRatio: 0.2})
	rows := map[float64]int{}
	for i := 1; i <= 5; i++ {
		rows[got[int64(i)].Offset.Y]++
	}
	if len(rows) != 2 || rows[0] != 3 {
		t.Errorf("rows = %v, want 3 components on the first row and 2 on the second", rows)
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		nodes, largest int
		min, want      float64
	}{
		{5, 100, 0.2, 0.2},
		{50, 100, 0.2, 0.5},
		{100, 100, 0.2, 1},
		{1, 0, 0.2, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.nodes, tt.largest), func(t *testing.T) {
			if got := Ratio(tt.nodes, tt.largest, tt.min); got != tt.want {
				t.Errorf("Ratio = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	a := box(0, 0, 10, 10)
	if !Overlaps(a, box(5, 5, 15, 15)) {
		t.Error("intersecting boxes reported disjoint")
	}
	if Overlaps(a, box(10, 0, 20, 10)) {
		t.Error("touching boxes reported overlapping")
	}
	if Overlaps(a, box(11, 11, 12, 12)) {
		t.Error("disjoint boxes reported overlapping")
	}
}
