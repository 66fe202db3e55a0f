package multiscale

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/orrery/pkg/astral"
)

func near(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestInterpolate(t *testing.T) {
	p := r2.Vec{X: 10, Y: 0}
	refs := map[int64]r2.Vec{7: {X: 0, Y: 0}, 8: {X: 10, Y: 20}}

	tests := []struct {
		name   string
		paths  []astral.Path
		want   r2.Vec
		wantOK bool
	}{
		{
			name:   "halfway path",
			paths:  []astral.Path{{ReferencedSun: 7, PositionInPath: 1, PathLength: 2}},
			want:   r2.Vec{X: 15, Y: 0},
			wantOK: true,
		},
		{
			name: "average of two paths",
			paths: []astral.Path{
				{ReferencedSun: 7, PositionInPath: 1, PathLength: 2},
				{ReferencedSun: 8, PositionInPath: 1, PathLength: 1},
			},
			want:   r2.Vec{X: 12.5, Y: -10},
			wantOK: true,
		},
		{
			name:  "unknown reference",
			paths: []astral.Path{{ReferencedSun: 99, PositionInPath: 1, PathLength: 2}},
			want:  p,
		},
		{
			name: "empty set",
			want: p,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := interpolate(p, tt.paths, refs)
			if ok != tt.wantOK || !near(got, tt.want) {
				t.Errorf("interpolate = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSeedDependentsRing(t *testing.T) {
	p := r2.Vec{X: 5, Y: 5}
	refs := map[int64]r2.Vec{7: {}}
	planets := []astral.Dependent{
		{ID: 1, Paths: []astral.Path{{ReferencedSun: 7, PositionInPath: 1, PathLength: 2}}},
		{ID: 2},
	}
	moons := []astral.Dependent{{ID: 3}}

	got := seedDependents(p, refs, planets, moons, 4)
	if len(got) != 3 {
		t.Fatalf("got %d placements, want 3", len(got))
	}
	if got[0].id != 1 || !near(got[0].pos, r2.Vec{X: 7.5, Y: 7.5}) {
		t.Errorf("planet 1 = %+v", got[0])
	}
	for _, pl := range got[1:] {
		if d := r2.Norm(r2.Sub(pl.pos, p)); math.Abs(d-4) > 1e-9 {
			t.Errorf("dependent %d at distance %v, want 4", pl.id, d)
		}
	}
	if near(got[1].pos, got[2].pos) {
		t.Error("ring placements coincide")
	}
	if got[1].moon || !got[2].moon {
		t.Errorf("moon flags = %v, %v", got[1].moon, got[2].moon)
	}
}
