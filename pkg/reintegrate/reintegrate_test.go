package reintegrate

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestFairShareCountAndRadius(t *testing.T) {
	center := r2.Vec{X: 10, Y: -5}
	neighbors := []r2.Vec{{X: 20, Y: -5}, {X: 10, Y: 5}}
	got := FairShare{}.Place(center, neighbors, 7, 4)
	if len(got) != 7 {
		t.Fatalf("placed %d vertices, want 7", len(got))
	}
	for _, p := range got {
		if d := r2.Norm(r2.Sub(p, center)); math.Abs(d-4) > 1e-9 {
			t.Errorf("vertex %v at distance %v, want 4", p, d)
		}
	}
}

func TestFairShareAvoidsNeighbors(t *testing.T) {
	center := r2.Vec{}
	// Neighbours at 0 and 90 degrees leave a 90 degree and a 270 degree gap.
	neighbors := []r2.Vec{{X: 1}, {Y: 1}}
	got := FairShare{}.Place(center, neighbors, 4, 1)

	small := 0
	for _, p := range got {
		a := math.Atan2(p.Y, p.X)
		if a > 0 && a < math.Pi/2 {
			small++
		}
		for _, n := range neighbors {
			if r2.Norm(r2.Sub(p, n)) < 1e-6 {
				t.Errorf("vertex placed on neighbour direction %v", n)
			}
		}
	}
	if small != 1 {
		t.Errorf("%d vertices in the 90 degree gap, want 1", small)
	}
}

func TestFairShareNoNeighbors(t *testing.T) {
	got := FairShare{}.Place(r2.Vec{}, nil, 4, 2)
	if len(got) != 4 {
		t.Fatalf("placed %d vertices, want 4", len(got))
	}
	for i := range got {
		for j := i + 1; j < len(got); j++ {
			if r2.Norm(r2.Sub(got[i], got[j])) < 1e-6 {
				t.Errorf("vertices %d and %d coincide", i, j)
			}
		}
	}
}

func TestConeStaysInsideCone(t *testing.T) {
	center := r2.Vec{}
	// Single neighbour at 0 degrees: the widest gap is bisected at 180 degrees.
	got := Cone{Width: 60}.Place(center, []r2.Vec{{X: 1}}, 5, 1)
	if len(got) != 5 {
		t.Fatalf("placed %d vertices, want 5", len(got))
	}
	for _, p := range got {
		a := math.Atan2(p.Y, p.X)
		if math.Abs(math.Abs(a)-math.Pi) > math.Pi/6+1e-9 {
			t.Errorf("vertex at angle %v outside 60 degree cone around pi", a)
		}
	}
}

func TestPlaceZeroCount(t *testing.T) {
	for _, s := range []Strategy{FairShare{}, Cone{}} {
		if got := s.Place(r2.Vec{}, nil, 0, 1); len(got) != 0 {
			t.Errorf("%T placed %d vertices for count 0", s, len(got))
		}
	}
}

func TestLookupFallsBack(t *testing.T) {
	s, ok := Lookup("com.example.Missing", 0)
	if ok {
		t.Error("unknown identifier reported ok")
	}
	if _, isFair := s.(FairShare); !isFair {
		t.Errorf("fallback = %T, want FairShare", s)
	}

	s, ok = Lookup("cone", 0)
	if !ok {
		t.Fatal("cone not found")
	}
	if c := s.(Cone); c.Width != DefaultConeWidth {
		t.Errorf("cone width = %v, want %v", c.Width, DefaultConeWidth)
	}
	if err := Validate("nope"); err == nil {
		t.Error("Validate(nope) should fail")
	}
}

func TestApportion(t *testing.T) {
	gaps := []gap{{width: 1}, {width: 3}}
	shares := apportion(gaps, 4)
	if shares[0] != 1 || shares[1] != 3 {
		t.Errorf("shares = %v, want [1 3]", shares)
	}
	shares = apportion([]gap{{width: 1}, {width: 1}}, 3)
	if shares[0]+shares[1] != 3 || shares[0] != 2 {
		t.Errorf("shares = %v, want [2 1]", shares)
	}
}
