package multiscale

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestLimit(t *testing.T) {
	tests := []struct {
		name string
		d    r2.Vec
		temp r2.Vec
		want r2.Vec
	}{
		{"zero force", r2.Vec{}, r2.Vec{X: 1, Y: 1}, r2.Vec{}},
		{"below temperature", r2.Vec{X: 3, Y: 4}, r2.Vec{X: 10, Y: 10}, r2.Vec{X: 3, Y: 4}},
		{"clamped", r2.Vec{X: 3, Y: 4}, r2.Vec{X: 1, Y: 2}, r2.Vec{X: 0.6, Y: 1.6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := limit(tt.d, tt.temp); !near(got, tt.want) {
				t.Errorf("limit(%v, %v) = %v, want %v", tt.d, tt.temp, got, tt.want)
			}
		})
	}
}

func TestJitterAntisymmetric(t *testing.T) {
	a, b := jitter(3, 9), jitter(9, 3)
	if !near(a, r2.Scale(-1, b)) {
		t.Errorf("jitter(3, 9) = %v, jitter(9, 3) = %v", a, b)
	}
	if n := r2.Norm(a); n == 0 || math.IsNaN(n) {
		t.Errorf("jitter norm = %v", n)
	}
}

func TestBeats(t *testing.T) {
	if !beats(3, 10, 2, 1) {
		t.Error("higher degree must win")
	}
	if !beats(2, 1, 2, 5) || beats(2, 5, 2, 1) {
		t.Error("lower ID must win ties")
	}
}
