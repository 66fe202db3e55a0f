// Package force provides the pairwise force model and the cooling schedule
// used by the force-directed layout.
//
// Forces are expressed on displacement vectors: delta is the position of the
// vertex being moved minus the position of the other vertex. A repulsive
// force points along delta (away from the other vertex), so callers add it;
// an attractive force has the same orientation and callers subtract it.
package force

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the smallest magnitude allowed as a divisor.
const Epsilon = 1e-4

// Model computes pairwise forces between two vertices.
type Model interface {
	// Attractive returns the pull between adjacent vertices that are dist
	// apart when the ideal edge length is desired.
	Attractive(delta r2.Vec, dist, desired float64, deg1, deg2 int) r2.Vec

	// Repulsive returns the push between any two vertices dist apart.
	Repulsive(delta r2.Vec, dist float64, deg1, deg2 int) r2.Vec
}

// FR is the Fruchterman-Reingold model: attraction grows with dist², and
// repulsion decays with 1/dist, scaled by the degree ratio of the pair.
type FR struct{}

// Attractive implements [Model].
func (FR) Attractive(delta r2.Vec, dist, desired float64, _, _ int) r2.Vec {
	return r2.Scale(dist/Floor(desired), delta)
}

// Repulsive implements [Model].
func (FR) Repulsive(delta r2.Vec, dist float64, deg1, deg2 int) r2.Vec {
	return r2.Scale(DegreeCorrection(deg1, deg2)/Floor(dist*dist), delta)
}

// DegreeCorrection is deg2/deg1 when both degrees are positive, else 1.
func DegreeCorrection(deg1, deg2 int) float64 {
	if deg1 <= 0 || deg2 <= 0 {
		return 1
	}
	return float64(deg2) / float64(deg1)
}

// Floor keeps x away from zero so it can be used as a divisor. The sign of x
// is preserved.
func Floor(x float64) float64 {
	if math.Abs(x) >= Epsilon {
		return x
	}
	if x < 0 {
		return -Epsilon
	}
	return Epsilon
}

// Dist returns the Euclidean length of delta.
func Dist(delta r2.Vec) float64 {
	return r2.Norm(delta)
}
