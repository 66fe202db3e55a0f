package astral

import (
	"cmp"
	"slices"
)

// Path records how a dependent of a sun is connected to a neighbouring
// system: the dependent sits PositionInPath hops along a path of
// PathLength hops that ends at ReferencedSun.
type Path struct {
	LengthDelta    int
	ReferencedSun  int64
	PositionInPath int
	PathLength     int
}

// Ratio is PositionInPath/PathLength, or 0 for a degenerate path.
func (p Path) Ratio() float64 {
	if p.PathLength <= 0 {
		return 0
	}
	return float64(p.PositionInPath) / float64(p.PathLength)
}

func comparePaths(a, b Path) int {
	return cmp.Or(
		cmp.Compare(a.ReferencedSun, b.ReferencedSun),
		cmp.Compare(a.LengthDelta, b.LengthDelta),
		cmp.Compare(a.PositionInPath, b.PositionInPath),
		cmp.Compare(a.PathLength, b.PathLength),
	)
}

// PathSet is a set of paths deduplicated by value.
type PathSet map[Path]struct{}

// Add inserts p and reports whether it was not already present.
func (s PathSet) Add(p Path) bool {
	if _, ok := s[p]; ok {
		return false
	}
	s[p] = struct{}{}
	return true
}

// Sorted returns the paths in a stable order.
func (s PathSet) Sorted() []Path {
	out := make([]Path, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.SortFunc(out, comparePaths)
	return out
}

// Referrer identifies the body that observed a neighbouring system, and
// where it sits on the path toward it.
type Referrer struct {
	Body                int64
	DistanceAccumulator int
	PositionInPath      int
	PathLength          int
}
