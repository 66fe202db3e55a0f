// Package reintegrate places one-degree vertices that were pruned before
// layout back around their single neighbour.
package reintegrate

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Strategy places count pruned vertices on a circle of the given radius
// around center, avoiding the directions of the anchor's other neighbours.
type Strategy interface {
	Place(center r2.Vec, neighbors []r2.Vec, count int, radius float64) []r2.Vec
}

// Identifiers accepted by Lookup.
const (
	NameFairShare = "fair-share"
	NameCone      = "cone"

	DefaultName      = NameFairShare
	DefaultConeWidth = 90.0
)

// Lookup resolves a strategy identifier. Unknown identifiers fall back to
// FairShare with ok == false. coneWidth is in degrees; non-positive values
// use DefaultConeWidth.
func Lookup(id string, coneWidth float64) (s Strategy, ok bool) {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case NameFairShare, "":
		return FairShare{}, true
	case NameCone:
		if coneWidth <= 0 {
			coneWidth = DefaultConeWidth
		}
		return Cone{Width: coneWidth}, true
	}
	return FairShare{}, false
}

// Validate reports whether id names a known strategy.
func Validate(id string) error {
	if _, ok := Lookup(id, 0); !ok {
		return fmt.Errorf("unknown reintegration strategy %q (valid: %s, %s)", id, NameFairShare, NameCone)
	}
	return nil
}

// FairShare splits the free angular space between neighbour directions and
// gives each gap a share of the vertices proportional to its angle.
type FairShare struct{}

// Place implements [Strategy].
func (FairShare) Place(center r2.Vec, neighbors []r2.Vec, count int, radius float64) []r2.Vec {
	if count <= 0 {
		return nil
	}
	gaps := angularGaps(center, neighbors)
	shares := apportion(gaps, count)

	out := make([]r2.Vec, 0, count)
	for i, g := range gaps {
		for j := range shares[i] {
			a := g.start + g.width*float64(j+1)/float64(shares[i]+1)
			out = append(out, onCircle(center, radius, a))
		}
	}
	return out
}

// Cone spreads all vertices inside a cone of Width degrees centred on the
// bisector of the widest free gap.
type Cone struct {
	Width float64
}

// Place implements [Strategy].
func (c Cone) Place(center r2.Vec, neighbors []r2.Vec, count int, radius float64) []r2.Vec {
	if count <= 0 {
		return nil
	}
	width := c.Width
	if width <= 0 {
		width = DefaultConeWidth
	}
	width = math.Min(width, 360) * math.Pi / 180

	gaps := angularGaps(center, neighbors)
	widest := gaps[0]
	for _, g := range gaps[1:] {
		if g.width > widest.width {
			widest = g
		}
	}
	bisector := widest.start + widest.width/2

	out := make([]r2.Vec, count)
	for j := range out {
		a := bisector - width/2 + width*(float64(j)+0.5)/float64(count)
		out[j] = onCircle(center, radius, a)
	}
	return out
}

type gap struct {
	start, width float64
}

// angularGaps returns the free arcs between neighbour directions, walking
// counter-clockwise. Without neighbours the whole circle is one gap.
func angularGaps(center r2.Vec, neighbors []r2.Vec) []gap {
	angles := make([]float64, 0, len(neighbors))
	for _, n := range neighbors {
		d := r2.Sub(n, center)
		if d.X == 0 && d.Y == 0 {
			continue
		}
		angles = append(angles, math.Atan2(d.Y, d.X))
	}
	if len(angles) == 0 {
		return []gap{{start: 0, width: 2 * math.Pi}}
	}
	slices.Sort(angles)

	gaps := make([]gap, len(angles))
	for i, a := range angles {
		next := angles[(i+1)%len(angles)]
		if i == len(angles)-1 {
			next += 2 * math.Pi
		}
		gaps[i] = gap{start: a, width: next - a}
	}
	return gaps
}

// apportion distributes count items over gaps proportionally to their width
// using the largest remainder method; ties go to the earlier gap.
func apportion(gaps []gap, count int) []int {
	total := 0.0
	for _, g := range gaps {
		total += g.width
	}
	shares := make([]int, len(gaps))
	if total == 0 {
		shares[0] = count
		return shares
	}

	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, len(gaps))
	assigned := 0
	for i, g := range gaps {
		exact := float64(count) * g.width / total
		shares[i] = int(math.Floor(exact))
		assigned += shares[i]
		rems[i] = rem{i, exact - float64(shares[i])}
	}
	slices.SortStableFunc(rems, func(a, b rem) int {
		switch {
		case a.frac > b.frac:
			return -1
		case a.frac < b.frac:
			return 1
		}
		return 0
	})
	for i := 0; assigned < count; i++ {
		shares[rems[i%len(rems)].idx]++
		assigned++
	}
	return shares
}

func onCircle(center r2.Vec, radius, angle float64) r2.Vec {
	return r2.Add(center, r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)})
}
