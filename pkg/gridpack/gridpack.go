// Package gridpack arranges the drawings of disjoint connected components on
// one canvas.
//
// The component with the most vertices keeps its size and is anchored at the
// origin. The remaining components are shrunk in proportion to their vertex
// count and laid out left to right, top to bottom in a grid to its right.
package gridpack

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// Defaults for Options.
const (
	DefaultPadding  = 20.0
	DefaultMinRatio = 0.2
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max r2.Vec
}

// Width is the horizontal extent of b.
func (b Box) Width() float64 { return b.Max.X - b.Min.X }

// Height is the vertical extent of b.
func (b Box) Height() float64 { return b.Max.Y - b.Min.Y }

// Overlaps reports whether the interiors of a and b intersect. Boxes that
// only touch do not overlap.
func Overlaps(a, b Box) bool {
	return a.Min.X < b.Max.X && b.Min.X < a.Max.X &&
		a.Min.Y < b.Max.Y && b.Min.Y < a.Max.Y
}

// Component is the drawing of one connected component.
type Component struct {
	ID    int64
	Box   Box
	Nodes int
}

// Options tunes the packing.
type Options struct {
	// Padding separates neighbouring components.
	Padding float64
	// MinRatio is the smallest scale a component can be shrunk to.
	MinRatio float64
}

// Transform maps a component's coordinates onto the canvas.
type Transform struct {
	Min    r2.Vec
	Scale  float64
	Offset r2.Vec
}

// Apply maps p to (p - Min) * Scale + Offset.
func (t Transform) Apply(p r2.Vec) r2.Vec {
	return r2.Add(r2.Scale(t.Scale, r2.Sub(p, t.Min)), t.Offset)
}

// ApplyBox maps both corners of b.
func (t Transform) ApplyBox(b Box) Box {
	return Box{Min: t.Apply(b.Min), Max: t.Apply(b.Max)}
}

// Pack computes one transform per component. The result is deterministic for
// a given input: components are ordered by ID, then stably by vertex count,
// largest first.
func Pack(components []Component, opts Options) map[int64]Transform {
	out := make(map[int64]Transform, len(components))
	if len(components) == 0 {
		return out
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}

	sorted := slices.Clone(components)
	slices.SortFunc(sorted, func(a, b Component) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortStableFunc(sorted, func(a, b Component) int { return cmp.Compare(b.Nodes, a.Nodes) })

	largest := sorted[0]
	out[largest.ID] = Transform{Min: largest.Box.Min, Scale: 1}
	rest := sorted[1:]
	if len(rest) == 0 {
		return out
	}

	columns := int(math.Ceil(math.Sqrt(float64(len(rest)))))
	origin := r2.Vec{X: largest.Box.Width() + opts.Padding}
	cursor := origin
	rowHeight := 0.0

	for i, c := range rest {
		if i > 0 && i%columns == 0 {
			cursor = r2.Vec{X: origin.X, Y: cursor.Y + rowHeight + opts.Padding}
			rowHeight = 0
		}
		scale := Ratio(c.Nodes, largest.Nodes, opts.MinRatio)
		out[c.ID] = Transform{Min: c.Box.Min, Scale: scale, Offset: cursor}

		cursor.X += c.Box.Width()*scale + opts.Padding
		rowHeight = math.Max(rowHeight, c.Box.Height()*scale)
	}
	return out
}

// Ratio is nodes/largest floored at minRatio and capped at 1.
func Ratio(nodes, largest int, minRatio float64) float64 {
	if largest <= 0 {
		return 1
	}
	return math.Min(1, math.Max(float64(nodes)/float64(largest), minRatio))
}
