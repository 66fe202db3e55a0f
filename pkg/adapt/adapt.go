// Package adapt chooses per-layer tuning for the force-directed layout.
//
// A [Strategy] maps the size of a layer to the flooding radius (how many hops
// force messages travel), the initial temperature factor, the cooling rate
// and the displacement accuracy below which a vertex counts as settled.
// Small sparse layers get a wide radius and slow cooling; large or dense
// layers a narrow radius and fast cooling.
package adapt

import (
	"fmt"
	"slices"
	"strings"
)

// Layer describes the layer being tuned.
type Layer struct {
	Index    int
	Layers   int
	Vertices int
	Edges    int
}

// Density is edges per vertex, or 0 for an empty layer.
func (l Layer) Density() float64 {
	if l.Vertices == 0 {
		return 0
	}
	return float64(l.Edges) / float64(l.Vertices)
}

// Strategy picks tuning values for a layer.
type Strategy interface {
	K(l Layer) int
	InitialTempFactor(l Layer) float64
	CoolingSpeed(l Layer) float64
	TargetAccuracy(l Layer) float64
}

// Tuning is the resolved output of a Strategy for one layer.
type Tuning struct {
	K          int
	TempFactor float64
	Cooling    float64
	Accuracy   float64
}

// Tune evaluates every method of s for l.
func Tune(s Strategy, l Layer) Tuning {
	return Tuning{
		K:          s.K(l),
		TempFactor: s.InitialTempFactor(l),
		Cooling:    s.CoolingSpeed(l),
		Accuracy:   s.TargetAccuracy(l),
	}
}

// table holds the edge-count driven values shared by every adaptive variant.
type table struct{}

func (table) InitialTempFactor(l Layer) float64 {
	switch e := l.Edges; {
	case e < 250:
		return 0.1
	case e < 500:
		return 0.2
	case e < 10000:
		return 0.4
	default:
		return 0.8
	}
}

func (table) CoolingSpeed(l Layer) float64 {
	switch e := l.Edges; {
	case e < 500:
		return 0.98
	case e < 1500:
		return 0.96
	case e < 10000:
		return 0.94
	case e < 1000000:
		return 0.92
	default:
		return 0.9
	}
}

func (table) TargetAccuracy(l Layer) float64 {
	switch e := l.Edges; {
	case e < 1000:
		return 1e-4
	case e < 10000:
		return 1e-3
	case e < 1000000:
		return 1e-2
	default:
		return 0.1
	}
}

// Size picks K from the number of edges.
type Size struct{ table }

func (Size) K(l Layer) int {
	switch e := l.Edges; {
	case e < 1000:
		return 6
	case e < 5000:
		return 5
	case e < 10000:
		return 4
	case e > 1000000:
		return 1
	case e > 100000:
		return 2
	default:
		return 3
	}
}

// Density picks K from the edges-per-vertex ratio.
type Density struct{ table }

func (Density) K(l Layer) int {
	switch d := l.Density(); {
	case d > 4:
		return 1
	case d > 2.5:
		return 2
	case d > 1.5:
		return 3
	default:
		return 6
	}
}

// SizeDensity takes the smaller K of Size and Density.
type SizeDensity struct{ table }

func (SizeDensity) K(l Layer) int {
	return min(Size{}.K(l), Density{}.K(l))
}

// Static returns configured values regardless of the layer.
type Static struct {
	Tuning Tuning
}

func (s Static) K(Layer) int                     { return s.Tuning.K }
func (s Static) InitialTempFactor(Layer) float64 { return s.Tuning.TempFactor }
func (s Static) CoolingSpeed(Layer) float64      { return s.Tuning.Cooling }
func (s Static) TargetAccuracy(Layer) float64    { return s.Tuning.Accuracy }

// Strategy names accepted by Lookup.
const (
	NameSize        = "size"
	NameDensity     = "density"
	NameSizeDensity = "size-density"
	NameStatic      = "static"

	DefaultName = NameSizeDensity
)

// Names lists the recognised strategy names.
func Names() []string {
	names := []string{NameSize, NameDensity, NameSizeDensity, NameStatic}
	slices.Sort(names)
	return names
}

// Lookup resolves a strategy by name. The static variant uses fallback for
// its values. Unknown names return the default strategy with ok == false.
func Lookup(name string, fallback Tuning) (s Strategy, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameSize:
		return Size{}, true
	case NameDensity:
		return Density{}, true
	case NameSizeDensity, "":
		return SizeDensity{}, true
	case NameStatic:
		return Static{Tuning: fallback}, true
	}
	return SizeDensity{}, false
}

// Validate reports whether name is a recognised strategy.
func Validate(name string) error {
	if _, ok := Lookup(name, Tuning{}); !ok {
		return fmt.Errorf("unknown adaptation strategy %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
	return nil
}
