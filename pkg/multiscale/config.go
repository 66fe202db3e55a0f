package multiscale

import (
	"io"
	"math"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orrery/pkg/adapt"
	"github.com/matzehuels/orrery/pkg/force"
	"github.com/matzehuels/orrery/pkg/gridpack"
	"github.com/matzehuels/orrery/pkg/observability"
	"github.com/matzehuels/orrery/pkg/reintegrate"
)

// Defaults for Config.
const (
	DefaultTTL                 = 3
	DefaultBudget              = 1500
	DefaultThreshold           = 0.85
	DefaultTempFactor          = 0.4
	DefaultAccuracy            = 1e-3
	DefaultNodeSize            = 20.0
	DefaultReintegrationRadius = 0.2
	DefaultMinVertices         = 32
	DefaultMaxLayers           = 10
	DefaultMaxSupersteps       = 100000

	// repulsionFactor derives the repulsion constant from the edge length.
	repulsionFactor = 0.052
)

// Config tunes a run. Zero fields take their defaults.
type Config struct {
	// TTL is the flooding depth used by the static adaptation strategy.
	TTL int
	// Budget bounds the supersteps spent refining one layer.
	Budget int
	// Threshold is the settled fraction at which a layer counts as converged.
	Threshold float64
	// Cooling, TempFactor and Accuracy feed the static adaptation strategy.
	Cooling    float64
	TempFactor float64
	Accuracy   float64

	NodeLength     float64
	NodeWidth      float64
	NodeSeparation float64
	// RepulsionOverride replaces the derived repulsion constant when positive.
	RepulsionOverride float64

	Padding  float64
	MinRatio float64

	Reintegration       string
	ReintegrationRadius float64
	ConeWidth           float64

	Adaptation string

	MinVertices int
	MaxLayers   int

	Workers       int
	MaxSupersteps int

	RunID  string
	Logger *log.Logger
	Hooks  observability.LayoutHooks
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.Budget == 0 {
		c.Budget = DefaultBudget
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.Cooling == 0 {
		c.Cooling = force.DefaultCoolingRate
	}
	if c.TempFactor == 0 {
		c.TempFactor = DefaultTempFactor
	}
	if c.Accuracy == 0 {
		c.Accuracy = DefaultAccuracy
	}
	if c.NodeLength == 0 && c.NodeWidth == 0 && c.NodeSeparation == 0 {
		c.NodeLength, c.NodeWidth, c.NodeSeparation = DefaultNodeSize, DefaultNodeSize, DefaultNodeSize
	}
	if c.Padding == 0 {
		c.Padding = gridpack.DefaultPadding
	}
	if c.MinRatio == 0 {
		c.MinRatio = gridpack.DefaultMinRatio
	}
	if c.Reintegration == "" {
		c.Reintegration = reintegrate.DefaultName
	}
	if c.ReintegrationRadius == 0 {
		c.ReintegrationRadius = DefaultReintegrationRadius
	}
	if c.ConeWidth == 0 {
		c.ConeWidth = reintegrate.DefaultConeWidth
	}
	if c.Adaptation == "" {
		c.Adaptation = adapt.DefaultName
	}
	if c.MinVertices == 0 {
		c.MinVertices = DefaultMinVertices
	}
	if c.MaxLayers == 0 {
		c.MaxLayers = DefaultMaxLayers
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.MaxSupersteps == 0 {
		c.MaxSupersteps = DefaultMaxSupersteps
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if c.Hooks == nil {
		c.Hooks = observability.Layout()
	}
}

// EdgeLength is the base ideal edge length k: the node separation plus the
// diagonal of a node.
func (c Config) EdgeLength() float64 {
	return c.NodeSeparation + math.Hypot(c.NodeLength, c.NodeWidth)
}

// staticTuning is what the static adaptation strategy returns.
func (c Config) staticTuning() adapt.Tuning {
	return adapt.Tuning{K: c.TTL, TempFactor: c.TempFactor, Cooling: c.Cooling, Accuracy: c.Accuracy}
}
