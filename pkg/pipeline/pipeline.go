// Package pipeline provides the load → layout → render pipeline shared by
// the CLI and the HTTP server.
//
// By centralizing option handling, caching and output here, every entry
// point lays out a graph the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode JSON-lines vertex records
//  2. Layout: Run the multi-level layout, or reuse a cached one
//  3. Render: Convert the layout to DOT and encode it with Graphviz
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Adaptation: "size-density", Formats: []string{"svg"}}
//	result, err := runner.Execute(ctx, records, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/orrery/pkg/adapt"
	"github.com/matzehuels/orrery/pkg/cache"
	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/graph"
	"github.com/matzehuels/orrery/pkg/multiscale"
	"github.com/matzehuels/orrery/pkg/reintegrate"
	"github.com/matzehuels/orrery/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultNodeSize is the rendered node diameter in points.
	DefaultNodeSize = 4.0

	// DefaultFormat is the default artifact format.
	DefaultFormat = string(render.FormatSVG)
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline. Field names match
// the TOML options file and API request bodies.
type Options struct {
	// Layout options
	TTL               int     `json:"ttl,omitempty" toml:"ttl"`
	Budget            int     `json:"budget,omitempty" toml:"budget"`
	Threshold         float64 `json:"threshold,omitempty" toml:"threshold"`
	Cooling           float64 `json:"cooling,omitempty" toml:"cooling"`
	TempFactor        float64 `json:"temp_factor,omitempty" toml:"temp_factor"`
	Accuracy          float64 `json:"accuracy,omitempty" toml:"accuracy"`
	NodeLength        float64 `json:"node_length,omitempty" toml:"node_length"`
	NodeWidth         float64 `json:"node_width,omitempty" toml:"node_width"`
	NodeSeparation    float64 `json:"node_separation,omitempty" toml:"node_separation"`
	RepulsionOverride float64 `json:"repulsion,omitempty" toml:"repulsion"`
	Padding           float64 `json:"padding,omitempty" toml:"padding"`
	MinRatio          float64 `json:"min_ratio,omitempty" toml:"min_ratio"`
	Reintegration     string  `json:"reintegration,omitempty" toml:"reintegration"`
	Radius            float64 `json:"radius,omitempty" toml:"radius"`
	ConeWidth         float64 `json:"cone_width,omitempty" toml:"cone_width"`
	Adaptation        string  `json:"adaptation,omitempty" toml:"adaptation"`
	MinVertices       int     `json:"min_vertices,omitempty" toml:"min_vertices"`
	MaxLayers         int     `json:"max_layers,omitempty" toml:"max_layers"`
	Workers           int     `json:"workers,omitempty" toml:"workers"`
	MaxSupersteps     int     `json:"max_supersteps,omitempty" toml:"max_supersteps"`

	// Render options
	Formats  []string `json:"formats,omitempty" toml:"formats"`
	NodeSize float64  `json:"node_size,omitempty" toml:"node_size"`
	Labels   bool     `json:"labels,omitempty" toml:"labels"`

	// Refresh skips cache lookups but still stores the result.
	Refresh bool `json:"refresh,omitempty" toml:"-"`

	// Runtime options (not serialized)
	RunID  string      `json:"-" toml:"-"`
	Logger *log.Logger `json:"-" toml:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in sinks and API responses.
	RunID string

	// InputHash is the content hash of the normalized records.
	InputHash string

	// Layout holds the final positions.
	Layout graph.Layout

	// Layers reports per-layer refinement. Empty on a cache hit.
	Layers []multiscale.LayerReport

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Vertices   int
	Edges      int
	Supersteps int
	Messages   int64
	Dropped    int64
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// =============================================================================
// Options Methods
// =============================================================================

// LoadOptionsFile reads options from a TOML file. Keys that are absent keep
// their zero value so SetDefaults can fill them.
func LoadOptionsFile(path string) (Options, error) {
	var o Options
	md, err := toml.DecodeFile(path, &o)
	if err != nil {
		return Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read options file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Options{}, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return o, nil
}

// Merge overlays the non-zero fields of other onto o. Flags given on the
// command line are merged over the options file this way.
func (o *Options) Merge(other Options) {
	setInt(&o.TTL, other.TTL)
	setInt(&o.Budget, other.Budget)
	setFloat(&o.Threshold, other.Threshold)
	setFloat(&o.Cooling, other.Cooling)
	setFloat(&o.TempFactor, other.TempFactor)
	setFloat(&o.Accuracy, other.Accuracy)
	setFloat(&o.NodeLength, other.NodeLength)
	setFloat(&o.NodeWidth, other.NodeWidth)
	setFloat(&o.NodeSeparation, other.NodeSeparation)
	setFloat(&o.RepulsionOverride, other.RepulsionOverride)
	setFloat(&o.Padding, other.Padding)
	setFloat(&o.MinRatio, other.MinRatio)
	setFloat(&o.Radius, other.Radius)
	setFloat(&o.ConeWidth, other.ConeWidth)
	setInt(&o.MinVertices, other.MinVertices)
	setInt(&o.MaxLayers, other.MaxLayers)
	setInt(&o.Workers, other.Workers)
	setInt(&o.MaxSupersteps, other.MaxSupersteps)
	setFloat(&o.NodeSize, other.NodeSize)
	if other.Reintegration != "" {
		o.Reintegration = other.Reintegration
	}
	if other.Adaptation != "" {
		o.Adaptation = other.Adaptation
	}
	if len(other.Formats) > 0 {
		o.Formats = other.Formats
	}
	o.Labels = o.Labels || other.Labels
	o.Refresh = o.Refresh || other.Refresh
	if other.RunID != "" {
		o.RunID = other.RunID
	}
	if other.Logger != nil {
		o.Logger = other.Logger
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// SetDefaults fills zero fields with the layout and render defaults.
// Formats stay empty: Execute then renders nothing.
func (o *Options) SetDefaults() {
	cfg := o.ToConfig()
	cfg.SetDefaults()
	o.TTL, o.Budget, o.Threshold = cfg.TTL, cfg.Budget, cfg.Threshold
	o.Cooling, o.TempFactor, o.Accuracy = cfg.Cooling, cfg.TempFactor, cfg.Accuracy
	o.NodeLength, o.NodeWidth, o.NodeSeparation = cfg.NodeLength, cfg.NodeWidth, cfg.NodeSeparation
	o.Padding, o.MinRatio = cfg.Padding, cfg.MinRatio
	o.Reintegration, o.Radius, o.ConeWidth = cfg.Reintegration, cfg.ReintegrationRadius, cfg.ConeWidth
	o.Adaptation = cfg.Adaptation
	o.MinVertices, o.MaxLayers = cfg.MinVertices, cfg.MaxLayers
	o.Workers, o.MaxSupersteps = cfg.Workers, cfg.MaxSupersteps

	if o.NodeSize == 0 {
		o.NodeSize = DefaultNodeSize
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks numeric ranges and output formats. Strategy names are not
// checked: unknown names fall back to the defaults with a warning. Use
// ValidateStrategies to reject them instead.
func (o *Options) Validate() error {
	checks := []error{
		errors.ValidateMinInt("ttl", o.TTL, 1),
		errors.ValidateMinInt("budget", o.Budget, 1),
		errors.ValidateFraction("threshold", o.Threshold),
		errors.ValidateFraction("cooling", o.Cooling),
		errors.ValidatePositive("temp_factor", o.TempFactor),
		errors.ValidatePositive("accuracy", o.Accuracy),
		errors.ValidateNonNegative("node_length", o.NodeLength),
		errors.ValidateNonNegative("node_width", o.NodeWidth),
		errors.ValidateNonNegative("node_separation", o.NodeSeparation),
		errors.ValidateNonNegative("repulsion", o.RepulsionOverride),
		errors.ValidateNonNegative("padding", o.Padding),
		errors.ValidateFraction("min_ratio", o.MinRatio),
		errors.ValidateNonNegative("radius", o.Radius),
		errors.ValidatePositive("cone_width", o.ConeWidth),
		errors.ValidateMinInt("min_vertices", o.MinVertices, 1),
		errors.ValidateMinInt("max_layers", o.MaxLayers, 1),
		errors.ValidateMinInt("workers", o.Workers, 1),
		errors.ValidateMinInt("max_supersteps", o.MaxSupersteps, 1),
		errors.ValidateNonNegative("node_size", o.NodeSize),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if o.NodeLength+o.NodeWidth+o.NodeSeparation == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "node sizes give no usable edge length")
	}
	for _, f := range o.Formats {
		if _, err := render.ParseFormat(f); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "formats")
		}
	}
	return nil
}

// ValidateStrategies rejects unknown adaptation and reintegration names.
func (o *Options) ValidateStrategies() error {
	if err := adapt.Validate(o.Adaptation); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStrategy, err, "adaptation")
	}
	if err := reintegrate.Validate(o.Reintegration); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStrategy, err, "reintegration")
	}
	return nil
}

// ToConfig converts the layout options into a multiscale.Config.
func (o *Options) ToConfig() multiscale.Config {
	return multiscale.Config{
		TTL:                 o.TTL,
		Budget:              o.Budget,
		Threshold:           o.Threshold,
		Cooling:             o.Cooling,
		TempFactor:          o.TempFactor,
		Accuracy:            o.Accuracy,
		NodeLength:          o.NodeLength,
		NodeWidth:           o.NodeWidth,
		NodeSeparation:      o.NodeSeparation,
		RepulsionOverride:   o.RepulsionOverride,
		Padding:             o.Padding,
		MinRatio:            o.MinRatio,
		Reintegration:       o.Reintegration,
		ReintegrationRadius: o.Radius,
		ConeWidth:           o.ConeWidth,
		Adaptation:          o.Adaptation,
		MinVertices:         o.MinVertices,
		MaxLayers:           o.MaxLayers,
		Workers:             o.Workers,
		MaxSupersteps:       o.MaxSupersteps,
		RunID:               o.RunID,
		Logger:              o.Logger,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	cfg := o.ToConfig()
	return cache.LayoutKeyOpts{
		Adaptation:    o.Adaptation,
		Reintegration: o.Reintegration,
		TTL:           o.TTL,
		Budget:        o.Budget,
		Threshold:     o.Threshold,
		Cooling:       o.Cooling,
		TempFactor:    o.TempFactor,
		Accuracy:      o.Accuracy,
		EdgeLength:    cfg.EdgeLength(),
		Repulsion:     o.RepulsionOverride,
		Padding:       o.Padding,
		MinRatio:      o.MinRatio,
		Radius:        o.Radius,
		ConeWidth:     o.ConeWidth,
		MinVertices:   o.MinVertices,
		MaxLayers:     o.MaxLayers,
		Workers:       o.Workers,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		NodeSize: o.NodeSize,
		Labels:   o.Labels,
	}
}
