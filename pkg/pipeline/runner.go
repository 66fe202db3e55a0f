package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/orrery/pkg/cache"
	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/graph"
	pkgio "github.com/matzehuels/orrery/pkg/io"
	"github.com/matzehuels/orrery/pkg/multiscale"
	"github.com/matzehuels/orrery/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, the sink and the logger.
// Multiple goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Sink receives every finished layout when set.
	Sink pkgio.Sink
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedLayout is what the layout cache stores.
type cachedLayout struct {
	Layout     graph.Layout             `json:"layout"`
	Layers     []multiscale.LayerReport `json:"layers,omitempty"`
	Supersteps int                      `json:"supersteps"`
}

// Execute runs layout and render over records with caching, then writes the
// layout to the sink.
func (r *Runner) Execute(ctx context.Context, records []graph.Record, opts Options) (*Result, error) {
	r.prepare(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result, err := r.Layout(ctx, records, opts)
	if err != nil {
		return nil, err
	}

	if len(opts.Formats) > 0 {
		renderStart := time.Now()
		artifacts, hit, err := r.Render(ctx, result.Layout, records, opts)
		if err != nil {
			return nil, err
		}
		result.Artifacts = artifacts
		result.Stats.RenderTime = time.Since(renderStart)
		result.CacheInfo.RenderHit = hit
		r.Logger.Info("rendered outputs",
			"formats", opts.Formats,
			"duration", result.Stats.RenderTime)
	}

	if r.Sink != nil {
		if err := r.Sink.Write(ctx, result.Layout); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "write layout %s", result.RunID)
		}
	}
	return result, nil
}

// Layout computes the layout of records, reusing a cached one when the same
// input was laid out with the same options.
func (r *Runner) Layout(ctx context.Context, records []graph.Record, opts Options) (*Result, error) {
	r.prepare(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	normalized, _ := graph.Normalize(records)
	inputHash, err := hashRecords(normalized)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash input")
	}

	result := &Result{
		RunID:     opts.RunID,
		InputHash: inputHash,
		Artifacts: make(map[string][]byte),
	}
	result.Stats.Vertices = len(normalized)
	for _, rec := range normalized {
		result.Stats.Edges += len(rec.Edges)
	}
	result.Stats.Edges /= 2

	key := r.Keyer.LayoutKey(inputHash, opts.LayoutKeyOpts())
	start := time.Now()

	if !opts.Refresh {
		var cached cachedLayout
		switch err := cache.GetJSON(ctx, r.Cache, key, &cached); {
		case err == nil:
			observability.Cache().OnCacheHit(ctx, "layout")
			result.Layout = cached.Layout
			result.Layout.RunID = opts.RunID
			result.Layers = cached.Layers
			result.Stats.Supersteps = cached.Supersteps
			result.Stats.LayoutTime = time.Since(start)
			result.CacheInfo.LayoutHit = true
			r.Logger.Info("layout from cache", "positions", len(result.Layout.Positions))
			return result, nil
		case errors.Is(err, errors.ErrCodeCanceled):
			return nil, err
		default:
			observability.Cache().OnCacheMiss(ctx, "layout")
			if !cache.IsMiss(err) {
				r.Logger.Warn("cache read failed", "err", err)
			}
		}
	}

	// Run reports start and completion to the hooks itself.
	cfg := opts.ToConfig()
	cfg.Hooks = observability.Layout()
	res, err := multiscale.Run(ctx, normalized, cfg)
	result.Stats.LayoutTime = time.Since(start)
	if err != nil {
		return nil, err
	}

	result.Layout = res.Layout(opts.RunID)
	result.Layers = res.Layers
	result.Stats.Supersteps = res.Supersteps
	result.Stats.Dropped = res.Dropped
	for _, n := range res.Messages {
		result.Stats.Messages += n
	}

	r.Logger.Info("computed layout",
		"vertices", result.Stats.Vertices,
		"layers", len(res.Layers),
		"supersteps", res.Supersteps,
		"duration", result.Stats.LayoutTime)

	entry := cachedLayout{Layout: result.Layout, Layers: res.Layers, Supersteps: res.Supersteps}
	entry.Layout.RunID = ""
	if n, err := cache.SetJSON(ctx, r.Cache, key, entry, cache.TTLLayout); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "layout", n)
	}
	return result, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close(ctx context.Context) error {
	var err error
	if r.Sink != nil {
		err = r.Sink.Close(ctx)
	}
	if r.Cache != nil {
		if cerr := r.Cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// prepare applies defaults, the runner's logger and a fresh run id.
func (r *Runner) prepare(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	opts.SetDefaults()
}

func hashRecords(records []graph.Record) (string, error) {
	var buf bytes.Buffer
	if err := graph.WriteRecords(&buf, records); err != nil {
		return "", err
	}
	return cache.Hash(buf.Bytes()), nil
}
