package pipeline

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/orrery/pkg/cache"
	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/graph"
	"github.com/matzehuels/orrery/pkg/observability"
	"github.com/matzehuels/orrery/pkg/render"
	"github.com/matzehuels/orrery/pkg/render/nodelink"
)

// Render generates artifacts in the requested formats with caching. The
// returned flag is true when every artifact came from the cache.
func (r *Runner) Render(ctx context.Context, l graph.Layout, records []graph.Record, opts Options) (map[string][]byte, bool, error) {
	r.prepare(&opts)
	if len(opts.Formats) == 0 {
		opts.Formats = []string{DefaultFormat}
	}
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	// The run id differs between runs of the same layout.
	keyed := l
	keyed.RunID = ""
	data, err := json.Marshal(keyed)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
	}
	layoutHash := cache.Hash(data)

	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit && !opts.Refresh {
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
		allCached = false
	}
	if allCached {
		return artifacts, true, nil
	}

	rendered, err := RenderFromLayout(ctx, l, records, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return rendered, false, nil
}

// RenderFromLayout renders l in every format of opts without caching.
// Records supply the edges; without them only the nodes are drawn.
func RenderFromLayout(ctx context.Context, l graph.Layout, records []graph.Record, opts Options) (map[string][]byte, error) {
	dot := nodelink.ToDOT(l, records, nodelink.Options{NodeSize: opts.NodeSize, Labels: opts.Labels})

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, name := range opts.Formats {
		f, err := render.ParseFormat(name)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "render")
		}
		data, err := render.Render(ctx, dot, f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", f)
		}
		artifacts[name] = data
	}
	return artifacts, nil
}
