// Package cache stores finished layouts and rendered artifacts so that
// repeated runs over the same input and options are free.
//
// Four backends implement [Cache]:
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [BoltCache]: a single bbolt file with lz4-compressed entries
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: stores nothing, for --no-cache
//
// Keys are built by a [Keyer] from a hash of the input and the options that
// affect the result.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Default time-to-live values.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies the layout of the input with the given hash.
	LayoutKey(inputHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies a rendering of the layout with the given hash.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the options that change a layout.
type LayoutKeyOpts struct {
	Adaptation    string  `json:"adaptation"`
	Reintegration string  `json:"reintegration"`
	TTL           int     `json:"ttl"`
	Budget        int     `json:"budget"`
	Threshold     float64 `json:"threshold"`
	Cooling       float64 `json:"cooling"`
	TempFactor    float64 `json:"temp_factor"`
	Accuracy      float64 `json:"accuracy"`
	EdgeLength    float64 `json:"edge_length"`
	Repulsion     float64 `json:"repulsion"`
	Padding       float64 `json:"padding"`
	MinRatio      float64 `json:"min_ratio"`
	Radius        float64 `json:"radius"`
	ConeWidth     float64 `json:"cone_width"`
	MinVertices   int     `json:"min_vertices"`
	MaxLayers     int     `json:"max_layers"`
	// Workers is part of the key because partitioning changes the order in
	// which forces are summed.
	Workers int `json:"workers"`
}

// ArtifactKeyOpts are the options that change a rendering.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	NodeSize float64 `json:"node_size"`
	Labels   bool    `json:"labels"`
}

// DefaultKeyer produces "layout:<hash>" and "artifact:<hash>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", inputHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// GetJSON decodes the entry under key into v. It returns ErrCacheMiss when
// the key is absent.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encode cache entry: %w", err)
	}
	return len(data), c.Set(ctx, key, data, ttl)
}
