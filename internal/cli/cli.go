// Package cli implements the orrery command-line interface.
//
// # Commands
//
//   - layout: Lay out a JSON-lines graph and write the positions
//   - render: Draw a finished layout as SVG, PNG or DOT
//   - serve: Run the HTTP API
//   - cache: Manage the local layout cache
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orrery/pkg/buildinfo"
	"github.com/matzehuels/orrery/pkg/cache"
	"github.com/matzehuels/orrery/pkg/errors"
	pkgio "github.com/matzehuels/orrery/pkg/io"
	"github.com/matzehuels/orrery/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "orrery"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetLogFormat switches the logger to text, json or logfmt output.
func (c *CLI) SetLogFormat(format string) error {
	f, err := parseLogFormat(format)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "log format")
	}
	c.Logger.SetFormatter(f)
	return nil
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Orrery lays out large graphs with a multi-level force-directed model",
		Long:         `Orrery coarsens a graph into solar systems, lays out the coarsest level with a force-directed model, then places and refines every finer level until the input graph has a drawing.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// storageFlags select the cache backend and an optional MongoDB sink.
type storageFlags struct {
	noCache  bool
	cacheURL string
	mongo    pkgio.MongoConfig
}

func (f *storageFlags) register(cmd *cobra.Command, withSink bool) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&f.cacheURL, "cache-url", "", "cache URL: redis://host:6379/0 (shared) or bolt:///path/cache.bbolt (default: local file cache)")
	if !withSink {
		return
	}
	cmd.Flags().StringVar(&f.mongo.URI, "mongo-uri", "", "also store layouts in MongoDB at this URI")
	cmd.Flags().StringVar(&f.mongo.Database, "mongo-db", appName, "MongoDB database")
	cmd.Flags().StringVar(&f.mongo.Collection, "mongo-collection", "positions", "MongoDB collection for positions")
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, f storageFlags) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, f)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(store, nil, c.Logger)
	if f.mongo.URI != "" {
		if err := errors.ValidateURL(f.mongo.URI, "mongodb", "mongodb+srv"); err != nil {
			_ = store.Close()
			return nil, err
		}
		sink, err := pkgio.NewMongoSink(ctx, f.mongo)
		if err != nil {
			_ = store.Close()
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongodb")
		}
		runner.Sink = sink
	}
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context, f storageFlags) (cache.Cache, error) {
	switch {
	case f.noCache:
		return cache.NewNullCache(), nil
	case strings.HasPrefix(f.cacheURL, "bolt://"):
		path := strings.TrimPrefix(f.cacheURL, "bolt://")
		if err := errors.ValidatePath(path); err != nil {
			return nil, err
		}
		bc, err := cache.NewBoltCache(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "open bolt cache")
		}
		return bc, nil
	case f.cacheURL != "":
		if err := errors.ValidateURL(f.cacheURL, "redis", "rediss"); err != nil {
			return nil, err
		}
		rc, err := cache.NewRedisCache(ctx, f.cacheURL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to redis")
		}
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the per-user cache directory (~/.cache/orrery/ on Linux).
func cacheDir() (string, error) {
	return cache.DefaultDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
