package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/graph"
	pkgio "github.com/matzehuels/orrery/pkg/io"
	"github.com/matzehuels/orrery/pkg/pipeline"
	"github.com/matzehuels/orrery/pkg/render"
)

// renderFlags holds the command-line flags for the render command.
type renderFlags struct {
	output   string // output file path (or base path for multiple outputs)
	formats  string // comma-separated: svg, png, dot
	nodeSize float64
	labels   bool
	storage  storageFlags
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render [layout] [graph.jsonl]",
		Short: "Draw a finished layout with Graphviz",
		Long: `Draw a finished layout with Graphviz.

The layout is either the JSON-lines positions written by 'layout' or the JSON
summary written with --summary. Node positions are pinned; Graphviz only
draws. When the input graph is given, its edges are drawn too.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 2 {
				input = args[1]
			}
			return c.runRender(cmd.Context(), args[0], input, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): svg (default), png, dot (comma-separated)")
	cmd.Flags().Float64Var(&flags.nodeSize, "node-size", pipeline.DefaultNodeSize, "node diameter in points")
	cmd.Flags().BoolVar(&flags.labels, "labels", false, "draw vertex ids")
	flags.storage.register(cmd, false)
	registerValueCompletions(cmd)

	return cmd
}

// loadLayout reads either a positions file or a layout summary.
func loadLayout(path string) (graph.Layout, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return pkgio.ImportJSON(path)
	}
	positions, err := graph.ReadPositionsFile(path)
	if err != nil {
		return graph.Layout{}, err
	}
	l := graph.Layout{Positions: positions}
	l.Bounds()
	return l, nil
}

// basePath derives the base output path from the output and layout paths.
// A known format extension on output is stripped.
func basePath(output, layoutPath string) string {
	if output == "" {
		base := strings.TrimSuffix(layoutPath, filepath.Ext(layoutPath))
		return strings.TrimSuffix(base, ".layout")
	}
	ext := filepath.Ext(output)
	if _, err := render.ParseFormat(strings.TrimPrefix(ext, ".")); err == nil && ext != "" {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPaths maps each format to the file it is written to.
func outputPaths(output, layoutPath string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, layoutPath)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

func (c *CLI) runRender(ctx context.Context, layoutPath, input string, flags renderFlags) error {
	l, err := loadLayout(layoutPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "load layout %s", layoutPath)
	}
	c.Logger.Debug("loaded layout", "positions", len(l.Positions), "width", l.Width, "height", l.Height)

	var records []graph.Record
	if input != "" {
		read, err := graph.ReadRecordsFile(input)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "load graph %s", input)
		}
		records = read.Records
	}

	opts := pipeline.Options{
		Formats:  parseFormats(flags.formats),
		NodeSize: flags.nodeSize,
		Labels:   flags.labels,
		Logger:   c.Logger,
	}
	runner, err := c.newRunner(ctx, flags.storage)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close(context.WithoutCancel(ctx))

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	artifacts, cached, err := runner.Render(ctx, l, records, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	paths := outputPaths(flags.output, layoutPath, opts.Formats)
	printSuccess("Render complete")
	for _, f := range opts.Formats {
		if err := writeArtifact(paths[f], artifacts[f]); err != nil {
			return err
		}
		printFile(paths[f])
	}
	printStats(len(l.Positions), 0, 0, cached)
	return nil
}

// writeArtifact writes data to path, creating parent directories.
func writeArtifact(path string, data []byte) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write %s", path)
	}
	return nil
}
