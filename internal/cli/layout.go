package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orrery/pkg/adapt"
	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/graph"
	pkgio "github.com/matzehuels/orrery/pkg/io"
	"github.com/matzehuels/orrery/pkg/observability"
	"github.com/matzehuels/orrery/pkg/pipeline"
	"github.com/matzehuels/orrery/pkg/reintegrate"
)

// layoutFlags are the flags of the layout command that are not options.
type layoutFlags struct {
	output     string
	summary    string
	configFile string
	formats    string
	storage    storageFlags
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags layoutFlags
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "layout [graph.jsonl]",
		Short: "Lay out a graph given as JSON lines",
		Long: `Lay out a graph given as JSON lines.

Every input line describes one vertex:

  [id, partition, component, x, y, oneDegree, [[target, partition], ...]]

where oneDegree is either the number of pruned one-degree neighbours or the
list of their ids. The result is written as JSON lines of positions to
<input>.layout.jsonl.

Options are read from --config (TOML) first; flags given on the command line
override them. Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("format") {
				opts.Formats = parseFormats(flags.formats)
			}
			return c.runLayout(cmd.Context(), args[0], opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: <input>.layout.jsonl)")
	cmd.Flags().StringVar(&flags.summary, "summary", "", "also write the layout summary as JSON to this file")
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "TOML options file")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "also render: svg, png, dot (comma-separated)")
	flags.storage.register(cmd, true)
	registerOptionFlags(cmd, &opts)
	registerValueCompletions(cmd)

	return cmd
}

// registerOptionFlags binds every layout option to a flag. Zero values mean
// "not set" so that Merge keeps the options file values.
func registerOptionFlags(cmd *cobra.Command, opts *pipeline.Options) {
	f := cmd.Flags()
	f.IntVar(&opts.TTL, "ttl", 0, "flooding depth for the static adaptation strategy (default 3)")
	f.IntVar(&opts.Budget, "budget", 0, "superstep budget per layer (default 1500)")
	f.Float64Var(&opts.Threshold, "threshold", 0, "settled fraction at which a layer converges (default 0.85)")
	f.Float64Var(&opts.Cooling, "cooling", 0, "temperature decay per cycle, static strategy (default 0.93)")
	f.Float64Var(&opts.TempFactor, "temp-factor", 0, "initial temperature factor, static strategy (default 0.4)")
	f.Float64Var(&opts.Accuracy, "accuracy", 0, "target accuracy, static strategy (default 0.001)")
	f.Float64Var(&opts.NodeLength, "node-length", 0, "node length (default 20)")
	f.Float64Var(&opts.NodeWidth, "node-width", 0, "node width (default 20)")
	f.Float64Var(&opts.NodeSeparation, "node-separation", 0, "node separation (default 20)")
	f.Float64Var(&opts.RepulsionOverride, "repulsion", 0, "repulsion constant (default: derived from the edge length)")
	f.Float64Var(&opts.Padding, "padding", 0, "padding between packed components (default 20)")
	f.Float64Var(&opts.MinRatio, "min-ratio", 0, "smallest component scale relative to the largest (default 0.2)")
	f.StringVar(&opts.Reintegration, "reintegration", "", "one-degree placement: "+reintegrate.NameFairShare+" (default), "+reintegrate.NameCone)
	f.Float64Var(&opts.Radius, "radius", 0, "one-degree distance as a fraction of the edge length (default 0.2)")
	f.Float64Var(&opts.ConeWidth, "cone-width", 0, "cone width in degrees (default 90)")
	f.StringVar(&opts.Adaptation, "adaptation", "", "adaptation strategy: "+strings.Join(adapt.Names(), ", ")+" (default "+adapt.DefaultName+")")
	f.IntVar(&opts.MinVertices, "min-vertices", 0, "stop coarsening below this many vertices (default 32)")
	f.IntVar(&opts.MaxLayers, "max-layers", 0, "maximum number of coarse layers (default 10)")
	f.IntVarP(&opts.Workers, "workers", "w", 0, "number of partitions (default: number of CPUs)")
	f.IntVar(&opts.MaxSupersteps, "max-supersteps", 0, "hard superstep limit (default 100000)")
	f.Float64Var(&opts.NodeSize, "node-size", 0, "rendered node diameter in points (default 4)")
	f.BoolVar(&opts.Labels, "labels", false, "draw vertex ids")
	f.BoolVar(&opts.Refresh, "refresh", false, "ignore cached layouts")
}

// resolveOptions merges flags over the options file.
func resolveOptions(configFile string, flags pipeline.Options) (pipeline.Options, error) {
	var opts pipeline.Options
	if configFile != "" {
		if err := errors.ValidatePath(configFile); err != nil {
			return opts, err
		}
		fromFile, err := pipeline.LoadOptionsFile(configFile)
		if err != nil {
			return opts, err
		}
		opts = fromFile
	}
	opts.Merge(flags)
	return opts, nil
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, flagOpts pipeline.Options, flags layoutFlags) error {
	opts, err := resolveOptions(flags.configFile, flagOpts)
	if err != nil {
		return err
	}
	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	read, err := graph.ReadRecordsFile(input)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "load graph %s", input)
	}
	for _, skipped := range read.Skipped {
		c.Logger.Debug("skipped input line", "line", skipped.Line, "err", skipped.Err)
	}
	if n := len(read.Skipped); n > 0 {
		printWarning("Skipped %d malformed lines (see --verbose)", n)
	}
	prog.done(fmt.Sprintf("Read %d vertices", len(read.Records)))

	outputPath := flags.output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.jsonl"
	}
	if err := errors.ValidatePath(outputPath); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.storage)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close(context.WithoutCancel(ctx))
	file := pkgio.FileSink{Path: outputPath, SummaryPath: flags.summary}
	if runner.Sink != nil {
		runner.Sink = pkgio.Multi(file, runner.Sink)
	} else {
		runner.Sink = file
	}

	spinner := newSpinnerWithContext(ctx, "Laying out...")
	var hooks observability.LayoutHooks = spinner
	if c.Logger.GetLevel() <= log.DebugLevel {
		hooks = observability.MultiLayout(spinner, observability.NewLogHooks(c.Logger))
	}
	observability.SetLayoutHooks(hooks)
	spinner.Start()

	result, err := runner.Execute(ctx, read.Records, opts)
	observability.SetLayoutHooks(nil)
	if spinner.Cancelled() {
		spinner.Stop()
		return errors.Wrap(errors.ErrCodeCanceled, ctx.Err(), "layout interrupted")
	}
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	if finished, converged := spinner.Layers(); finished > converged {
		printWarning("%d of %d layers hit the superstep budget before converging", finished-converged, finished)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	if flags.summary != "" {
		printFile(flags.summary)
	}
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
	for format, data := range result.Artifacts {
		path := base + "." + format
		if err := writeArtifact(path, data); err != nil {
			return err
		}
		printFile(path)
	}
	printStats(result.Stats.Vertices, result.Stats.Edges, result.Stats.Supersteps, result.CacheInfo.LayoutHit)
	if table := formatLayers(result.Layers); table != "" {
		printNewline()
		fmt.Print(table)
	}
	printNewline()
	printKeyValue("run", result.RunID)
	if len(result.Artifacts) == 0 {
		printNextStep("Render", appName+" render "+outputPath+" "+input)
	}
	return nil
}
