package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orrery/internal/api"
	"github.com/matzehuels/orrery/pkg/observability"
	"github.com/matzehuels/orrery/pkg/pipeline"
)

// serveFlags holds the command-line flags for the serve command.
type serveFlags struct {
	addr        string
	configFile  string
	concurrency int
	maxBody     int64
	storage     storageFlags
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

POST /v1/layouts lays out a graph sent as JSON lines or as a JSON object with
options. With --mongo-uri, finished layouts are stored and can be fetched with
GET /v1/layouts/{id} and drawn with GET /v1/layouts/{id}/render.

Options from --config apply to every request unless the request overrides
them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "TOML file with default options")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 1, "layouts computed at the same time")
	cmd.Flags().Int64Var(&flags.maxBody, "max-body", api.DefaultMaxBody, "largest accepted request body in bytes")
	flags.storage.register(cmd, true)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags serveFlags) error {
	defaults, err := resolveOptions(flags.configFile, pipeline.Options{})
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.storage)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close(context.WithoutCancel(ctx))

	cfg := api.Config{
		Concurrency: flags.concurrency,
		MaxBody:     flags.maxBody,
		Defaults:    defaults,
		Logger:      c.Logger,
	}
	if store, ok := runner.Sink.(api.Loader); ok {
		cfg.Store = store
	} else {
		c.Logger.Info("no layout storage, GET routes answer 404")
	}

	hooks := observability.NewLogHooks(c.Logger)
	observability.SetLayoutHooks(hooks)
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	srv := &http.Server{
		Addr:              flags.addr,
		Handler:           api.New(runner, cfg).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return api.Serve(ctx, srv, c.Logger)
}
