package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orrery/internal/cli"
	"github.com/matzehuels/orrery/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process status: 130 for an interrupted
// run (shell convention for SIGINT), 2 for bad input or options, else 1.
func exitCode(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeCanceled:
		return 130
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidStrategy,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidFormat:
		return 2
	}
	return 1
}

func run(ctx context.Context) error {
	var (
		verbose   bool
		logFormat string
	)

	// The logger is built before flags are parsed and adjusted in
	// PersistentPreRunE once they are.
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&logFormat, "log-format", cli.LogFormatText, "log output: text, json or logfmt")

	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := cli.LogInfo
		if verbose {
			level = cli.LogDebug
		}
		c.SetLogLevel(level)
		if err := c.SetLogFormat(logFormat); err != nil {
			return err
		}

		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
