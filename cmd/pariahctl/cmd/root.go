// Package cmd provides the pariahctl commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pariah"
	logpkg "github.com/kailas-cloud/pariah/internal/logger"
	"github.com/kailas-cloud/pariah/internal/version"
)

const defaultURL = "http://localhost:9200"

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	url             string
	poolSize        int
	timeout         time.Duration
	installTemplate bool
	debug           bool
}

// NewRootCmd creates the root command for pariahctl.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "pariahctl",
		Short: "Inspect and rebuild search engine indices",
		Long: `pariahctl talks to the search engine through the pariah SDK.

It counts and lists documents with term filters, shows indices and aliases,
and rebuilds an index behind its alias without read downtime.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("pariahctl version {{.Version}}\n")

	url := os.Getenv("PARIAH_ENGINE_URL")
	if url == "" {
		url = defaultURL
	}
	cmd.PersistentFlags().StringVar(&opts.url, "url", url, "Engine base URL (env PARIAH_ENGINE_URL)")
	cmd.PersistentFlags().IntVar(&opts.poolSize, "pool-size", 4, "Maximum concurrent engine connections")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", time.Minute, "Overall deadline for the command")
	cmd.PersistentFlags().BoolVar(&opts.installTemplate, "install-template", false,
		"Install the catch-all index template while connecting")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Log engine operations to stderr")

	cmd.AddCommand(
		newCountCmd(opts),
		newSearchCmd(opts),
		newIndicesCmd(opts),
		newAliasesCmd(opts),
		newReindexCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// connect opens a client bounded by the --timeout deadline. The returned
// cleanup closes the client and releases the deadline.
func (o *globalOptions) connect(parent context.Context) (context.Context, *pariah.Client, func(), error) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, o.timeout)

	logger := zap.NewNop()
	if o.debug {
		l, err := logpkg.NewLogger("local", "debug")
		if err != nil {
			cancel()
			return nil, nil, nil, err
		}
		logger = l
	}

	clientOpts := []pariah.Option{
		pariah.WithURL(o.url),
		pariah.WithPoolSize(o.poolSize),
		pariah.WithLogger(logger),
	}
	if !o.installTemplate {
		clientOpts = append(clientOpts, pariah.WithoutTemplate())
	}

	client, err := pariah.New(ctx, clientOpts...)
	if err != nil {
		cancel()
		return nil, nil, nil, fmt.Errorf("connect to %s: %w", o.url, err)
	}
	cleanup := func() {
		client.Close()
		_ = logger.Sync()
		cancel()
	}
	return ctx, client, cleanup, nil
}
