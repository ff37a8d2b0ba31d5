// Package main provides the generator command that writes embed posts for
// every entry of the site's data file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"stpicks/internal/cli"
	"stpicks/internal/feed"
	"stpicks/internal/pipeline"
)

func main() {
	cli.Execute(newRootCmd())
}

func newRootCmd() *cobra.Command {
	var (
		opts  cli.Options
		graph bool
		watch bool
	)

	cmd := &cobra.Command{
		Use:           "generator [--config f] [--site d] [--graph] [--watch]",
		Short:         "Generate embed posts from _data/fb_posts.yml",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts, graph, watch)
		},
	}

	opts.AddFlags(cmd)
	cmd.Flags().BoolVar(&graph, "graph", false, "Merge recent posts from the configured feed into the data file first")
	cmd.Flags().BoolVar(&watch, "watch", false, "Regenerate whenever the data file changes")

	return cmd
}

func run(ctx context.Context, out io.Writer, opts cli.Options, graph, watch bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, log, err := cli.Setup(opts, os.Getenv, cwd)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "⚙️  Site: %s\n", cfg.Site.Dir)

	var src feed.Source

	if graph {
		src, err = feed.NewSource(cfg.Feed, cfg.Fetch.UserAgent, os.Getenv, time.Now, log)
		if err != nil {
			return fmt.Errorf("failed to create feed source: %w", err)
		}
	}

	gen := pipeline.NewGenerator(cfg, log)

	generate := func(ctx context.Context, src feed.Source) error {
		result, err := gen.RunFile(ctx, src)
		if err != nil {
			return err
		}

		cli.PrintResult(out, "Generated posts", result)

		return result.Err()
	}

	if !watch {
		return generate(ctx, src)
	}

	// The feed is merged once; later runs only follow edits to the data file.
	if err := generate(ctx, src); err != nil {
		log.Error("Initial generation failed", "error", err)
	}

	return pipeline.Watch(ctx, gen.DataPath(), pipeline.DefaultDebounce, func(ctx context.Context) error {
		return generate(ctx, nil)
	}, log)
}
