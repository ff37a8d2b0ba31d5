// Package main provides the importer command that turns saved embed iframes
// into posts, optionally with the post's preview image.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"stpicks/internal/cli"
	"stpicks/internal/crawler"
	"stpicks/internal/pipeline"
	"stpicks/internal/resolver"
)

var errNoInput = errors.New("--input is required")

func main() {
	cli.Execute(newRootCmd())
}

func newRootCmd() *cobra.Command {
	var (
		opts   cli.Options
		input  string
		date   string
		images bool
	)

	cmd := &cobra.Command{
		Use:           "importer --input iframes.html [--config f] [--site d] [--date YYYY-MM-DD] [--images]",
		Short:         "Create posts from Facebook embed iframes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts, input, date, images)
		},
	}

	opts.AddFlags(cmd)
	cmd.Flags().StringVar(&input, "input", "", "HTML file with one or more embed iframes (required)")
	cmd.Flags().StringVar(&date, "date", "", "Date prefix for new posts (default today)")
	cmd.Flags().BoolVar(&images, "images", false, "Download og:image and render an image post instead of the iframe")

	return cmd
}

func run(ctx context.Context, out io.Writer, opts cli.Options, input, date string, images bool) error {
	if input == "" {
		return errNoInput
	}

	importOpts := pipeline.ImportOptions{Images: images}

	if date != "" {
		d, err := time.Parse(resolver.DateLayout, date)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", date, err)
		}

		importOpts.Date = d
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, log, err := cli.Setup(opts, os.Getenv, cwd)
	if err != nil {
		return err
	}

	document, err := crawler.ReadLocalFile(input)
	if err != nil {
		return err
	}

	snippets, err := crawler.ParseIframes(document)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "📦 Found %d iframes in %s\n", len(snippets), input)

	scraper := crawler.NewScraper(cfg.Fetch)
	importer := pipeline.NewImporter(cfg,
		crawler.NewEnricher(scraper),
		crawler.NewImageDownloader(scraper, cfg.ImagesPath()),
		log)

	result, err := importer.Run(ctx, snippets, importOpts)

	scraper.LogSummary(log)

	if err != nil {
		return err
	}

	cli.PrintResult(out, "Imported posts", result)
	fmt.Fprintf(out, "🌐 %s\n", scraper.Stats())

	return result.Err()
}
