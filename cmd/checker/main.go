// Package main provides the checker command that validates a site's posts directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"stpicks/internal/cli"
	"stpicks/internal/validator"
)

var errInvalidPosts = errors.New("posts directory has errors")

func main() {
	cli.Execute(newRootCmd())
}

func newRootCmd() *cobra.Command {
	var opts cli.Options

	cmd := &cobra.Command{
		Use:           "checker [--config f] [--site d]",
		Short:         "Check generated posts for duplicates and missing front matter",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	opts.AddFlags(cmd)

	return cmd
}

func run(_ context.Context, out io.Writer, opts cli.Options) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, log, err := cli.Setup(opts, os.Getenv, cwd)
	if err != nil {
		return err
	}

	postsDir := cfg.PostsPath()
	fmt.Fprintf(out, "🔍 Checking %s\n", postsDir)

	result, err := validator.NewPostsValidator(log).ValidateDir(postsDir)
	if err != nil {
		return err
	}

	result.PrintErrors(out)
	result.PrintWarnings(out)
	fmt.Fprintln(out, result)

	if !result.IsValid {
		return errInvalidPosts
	}

	return nil
}
