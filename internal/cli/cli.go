// Package cli holds the startup and reporting steps shared by the commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"stpicks/internal/config"
	"stpicks/internal/formatter"
	"stpicks/internal/logger"
	"stpicks/internal/models"
	"stpicks/internal/pipeline"
)

// DefaultConfigPath is loaded when no --config flag is given and the file exists.
const DefaultConfigPath = "configs/stpicks.yaml"

// reportHeader is the column order of Result.Rows.
var reportHeader = []string{"Status", "Path", "Title", "Asset"}

// Options are the flags every command accepts.
type Options struct {
	ConfigPath string
	SiteDir    string
	Verbose    bool
}

// AddFlags registers --config, --site and --verbose on cmd.
func (o *Options) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.ConfigPath, "config", "", "Path to YAML configuration file (default "+DefaultConfigPath+" when present)")
	cmd.Flags().StringVar(&o.SiteDir, "site", "", "Site root containing _config.yml (overrides SITE_DIR)")
	cmd.Flags().BoolVarP(&o.Verbose, "verbose", "v", false, "Log at debug level regardless of logging.level")
}

// Setup loads the configuration, resolves the site directory and builds the
// logger. The site directory comes from --site, then SITE_DIR, then the
// configuration, then the shallowest _config.yml under cwd.
func Setup(opts Options, getenv func(string) string, cwd string) (*config.Config, *logger.Logger, error) {
	cfg, err := loadConfig(opts.ConfigPath, cwd)
	if err != nil {
		return nil, nil, err
	}

	cfg.ApplyEnv(getenv)

	if opts.SiteDir != "" {
		cfg.Site.Dir = opts.SiteDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := cfg.ResolveSiteDir(cwd); err != nil {
		return nil, nil, err
	}

	log := logger.New(logger.Options{Level: cfg.Logging.Level, JSON: cfg.Logging.JSON})
	if opts.Verbose {
		log.SetLevel("debug")
	}

	log.Debug("Configuration loaded", "config", cfg.String())

	return cfg, log, nil
}

func loadConfig(path, cwd string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}

	defaultPath := filepath.Join(cwd, DefaultConfigPath)
	if _, err := os.Stat(defaultPath); err == nil {
		return config.LoadConfig(defaultPath)
	}

	return config.Default(), nil
}

// PrintResult writes the per-post table and the reference errors of a batch.
func PrintResult(w io.Writer, title string, result *pipeline.Result) {
	fmt.Fprintf(w, "\n✓ %s: %d created, %d updated, %d unchanged, %d skipped\n",
		title,
		result.Count(models.StatusCreated),
		result.Count(models.StatusUpdated),
		result.Count(models.StatusSkipped),
		result.Skipped)

	if rows := result.Rows(); len(rows) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, formatter.FormatTable(reportHeader, rows))
	}

	if result.Failed() {
		fmt.Fprintf(w, "\n❌ Errors: %d\n", len(result.Errors))

		for _, err := range result.Errors {
			fmt.Fprintf(w, "  - %v\n", err)
		}
	}
}

// Execute runs cmd with a context cancelled on SIGINT or SIGTERM and exits 1
// when it fails.
func Execute(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		if !errors.Is(err, pipeline.ErrReferencesFailed) {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		}

		os.Exit(1)
	}
}
