// Package config provides configuration management for the post generators.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingPostsDir       = errors.New("site.posts_dir is required")
	ErrMissingDataFile       = errors.New("site.data_file is required")
	ErrMissingImagesDir      = errors.New("site.images_dir is required")
	ErrMissingLayout         = errors.New("posts.embed_layout and posts.import_layout are required")
	ErrNoCategories          = errors.New("posts.categories must contain at least one category")
	ErrInvalidFallbackFormat = errors.New("posts.fallback_title_format must contain one integer verb")
	ErrInvalidMaxAttempts    = errors.New("fetch.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay   = errors.New("fetch.retry.initial_delay_ms must be non-negative")
	ErrInvalidMaxDelay       = errors.New("fetch.retry.max_delay_ms cannot be lower than initial_delay_ms")
	ErrInvalidTimeout        = errors.New("fetch.timeout_sec must be at least 1")
	ErrInvalidRate           = errors.New("fetch.requests_per_second must be positive")
	ErrInvalidMaxBody        = errors.New("fetch.max_body_kb must be at least 1")
	ErrInvalidFeedKind       = errors.New("feed.kind must be 'graph' or 'rss'")
	ErrInvalidFeedLimit      = errors.New("feed.limit must be between 1 and 100")
	ErrMissingRSSURL         = errors.New("feed.rss_url is required when feed.kind is 'rss'")
	ErrInvalidLogLevel       = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrSiteNotFound          = errors.New("_config.yml not found; set SITE_DIR or site.dir")
)

// fallbackFormatPattern accepts a format string with exactly one integer verb.
var fallbackFormatPattern = regexp.MustCompile(`^[^%]*%0?\d*d[^%]*$`)

// Feed kinds.
const (
	FeedGraph = "graph"
	FeedRSS   = "rss"
)

// Environment variables read by ApplyEnv and ResolveSiteDir.
const (
	EnvSiteDir = "SITE_DIR"
	EnvPageID  = "FB_PAGE_ID"
)

// Config represents the complete generator configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Posts   PostsConfig   `yaml:"posts"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Feed    FeedConfig    `yaml:"feed"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig locates the static site and its content directories.
// Relative directories are resolved against Dir.
type SiteConfig struct {
	Dir             string `yaml:"dir"`
	PostsDir        string `yaml:"posts_dir"`
	DataFile        string `yaml:"data_file"`
	ImagesDir       string `yaml:"images_dir"`
	ImagesURLPrefix string `yaml:"images_url_prefix"`
}

// PostsConfig controls the rendered front matter and bodies.
type PostsConfig struct {
	EmbedLayout         string   `yaml:"embed_layout"`
	ImportLayout        string   `yaml:"import_layout"`
	DefaultTitle        string   `yaml:"default_title"`
	FallbackTitleFormat string   `yaml:"fallback_title_format"`
	EmbedBody           string   `yaml:"embed_body"`
	LinkText            string   `yaml:"link_text"`
	Categories          []string `yaml:"categories"`
	MaxTitleWidth       int      `yaml:"max_title_width"`
}

// FetchConfig controls page enrichment and image downloads.
type FetchConfig struct {
	UserAgent         string      `yaml:"user_agent"`
	Retry             RetryPolicy `yaml:"retry"`
	TimeoutSec        int         `yaml:"timeout_sec"`
	RequestsPerSecond float64     `yaml:"requests_per_second"`
	Burst             int         `yaml:"burst"`
	MaxBodyKb         int         `yaml:"max_body_kb"`
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts    int `yaml:"max_attempts"`
	InitialDelayMs int `yaml:"initial_delay_ms"`
	MaxDelayMs     int `yaml:"max_delay_ms"`
}

// FeedConfig configures the optional remote feed merged into the data file.
type FeedConfig struct {
	Kind       string `yaml:"kind"`
	Endpoint   string `yaml:"endpoint"`
	APIVersion string `yaml:"api_version"`
	PageID     string `yaml:"page_id"`
	TokenEnv   string `yaml:"token_env"`
	RSSURL     string `yaml:"rss_url"`
	Limit      int    `yaml:"limit"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			PostsDir:        "_posts",
			DataFile:        "_data/fb_posts.yml",
			ImagesDir:       "assets/images/stpicks",
			ImagesURLPrefix: "/assets/images/stpicks",
		},
		Posts: PostsConfig{
			EmbedLayout:         "fb_embed_post",
			ImportLayout:        "single",
			DefaultTitle:        "STPicks FB Post",
			FallbackTitleFormat: "Inspiration of the week %02d",
			EmbedBody:           "此篇內容由 FB 內嵌",
			LinkText:            "Open on Facebook",
			Categories:          []string{"stpicks"},
			MaxTitleWidth:       120,
		},
		Fetch: FetchConfig{
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			TimeoutSec:        20,
			RequestsPerSecond: 1,
			Burst:             1,
			MaxBodyKb:         4096,
			Retry: RetryPolicy{
				MaxAttempts:    2,
				InitialDelayMs: 500,
				MaxDelayMs:     5000,
			},
		},
		Feed: FeedConfig{
			Kind:       FeedGraph,
			Endpoint:   "https://graph.facebook.com",
			APIVersion: "v21.0",
			PageID:     "stpicks",
			TokenEnv:   "FB_ACCESS_TOKEN",
			Limit:      20,
			TimeoutSec: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of Default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvSiteDir); v != "" {
		c.Site.Dir = v
	}

	if v := getenv(EnvPageID); v != "" {
		c.Feed.PageID = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Site.PostsDir == "" {
		return ErrMissingPostsDir
	}

	if c.Site.DataFile == "" {
		return ErrMissingDataFile
	}

	if c.Site.ImagesDir == "" {
		return ErrMissingImagesDir
	}

	if c.Posts.EmbedLayout == "" || c.Posts.ImportLayout == "" {
		return ErrMissingLayout
	}

	if len(c.Posts.Categories) == 0 {
		return ErrNoCategories
	}

	if !fallbackFormatPattern.MatchString(c.Posts.FallbackTitleFormat) {
		return ErrInvalidFallbackFormat
	}

	if c.Fetch.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Fetch.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Fetch.Retry.MaxDelayMs < c.Fetch.Retry.InitialDelayMs {
		return ErrInvalidMaxDelay
	}

	if c.Fetch.TimeoutSec < 1 || c.Feed.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Fetch.RequestsPerSecond <= 0 {
		return ErrInvalidRate
	}

	if c.Fetch.MaxBodyKb < 1 {
		return ErrInvalidMaxBody
	}

	switch c.Feed.Kind {
	case FeedGraph:
	case FeedRSS:
		if c.Feed.RSSURL == "" {
			return ErrMissingRSSURL
		}
	default:
		return ErrInvalidFeedKind
	}

	if c.Feed.Limit < 1 || c.Feed.Limit > 100 {
		return ErrInvalidFeedLimit
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// GetRetryDelay calculates the doubling backoff delay for an attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := rp.InitialDelayMs
	for i := 2; i < attempt && delayMs < rp.MaxDelayMs; i++ {
		delayMs *= 2
	}

	if delayMs > rp.MaxDelayMs {
		delayMs = rp.MaxDelayMs
	}

	return time.Duration(delayMs) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (f *FetchConfig) GetTimeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// GetTimeout returns the feed request timeout.
func (f *FeedConfig) GetTimeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// PostsPath returns the absolute-or-site-relative posts directory.
func (c *Config) PostsPath() string {
	return c.sitePath(c.Site.PostsDir)
}

// DataPath returns the data file location.
func (c *Config) DataPath() string {
	return c.sitePath(c.Site.DataFile)
}

// ImagesPath returns the image output directory.
func (c *Config) ImagesPath() string {
	return c.sitePath(c.Site.ImagesDir)
}

func (c *Config) sitePath(p string) string {
	if filepath.IsAbs(p) || c.Site.Dir == "" {
		return p
	}

	return filepath.Join(c.Site.Dir, p)
}

// ResolveSiteDir fills Site.Dir when it is empty by searching start and its
// subdirectories for a _config.yml, shallowest first.
func (c *Config) ResolveSiteDir(start string) error {
	if c.Site.Dir != "" {
		abs, err := filepath.Abs(c.Site.Dir)
		if err != nil {
			return fmt.Errorf("failed to resolve site dir: %w", err)
		}

		c.Site.Dir = abs

		return nil
	}

	dir, err := FindSiteDir(start)
	if err != nil {
		return err
	}

	c.Site.Dir = dir

	return nil
}

// FindSiteDir returns the directory of the shallowest _config.yml under start.
func FindSiteDir(start string) (string, error) {
	var found []string

	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.IsDir() && path != start && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		if !d.IsDir() && d.Name() == "_config.yml" {
			found = append(found, path)
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search for site: %w", err)
	}

	if len(found) == 0 {
		return "", ErrSiteNotFound
	}

	sort.SliceStable(found, func(i, j int) bool {
		di := strings.Count(found[i], string(filepath.Separator))
		dj := strings.Count(found[j], string(filepath.Separator))
		if di != dj {
			return di < dj
		}

		return found[i] < found[j]
	})

	return filepath.Abs(filepath.Dir(found[0]))
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Site: %s, Posts: %s, Feed: %s, MaxAttempts: %d}",
		c.Site.Dir,
		c.Site.PostsDir,
		c.Feed.Kind,
		c.Fetch.Retry.MaxAttempts,
	)
}
