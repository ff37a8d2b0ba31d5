package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// validConfigYAML overrides a handful of defaults.
const validConfigYAML = `
site:
  dir: "/srv/blog"
  posts_dir: "_posts"
posts:
  categories: [stpicks, inspiration]
  fallback_title_format: "Pick %d"
fetch:
  timeout_sec: 5
  retry:
    max_attempts: 3
    initial_delay_ms: 100
    max_delay_ms: 1000
feed:
  kind: rss
  rss_url: "https://example.com/feed.xml"
  limit: 10
logging:
  level: "debug"
`

func TestLoadConfig_Valid(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Site.Dir != "/srv/blog" {
		t.Errorf("Expected site dir /srv/blog, got %q", cfg.Site.Dir)
	}

	if len(cfg.Posts.Categories) != 2 || cfg.Posts.Categories[1] != "inspiration" {
		t.Errorf("Expected categories to be replaced, got %v", cfg.Posts.Categories)
	}

	// Untouched keys keep their defaults.
	if cfg.Posts.EmbedLayout != "fb_embed_post" {
		t.Errorf("Expected default embed layout, got %q", cfg.Posts.EmbedLayout)
	}

	if cfg.Site.DataFile != "_data/fb_posts.yml" {
		t.Errorf("Expected default data file, got %q", cfg.Site.DataFile)
	}

	if cfg.Feed.Kind != FeedRSS || cfg.Feed.Limit != 10 {
		t.Errorf("Unexpected feed config: %+v", cfg.Feed)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := createTempConfigFile(t, "invalid: yaml: content: [}")

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	configPath := createTempConfigFile(t, "logging:\n  level: loud\n")

	_, err := LoadConfig(configPath)
	if !errors.Is(err, ErrInvalidLogLevel) {
		t.Fatalf("Expected ErrInvalidLogLevel, got %v", err)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"missing posts dir", func(c *Config) { c.Site.PostsDir = "" }, ErrMissingPostsDir},
		{"missing data file", func(c *Config) { c.Site.DataFile = "" }, ErrMissingDataFile},
		{"missing images dir", func(c *Config) { c.Site.ImagesDir = "" }, ErrMissingImagesDir},
		{"missing layout", func(c *Config) { c.Posts.ImportLayout = "" }, ErrMissingLayout},
		{"no categories", func(c *Config) { c.Posts.Categories = nil }, ErrNoCategories},
		{"fallback without verb", func(c *Config) { c.Posts.FallbackTitleFormat = "Weekly pick" }, ErrInvalidFallbackFormat},
		{"fallback with two verbs", func(c *Config) { c.Posts.FallbackTitleFormat = "%d of %d" }, ErrInvalidFallbackFormat},
		{"zero attempts", func(c *Config) { c.Fetch.Retry.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
		{"negative delay", func(c *Config) { c.Fetch.Retry.InitialDelayMs = -1 }, ErrInvalidInitialDelay},
		{"max below initial", func(c *Config) { c.Fetch.Retry.MaxDelayMs = 10 }, ErrInvalidMaxDelay},
		{"zero timeout", func(c *Config) { c.Fetch.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"zero feed timeout", func(c *Config) { c.Feed.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"zero rate", func(c *Config) { c.Fetch.RequestsPerSecond = 0 }, ErrInvalidRate},
		{"zero max body", func(c *Config) { c.Fetch.MaxBodyKb = 0 }, ErrInvalidMaxBody},
		{"negative max body", func(c *Config) { c.Fetch.MaxBodyKb = -5 }, ErrInvalidMaxBody},
		{"unknown feed", func(c *Config) { c.Feed.Kind = "atom" }, ErrInvalidFeedKind},
		{"rss without url", func(c *Config) { c.Feed.Kind = FeedRSS }, ErrMissingRSSURL},
		{"feed limit", func(c *Config) { c.Feed.Limit = 0 }, ErrInvalidFeedLimit},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryPolicy_GetRetryDelay(t *testing.T) {
	rp := RetryPolicy{MaxAttempts: 5, InitialDelayMs: 100, MaxDelayMs: 300}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 0},
		{2, 100 * time.Millisecond},
		{3, 200 * time.Millisecond},
		{4, 300 * time.Millisecond},
		{5, 300 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := rp.GetRetryDelay(tt.attempt); got != tt.want {
			t.Errorf("GetRetryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	cfg := Default()
	env := map[string]string{EnvSiteDir: "/tmp/site", EnvPageID: "otherpage"}

	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.Site.Dir != "/tmp/site" {
		t.Errorf("Site.Dir = %q", cfg.Site.Dir)
	}

	if cfg.Feed.PageID != "otherpage" {
		t.Errorf("Feed.PageID = %q", cfg.Feed.PageID)
	}
}

func TestConfig_Paths(t *testing.T) {
	cfg := Default()
	cfg.Site.Dir = "/srv/blog"

	if got := cfg.PostsPath(); got != filepath.Join("/srv/blog", "_posts") {
		t.Errorf("PostsPath() = %q", got)
	}

	if got := cfg.DataPath(); got != filepath.Join("/srv/blog", "_data", "fb_posts.yml") {
		t.Errorf("DataPath() = %q", got)
	}

	cfg.Site.ImagesDir = "/var/images"
	if got := cfg.ImagesPath(); got != "/var/images" {
		t.Errorf("ImagesPath() = %q, absolute dirs must be kept", got)
	}
}

func TestFindSiteDir(t *testing.T) {
	root := t.TempDir()

	nested := filepath.Join(root, "b", "site")
	shallow := filepath.Join(root, "a")

	for _, dir := range []string{nested, shallow, filepath.Join(root, ".git")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(filepath.Join(dir, "_config.yml"), []byte("title: x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := FindSiteDir(root)
	if err != nil {
		t.Fatalf("FindSiteDir failed: %v", err)
	}

	want, _ := filepath.Abs(shallow)
	if got != want {
		t.Errorf("FindSiteDir() = %q, want %q", got, want)
	}
}

func TestFindSiteDir_NotFound(t *testing.T) {
	_, err := FindSiteDir(t.TempDir())
	if !errors.Is(err, ErrSiteNotFound) {
		t.Fatalf("Expected ErrSiteNotFound, got %v", err)
	}
}

func TestConfig_ResolveSiteDir_Explicit(t *testing.T) {
	cfg := Default()
	cfg.Site.Dir = "relative/site"

	if err := cfg.ResolveSiteDir(t.TempDir()); err != nil {
		t.Fatalf("ResolveSiteDir failed: %v", err)
	}

	if !filepath.IsAbs(cfg.Site.Dir) {
		t.Errorf("Expected absolute site dir, got %q", cfg.Site.Dir)
	}
}
