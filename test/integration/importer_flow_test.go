package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stpicks/internal/config"
	"stpicks/internal/crawler"
	"stpicks/internal/logger"
	"stpicks/internal/pipeline"
	"stpicks/internal/validator"
	"stpicks/pkg/frontmatter"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

// newPostServer serves two post pages: one with a bracketed title and an
// image, one that always fails.
func newPostServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/stpicks/posts/1111111111", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head>
<meta property="og:description" content="本週推薦 [手作陶杯] 限量十組">
<meta property="og:image" content="/img/cup.png">
</head><body></body></html>`)
	})
	mux.HandleFunc("/stpicks/posts/2222222222", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/img/cup.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func importSnippets(t *testing.T, srv *httptest.Server) []string {
	t.Helper()

	doc, err := crawler.ReadLocalFile(filepath.Join("..", "fixtures", "iframes.html"))
	require.NoError(t, err)

	snippets, err := crawler.ParseIframes(strings.ReplaceAll(doc, "{{SERVER}}", srv.URL))
	require.NoError(t, err)
	require.Len(t, snippets, 3)

	return snippets
}

func fastFetch(cfg *config.Config) {
	cfg.Fetch.RequestsPerSecond = 1000
	cfg.Fetch.Burst = 10
	cfg.Fetch.TimeoutSec = 5
	cfg.Fetch.Retry.MaxAttempts = 1
}

func TestImporterFlow_ImagesAndFallbacks(t *testing.T) {
	srv := newPostServer(t)
	cfg := newSite(t)
	fastFetch(cfg)

	log := logger.Discard()
	scraper := crawler.NewScraper(cfg.Fetch)
	im := pipeline.NewImporter(cfg,
		crawler.NewEnricher(scraper),
		crawler.NewImageDownloader(scraper, cfg.ImagesPath()),
		log)

	result, err := im.Run(context.Background(), importSnippets(t, srv), pipeline.ImportOptions{
		Date:   time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		Images: true,
	})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	assert.Equal(t, 1, result.Skipped, "the iframe without href is skipped")
	require.Len(t, result.Posts, 2)

	// First post: title from the description and a downloaded image.
	first := result.Posts[0]
	assert.Equal(t, "2025-12-01-1111111111", first.Record.Identifier)
	assert.Equal(t, "手作陶杯", first.Title)
	assert.Equal(t, "/assets/images/stpicks/1111111111.png", first.Asset)

	img, err := os.ReadFile(filepath.Join(cfg.ImagesPath(), "1111111111.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, img)

	// Second post: page fetch failed, so placeholder title and iframe body.
	second := result.Posts[1]
	assert.Equal(t, "Inspiration of the week 01", second.Title)
	assert.Equal(t, pipeline.AssetIframe, second.Asset)

	data, err := os.ReadFile(second.Record.Path)
	require.NoError(t, err)

	fm, body, err := frontmatter.Parse(string(data))
	require.NoError(t, err)
	assert.Equal(t, "single", fm.Layout)
	assert.Equal(t, srv.URL+"/stpicks/posts/2222222222", fm.Permalink)
	assert.Contains(t, body, "<iframe")

	stats := scraper.Stats()
	assert.Equal(t, 3, stats.Requests)
	assert.Equal(t, 1, stats.Failed)

	check, err := validator.NewPostsValidator(log).ValidateDir(cfg.PostsPath())
	require.NoError(t, err)
	assert.True(t, check.IsValid, "%v", check.Errors)
}

func TestImporterFlow_ReimportKeepsRecord(t *testing.T) {
	srv := newPostServer(t)
	cfg := newSite(t)
	fastFetch(cfg)

	log := logger.Discard()
	scraper := crawler.NewScraper(cfg.Fetch)
	im := pipeline.NewImporter(cfg, crawler.NewEnricher(scraper), nil, log)
	snippets := importSnippets(t, srv)

	first, err := im.Run(context.Background(), snippets, pipeline.ImportOptions{
		Date: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// A later import of the same iframes lands on the same files.
	second, err := im.Run(context.Background(), snippets, pipeline.ImportOptions{
		Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, second.Posts, len(first.Posts))

	for i := range first.Posts {
		assert.Equal(t, first.Posts[i].Record.Path, second.Posts[i].Record.Path)
	}

	dirEntries, err := os.ReadDir(cfg.PostsPath())
	require.NoError(t, err)
	assert.Len(t, dirEntries, 2)
}
