package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stpicks/internal/config"
	"stpicks/internal/entries"
	"stpicks/internal/logger"
)

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>STPicks</title>
  <link>https://example.com</link>
  <item>
    <title>第一篇</title>
    <link>https://www.facebook.com/stpicks/posts/1</link>
    <pubDate>Sun, 30 Nov 2025 10:00:00 +0000</pubDate>
  </item>
  <item>
    <title>no link</title>
  </item>
  <item>
    <title>undated</title>
    <link>https://www.facebook.com/stpicks/posts/2</link>
  </item>
  <item>
    <title>over the limit</title>
    <link>https://www.facebook.com/stpicks/posts/3</link>
  </item>
</channel>
</rss>`

func rssServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestRSSSource_Fetch(t *testing.T) {
	server := rssServer(t, http.StatusOK, rssDoc)

	cfg := config.Default().Feed
	cfg.Kind = config.FeedRSS
	cfg.RSSURL = server.URL
	cfg.Limit = 2

	got, err := NewRSSSource(cfg, "stpicks-test", fixedClock, logger.Discard()).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []entries.Entry{
		{URL: "https://www.facebook.com/stpicks/posts/1", Title: "第一篇", Date: "2025-11-30"},
		{URL: "https://www.facebook.com/stpicks/posts/2", Title: "undated", Date: "2025-12-14"},
	}, got)
}

func TestRSSSource_HTTPError(t *testing.T) {
	server := rssServer(t, http.StatusInternalServerError, "oops")

	cfg := config.Default().Feed
	cfg.RSSURL = server.URL

	_, err := NewRSSSource(cfg, "", fixedClock, logger.Discard()).Fetch(context.Background())
	assert.Error(t, err)
}

func TestDayOf(t *testing.T) {
	assert.Equal(t, "2025-01-02", dayOf("2025-01-02T03:04:05+0000", fixedClock))
	assert.Equal(t, "2025-12-14", dayOf("", fixedClock))
	assert.Equal(t, "2025-12-14", dayOf("yesterday!", fixedClock))
}
