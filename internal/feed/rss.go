package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"stpicks/internal/config"
	"stpicks/internal/entries"
	"stpicks/internal/logger"
	"stpicks/internal/resolver"
)

// RSSSource reads an RSS or Atom feed.
type RSSSource struct {
	url    string
	limit  int
	parser *gofeed.Parser
	now    Clock
	logger *logger.Logger
}

// NewRSSSource creates a feed source for cfg.RSSURL.
func NewRSSSource(cfg config.FeedConfig, userAgent string, now Clock, log *logger.Logger) *RSSSource {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: cfg.GetTimeout()}

	if userAgent != "" {
		parser.UserAgent = userAgent
	}

	return &RSSSource{
		url:    cfg.RSSURL,
		limit:  cfg.Limit,
		parser: parser,
		now:    now,
		logger: log,
	}
}

// Name identifies the source in logs.
func (s *RSSSource) Name() string {
	return "rss:" + s.url
}

// Fetch returns up to limit entries in feed order.
func (s *RSSSource) Fetch(ctx context.Context) ([]entries.Entry, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed %s: %w", s.url, err)
	}

	var out []entries.Entry

	for _, item := range feed.Items {
		if len(out) >= s.limit {
			break
		}

		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}

		date := s.now().Format(resolver.DateLayout)

		switch {
		case item.PublishedParsed != nil:
			date = item.PublishedParsed.Format(resolver.DateLayout)
		case item.UpdatedParsed != nil:
			date = item.UpdatedParsed.Format(resolver.DateLayout)
		}

		out = append(out, entries.Entry{
			URL:   link,
			Title: strings.TrimSpace(item.Title),
			Date:  date,
		})
	}

	s.logger.Debug("Fetched feed", "source", s.Name(), "items", len(feed.Items), "entries", len(out))

	return out, nil
}
