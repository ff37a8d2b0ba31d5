// Package feed fetches recent post references from remote feeds.
package feed

import (
	"context"
	"errors"
	"time"

	"stpicks/internal/config"
	"stpicks/internal/entries"
	"stpicks/internal/logger"
	"stpicks/internal/resolver"
)

// Feed errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrUnknownKind          = errors.New("unknown feed kind")
)

// Source yields entries to merge into the data file.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]entries.Entry, error)
}

// Clock returns the current time.
type Clock func() time.Time

// NewSource builds the source configured by cfg. getenv supplies the access token.
func NewSource(cfg config.FeedConfig, userAgent string, getenv func(string) string, now Clock, log *logger.Logger) (Source, error) {
	switch cfg.Kind {
	case config.FeedGraph:
		client := NewGraphClient(cfg.Endpoint, cfg.APIVersion, userAgent, cfg.GetTimeout())

		return NewGraphSource(client, cfg, getenv(cfg.TokenEnv), now, log), nil
	case config.FeedRSS:
		return NewRSSSource(cfg, userAgent, now, log), nil
	default:
		return nil, ErrUnknownKind
	}
}

// dayOf returns the leading YYYY-MM-DD of a timestamp, or today's date.
func dayOf(timestamp string, now Clock) string {
	if len(timestamp) >= len(resolver.DateLayout) {
		if _, err := time.Parse(resolver.DateLayout, timestamp[:len(resolver.DateLayout)]); err == nil {
			return timestamp[:len(resolver.DateLayout)]
		}
	}

	return now().Format(resolver.DateLayout)
}
