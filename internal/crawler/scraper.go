// Package crawler fetches post pages and images and parses embed snippets.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"stpicks/internal/config"
	"stpicks/internal/logger"
	"stpicks/pkg/utils"
)

// Fetch errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrBodyTooLarge         = errors.New("response body exceeds limit")
)

// Page is a fetched HTTP response body.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher retrieves a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// FetchStats counts what a Scraper did during a run.
type FetchStats struct {
	Requests  int
	Succeeded int
	Failed    int
	Bytes     int64
	Duration  time.Duration
}

// String returns a one-line summary.
func (s FetchStats) String() string {
	return fmt.Sprintf("Requests: %d, Succeeded: %d, Failed: %d, Bytes: %d, Duration: %s",
		s.Requests, s.Succeeded, s.Failed, s.Bytes, s.Duration.Round(time.Millisecond))
}

// Scraper performs rate limited GET requests with config-driven retries.
type Scraper struct {
	client  *resty.Client
	limiter *rate.Limiter
	maxBody int64

	mu    sync.Mutex
	stats FetchStats
}

// NewScraper creates a scraper from fetch settings.
func NewScraper(cfg config.FetchConfig) *Scraper {
	headers := utils.NewHTTPHelper(cfg.UserAgent).BuildHeaders(nil)

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	s := &Scraper{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		maxBody: int64(cfg.MaxBodyKb) * 1024,
	}

	retry := cfg.Retry

	s.client = resty.New().
		SetTimeout(cfg.GetTimeout()).
		SetHeaders(utils.HeaderMap(headers)).
		SetRetryCount(retry.MaxAttempts - 1).
		SetRetryWaitTime(retry.GetRetryDelay(2)).
		SetRetryMaxWaitTime(time.Duration(retry.MaxDelayMs) * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}

			return r != nil && isRetryableStatus(r.StatusCode())
		}).
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			// Every attempt, retries included, takes a token.
			return s.limiter.Wait(r.Context())
		})

	return s
}

// Fetch returns the body of url. Non-2xx responses are errors wrapping
// ErrUnexpectedStatusCode.
func (s *Scraper) Fetch(ctx context.Context, url string) (*Page, error) {
	start := time.Now()

	page, err := s.fetch(ctx, url)

	s.mu.Lock()
	s.stats.Requests++
	s.stats.Duration += time.Since(start)

	if err != nil {
		s.stats.Failed++
	} else {
		s.stats.Succeeded++
		s.stats.Bytes += int64(len(page.Body))
	}
	s.mu.Unlock()

	return page, err
}

func (s *Scraper) fetch(ctx context.Context, url string) (*Page, error) {
	res, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}

	body := res.RawBody()
	defer body.Close()

	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatusCode, res.StatusCode(), url)
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(data)) > s.maxBody {
		return nil, fmt.Errorf("%w: %s", ErrBodyTooLarge, url)
	}

	return &Page{
		URL:         url,
		StatusCode:  res.StatusCode(),
		ContentType: res.Header().Get("Content-Type"),
		Body:        data,
	}, nil
}

// Stats returns a snapshot of the request counters.
func (s *Scraper) Stats() FetchStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats
}

// LogSummary writes the request counters at info level.
func (s *Scraper) LogSummary(l *logger.Logger) {
	stats := s.Stats()
	if stats.Requests == 0 {
		return
	}

	l.Info("Fetch summary",
		"requests", stats.Requests,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"bytes", stats.Bytes,
		"duration", stats.Duration.Round(time.Millisecond))
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout:
		return true
	}

	return false
}
