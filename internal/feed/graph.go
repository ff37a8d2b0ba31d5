package feed

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"stpicks/internal/config"
	"stpicks/internal/entries"
	"stpicks/internal/logger"
	"stpicks/pkg/utils"
)

// GraphFields are the post fields requested from the page feed.
const GraphFields = "permalink_url,created_time"

// GraphPost is one item of a page feed response.
type GraphPost struct {
	ID           string `json:"id"`
	PermalinkURL string `json:"permalink_url"`
	CreatedTime  string `json:"created_time"`
}

// GraphFeedResponse is the body of a page feed request.
type GraphFeedResponse struct {
	Data []GraphPost `json:"data"`
}

// GraphErrorResponse is the body returned with a failed request.
type GraphErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// GraphClient defines the interface for page feed requests.
type GraphClient interface {
	PageFeed(ctx context.Context, pageID, token string, limit int) (*GraphFeedResponse, error)
}

// Ensure RestGraphClient implements GraphClient.
var _ GraphClient = (*RestGraphClient)(nil)

// RestGraphClient calls the Graph API over HTTP.
type RestGraphClient struct {
	http    *resty.Client
	version string
}

// NewGraphClient creates a client for endpoint (scheme and host) and API version.
func NewGraphClient(endpoint, version, userAgent string, timeout time.Duration) *RestGraphClient {
	headers := utils.NewHTTPHelper(userAgent).BuildHeaders(map[string]string{"Accept": "application/json"})

	return &RestGraphClient{
		http: resty.New().
			SetBaseURL(strings.TrimRight(endpoint, "/")).
			SetTimeout(timeout).
			SetHeaders(utils.HeaderMap(headers)),
		version: strings.Trim(version, "/"),
	}
}

// PageFeed requests the most recent posts of pageID.
func (c *RestGraphClient) PageFeed(ctx context.Context, pageID, token string, limit int) (*GraphFeedResponse, error) {
	var (
		result  GraphFeedResponse
		failure GraphErrorResponse
	)

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"fields":       GraphFields,
			"limit":        strconv.Itoa(limit),
			"access_token": token,
		}).
		SetResult(&result).
		SetError(&failure).
		Get(fmt.Sprintf("/%s/%s/feed", c.version, url.PathEscape(pageID)))
	if err != nil {
		return nil, fmt.Errorf("graph request failed: %w", err)
	}

	if res.IsError() || res.StatusCode() < 200 || res.StatusCode() > 299 {
		msg := failure.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(res.String())
		}

		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, res.StatusCode(), msg)
	}

	return &result, nil
}

// GraphSource reads a page feed through a GraphClient.
type GraphSource struct {
	client GraphClient
	pageID string
	token  string
	limit  int
	now    Clock
	logger *logger.Logger
}

// NewGraphSource creates a page feed source. An empty token disables it.
func NewGraphSource(client GraphClient, cfg config.FeedConfig, token string, now Clock, log *logger.Logger) *GraphSource {
	return &GraphSource{
		client: client,
		pageID: cfg.PageID,
		token:  strings.TrimSpace(token),
		limit:  cfg.Limit,
		now:    now,
		logger: log,
	}
}

// Name identifies the source in logs.
func (s *GraphSource) Name() string {
	return "graph:" + s.pageID
}

// Fetch returns entries for the recent posts of the page. Without a token
// the fetch is skipped and no entries are returned.
func (s *GraphSource) Fetch(ctx context.Context) ([]entries.Entry, error) {
	if s.token == "" {
		s.logger.Info("Access token not set; skipping Graph fetch", "source", s.Name())

		return nil, nil
	}

	resp, err := s.client.PageFeed(ctx, s.pageID, s.token, s.limit)
	if err != nil {
		return nil, err
	}

	var out []entries.Entry

	for _, post := range resp.Data {
		permalink := strings.TrimSpace(post.PermalinkURL)
		if permalink == "" {
			s.logger.Debug("Dropping feed item without permalink", "id", post.ID)

			continue
		}

		out = append(out, entries.Entry{
			URL:  permalink,
			Date: dayOf(post.CreatedTime, s.now),
		})
	}

	s.logger.Debug("Fetched page feed", "source", s.Name(), "items", len(resp.Data), "entries", len(out))

	return out, nil
}
