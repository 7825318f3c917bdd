// Package timeline reads the latest posts of the target account from the
// social API.
package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"tradebot/internal/domain"
)

const defaultAPIBase = "https://api.twitter.com"

// Client fetches one page of recent posts with media expansions attached.
// It does not retry and does not paginate; the orchestrator aborts the run
// on any failure here.
type Client struct {
	apiBase     string
	bearerToken string
	userID      string
	client      *http.Client
	logger      *slog.Logger
}

type ClientConfig struct {
	APIBase     string
	BearerToken string
	UserID      string
	Timeout     time.Duration
	Logger      *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		apiBase:     cfg.APIBase,
		bearerToken: cfg.BearerToken,
		userID:      cfg.UserID,
		client:      &http.Client{Timeout: cfg.Timeout},
		logger:      cfg.Logger,
	}
}

type timelineResponse struct {
	Data     []domain.Post `json:"data"`
	Includes struct {
		Media []domain.MediaItem `json:"media"`
	} `json:"includes"`
}

// Latest returns the most recent posts plus the media lookup table built
// from the includes payload. A non-200 response is an error carrying the
// raw body.
func (c *Client) Latest(ctx context.Context) (*domain.Timeline, error) {
	q := url.Values{}
	q.Set("expansions", "attachments.media_keys")
	q.Set("media.fields", "type,url")

	endpoint := fmt.Sprintf("%s/2/users/%s/tweets?%s", c.apiBase, url.PathEscape(c.userID), q.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timeline request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("timeline %d: %s", resp.StatusCode, string(body))
	}

	var tr timelineResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}

	media := make(map[string]domain.MediaItem, len(tr.Includes.Media))
	for _, m := range tr.Includes.Media {
		media[m.MediaKey] = m
	}

	c.logger.Debug("timeline fetched", "posts", len(tr.Data), "media", len(media))
	return &domain.Timeline{Posts: tr.Data, Media: media}, nil
}
