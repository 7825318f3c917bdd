// Package publish submits rewritten text as a new post via the social API.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"tradebot/internal/domain"
)

const defaultAPIBase = "https://api.twitter.com"

// Client creates posts through the tweet-creation endpoint. One attempt per
// call; failures are reported, never retried.
type Client struct {
	apiBase     string
	bearerToken string
	client      *http.Client
	logger      *slog.Logger
}

type ClientConfig struct {
	APIBase     string
	BearerToken string
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
		client:      &http.Client{Timeout: cfg.Timeout},
		logger:      cfg.Logger,
	}
}

type createRequest struct {
	Text string `json:"text"`
}

type createResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Publish posts the text. Nil only when the service reports creation (201).
func (c *Client) Publish(ctx context.Context, text string) error {
	body, err := json.Marshal(createRequest{Text: text})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiBase+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("publish request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("publish %d: %s", resp.StatusCode, string(respBody))
	}

	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err == nil && created.Data.ID != "" {
		c.logger.Info("post published", "id", created.Data.ID)
	} else {
		c.logger.Info("post published")
	}
	return nil
}

var _ domain.Publisher = (*Client)(nil)
