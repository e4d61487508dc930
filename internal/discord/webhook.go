package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/igor-ruivo/metin2-events/internal/logger"
)

const timeout = 10 * time.Second

// Payload is the body of a webhook execution
type Payload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Client posts messages to a Discord incoming webhook
type Client struct {
	webhookURL string
	httpClient *http.Client
}

// NewClient creates a new webhook client
func NewClient(webhookURL string) (*Client, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}

	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Send executes the webhook with the given payload
func (c *Client) Send(ctx context.Context, p Payload) error {
	if p.Content == "" && len(p.Embeds) == 0 {
		return fmt.Errorf("payload has no content or embeds")
	}

	jsonData, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	stop := logger.StartTimer("discord.webhook")
	resp, err := c.httpClient.Do(req)
	stop()
	if err != nil {
		logger.IncrCounter("discord.webhook.error")
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.IncrCounter("discord.webhook.error")
		return fmt.Errorf("webhook error (status %d): %s", resp.StatusCode, string(body))
	}

	logger.IncrCounter("discord.webhook.sent")
	logger.Info("discord webhook sent", logger.Fields{
		"embeds":  len(p.Embeds),
		"mention": p.Content != "",
	})
	return nil
}
