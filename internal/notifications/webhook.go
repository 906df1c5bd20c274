package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookConfig holds configuration for webhook notifications.
type WebhookConfig struct {
	// URL is the webhook endpoint.
	URL string

	// Headers are additional HTTP headers to include.
	Headers map[string]string

	// Timeout for the HTTP request (default 10s).
	Timeout time.Duration
}

// WebhookProvider posts rotation events as JSON to an HTTP endpoint.
type WebhookProvider struct {
	config WebhookConfig
	client *http.Client
}

// NewWebhookProvider creates a webhook notification provider.
func NewWebhookProvider(config WebhookConfig) *WebhookProvider {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &WebhookProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Name implements Provider.
func (p *WebhookProvider) Name() string { return "webhook" }

// Send implements Provider.
func (p *WebhookProvider) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range p.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
