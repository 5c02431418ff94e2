package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/skerrick/gantry/pkg/structs"
)

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookChannel POSTs notifications as JSON to a configured URL.
type WebhookChannel struct {
	client Doer
	url    string
}

// NewWebhookChannel returns a webhook channel targeting url.
func NewWebhookChannel(client Doer, url string) *WebhookChannel {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookChannel{client: client, url: url}
}

// Name is how tasks select this channel.
func (c *WebhookChannel) Name() string {
	return "webhook"
}

// Deliver POSTs the notification.
func (c *WebhookChannel) Deliver(ctx context.Context, n *structs.Notification) error {
	if c.url == "" {
		return fmt.Errorf("no notification webhook url configured")
	}
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification webhook: status %d", resp.StatusCode)
	}
	return nil
}
