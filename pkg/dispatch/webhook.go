package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/skerrick/gantry/pkg/structs"
)

type webhookPayload struct {
	// URL is where the request goes. Required.
	URL string `json:"url"`

	// Method defaults to POST.
	Method string `json:"method"`

	// Headers are set on the outbound request.
	Headers map[string]string `json:"headers"`

	// Body is sent verbatim as the request body.
	Body json.RawMessage `json:"body"`
}

// Webhook delivers an HTTP request to an arbitrary URL and stores the
// response status and body as the result.
type Webhook struct {
	client Doer
}

// NewWebhook returns a webhook action handler.
func NewWebhook(client Doer) *Webhook {
	return &Webhook{client: client}
}

// Type returns the ActionType this handler serves.
func (h *Webhook) Type() structs.ActionType {
	return structs.ActionWebhook
}

// Execute issues the configured HTTP request.
func (h *Webhook) Execute(ctx context.Context, payload json.RawMessage, logs Logger) (json.RawMessage, error) {
	p := webhookPayload{}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	if p.URL == "" {
		return nil, fmt.Errorf("webhook payload requires a url")
	}
	if p.Method == "" {
		p.Method = http.MethodPost
	}
	return doRequest(ctx, h.client, p.Method, p.URL, p.Headers, p.Body, logs)
}
