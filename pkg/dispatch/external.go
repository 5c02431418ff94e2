package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/skerrick/gantry/pkg/structs"
)

type externalPayload struct {
	// Service names a configured service base URL. Required.
	Service string `json:"service"`

	// Path is appended to the service base URL.
	Path string `json:"path"`

	// Method defaults to POST.
	Method string `json:"method"`

	// Headers are set on the outbound request.
	Headers map[string]string `json:"headers"`

	// Body is sent verbatim as the request body.
	Body json.RawMessage `json:"body"`
}

// External calls out to named, pre-configured services. Unlike webhook
// actions the target URL comes from operator config, not the payload.
type External struct {
	client   Doer
	services map[string]string
}

// NewExternal returns an external_service action handler.
func NewExternal(client Doer, services map[string]string) *External {
	return &External{client: client, services: services}
}

// Type returns the ActionType this handler serves.
func (h *External) Type() structs.ActionType {
	return structs.ActionExternalService
}

// Execute issues the request against the named service.
func (h *External) Execute(ctx context.Context, payload json.RawMessage, logs Logger) (json.RawMessage, error) {
	p := externalPayload{}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode external_service payload: %w", err)
	}
	base, ok := h.services[p.Service]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", p.Service)
	}
	if p.Method == "" {
		p.Method = http.MethodPost
	}

	url := strings.TrimSuffix(base, "/")
	if p.Path != "" {
		url += "/" + strings.TrimPrefix(p.Path, "/")
	}
	return doRequest(ctx, h.client, p.Method, url, p.Headers, p.Body, logs)
}
