package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/skerrick/gantry/pkg/structs"
)

type aiPayload struct {
	// Prompt is the user message. Required.
	Prompt string `json:"prompt"`

	// System is an optional system message.
	System string `json:"system"`

	// Model overrides the configured default model.
	Model string `json:"model"`

	// MaxTokens caps the completion length when set.
	MaxTokens int `json:"max_tokens"`
}

type aiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type aiRequest struct {
	Model     string      `json:"model"`
	Messages  []aiMessage `json:"messages"`
	MaxTokens int         `json:"max_tokens,omitempty"`
}

type aiResult struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// AIPrompt sends a prompt to an OpenAI compatible chat completion endpoint
// and stores the completion text as the result.
type AIPrompt struct {
	client    Doer
	url       string
	model     string
	keyEnvVar string
}

// NewAIPrompt returns an ai_prompt action handler.
func NewAIPrompt(opts *Options) *AIPrompt {
	return &AIPrompt{
		client:    opts.Client,
		url:       opts.AIURL,
		model:     opts.AIModel,
		keyEnvVar: opts.AIKeyEnvVar,
	}
}

// Type returns the ActionType this handler serves.
func (h *AIPrompt) Type() structs.ActionType {
	return structs.ActionAIPrompt
}

// Execute runs one completion round trip.
func (h *AIPrompt) Execute(ctx context.Context, payload json.RawMessage, logs Logger) (json.RawMessage, error) {
	if h.url == "" {
		return nil, fmt.Errorf("no ai endpoint configured")
	}
	p := aiPayload{}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode ai_prompt payload: %w", err)
	}
	if p.Prompt == "" {
		return nil, fmt.Errorf("ai_prompt payload requires a prompt")
	}
	if p.Model == "" {
		p.Model = h.model
	}

	msgs := []aiMessage{}
	if p.System != "" {
		msgs = append(msgs, aiMessage{Role: "system", Content: p.System})
	}
	msgs = append(msgs, aiMessage{Role: "user", Content: p.Prompt})

	body, err := json.Marshal(&aiRequest{Model: p.Model, Messages: msgs, MaxTokens: p.MaxTokens})
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if key := os.Getenv(h.keyEnvVar); key != "" {
		headers["Authorization"] = "Bearer " + key
	}

	url := strings.TrimSuffix(h.url, "/") + "/v1/chat/completions"
	raw, err := doRequest(ctx, h.client, "POST", url, headers, body, logs)
	if err != nil {
		return nil, err
	}

	text := gjson.GetBytes(raw, "body.choices.0.message.content")
	if !text.Exists() {
		return nil, fmt.Errorf("completion response carried no message content")
	}
	logs.Logf("model %s returned %d chars", p.Model, len(text.String()))
	return json.Marshal(&aiResult{Model: p.Model, Text: text.String()})
}
