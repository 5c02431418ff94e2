package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"

	"github.com/skerrick/gantry/pkg/structs"
)

type scrapePayload struct {
	// URL is the page or endpoint to fetch. Required.
	URL string `json:"url"`

	// Headers are set on the outbound request.
	Headers map[string]string `json:"headers"`

	// Path extracts one field from a JSON response (gjson path).
	Path string `json:"path"`

	// Pattern extracts the first match (or first capture group) of a
	// regular expression from the raw body. Ignored when Path is set.
	Pattern string `json:"pattern"`
}

type scrapeResult struct {
	URL   string          `json:"url"`
	Value json.RawMessage `json:"value"`
}

// Scrape fetches a URL and extracts a value from the response, either a
// field of a JSON body or a regexp match over the raw text.
type Scrape struct {
	client Doer
}

// NewScrape returns a web_scrape action handler.
func NewScrape(client Doer) *Scrape {
	return &Scrape{client: client}
}

// Type returns the ActionType this handler serves.
func (h *Scrape) Type() structs.ActionType {
	return structs.ActionWebScrape
}

// Execute fetches the page and applies the configured extraction.
func (h *Scrape) Execute(ctx context.Context, payload json.RawMessage, logs Logger) (json.RawMessage, error) {
	p := scrapePayload{}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode web_scrape payload: %w", err)
	}
	if p.URL == "" {
		return nil, fmt.Errorf("web_scrape payload requires a url")
	}

	raw, err := doRequest(ctx, h.client, "GET", p.URL, p.Headers, nil, logs)
	if err != nil {
		return nil, err
	}
	body := gjson.GetBytes(raw, "body")

	value, err := extract(p, body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&scrapeResult{URL: p.URL, Value: value})
}

func extract(p scrapePayload, body gjson.Result) (json.RawMessage, error) {
	if p.Path != "" {
		val := body.Get(p.Path)
		if !val.Exists() {
			return nil, fmt.Errorf("path %q matched nothing", p.Path)
		}
		return json.RawMessage(val.Raw), nil
	}
	if p.Pattern != "" {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern: %w", err)
		}
		// body.String() unquotes text responses and renders JSON ones
		m := re.FindStringSubmatch(body.String())
		if m == nil {
			return nil, fmt.Errorf("pattern %q matched nothing", p.Pattern)
		}
		value := m[0]
		if len(m) > 1 {
			value = m[1]
		}
		return json.Marshal(value)
	}
	return json.RawMessage(body.Raw), nil
}
