package dispatch

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/skerrick/gantry/pkg/structs"
)

type reportSource struct {
	// Name labels this section of the report.
	Name string `json:"name"`

	// URL is fetched for the section's value.
	URL string `json:"url"`

	// Path optionally narrows the fetched body to one field (gjson path).
	Path string `json:"path"`
}

type reportPayload struct {
	// Title heads the report.
	Title string `json:"title"`

	// Format is json (default), text or csv.
	Format string `json:"format"`

	// Sources are fetched in order, one report section each.
	Sources []reportSource `json:"sources"`

	// Data is an optional inline section included as-is.
	Data json.RawMessage `json:"data"`
}

type reportSection struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type reportResult struct {
	Title       string          `json:"title"`
	Format      string          `json:"format"`
	GeneratedAt time.Time       `json:"generated_at"`
	Content     json.RawMessage `json:"content"`
}

// timeNow is swapped out in tests.
var timeNow = time.Now

// Report assembles a report from remote sources and inline data and stores
// the rendered document as the result.
type Report struct {
	client Doer
}

// NewReport returns a generate_report action handler.
func NewReport(client Doer) *Report {
	return &Report{client: client}
}

// Type returns the ActionType this handler serves.
func (h *Report) Type() structs.ActionType {
	return structs.ActionGenerateReport
}

// Execute fetches every source then renders the report.
func (h *Report) Execute(ctx context.Context, payload json.RawMessage, logs Logger) (json.RawMessage, error) {
	p := reportPayload{}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode generate_report payload: %w", err)
	}
	if len(p.Sources) == 0 && len(p.Data) == 0 {
		return nil, fmt.Errorf("generate_report payload requires sources or data")
	}

	sections := []reportSection{}
	if len(p.Data) > 0 {
		sections = append(sections, reportSection{Name: "data", Value: p.Data})
	}
	for _, src := range p.Sources {
		val, err := h.fetch(ctx, src, logs)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", src.Name, err)
		}
		sections = append(sections, reportSection{Name: src.Name, Value: val})
	}
	logs.Logf("report %q: %d section(s)", p.Title, len(sections))

	content, format, err := renderReport(p, sections)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&reportResult{
		Title:       p.Title,
		Format:      format,
		GeneratedAt: timeNow().UTC(),
		Content:     content,
	})
}

func (h *Report) fetch(ctx context.Context, src reportSource, logs Logger) (json.RawMessage, error) {
	raw, err := doRequest(ctx, h.client, "GET", src.URL, nil, nil, logs)
	if err != nil {
		return nil, err
	}
	body := gjson.GetBytes(raw, "body")
	if src.Path == "" {
		return json.RawMessage(body.Raw), nil
	}
	val := body.Get(src.Path)
	if !val.Exists() {
		return nil, fmt.Errorf("path %q matched nothing", src.Path)
	}
	return json.RawMessage(val.Raw), nil
}

func renderReport(p reportPayload, sections []reportSection) (json.RawMessage, string, error) {
	switch strings.ToLower(p.Format) {
	case "", "json":
		content, err := json.Marshal(sections)
		return content, "json", err
	case "text":
		lines := []string{"# " + p.Title, ""}
		for _, s := range sections {
			lines = append(lines, fmt.Sprintf("%s: %s", s.Name, string(s.Value)))
		}
		content, err := json.Marshal(strings.Join(lines, "\n"))
		return content, "text", err
	case "csv":
		buf := &bytes.Buffer{}
		w := csv.NewWriter(buf)
		for _, s := range sections {
			if err := w.Write([]string{s.Name, string(s.Value)}); err != nil {
				return nil, "", err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, "", err
		}
		content, err := json.Marshal(buf.String())
		return content, "csv", err
	default:
		return nil, "", fmt.Errorf("unknown report format %q", p.Format)
	}
}
