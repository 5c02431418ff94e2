/*Package dispatch executes task actions.

The engine hands an Action to a Dispatcher and stores whatever comes back;
it never reads the payload itself. The stock Dispatcher is a Registry of
per-type handlers (one per ActionType) built by Default().
*/
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skerrick/gantry/pkg/structs"
)

const (
	// maxBodyBytes caps how much of a remote response is read into a result.
	maxBodyBytes = 1 << 20

	defaultClientTimeout = 30 * time.Second
	defaultCodeTimeout   = 10 * time.Second
)

// Logger receives human readable lines emitted while an action runs.
// Lines end up on the execution record.
type Logger interface {
	Logf(format string, args ...interface{})
}

// Dispatcher hands an action to whatever knows how to run it and returns
// the action's result. An error means the attempt failed; the caller owns
// retry and notification policy.
type Dispatcher interface {
	Execute(ctx context.Context, action *structs.Action, logs Logger) (json.RawMessage, error)
}

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures the stock handler set.
type Options struct {
	// Client issues outbound HTTP requests for handlers that call out.
	Client Doer

	// AIURL is the base URL of an OpenAI compatible chat completion
	// endpoint. Empty means ai_prompt actions fail as unconfigured.
	AIURL string

	// AIModel is the model used when a payload names none.
	AIModel string

	// AIKeyEnvVar names the env var holding the endpoint bearer token.
	AIKeyEnvVar string

	// SMTPAddr is the host:port of the outbound mail relay. Empty means
	// send_email actions fail as unconfigured.
	SMTPAddr string

	// SMTPFrom is the from address on outbound mail.
	SMTPFrom string

	// SMTPUserEnvVar names the env var holding the relay username.
	// Empty means the relay is used unauthenticated.
	SMTPUserEnvVar string

	// SMTPPassEnvVar names the env var holding the relay password.
	SMTPPassEnvVar string

	// FileRoot is the directory file_op actions are confined to.
	FileRoot string

	// Services maps names usable by external_service actions to base URLs.
	Services map[string]string

	// CodeTimeout bounds run_code scripts. A payload may shorten this,
	// never extend it.
	CodeTimeout time.Duration
}

// SetDefaults sets sensible default values
func (o *Options) SetDefaults() {
	if o.Client == nil {
		o.Client = &http.Client{Timeout: defaultClientTimeout}
	}
	if o.AIModel == "" {
		o.AIModel = "gpt-4o-mini"
	}
	if o.AIKeyEnvVar == "" {
		o.AIKeyEnvVar = "GANTRY_AI_KEY"
	}
	if o.FileRoot == "" {
		o.FileRoot = filepath.Join(os.TempDir(), "gantry-files")
	}
	if o.CodeTimeout <= 0 {
		o.CodeTimeout = defaultCodeTimeout
	}
}

// Default returns a Registry with the full stock handler set wired in.
func Default(opts *Options) *Registry {
	if opts == nil {
		opts = &Options{}
	}
	opts.SetDefaults()
	r := NewRegistry(
		NewWebhook(opts.Client),
		NewAIPrompt(opts),
		NewEmail(opts),
		NewCode(opts.CodeTimeout),
		NewReport(opts.Client),
		NewScrape(opts.Client),
		NewFileOp(opts.FileRoot),
		NewExternal(opts.Client, opts.Services),
	)
	r.Register(NewChain(r))
	return r
}

// httpResult is the stored outcome of an outbound HTTP call.
type httpResult struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// doRequest issues an HTTP call and packages the response as a result blob.
// Any status outside 2xx is an error.
func doRequest(ctx context.Context, client Doer, method, url string, headers map[string]string, body []byte, logs Logger) (json.RawMessage, error) {
	var rdr io.Reader
	if len(body) > 0 {
		rdr = strings.NewReader(string(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return nil, err
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	logs.Logf("%s %s -> %d (%d bytes)", method, url, resp.StatusCode, len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, snippet(data))
	}
	return json.Marshal(&httpResult{Status: resp.StatusCode, Body: rawOrString(data)})
}

// rawOrString returns b unchanged if it is valid JSON, otherwise b quoted
// as a JSON string. Empty input becomes nil.
func rawOrString(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	if json.Valid(b) {
		return json.RawMessage(b)
	}
	q, err := json.Marshal(string(b))
	if err != nil {
		return nil
	}
	return q
}

// snippet truncates b for inclusion in error strings.
func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 140 {
		return s[:140] + "..."
	}
	return s
}
