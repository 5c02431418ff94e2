package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/skerrick/gantry/pkg/structs"
)

type codePayload struct {
	// Script is the javascript source to run. Required. The value of the
	// final expression becomes the result.
	Script string `json:"script"`

	// Args is exposed to the script as the global `args`.
	Args map[string]interface{} `json:"args"`

	// TimeoutMS may shorten the configured script timeout, never extend it.
	TimeoutMS int64 `json:"timeout_ms"`
}

// Code runs user supplied javascript in an embedded interpreter. Scripts
// get `args` and a console.log that writes to the execution log; they have
// no filesystem or network access.
type Code struct {
	timeout time.Duration
}

// NewCode returns a run_code action handler.
func NewCode(timeout time.Duration) *Code {
	return &Code{timeout: timeout}
}

// Type returns the ActionType this handler serves.
func (h *Code) Type() structs.ActionType {
	return structs.ActionRunCode
}

// Execute runs the script to completion, interrupting it on timeout.
func (h *Code) Execute(ctx context.Context, payload json.RawMessage, logs Logger) (json.RawMessage, error) {
	p := codePayload{}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode run_code payload: %w", err)
	}
	if p.Script == "" {
		return nil, fmt.Errorf("run_code payload requires a script")
	}

	timeout := h.timeout
	if t := time.Duration(p.TimeoutMS) * time.Millisecond; t > 0 && t < timeout {
		timeout = t
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	vm := goja.New()
	if err := vm.Set("args", p.Args); err != nil {
		return nil, err
	}
	console := vm.NewObject()
	err := console.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := []string{}
		for _, a := range call.Arguments {
			parts = append(parts, a.String())
		}
		logs.Logf("%s", strings.Join(parts, " "))
		return goja.Undefined()
	})
	if err != nil {
		return nil, err
	}
	if err = vm.Set("console", console); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := vm.RunString(p.Script)
	if err != nil {
		if _, ok := err.(*goja.InterruptedError); ok {
			return nil, fmt.Errorf("script interrupted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("script failed: %w", err)
	}

	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}
	return json.Marshal(val.Export())
}
