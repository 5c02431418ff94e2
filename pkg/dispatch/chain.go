package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skerrick/gantry/pkg/structs"
)

type chainPayload struct {
	// Steps run in order. The first failure aborts the chain.
	Steps []structs.Action `json:"steps"`
}

type chainResult struct {
	Steps []json.RawMessage `json:"steps"`
}

// Chain runs a list of actions in order, failing fast on the first error.
// Step results are collected into a single result blob.
type Chain struct {
	next Dispatcher
}

// NewChain returns a chain action handler dispatching steps through next.
func NewChain(next Dispatcher) *Chain {
	return &Chain{next: next}
}

// Type returns the ActionType this handler serves.
func (h *Chain) Type() structs.ActionType {
	return structs.ActionChain
}

// Execute runs every step, aborting on the first failure.
func (h *Chain) Execute(ctx context.Context, payload json.RawMessage, logs Logger) (json.RawMessage, error) {
	p := chainPayload{}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode chain payload: %w", err)
	}
	if len(p.Steps) == 0 {
		return nil, fmt.Errorf("chain payload requires at least one step")
	}

	results := []json.RawMessage{}
	for i, step := range p.Steps {
		logs.Logf("chain step %d/%d: %s", i+1, len(p.Steps), step.Type)
		res, err := h.next.Execute(ctx, &step, logs)
		if err != nil {
			return nil, fmt.Errorf("chain step %d (%s): %w", i+1, step.Type, err)
		}
		results = append(results, res)
	}
	return json.Marshal(&chainResult{Steps: results})
}
