package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skerrick/gantry/pkg/errors"
	"github.com/skerrick/gantry/pkg/structs"
)

// Handler executes actions of a single type.
type Handler interface {
	// Type is the ActionType this handler serves.
	Type() structs.ActionType

	// Execute runs one action attempt.
	Execute(ctx context.Context, payload json.RawMessage, logs Logger) (json.RawMessage, error)
}

// Registry is a Dispatcher that routes each action to the handler
// registered for its type.
type Registry struct {
	handlers map[structs.ActionType]Handler
}

// NewRegistry returns a Registry serving the given handlers.
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: map[structs.ActionType]Handler{}}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register adds a handler, replacing any previous handler of the same type.
func (r *Registry) Register(h Handler) {
	r.handlers[h.Type()] = h
}

// Execute routes the action to its handler.
func (r *Registry) Execute(ctx context.Context, action *structs.Action, logs Logger) (json.RawMessage, error) {
	h, ok := r.handlers[action.Type]
	if !ok {
		return nil, fmt.Errorf("%w: no handler for action type %q", errors.ErrNotSupported, action.Type)
	}
	return h.Execute(ctx, action.Payload, logs)
}
