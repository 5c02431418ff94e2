package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/skerrick/gantry/pkg/api"
	"github.com/skerrick/gantry/pkg/api/http/server"
	"github.com/skerrick/gantry/pkg/database"
	"github.com/skerrick/gantry/pkg/dispatch"
	"github.com/skerrick/gantry/pkg/structs"
)

const (
	// stub behaviour keyed off stock action types: "webhook" actions
	// record their payload and succeed, "send_email" actions always fail
	actionOK   = structs.ActionWebhook
	actionBoom = structs.ActionSendEmail
)

// runRecorder remembers every payload the ok-handler saw, so tests can
// assert on what actually ran.
type runRecorder struct {
	mu   sync.Mutex
	seen []json.RawMessage
}

func (r *runRecorder) record(p json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, p)
}

func (r *runRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

// stubHandler is a dispatch handler with canned behaviour.
type stubHandler struct {
	kind structs.ActionType
	fn   func(payload json.RawMessage, logs dispatch.Logger) (json.RawMessage, error)
}

func (h *stubHandler) Type() structs.ActionType {
	return h.kind
}

func (h *stubHandler) Execute(ctx context.Context, payload json.RawMessage, logs dispatch.Logger) (json.RawMessage, error) {
	return h.fn(payload, logs)
}

// newStubDispatcher returns a dispatcher whose handlers never leave the
// process, plus the recorder the ok-handler reports to.
func newStubDispatcher() (*dispatch.Registry, *runRecorder) {
	rec := &runRecorder{}

	ok := &stubHandler{kind: actionOK, fn: func(payload json.RawMessage, logs dispatch.Logger) (json.RawMessage, error) {
		rec.record(payload)
		logs.Logf("stub handler ran (%d byte payload)", len(payload))
		return json.RawMessage(`{"ok":true}`), nil
	}}
	boom := &stubHandler{kind: actionBoom, fn: func(payload json.RawMessage, logs dispatch.Logger) (json.RawMessage, error) {
		return nil, fmt.Errorf("boom")
	}}

	return dispatch.NewRegistry(ok, boom), rec
}

// main serves the HTTP API over the in-memory store with the stub
// dispatcher, for poking the endpoints by hand:
//
//	cd tests && go run dummy_dispatcher.go
func main() {
	dsp, _ := newStubDispatcher()

	svc, err := api.NewAPI(database.NewMemory(), dsp, nil, nil)
	if err != nil {
		panic(err)
	}
	defer svc.Close()

	if err = svc.Initialize(context.Background()); err != nil {
		panic(err)
	}

	server.NewServer("localhost:8200", true).ServeForever(svc)
}
