package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalCallsNamedService(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody []byte
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"invoice": "inv-1"}`))
	}))
	defer svr.Close()

	h := NewExternal(svr.Client(), map[string]string{"billing": svr.URL})

	raw, err := h.Execute(context.Background(), json.RawMessage(`{
		"service": "billing",
		"path": "/invoices",
		"body": {"amount": 100}
	}`), &testLogger{})

	require.Nil(t, err)
	assert.Equal(t, "/invoices", gotPath)
	assert.Equal(t, "POST", gotMethod)
	assert.JSONEq(t, `{"amount": 100}`, string(gotBody))

	res := httpResult{}
	require.Nil(t, json.Unmarshal(raw, &res))
	assert.Equal(t, 200, res.Status)
	assert.JSONEq(t, `{"invoice": "inv-1"}`, string(res.Body))
}

func TestExternalUnknownService(t *testing.T) {
	h := NewExternal(http.DefaultClient, map[string]string{})

	_, err := h.Execute(context.Background(), json.RawMessage(`{"service": "billing"}`), &testLogger{})

	assert.ErrorContains(t, err, `unknown service "billing"`)
}
