package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skerrick/gantry/pkg/database"
	"github.com/skerrick/gantry/pkg/errors"
)

func TestNewDatabaseByScheme(t *testing.T) {
	cases := []struct {
		Name      string
		URL       string
		ExpectErr error
	}{
		{Name: "Empty-Is-Memory", URL: ""},
		{Name: "Memory", URL: "memory://"},
		{Name: "Unknown-Scheme", URL: "bolt://somewhere", ExpectErr: errors.ErrNotSupported},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			db, err := newDatabase(&database.Options{URL: c.URL})

			if c.ExpectErr != nil {
				assert.ErrorIs(t, err, c.ExpectErr)
				return
			}
			require.Nil(t, err)
			require.NotNil(t, db)
			assert.IsType(t, &database.Memory{}, db)
			db.Close()
		})
	}
}

func TestWebhookURL(t *testing.T) {
	cases := []struct {
		Name      string
		PublicURL string
		WebhookID string
		Expect    string
	}{
		{
			Name:      "Plain",
			PublicURL: "https://gantry.example.com",
			WebhookID: "abc",
			Expect:    "https://gantry.example.com/api/v1/hooks/abc",
		},
		{
			Name:      "Trailing-Slash",
			PublicURL: "https://gantry.example.com/",
			WebhookID: "abc",
			Expect:    "https://gantry.example.com/api/v1/hooks/abc",
		},
		{
			Name:      "Escapes-ID",
			PublicURL: "http://localhost:8200",
			WebhookID: "a b",
			Expect:    "http://localhost:8200/api/v1/hooks/a%20b",
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, c.Expect, webhookURL(c.PublicURL, c.WebhookID))
		})
	}
}

func TestOptionsSetDefaults(t *testing.T) {
	opts := &Options{}

	opts.SetDefaults()

	assert.Equal(t, defPublicURL, opts.PublicURL)
	assert.NotNil(t, opts.Log)
	assert.Len(t, opts.Channels, 1)
	assert.Equal(t, "log", opts.Channels[0].Name())
}
