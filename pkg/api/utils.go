package api

import (
	"fmt"
	"strings"

	"github.com/skerrick/gantry/pkg/api/http/common"
	"github.com/skerrick/gantry/pkg/database"
	"github.com/skerrick/gantry/pkg/errors"
	"github.com/skerrick/gantry/pkg/notify"
)

// newDatabase builds a store from the URL scheme: postgres:// for the
// pgx pool, sqlite://<path> for an embedded file database, memory:// for
// the throwaway in-memory store.
func newDatabase(opts *database.Options) (database.Database, error) {
	if opts == nil {
		opts = &database.Options{}
	}
	switch {
	case strings.HasPrefix(opts.URL, "postgres://"):
		return database.NewPostgres(opts)
	case strings.HasPrefix(opts.URL, "sqlite://"):
		return database.NewSqlite(strings.TrimPrefix(opts.URL, "sqlite://"))
	case opts.URL == "" || strings.HasPrefix(opts.URL, "memory://"):
		return database.NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w database url %q", errors.ErrNotSupported, opts.URL)
	}
}

// newNotifier returns the queue backed notifier when a queue URL is set,
// otherwise an immediate fan-out over the configured channels.
func newNotifier(ntOpts *notify.Options, opts *Options) (notify.Notifier, error) {
	if ntOpts != nil && ntOpts.URL != "" {
		return notify.NewAsynqNotifier(ntOpts)
	}
	return notify.NewFanout(opts.Channels...), nil
}

// webhookURL is the externally callable URL for a webhook binding.
func webhookURL(publicURL, webhookID string) string {
	return strings.TrimSuffix(publicURL, "/") + common.HookPath(webhookID)
}
