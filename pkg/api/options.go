package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/skerrick/gantry/pkg/notify"
)

const (
	defPublicURL = "http://localhost:8200"
)

// Options passed to the gantry API on creation
type Options struct {
	// PublicURL is the externally reachable base URL of the hosting server.
	// Webhook trigger URLs handed to callers are built from it.
	PublicURL string

	// Log receives engine logs. Defaults to the standard logger.
	Log *logrus.Logger

	// Registerer receives engine metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer

	// Channels are the notification delivery channels used when no
	// queue is configured (see New). Defaults to a single log channel.
	Channels []notify.Channel
}

// SetDefaults fills in unset fields.
func (o *Options) SetDefaults() {
	if o.PublicURL == "" {
		o.PublicURL = defPublicURL
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if len(o.Channels) == 0 {
		o.Channels = []notify.Channel{notify.NewLogChannel(o.Log)}
	}
}
