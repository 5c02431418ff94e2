package core

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/skerrick/gantry/pkg/dispatch"
)

const defConditionTimeout = 15 * time.Second

// Options tune the engine. The zero value is serviceable.
type Options struct {
	// Clock supplies time and timers. Defaults to the system clock;
	// tests swap in a fake to drive timers by hand.
	Clock Clock

	// Log receives engine and run logs. Defaults to the standard logger.
	Log *logrus.Logger

	// HTTPClient fetches api_response condition sources.
	HTTPClient dispatch.Doer

	// Registerer receives engine metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

// SetDefaults fills in unset fields.
func (o *Options) SetDefaults() {
	if o.Clock == nil {
		o.Clock = SystemClock
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: defConditionTimeout}
	}
}
