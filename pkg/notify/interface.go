/*Package notify delivers run outcome notifications.

A Notifier accepts notifications; the stock implementations are Fanout
(immediate delivery over named channels) and Asynq (deferred delivery via
a redis backed queue, drained by a worker running a Fanout).
*/
package notify

import (
	"context"

	"github.com/skerrick/gantry/pkg/structs"
)

// Notifier accepts notifications for delivery.
type Notifier interface {
	// Send delivers (or queues) one notification.
	Send(ctx context.Context, n *structs.Notification) error

	// Close shuts down the notifier.
	Close() error
}

// Channel delivers notifications over a single medium (log, webhook, email).
type Channel interface {
	// Name is how tasks select this channel in their notify policy.
	Name() string

	// Deliver pushes one notification out.
	Deliver(ctx context.Context, n *structs.Notification) error
}
