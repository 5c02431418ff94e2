package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/skerrick/gantry/pkg/structs"
)

// defaultChannel receives notifications that name no channel at all.
const defaultChannel = "log"

// Fanout is a Notifier that delivers immediately over named channels.
type Fanout struct {
	channels map[string]Channel
}

// NewFanout returns a Fanout over the given channels.
func NewFanout(channels ...Channel) *Fanout {
	f := &Fanout{channels: map[string]Channel{}}
	for _, c := range channels {
		f.channels[c.Name()] = c
	}
	return f
}

// Send delivers the notification on every channel it names. Unknown
// channels and failed deliveries are collected; the rest still go out.
func (f *Fanout) Send(ctx context.Context, n *structs.Notification) error {
	names := n.Channels
	if len(names) == 0 {
		names = []string{defaultChannel}
	}

	errs := []error{}
	for _, name := range names {
		c, ok := f.channels[name]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown channel %q", name))
			continue
		}
		if err := c.Deliver(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Close is a no-op; channels hold no connections of their own.
func (f *Fanout) Close() error {
	return nil
}
