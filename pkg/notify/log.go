package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/skerrick/gantry/pkg/structs"
)

// LogChannel writes notifications to the structured log. It is the
// fallback channel when a task names none.
type LogChannel struct {
	log *logrus.Logger
}

// NewLogChannel returns a log channel writing to the given logger, or the
// standard logger if nil.
func NewLogChannel(log *logrus.Logger) *LogChannel {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogChannel{log: log}
}

// Name is how tasks select this channel.
func (c *LogChannel) Name() string {
	return "log"
}

// Deliver logs the notification, warning on failure outcomes.
func (c *LogChannel) Deliver(ctx context.Context, n *structs.Notification) error {
	entry := c.log.WithFields(logrus.Fields{
		"task_id": n.TaskID,
		"task":    n.TaskName,
		"user_id": n.UserID,
		"outcome": n.Outcome,
		"at":      n.At,
	})
	if n.Outcome == structs.OutcomeFailure {
		entry.Warn(n.Message)
	} else {
		entry.Info(n.Message)
	}
	return nil
}
