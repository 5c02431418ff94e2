package structs

import (
	"encoding/json"
	"time"
)

// Outcome is the result of a run, carried on notifications.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Notification is handed to the channel fan-out after a run whose task
// asked to be notified of the outcome.
type Notification struct {
	// TaskID is the ID of the task that ran.
	TaskID string `json:"task_id"`

	// TaskName is the task's name at the time of the run.
	TaskName string `json:"task_name"`

	// UserID is the ID of the user the task belongs to.
	UserID string `json:"user_id"`

	// Outcome says whether the run succeeded or failed.
	Outcome Outcome `json:"outcome"`

	// Message is a short human readable summary, eg. the failure error.
	Message string `json:"message,omitempty"`

	// Payload is the action result on success, if any.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Channels names the delivery channels to fan out to.
	Channels []string `json:"channels,omitempty"`

	// At is the time the run finished.
	At time.Time `json:"at"`
}
