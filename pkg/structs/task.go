package structs

import (
	"time"
)

// TaskSpec are fields that can be set when a task is created
type TaskSpec struct {
	// Name is a human readable name for this task.
	//
	// Required.
	Name string `json:"name"`

	// Description is an optional note on what this task does.
	Description string `json:"description,omitempty"`

	// Kind determines how this task fires: once at a fixed instant,
	// repeatedly on a cron schedule, or when an external trigger arrives.
	//
	// Required. Immutable once the task is created.
	Kind Kind `json:"kind"`

	// Schedule holds the fire time configuration.
	//
	// Required for one_time and recurring tasks. Ignored for trigger tasks.
	Schedule *Schedule `json:"schedule,omitempty"`

	// Trigger holds the external trigger configuration.
	//
	// Required for trigger tasks. Ignored otherwise.
	Trigger *Trigger `json:"trigger,omitempty"`

	// Action is the unit of work performed when this task fires.
	// The engine hands it to a dispatcher and never inspects the payload.
	//
	// Required.
	Action Action `json:"action"`

	// Conditions gate each run. All must hold or the run is skipped.
	Conditions []Condition `json:"conditions,omitempty"`

	// Vars are task scoped values that variable conditions resolve against.
	Vars map[string]string `json:"vars,omitempty"`

	// Retry controls what happens when a run fails.
	// If nil, a single failure is terminal.
	Retry *RetryPolicy `json:"retry,omitempty"`

	// Notify controls outcome notifications. If nil, nothing is sent.
	Notify *NotifyPolicy `json:"notify,omitempty"`
}

// Task represents a persisted, schedulable unit of work.
type Task struct {
	// TaskSpec are fields that can be set when a task is created
	TaskSpec `json:",inline"`

	// ID is a unique identifier for this task
	ID string `json:"id"`

	// UserID is the ID of the user this task belongs to
	UserID string `json:"user_id"`

	// Status is the current status of this task
	Status Status `json:"status"`

	// LastRunAt is the time this task last finished a run, if it ever ran.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// NextRunAt is the next time this task is due to fire.
	// Nil for trigger tasks and for tasks in a final status.
	NextRunAt *time.Time `json:"next_run_at,omitempty"`

	// RunCount is the number of successful runs so far.
	RunCount int64 `json:"run_count"`

	// RetryCount is the number of retries consumed since the last
	// successful run. Reset to zero on success.
	RetryCount int64 `json:"retry_count"`

	// CreatedAt is the time this task was created
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the time this task was last updated
	UpdatedAt time.Time `json:"updated_at"`
}
