package structs

import (
	"encoding/json"
	"time"
)

// Execution is one immutable record of a single attempt to run a task.
type Execution struct {
	// ID is a unique identifier for this execution
	ID string `json:"id"`

	// TaskID is the ID of the task this execution belongs to
	TaskID string `json:"task_id"`

	// Status is RUNNING while the attempt is in flight, then COMPLETED
	// or FAILED.
	Status Status `json:"status"`

	// StartedAt is the time the attempt began.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is the time the attempt finished. Nil while running.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// DurationMS is CompletedAt minus StartedAt in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// Result is the payload returned by the action on success.
	Result json.RawMessage `json:"result,omitempty"`

	// Error is the failure message when Status is FAILED.
	Error string `json:"error,omitempty"`

	// Logs are progress lines appended while the attempt ran.
	Logs []string `json:"logs,omitempty"`
}
