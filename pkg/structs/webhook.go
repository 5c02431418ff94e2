package structs

import (
	"time"
)

// WebhookBinding authorizes an external caller to fire one trigger task.
type WebhookBinding struct {
	// ID is the opaque identifier carried in the inbound URL.
	ID string `json:"id"`

	// Secret is the shared secret the caller must present.
	Secret string `json:"secret"`

	// TaskID is the task this binding fires.
	TaskID string `json:"task_id"`

	// CreatedAt is the time this binding was created
	CreatedAt time.Time `json:"created_at"`
}
