package structs

import (
	"time"
)

// Schedule describes when a one_time or recurring task fires.
type Schedule struct {
	// RunAt is the fixed fire instant for one_time tasks.
	RunAt *time.Time `json:"run_at,omitempty"`

	// Cron is a standard five field cron expression for recurring tasks.
	Cron string `json:"cron,omitempty"`

	// Timezone is the IANA timezone the cron expression is evaluated in.
	// Defaults to UTC.
	Timezone string `json:"timezone,omitempty"`
}
