package structs

import (
	"strings"
)

// Status is the lifecycle state of a task or execution.
type Status string

const (
	// live states
	ACTIVE  Status = "active"
	PAUSED  Status = "paused"
	RUNNING Status = "running"

	// end states
	COMPLETED Status = "completed"
	FAILED    Status = "failed"
)

// IsFinalStatus returns true if an object in the given status never runs again.
func IsFinalStatus(status Status) bool {
	switch status {
	case COMPLETED, FAILED:
		return true
	default:
		return false
	}
}

// ToStatus maps a string to a known Status, or "" if unknown.
func ToStatus(s string) Status {
	switch strings.ToLower(s) {
	case "active":
		return ACTIVE
	case "paused":
		return PAUSED
	case "running":
		return RUNNING
	case "completed":
		return COMPLETED
	case "failed":
		return FAILED
	default:
		return ""
	}
}
