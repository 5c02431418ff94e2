package structs

import (
	"strings"
)

// Kind determines how a task fires.
type Kind string

const (
	// KindOneTime fires once at a fixed instant.
	KindOneTime Kind = "one_time"

	// KindRecurring fires repeatedly on a cron schedule.
	KindRecurring Kind = "recurring"

	// KindTrigger fires when an external trigger (webhook, email, event) arrives.
	KindTrigger Kind = "trigger"
)

// ToKind maps a string to a known Kind, or "" if unknown.
func ToKind(s string) Kind {
	switch strings.ToLower(s) {
	case "one_time":
		return KindOneTime
	case "recurring":
		return KindRecurring
	case "trigger":
		return KindTrigger
	default:
		return ""
	}
}
