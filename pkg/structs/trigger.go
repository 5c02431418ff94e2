package structs

import (
	"encoding/json"
	"strings"
)

// TriggerKind is the source of an external trigger.
type TriggerKind string

const (
	// TriggerWebhook fires on an inbound HTTP call to a bound webhook.
	TriggerWebhook TriggerKind = "webhook"

	// TriggerEmail fires when a matching email arrives.
	TriggerEmail TriggerKind = "email"

	// TriggerEvent fires on a named application event.
	TriggerEvent TriggerKind = "event"
)

// ToTriggerKind maps a string to a known TriggerKind, or "" if unknown.
func ToTriggerKind(s string) TriggerKind {
	switch strings.ToLower(s) {
	case "webhook":
		return TriggerWebhook
	case "email":
		return TriggerEmail
	case "event":
		return TriggerEvent
	default:
		return ""
	}
}

// Trigger describes what external event fires a trigger task.
type Trigger struct {
	// Kind is the trigger source.
	Kind TriggerKind `json:"kind"`

	// Config is an opaque blob interpreted by the trigger gateway,
	// eg. a sender filter for email triggers or an event name.
	Config json.RawMessage `json:"config,omitempty"`
}
