package structs

// NotifyPolicy controls which run outcomes fan out notifications.
type NotifyPolicy struct {
	// OnSuccess sends a notification after each successful run.
	OnSuccess bool `json:"on_success"`

	// OnFailure sends a notification after each failed run.
	OnFailure bool `json:"on_failure"`

	// Channels names the delivery channels to fan out to, eg. "email",
	// "webhook", "log". Channel configuration lives with the fan-out.
	Channels []string `json:"channels,omitempty"`
}

// Wants reports whether this policy asks for a notification on the
// given outcome.
func (n *NotifyPolicy) Wants(outcome Outcome) bool {
	switch outcome {
	case OutcomeSuccess:
		return n.OnSuccess
	case OutcomeFailure:
		return n.OnFailure
	default:
		return false
	}
}
