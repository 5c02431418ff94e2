package structs

import (
	"encoding/json"
	"strings"
)

// ActionType enumerates the kinds of work a task can perform.
type ActionType string

const (
	ActionAIPrompt        ActionType = "ai_prompt"
	ActionSendEmail       ActionType = "send_email"
	ActionWebhook         ActionType = "webhook"
	ActionRunCode         ActionType = "run_code"
	ActionGenerateReport  ActionType = "generate_report"
	ActionChain           ActionType = "chain"
	ActionWebScrape       ActionType = "web_scrape"
	ActionFileOp          ActionType = "file_op"
	ActionExternalService ActionType = "external_service"
)

// ToActionType maps a string to a known ActionType, or "" if unknown.
func ToActionType(s string) ActionType {
	at := ActionType(strings.ToLower(s))
	switch at {
	case ActionAIPrompt, ActionSendEmail, ActionWebhook, ActionRunCode,
		ActionGenerateReport, ActionChain, ActionWebScrape, ActionFileOp,
		ActionExternalService:
		return at
	default:
		return ""
	}
}

// Action is a single unit of work: a type tag plus handler specific payload.
type Action struct {
	// Type selects which handler runs this action.
	Type ActionType `json:"type"`

	// Payload is handler specific configuration. The engine never reads it.
	Payload json.RawMessage `json:"payload,omitempty"`
}
