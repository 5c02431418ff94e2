package structs

// ConditionType says where a condition reads its observed value from.
type ConditionType string

const (
	// ConditionTime compares against the current time.
	ConditionTime ConditionType = "time"

	// ConditionVariable compares against one of the task's Vars.
	ConditionVariable ConditionType = "variable"

	// ConditionAPIResponse fetches Source and compares a field of the body.
	ConditionAPIResponse ConditionType = "api_response"
)

// Operator compares a condition's observed value with its expected value.
type Operator string

const (
	OpEquals   Operator = "equals"
	OpContains Operator = "contains"
	OpGreater  Operator = "greater"
	OpLess     Operator = "less"
	OpExists   Operator = "exists"
)

// Condition is a single precondition gating a task run. All of a task's
// conditions must hold for a run to proceed; an empty list always holds.
type Condition struct {
	// Type says where the observed value comes from.
	Type ConditionType `json:"type"`

	// Field names the value under inspection: a variable name for
	// variable conditions, or a dot path into the response body for
	// api_response conditions.
	Field string `json:"field,omitempty"`

	// Operator is the comparison to apply.
	Operator Operator `json:"operator"`

	// Value is the expected right hand side of the comparison.
	Value string `json:"value,omitempty"`

	// Source is the URL fetched for api_response conditions.
	Source string `json:"source,omitempty"`
}
