package structs

// CreateTaskRequest is an outline to create a new task.
type CreateTaskRequest struct {
	// TaskSpec are fields that can be set when a task is created
	TaskSpec `json:",inline"`

	// UserID is the ID of the user the task belongs to
	UserID string `json:"user_id"`
}
