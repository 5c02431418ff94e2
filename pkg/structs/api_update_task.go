package structs

// UpdateTaskRequest is a partial update of a task. Nil fields are left
// unchanged; the task's kind cannot be changed after creation.
type UpdateTaskRequest struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Schedule    *Schedule          `json:"schedule,omitempty"`
	Trigger     *Trigger           `json:"trigger,omitempty"`
	Action      *Action            `json:"action,omitempty"`
	Conditions  *[]Condition       `json:"conditions,omitempty"`
	Vars        *map[string]string `json:"vars,omitempty"`
	Retry       *RetryPolicy       `json:"retry,omitempty"`
	Notify      *NotifyPolicy      `json:"notify,omitempty"`
}

// Apply merges the set fields onto the given task. It returns true if a
// schedule relevant field changed and the task's next run needs recomputing.
func (u *UpdateTaskRequest) Apply(t *Task) bool {
	reschedule := false
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Schedule != nil {
		t.Schedule = u.Schedule
		reschedule = true
	}
	if u.Trigger != nil {
		t.Trigger = u.Trigger
	}
	if u.Action != nil {
		t.Action = *u.Action
	}
	if u.Conditions != nil {
		t.Conditions = *u.Conditions
	}
	if u.Vars != nil {
		t.Vars = *u.Vars
	}
	if u.Retry != nil {
		t.Retry = u.Retry
	}
	if u.Notify != nil {
		t.Notify = u.Notify
	}
	return reschedule
}
