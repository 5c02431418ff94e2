package structs

import (
	"time"
)

const (
	queryLimitDefault = 1000
	queryLimitMax     = 10000
)

type Query struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Filters
	TaskIDs  []string `json:"task_ids,omitempty"`
	UserIDs  []string `json:"user_ids,omitempty"`
	Kinds    []Kind   `json:"kinds,omitempty"`
	Statuses []Status `json:"statuses,omitempty"`

	// DueBefore keeps only tasks whose next run is at or before this time.
	DueBefore *time.Time `json:"due_before,omitempty"`

	// OrderByNextRun sorts results soonest-first and drops tasks with no
	// next run. The default order is newest-created first.
	OrderByNextRun bool `json:"order_by_next_run,omitempty"`
}

func (q *Query) Sanitize() {
	if q.Limit <= 0 {
		q.Limit = queryLimitDefault
	}
	if q.Limit > queryLimitMax {
		q.Limit = queryLimitMax
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.TaskIDs == nil || len(q.TaskIDs) == 0 {
		q.TaskIDs = nil
	}
	if q.UserIDs == nil || len(q.UserIDs) == 0 {
		q.UserIDs = nil
	}
	if q.Kinds == nil || len(q.Kinds) == 0 {
		q.Kinds = nil
	}
	if q.Statuses == nil || len(q.Statuses) == 0 {
		q.Statuses = nil
	}
}
