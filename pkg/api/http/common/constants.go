package common

import (
	"net/url"
	"strings"
)

const (
	// API_TASKS is used to list or create tasks
	API_TASKS = "/api/v1/tasks"

	// API_TASKS_UPCOMING is used to get a user's next scheduled tasks
	API_TASKS_UPCOMING = "/api/v1/tasks/upcoming"

	// API_TASKS_READY is used to get tasks whose next run is already due
	API_TASKS_READY = "/api/v1/tasks/ready"

	// API_TASK is used to get, update or delete one task
	API_TASK = "/api/v1/tasks/{task_id}"

	// API_TASK_PAUSE is used to pause a task
	API_TASK_PAUSE = "/api/v1/tasks/{task_id}/pause"

	// API_TASK_RESUME is used to resume a paused task
	API_TASK_RESUME = "/api/v1/tasks/{task_id}/resume"

	// API_TASK_RUN is used to run a task immediately
	API_TASK_RUN = "/api/v1/tasks/{task_id}/run"

	// API_TASK_EXECUTIONS is used to get a task's run history
	API_TASK_EXECUTIONS = "/api/v1/tasks/{task_id}/executions"

	// API_TASK_WEBHOOKS is used to create or revoke a task's webhooks
	API_TASK_WEBHOOKS = "/api/v1/tasks/{task_id}/webhooks"

	// API_HOOK is the inbound webhook trigger endpoint
	API_HOOK = "/api/v1/hooks/{webhook_id}"

	// HeaderSecret carries the webhook shared secret on trigger calls
	HeaderSecret = "X-Gantry-Secret"
)

// TaskPath fills a task route template with the given task id.
func TaskPath(route, taskID string) string {
	return strings.Replace(route, "{task_id}", url.PathEscape(taskID), 1)
}

// HookPath is the inbound trigger path for the given webhook id.
func HookPath(webhookID string) string {
	return strings.Replace(API_HOOK, "{webhook_id}", url.PathEscape(webhookID), 1)
}
