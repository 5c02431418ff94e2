package database

import (
	"context"

	"github.com/skerrick/gantry/pkg/structs"
)

// Database is the persistent system of record for tasks, executions and
// webhook bindings. The in-memory timer registry is a rebuildable cache on
// top of this.
type Database interface {
	// InsertTask writes a new task.
	InsertTask(ctx context.Context, t *structs.Task) error

	// UpdateTask overwrites a task row atomically, matched by ID.
	// Returns the number of rows updated (0 if the task is gone).
	UpdateTask(ctx context.Context, t *structs.Task) (int64, error)

	// DeleteTask removes a task. Executions and webhook bindings cascade.
	// Returns the number of rows deleted.
	DeleteTask(ctx context.Context, id string) (int64, error)

	// Tasks returns tasks matching the given query.
	Tasks(ctx context.Context, q *structs.Query) ([]*structs.Task, error)

	// InsertExecution writes a new execution record.
	InsertExecution(ctx context.Context, e *structs.Execution) error

	// UpdateExecution overwrites an execution row, matched by ID.
	UpdateExecution(ctx context.Context, e *structs.Execution) (int64, error)

	// Executions returns up to limit execution records for a task,
	// most recently started first.
	Executions(ctx context.Context, taskID string, limit int) ([]*structs.Execution, error)

	// InsertWebhook writes a new webhook binding.
	InsertWebhook(ctx context.Context, w *structs.WebhookBinding) error

	// Webhook returns the binding with the given id, or nil if absent.
	Webhook(ctx context.Context, id string) (*structs.WebhookBinding, error)

	// DeleteTaskWebhooks removes every binding owned by the given task.
	DeleteTaskWebhooks(ctx context.Context, taskID string) (int64, error)

	Close() error
}
