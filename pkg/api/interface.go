package api

import (
	"context"

	"github.com/skerrick/gantry/pkg/structs"
)

// API represents the functions gantry servers should expose.
type API interface {
	// Implemented over gantry/internal/core.Service

	CreateTask(ctx context.Context, req *structs.CreateTaskRequest) (*structs.Task, error)
	GetTask(ctx context.Context, id string) (*structs.Task, error)
	ListTasks(ctx context.Context, q *structs.Query) ([]*structs.Task, error)
	UpdateTask(ctx context.Context, id string, req *structs.UpdateTaskRequest) (*structs.Task, error)
	DeleteTask(ctx context.Context, id string) error

	PauseTask(ctx context.Context, id string) (*structs.Task, error)
	ResumeTask(ctx context.Context, id string) (*structs.Task, error)
	RunNow(ctx context.Context, id string) (*structs.Execution, error)

	Executions(ctx context.Context, taskID string, limit int) ([]*structs.Execution, error)
	UpcomingTasks(ctx context.Context, userID string, limit int) ([]*structs.Task, error)
	ReadyTasks(ctx context.Context, limit int) ([]*structs.Task, error)

	CreateWebhook(ctx context.Context, taskID string) (*structs.CreateWebhookResponse, error)
	DeleteWebhooks(ctx context.Context, taskID string) (int64, error)
	HandleWebhook(ctx context.Context, webhookID, secret string) (*structs.Execution, error)

	// Initialize re-arms timers for persisted tasks. Call it once, before
	// the first external trigger can arrive.
	Initialize(ctx context.Context) error

	// Shutdown stops all armed timers without closing connections.
	Shutdown()

	// Close stops all timers and shuts down the notifier and the database.
	Close() error
}

type Server interface {
	ServeForever(api API) error
	Close() error
}
