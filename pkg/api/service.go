package api

import (
	"context"

	"github.com/skerrick/gantry/internal/core"
	"github.com/skerrick/gantry/pkg/database"
	"github.com/skerrick/gantry/pkg/dispatch"
	"github.com/skerrick/gantry/pkg/notify"
	"github.com/skerrick/gantry/pkg/structs"
)

// Service implements API over the task engine. Lifecycle and run calls
// pass straight through; webhook creation additionally builds the
// externally callable URL.
type Service struct {
	eng  *core.Service
	db   database.Database
	nt   notify.Notifier
	opts *Options
}

// New builds the full stack from configuration: the store is chosen by
// the database URL scheme, the dispatcher carries the stock action
// handlers, and notifications are queued if a queue URL is set or
// delivered in process over opts.Channels otherwise.
func New(dbOpts *database.Options, dspOpts *dispatch.Options, ntOpts *notify.Options, opts *Options) (API, error) {
	if opts == nil {
		opts = &Options{}
	}
	opts.SetDefaults()

	db, err := newDatabase(dbOpts)
	if err != nil {
		return nil, err
	}
	nt, err := newNotifier(ntOpts, opts)
	if err != nil {
		db.Close()
		return nil, err
	}
	return NewAPI(db, dispatch.Default(dspOpts), nt, opts)
}

// NewAPI wraps already constructed collaborators. The notifier may be nil,
// in which case notify policies are ignored.
func NewAPI(db database.Database, dsp dispatch.Dispatcher, nt notify.Notifier, opts *Options) (API, error) {
	if opts == nil {
		opts = &Options{}
	}
	opts.SetDefaults()

	eng, err := core.NewService(db, dsp, nt, &core.Options{
		Log:        opts.Log,
		Registerer: opts.Registerer,
	})
	if err != nil {
		return nil, err
	}
	return &Service{eng: eng, db: db, nt: nt, opts: opts}, nil
}

// CreateTask validates and persists a new task and arms its timer.
func (s *Service) CreateTask(ctx context.Context, req *structs.CreateTaskRequest) (*structs.Task, error) {
	return s.eng.CreateTask(ctx, req)
}

// GetTask returns the task with the given id.
func (s *Service) GetTask(ctx context.Context, id string) (*structs.Task, error) {
	return s.eng.GetTask(ctx, id)
}

// ListTasks returns tasks matching the given query.
func (s *Service) ListTasks(ctx context.Context, q *structs.Query) ([]*structs.Task, error) {
	return s.eng.ListTasks(ctx, q)
}

// UpdateTask applies a partial update, rescheduling if needed.
func (s *Service) UpdateTask(ctx context.Context, id string, req *structs.UpdateTaskRequest) (*structs.Task, error) {
	return s.eng.UpdateTask(ctx, id, req)
}

// DeleteTask removes the task, its executions and webhook bindings.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	return s.eng.DeleteTask(ctx, id)
}

// PauseTask stops future fires. Idempotent.
func (s *Service) PauseTask(ctx context.Context, id string) (*structs.Task, error) {
	return s.eng.PauseTask(ctx, id)
}

// ResumeTask reactivates a paused task.
func (s *Service) ResumeTask(ctx context.Context, id string) (*structs.Task, error) {
	return s.eng.ResumeTask(ctx, id)
}

// RunNow executes the task immediately and waits for the result.
func (s *Service) RunNow(ctx context.Context, id string) (*structs.Execution, error) {
	return s.eng.RunNow(ctx, id)
}

// Executions returns up to limit run records for the task, newest first.
func (s *Service) Executions(ctx context.Context, taskID string, limit int) ([]*structs.Execution, error) {
	return s.eng.Executions(ctx, taskID, limit)
}

// UpcomingTasks returns the user's active tasks ordered by next run.
func (s *Service) UpcomingTasks(ctx context.Context, userID string, limit int) ([]*structs.Task, error) {
	return s.eng.UpcomingTasks(ctx, userID, limit)
}

// ReadyTasks returns active tasks whose next run is already due.
func (s *Service) ReadyTasks(ctx context.Context, limit int) ([]*structs.Task, error) {
	return s.eng.ReadyTasks(ctx, limit)
}

// CreateWebhook binds a new webhook to the given trigger task and returns
// the id, the shared secret and the URL an external caller should POST to.
func (s *Service) CreateWebhook(ctx context.Context, taskID string) (*structs.CreateWebhookResponse, error) {
	w, err := s.eng.BindWebhook(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &structs.CreateWebhookResponse{
		WebhookID: w.ID,
		Secret:    w.Secret,
		URL:       webhookURL(s.opts.PublicURL, w.ID),
	}, nil
}

// DeleteWebhooks removes every webhook binding on the task.
func (s *Service) DeleteWebhooks(ctx context.Context, taskID string) (int64, error) {
	return s.eng.UnbindWebhooks(ctx, taskID)
}

// HandleWebhook fires the task bound to the given webhook id.
func (s *Service) HandleWebhook(ctx context.Context, webhookID, secret string) (*structs.Execution, error) {
	return s.eng.HandleWebhook(ctx, webhookID, secret)
}

// Initialize re-arms timers for every persisted active task.
func (s *Service) Initialize(ctx context.Context) error {
	return s.eng.Initialize(ctx)
}

// Shutdown stops all armed timers. Connections stay open.
func (s *Service) Shutdown() {
	s.eng.Shutdown()
}

// Close stops the engine and closes the notifier and the database.
func (s *Service) Close() error {
	s.eng.Shutdown()
	var err error
	if s.nt != nil {
		err = s.nt.Close()
	}
	if derr := s.db.Close(); derr != nil {
		err = derr
	}
	return err
}
