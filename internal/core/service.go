package core

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/skerrick/gantry/internal/utils"
	"github.com/skerrick/gantry/pkg/database"
	"github.com/skerrick/gantry/pkg/dispatch"
	"github.com/skerrick/gantry/pkg/errors"
	"github.com/skerrick/gantry/pkg/notify"
	"github.com/skerrick/gantry/pkg/schedule"
	"github.com/skerrick/gantry/pkg/structs"
)

const defInitBatch = 1000

// Service is the task engine. It owns the task lifecycle, the in-memory
// timer registry, and the run path that evaluates conditions, dispatches
// actions and applies outcomes. The store is the system of record; the
// registry is rebuilt from it on startup via Initialize.
type Service struct {
	db       database.Database
	dispatch dispatch.Dispatcher
	notify   notify.Notifier
	opts     *Options

	clock    Clock
	log      *logrus.Logger
	registry *Registry
	conds    *conditionChecker
	metrics  *metrics
}

// NewService builds an engine over the given store, dispatcher and notifier.
// The notifier may be nil, in which case notify policies are ignored.
// Call Initialize before accepting triggers so persisted tasks are re-armed.
func NewService(db database.Database, dsp dispatch.Dispatcher, nt notify.Notifier, opts *Options) (*Service, error) {
	if opts == nil {
		opts = &Options{}
	}
	opts.SetDefaults()

	s := &Service{
		db:       db,
		dispatch: dsp,
		notify:   nt,
		opts:     opts,
		clock:    opts.Clock,
		log:      opts.Log,
	}
	s.conds = &conditionChecker{clock: opts.Clock, client: opts.HTTPClient}
	s.registry = NewRegistry(opts.Clock, s.onTimerFire)
	s.metrics = newMetrics(opts.Registerer, func() float64 {
		return float64(s.registry.Len())
	})
	return s, nil
}

// Initialize re-arms a timer for every active task with a pending next run.
// Tasks whose next run passed while the engine was down fire immediately.
func (s *Service) Initialize(ctx context.Context) error {
	q := &structs.Query{
		Limit:          defInitBatch,
		Statuses:       []structs.Status{structs.ACTIVE},
		OrderByNextRun: true,
	}
	armed := 0
	for {
		tasks, err := s.db.Tasks(ctx, q)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if t.NextRunAt == nil {
				continue
			}
			s.registry.Arm(t.ID, *t.NextRunAt)
			armed++
		}
		if len(tasks) < q.Limit {
			break
		}
		q.Offset += q.Limit
	}
	s.log.WithField("armed", armed).Info("engine initialized")
	return nil
}

// Shutdown stops all armed timers. Runs already in flight finish normally.
func (s *Service) Shutdown() {
	s.registry.Shutdown()
	s.log.Info("engine shut down")
}

// CreateTask validates and persists a new task. One time and recurring
// tasks with a computable next run are armed immediately.
func (s *Service) CreateTask(ctx context.Context, req *structs.CreateTaskRequest) (*structs.Task, error) {
	if req == nil {
		return nil, fmt.Errorf("%w nil request", errors.ErrInvalidArg)
	}
	if err := validateTaskSpec(&req.TaskSpec); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	task := &structs.Task{
		TaskSpec:  req.TaskSpec,
		ID:        utils.NewRandomID(),
		UserID:    req.UserID,
		Status:    structs.ACTIVE,
		CreatedAt: now,
		UpdatedAt: now,
	}
	next, err := schedule.NextRun(task, now)
	if err != nil {
		return nil, err
	}
	task.NextRunAt = next

	if err := s.db.InsertTask(ctx, task); err != nil {
		return nil, err
	}
	if task.NextRunAt != nil {
		s.registry.Arm(task.ID, *task.NextRunAt)
	}

	s.metrics.tasksCreated.Inc()
	s.log.WithFields(logrus.Fields{
		"task_id": task.ID,
		"user_id": task.UserID,
		"kind":    task.Kind,
	}).Info("task created")
	return task, nil
}

// GetTask returns the task with the given id.
func (s *Service) GetTask(ctx context.Context, id string) (*structs.Task, error) {
	tasks, err := s.db.Tasks(ctx, &structs.Query{Limit: 1, TaskIDs: []string{id}})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w task %s", errors.ErrNotFound, id)
	}
	return tasks[0], nil
}

// ListTasks returns tasks matching the given query.
func (s *Service) ListTasks(ctx context.Context, q *structs.Query) ([]*structs.Task, error) {
	if q == nil {
		q = &structs.Query{}
	}
	q.Sanitize()
	return s.db.Tasks(ctx, q)
}

// UpdateTask applies a partial update. If the schedule changed the next run
// is recomputed and the timer re-armed. The task's kind cannot change.
func (s *Service) UpdateTask(ctx context.Context, id string, req *structs.UpdateTaskRequest) (*structs.Task, error) {
	if req == nil {
		return nil, fmt.Errorf("%w nil request", errors.ErrInvalidArg)
	}
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	reschedule := req.Apply(task)
	if err := validateTaskSpec(&task.TaskSpec); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if reschedule {
		next, err := schedule.NextRun(task, now)
		if err != nil {
			return nil, err
		}
		task.NextRunAt = next
	}
	task.UpdatedAt = now

	if err := s.update(ctx, task); err != nil {
		return nil, err
	}
	if reschedule && task.Status == structs.ACTIVE {
		if task.NextRunAt != nil {
			s.registry.Arm(task.ID, *task.NextRunAt)
		} else {
			s.registry.Disarm(task.ID)
		}
	}
	return task, nil
}

// PauseTask stops future fires without touching the task's schedule or
// next run. Pausing an already paused task is a no-op. A run in flight
// finishes normally.
func (s *Service) PauseTask(ctx context.Context, id string) (*structs.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status == structs.PAUSED {
		return task, nil
	}
	if structs.IsFinalStatus(task.Status) {
		return nil, fmt.Errorf("%w cannot pause %s task %s", errors.ErrInvalidState, task.Status, id)
	}

	task.Status = structs.PAUSED
	task.UpdatedAt = s.clock.Now()
	if err := s.update(ctx, task); err != nil {
		return nil, err
	}
	s.registry.Disarm(id)
	s.log.WithField("task_id", id).Info("task paused")
	return task, nil
}

// ResumeTask reactivates a paused task and recomputes its next run from
// the current time. Fires missed while paused are not replayed, though a
// one_time task whose instant has passed fires immediately.
func (s *Service) ResumeTask(ctx context.Context, id string) (*structs.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status == structs.ACTIVE {
		return task, nil
	}
	if structs.IsFinalStatus(task.Status) {
		return nil, fmt.Errorf("%w cannot resume %s task %s", errors.ErrInvalidState, task.Status, id)
	}

	now := s.clock.Now()
	next, err := schedule.NextRun(task, now)
	if err != nil {
		return nil, err
	}
	task.Status = structs.ACTIVE
	task.NextRunAt = next
	task.UpdatedAt = now

	if err := s.update(ctx, task); err != nil {
		return nil, err
	}
	if task.NextRunAt != nil {
		s.registry.Arm(task.ID, *task.NextRunAt)
	}
	s.log.WithField("task_id", id).Info("task resumed")
	return task, nil
}

// DeleteTask removes the task and everything hanging off it: executions,
// webhook bindings and any armed timer. A run in flight finishes; its
// final bookkeeping lands on a missing row and is dropped.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	s.registry.Disarm(id)
	n, err := s.db.DeleteTask(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w task %s", errors.ErrNotFound, id)
	}
	s.metrics.tasksDeleted.Inc()
	s.log.WithField("task_id", id).Info("task deleted")
	return nil
}

// RunNow executes the task immediately, regardless of its schedule, and
// waits for the result. The scheduled timer, if any, stays armed. Run
// failures surface as an ErrExecution after the outcome is recorded.
func (s *Service) RunNow(ctx context.Context, id string) (*structs.Execution, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if structs.IsFinalStatus(task.Status) {
		return nil, fmt.Errorf("%w cannot run %s task %s", errors.ErrInvalidState, task.Status, id)
	}
	return s.runTask(ctx, task, "manual")
}

// Executions returns up to limit run records for the task, newest first.
func (s *Service) Executions(ctx context.Context, taskID string, limit int) ([]*structs.Execution, error) {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	return s.db.Executions(ctx, taskID, limit)
}

// UpcomingTasks returns the user's active tasks ordered by next run,
// soonest first. Tasks with no pending run are not included.
func (s *Service) UpcomingTasks(ctx context.Context, userID string, limit int) ([]*structs.Task, error) {
	q := &structs.Query{
		Limit:          limit,
		UserIDs:        []string{userID},
		Statuses:       []structs.Status{structs.ACTIVE},
		OrderByNextRun: true,
	}
	q.Sanitize()
	return s.db.Tasks(ctx, q)
}

// ReadyTasks returns active tasks whose next run is already due, soonest
// first. Mostly a diagnostic: the registry fires these on its own.
func (s *Service) ReadyTasks(ctx context.Context, limit int) ([]*structs.Task, error) {
	now := s.clock.Now()
	q := &structs.Query{
		Limit:          limit,
		Statuses:       []structs.Status{structs.ACTIVE},
		DueBefore:      &now,
		OrderByNextRun: true,
	}
	q.Sanitize()
	return s.db.Tasks(ctx, q)
}

// BindWebhook mints an id/secret pair that lets an external caller fire
// the given trigger task. The secret is only returned here; callers build
// the public URL from the id themselves.
func (s *Service) BindWebhook(ctx context.Context, taskID string) (*structs.WebhookBinding, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Kind != structs.KindTrigger {
		return nil, fmt.Errorf("%w only trigger tasks accept webhooks, task %s is %s", errors.ErrInvalidTask, taskID, task.Kind)
	}

	w := &structs.WebhookBinding{
		ID:        utils.NewRandomID(),
		Secret:    utils.NewSecret(),
		TaskID:    taskID,
		CreatedAt: s.clock.Now(),
	}
	if err := s.db.InsertWebhook(ctx, w); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"task_id": taskID, "webhook_id": w.ID}).Info("webhook bound")
	return w, nil
}

// UnbindWebhooks removes every webhook binding on the task, revoking all
// previously issued secrets. Returns the number of bindings removed.
func (s *Service) UnbindWebhooks(ctx context.Context, taskID string) (int64, error) {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return 0, err
	}
	return s.db.DeleteTaskWebhooks(ctx, taskID)
}

// HandleWebhook fires the task bound to the given webhook id and waits
// for the result. An unknown id, or a bound task that is missing or not
// active, reads as not found; a bad secret as unauthorized. Beyond that
// split the caller learns nothing about why the call was refused.
func (s *Service) HandleWebhook(ctx context.Context, webhookID, secret string) (*structs.Execution, error) {
	w, err := s.db.Webhook(ctx, webhookID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("%w webhook %s", errors.ErrNotFound, webhookID)
	}
	if subtle.ConstantTimeCompare([]byte(w.Secret), []byte(secret)) != 1 {
		return nil, fmt.Errorf("%w webhook %s", errors.ErrUnauthorized, webhookID)
	}

	task, err := s.GetTask(ctx, w.TaskID)
	if err != nil {
		return nil, err
	}
	if task.Status != structs.ACTIVE {
		return nil, fmt.Errorf("%w task %s is not active", errors.ErrNotFound, task.ID)
	}
	return s.runTask(ctx, task, "webhook")
}

// onTimerFire runs in a timer goroutine when an armed task comes due.
// Errors never propagate out of a fire; they are recorded on the
// execution and logged here.
func (s *Service) onTimerFire(taskID string) {
	ctx := context.Background()

	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		// deleted between arming and firing
		s.log.WithField("task_id", taskID).WithError(err).Warn("timer fired for missing task")
		return
	}
	if task.Status != structs.ACTIVE {
		return
	}
	if _, err := s.runTask(ctx, task, "timer"); err != nil {
		s.log.WithField("task_id", taskID).WithError(err).Error("scheduled run failed")
	}
}

// update persists the task; a vanished row surfaces as ErrNotFound.
func (s *Service) update(ctx context.Context, task *structs.Task) error {
	n, err := s.db.UpdateTask(ctx, task)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w task %s", errors.ErrNotFound, task.ID)
	}
	return nil
}
