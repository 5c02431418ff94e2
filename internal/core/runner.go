package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skerrick/gantry/internal/utils"
	"github.com/skerrick/gantry/pkg/errors"
	"github.com/skerrick/gantry/pkg/schedule"
	"github.com/skerrick/gantry/pkg/structs"
)

// execLog collects an execution's log lines and mirrors them to the
// service log at debug level.
type execLog struct {
	entry *logrus.Entry

	lock  sync.Mutex
	lines []string
}

func (l *execLog) Logf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	l.lock.Lock()
	l.lines = append(l.lines, line)
	l.lock.Unlock()
	if l.entry != nil {
		l.entry.Debug(line)
	}
}

func (l *execLog) Lines() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]string{}, l.lines...)
}

// runTask performs one run of the task: record the attempt, gate on
// conditions, dispatch the action, apply the outcome, fan out
// notifications and re-arm the timer. Action failures come back wrapped
// in ErrExecution once all bookkeeping is done; storage failures come
// back bare. Overlapping runs of the same task are allowed.
func (s *Service) runTask(ctx context.Context, task *structs.Task, source string) (*structs.Execution, error) {
	started := s.clock.Now()
	exec := &structs.Execution{
		ID:        utils.NewRandomID(),
		TaskID:    task.ID,
		Status:    structs.RUNNING,
		StartedAt: started,
	}
	logs := &execLog{entry: s.log.WithFields(logrus.Fields{
		"task_id":      task.ID,
		"execution_id": exec.ID,
	})}
	logs.Logf("run started (%s)", source)

	if err := s.db.InsertExecution(ctx, exec); err != nil {
		return nil, err
	}

	var derr error
	skipped := false
	if met, why := s.conds.Check(ctx, task); met {
		exec.Result, derr = s.dispatch.Execute(ctx, &task.Action, logs)
	} else {
		skipped = true
		logs.Logf("skipped: %s", why)
	}

	done := s.clock.Now()
	exec.CompletedAt = &done
	exec.DurationMS = done.Sub(started).Milliseconds()

	switch {
	case skipped:
		exec.Status = structs.COMPLETED
		s.applySkip(task, done)
		s.metrics.recordRun(outcomeSkipped, done.Sub(started))
	case derr == nil:
		exec.Status = structs.COMPLETED
		logs.Logf("action completed")
		s.applySuccess(task, done)
		s.metrics.recordRun(outcomeCompleted, done.Sub(started))
	default:
		exec.Status = structs.FAILED
		exec.Error = derr.Error()
		logs.Logf("action failed: %v", derr)
		s.applyFailure(task, done)
		s.metrics.recordRun(outcomeFailed, done.Sub(started))
	}
	exec.Logs = logs.Lines()

	// the execution lands first so a crash between the two writes leaves
	// a finished record rather than a task that silently moved on
	if _, err := s.db.UpdateExecution(ctx, exec); err != nil {
		return exec, err
	}
	n, err := s.db.UpdateTask(ctx, task)
	if err != nil {
		return exec, err
	}
	if n == 0 {
		s.log.WithField("task_id", task.ID).Warn("task removed during run")
	} else if task.Status == structs.ACTIVE && task.NextRunAt != nil {
		s.registry.Arm(task.ID, *task.NextRunAt)
	} else {
		s.registry.Disarm(task.ID)
	}

	if !skipped {
		s.sendNotification(ctx, task, exec, derr)
	}
	if derr != nil {
		return exec, fmt.Errorf("%w %v", errors.ErrExecution, derr)
	}
	return exec, nil
}

// applySuccess moves the task forward after a successful run: bump the run
// count, clear consumed retries, stamp the run and compute the next fire.
// A one_time task is done regardless.
func (s *Service) applySuccess(task *structs.Task, now time.Time) {
	task.RunCount++
	task.RetryCount = 0
	task.LastRunAt = &now
	task.UpdatedAt = now

	if task.Kind == structs.KindOneTime {
		task.Status = structs.COMPLETED
		task.NextRunAt = nil
		return
	}
	task.NextRunAt = s.nextRun(task, now)
}

// applyFailure schedules a retry if the policy has budget left, otherwise
// the task is failed for good. Retries use the same fixed backoff each
// time; the run count only tracks successes and stays put.
func (s *Service) applyFailure(task *structs.Task, now time.Time) {
	task.UpdatedAt = now

	if task.Retry != nil && task.RetryCount < task.Retry.MaxRetries {
		task.RetryCount++
		at := now.Add(task.Retry.Backoff())
		task.NextRunAt = &at
		return
	}
	task.Status = structs.FAILED
	task.NextRunAt = nil
}

// applySkip advances a task whose run was gated off by its conditions.
// Run and retry counters are untouched. A one_time task got its one
// chance; a recurring task just moves on to the next fire.
func (s *Service) applySkip(task *structs.Task, now time.Time) {
	task.UpdatedAt = now

	switch task.Kind {
	case structs.KindOneTime:
		task.Status = structs.COMPLETED
		task.NextRunAt = nil
	case structs.KindRecurring:
		task.NextRunAt = s.nextRun(task, now)
	}
}

func (s *Service) nextRun(task *structs.Task, now time.Time) *time.Time {
	next, err := schedule.NextRun(task, now)
	if err != nil {
		s.log.WithField("task_id", task.ID).WithError(err).Warn("could not compute next run")
		return nil
	}
	return next
}

// sendNotification fans out the run outcome if the task's policy asks for
// it. Delivery failures are logged and never affect the run.
func (s *Service) sendNotification(ctx context.Context, task *structs.Task, exec *structs.Execution, derr error) {
	if s.notify == nil || task.Notify == nil {
		return
	}

	outcome := structs.OutcomeSuccess
	msg := "completed"
	if derr != nil {
		outcome = structs.OutcomeFailure
		msg = derr.Error()
	}
	if !task.Notify.Wants(outcome) {
		return
	}

	n := &structs.Notification{
		TaskID:   task.ID,
		TaskName: task.Name,
		UserID:   task.UserID,
		Outcome:  outcome,
		Message:  msg,
		Payload:  exec.Result,
		Channels: task.Notify.Channels,
		At:       *exec.CompletedAt,
	}
	if err := s.notify.Send(ctx, n); err != nil {
		s.log.WithField("task_id", task.ID).WithError(err).Warn("notification failed")
	}
}
