// Package schedule computes task fire times. One time tasks fire at their
// configured instant, recurring tasks follow a five field cron expression
// evaluated in the task's timezone, trigger tasks have no computed schedule.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/skerrick/gantry/pkg/errors"
	"github.com/skerrick/gantry/pkg/structs"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks that the given five field cron expression parses.
func Validate(expr string) error {
	_, err := parse(expr, "")
	return err
}

// NextAfter returns the first instant strictly after the given time at which
// the cron expression fires, evaluated in the named IANA timezone. An empty
// timezone means UTC.
func NextAfter(expr, tz string, after time.Time) (time.Time, error) {
	sched, err := parse(expr, tz)
	if err != nil {
		return time.Time{}, err
	}
	next := sched.Next(after)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("%w: cron expression %q never fires", errors.ErrInvalidArg, expr)
	}
	return next, nil
}

// NextRun computes a task's next fire time strictly after the given instant,
// or nil for trigger tasks, which have no computed schedule.
func NextRun(task *structs.Task, after time.Time) (*time.Time, error) {
	switch task.Kind {
	case structs.KindOneTime:
		if task.Schedule == nil || task.Schedule.RunAt == nil {
			return nil, fmt.Errorf("%w: one_time task has no run_at", errors.ErrInvalidTask)
		}
		at := *task.Schedule.RunAt
		return &at, nil
	case structs.KindRecurring:
		if task.Schedule == nil || task.Schedule.Cron == "" {
			return nil, fmt.Errorf("%w: recurring task has no cron expression", errors.ErrInvalidTask)
		}
		next, err := NextAfter(task.Schedule.Cron, task.Schedule.Timezone, after)
		if err != nil {
			return nil, err
		}
		return &next, nil
	case structs.KindTrigger:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown task kind %q", errors.ErrInvalidTask, task.Kind)
	}
}

// parse builds a schedule from a five field cron expression. The timezone
// always comes from the tz argument; in-expression TZ prefixes are rejected.
func parse(expr, tz string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty cron expression", errors.ErrInvalidArg)
	}
	if strings.HasPrefix(expr, "@") {
		return nil, fmt.Errorf("%w: only five field cron expressions are supported", errors.ErrInvalidArg)
	}
	if strings.Contains(expr, "=") {
		return nil, fmt.Errorf("%w: timezone prefixes are not supported, set the task timezone instead", errors.ErrInvalidArg)
	}
	if tz == "" {
		tz = "UTC"
	}
	sched, err := parser.Parse(fmt.Sprintf("CRON_TZ=%s %s", tz, expr))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidArg, err)
	}
	return sched, nil
}
