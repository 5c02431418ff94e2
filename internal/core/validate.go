package core

import (
	"fmt"
	"time"

	"github.com/skerrick/gantry/pkg/errors"
	"github.com/skerrick/gantry/pkg/schedule"
	"github.com/skerrick/gantry/pkg/structs"
)

const (
	// max values
	maxNameLength    = 500
	maxDescLength    = 5000
	maxPayloadLength = 10000
	maxConditions    = 20
	maxVars          = 100
	maxChannels      = 10
	maxRetryCap      = 100
)

// validateTaskSpec checks a task spec ahead of any write. Semantic problems
// wrap ErrInvalidTask, length caps wrap ErrMaxExceeded.
func validateTaskSpec(t *structs.TaskSpec) error {
	if t.Name == "" {
		return fmt.Errorf("%w task name is required", errors.ErrInvalidTask)
	}
	if len(t.Name) > maxNameLength {
		return fmt.Errorf("%w task name %s is %d chars, max %d", errors.ErrMaxExceeded, t.Name, len(t.Name), maxNameLength)
	}
	if len(t.Description) > maxDescLength {
		return fmt.Errorf("%w task description is %d chars, max %d", errors.ErrMaxExceeded, len(t.Description), maxDescLength)
	}
	if err := validateKindConfig(t); err != nil {
		return err
	}
	if err := validateAction(&t.Action); err != nil {
		return err
	}
	if err := validateConditions(t.Conditions); err != nil {
		return err
	}
	if len(t.Vars) > maxVars {
		return fmt.Errorf("%w task has %d vars, max %d", errors.ErrMaxExceeded, len(t.Vars), maxVars)
	}
	if err := validateRetry(t.Retry); err != nil {
		return err
	}
	return validateNotify(t.Notify)
}

// validateKindConfig checks that the task carries the schedule or trigger
// configuration its kind needs.
func validateKindConfig(t *structs.TaskSpec) error {
	switch t.Kind {
	case structs.KindOneTime:
		if t.Schedule == nil || t.Schedule.RunAt == nil {
			return fmt.Errorf("%w one_time tasks need schedule.run_at", errors.ErrInvalidTask)
		}
	case structs.KindRecurring:
		if t.Schedule == nil || t.Schedule.Cron == "" {
			return fmt.Errorf("%w recurring tasks need schedule.cron", errors.ErrInvalidTask)
		}
		if err := schedule.Validate(t.Schedule.Cron); err != nil {
			return fmt.Errorf("%w bad cron expression %q: %v", errors.ErrInvalidTask, t.Schedule.Cron, err)
		}
		if tz := t.Schedule.Timezone; tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return fmt.Errorf("%w unknown timezone %q", errors.ErrInvalidTask, tz)
			}
		}
	case structs.KindTrigger:
		if t.Trigger == nil {
			return fmt.Errorf("%w trigger tasks need a trigger", errors.ErrInvalidTask)
		}
		if structs.ToTriggerKind(string(t.Trigger.Kind)) == "" {
			return fmt.Errorf("%w unknown trigger kind %q", errors.ErrInvalidTask, t.Trigger.Kind)
		}
	default:
		return fmt.Errorf("%w unknown task kind %q", errors.ErrInvalidTask, t.Kind)
	}
	return nil
}

func validateAction(a *structs.Action) error {
	if structs.ToActionType(string(a.Type)) == "" {
		return fmt.Errorf("%w unknown action type %q", errors.ErrInvalidTask, a.Type)
	}
	if a.Payload != nil && len(a.Payload) > maxPayloadLength {
		return fmt.Errorf("%w action payload is %d chars, max %d", errors.ErrMaxExceeded, len(a.Payload), maxPayloadLength)
	}
	return nil
}

func validateConditions(conds []structs.Condition) error {
	if len(conds) > maxConditions {
		return fmt.Errorf("%w task has %d conditions, max %d", errors.ErrMaxExceeded, len(conds), maxConditions)
	}
	for i, c := range conds {
		switch c.Type {
		case structs.ConditionTime:
		case structs.ConditionVariable:
			if c.Field == "" {
				return fmt.Errorf("%w condition %d needs a field (variable name)", errors.ErrInvalidTask, i+1)
			}
		case structs.ConditionAPIResponse:
			if c.Source == "" {
				return fmt.Errorf("%w condition %d needs a source url", errors.ErrInvalidTask, i+1)
			}
			if c.Field == "" {
				return fmt.Errorf("%w condition %d needs a field (response path)", errors.ErrInvalidTask, i+1)
			}
		default:
			return fmt.Errorf("%w condition %d has unknown type %q", errors.ErrInvalidTask, i+1, c.Type)
		}
		switch c.Operator {
		case structs.OpEquals, structs.OpContains, structs.OpGreater, structs.OpLess, structs.OpExists:
		default:
			return fmt.Errorf("%w condition %d has unknown operator %q", errors.ErrInvalidTask, i+1, c.Operator)
		}
	}
	return nil
}

func validateRetry(r *structs.RetryPolicy) error {
	if r == nil {
		return nil
	}
	if r.MaxRetries < 0 {
		return fmt.Errorf("%w retry max_retries cannot be negative", errors.ErrInvalidTask)
	}
	if r.MaxRetries > maxRetryCap {
		return fmt.Errorf("%w retry max_retries is %d, max %d", errors.ErrMaxExceeded, r.MaxRetries, maxRetryCap)
	}
	if r.BackoffMS < 0 {
		return fmt.Errorf("%w retry backoff_ms cannot be negative", errors.ErrInvalidTask)
	}
	return nil
}

func validateNotify(n *structs.NotifyPolicy) error {
	if n == nil {
		return nil
	}
	if len(n.Channels) > maxChannels {
		return fmt.Errorf("%w notify has %d channels, max %d", errors.ErrMaxExceeded, len(n.Channels), maxChannels)
	}
	for _, ch := range n.Channels {
		if ch == "" {
			return fmt.Errorf("%w notify channels cannot be empty", errors.ErrInvalidTask)
		}
	}
	return nil
}
