package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skerrick/gantry/pkg/errors"
	"github.com/skerrick/gantry/pkg/structs"
)

func validSpec(kind structs.Kind) structs.TaskSpec {
	spec := structs.TaskSpec{
		Name: "nightly report",
		Kind: kind,
		Action: structs.Action{
			Type:    structs.ActionWebhook,
			Payload: json.RawMessage(`{"url": "https://example.com/hook"}`),
		},
	}
	switch kind {
	case structs.KindOneTime:
		at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		spec.Schedule = &structs.Schedule{RunAt: &at}
	case structs.KindRecurring:
		spec.Schedule = &structs.Schedule{Cron: "0 * * * *"}
	case structs.KindTrigger:
		spec.Trigger = &structs.Trigger{Kind: structs.TriggerWebhook}
	}
	return spec
}

func TestValidateAcceptsAllKinds(t *testing.T) {
	for _, kind := range []structs.Kind{structs.KindOneTime, structs.KindRecurring, structs.KindTrigger} {
		spec := validSpec(kind)
		assert.Nil(t, validateTaskSpec(&spec), string(kind))
	}
}

func TestValidateName(t *testing.T) {
	spec := validSpec(structs.KindRecurring)
	spec.Name = ""
	assert.ErrorIs(t, validateTaskSpec(&spec), errors.ErrInvalidTask)

	spec.Name = strings.Repeat("x", maxNameLength+1)
	assert.ErrorIs(t, validateTaskSpec(&spec), errors.ErrMaxExceeded)
}

func TestValidateKindConfig(t *testing.T) {
	cases := []struct {
		name  string
		tweak func(*structs.TaskSpec)
	}{
		{"unknown kind", func(s *structs.TaskSpec) { s.Kind = "sometimes" }},
		{"one_time without schedule", func(s *structs.TaskSpec) {
			s.Kind = structs.KindOneTime
			s.Schedule = nil
		}},
		{"one_time without run_at", func(s *structs.TaskSpec) {
			s.Kind = structs.KindOneTime
			s.Schedule = &structs.Schedule{}
		}},
		{"recurring without cron", func(s *structs.TaskSpec) {
			s.Schedule = &structs.Schedule{}
		}},
		{"recurring with bad cron", func(s *structs.TaskSpec) {
			s.Schedule = &structs.Schedule{Cron: "once a day"}
		}},
		{"recurring with bad timezone", func(s *structs.TaskSpec) {
			s.Schedule = &structs.Schedule{Cron: "0 * * * *", Timezone: "Mars/Olympus"}
		}},
		{"trigger without trigger", func(s *structs.TaskSpec) {
			s.Kind = structs.KindTrigger
			s.Schedule = nil
		}},
		{"trigger with unknown trigger kind", func(s *structs.TaskSpec) {
			s.Kind = structs.KindTrigger
			s.Schedule = nil
			s.Trigger = &structs.Trigger{Kind: "carrier_pigeon"}
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			spec := validSpec(structs.KindRecurring)
			c.tweak(&spec)
			assert.ErrorIs(t, validateTaskSpec(&spec), errors.ErrInvalidTask)
		})
	}
}

func TestValidateTimezoneAccepted(t *testing.T) {
	spec := validSpec(structs.KindRecurring)
	spec.Schedule.Timezone = "America/New_York"
	assert.Nil(t, validateTaskSpec(&spec))
}

func TestValidateAction(t *testing.T) {
	spec := validSpec(structs.KindRecurring)
	spec.Action.Type = "teleport"
	assert.ErrorIs(t, validateTaskSpec(&spec), errors.ErrInvalidTask)

	spec = validSpec(structs.KindRecurring)
	spec.Action.Payload = json.RawMessage(`"` + strings.Repeat("x", maxPayloadLength) + `"`)
	assert.ErrorIs(t, validateTaskSpec(&spec), errors.ErrMaxExceeded)
}

func TestValidateConditions(t *testing.T) {
	cases := []struct {
		name string
		cond structs.Condition
	}{
		{"unknown type", structs.Condition{Type: "weather", Operator: structs.OpEquals}},
		{"unknown operator", structs.Condition{Type: structs.ConditionTime, Operator: "around"}},
		{"variable without field", structs.Condition{Type: structs.ConditionVariable, Operator: structs.OpEquals}},
		{"api_response without source", structs.Condition{Type: structs.ConditionAPIResponse, Field: "status", Operator: structs.OpEquals}},
		{"api_response without field", structs.Condition{Type: structs.ConditionAPIResponse, Source: "https://example.com", Operator: structs.OpEquals}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			spec := validSpec(structs.KindRecurring)
			spec.Conditions = []structs.Condition{c.cond}
			assert.ErrorIs(t, validateTaskSpec(&spec), errors.ErrInvalidTask)
		})
	}

	spec := validSpec(structs.KindRecurring)
	for i := 0; i <= maxConditions; i++ {
		spec.Conditions = append(spec.Conditions, structs.Condition{
			Type:     structs.ConditionTime,
			Operator: structs.OpExists,
		})
	}
	assert.ErrorIs(t, validateTaskSpec(&spec), errors.ErrMaxExceeded)
}

func TestValidateRetry(t *testing.T) {
	spec := validSpec(structs.KindRecurring)
	spec.Retry = &structs.RetryPolicy{MaxRetries: -1}
	assert.ErrorIs(t, validateTaskSpec(&spec), errors.ErrInvalidTask)

	spec.Retry = &structs.RetryPolicy{MaxRetries: maxRetryCap + 1}
	assert.ErrorIs(t, validateTaskSpec(&spec), errors.ErrMaxExceeded)

	spec.Retry = &structs.RetryPolicy{MaxRetries: 3, BackoffMS: -5}
	assert.ErrorIs(t, validateTaskSpec(&spec), errors.ErrInvalidTask)

	spec.Retry = &structs.RetryPolicy{MaxRetries: 3, BackoffMS: 60000}
	assert.Nil(t, validateTaskSpec(&spec))
}

func TestValidateNotify(t *testing.T) {
	spec := validSpec(structs.KindRecurring)
	spec.Notify = &structs.NotifyPolicy{OnFailure: true, Channels: []string{"email", ""}}
	assert.ErrorIs(t, validateTaskSpec(&spec), errors.ErrInvalidTask)

	spec.Notify = &structs.NotifyPolicy{OnFailure: true, Channels: make([]string, maxChannels+1)}
	assert.ErrorIs(t, validateTaskSpec(&spec), errors.ErrMaxExceeded)

	spec.Notify = &structs.NotifyPolicy{OnSuccess: true, Channels: []string{"log"}}
	assert.Nil(t, validateTaskSpec(&spec))
}
