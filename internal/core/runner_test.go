package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skerrick/gantry/pkg/database"
	"github.com/skerrick/gantry/pkg/structs"
)

func TestScheduledFireRunsTask(t *testing.T) {
	svc, clock, disp, _ := testService(t, database.NewMemory())
	task := createTask(t, svc, validSpec(structs.KindRecurring))

	clock.Advance(time.Hour) // 11:00, the first cron fire

	require.Len(t, disp.Calls(), 1)
	got, err := svc.GetTask(context.Background(), task.ID)
	require.Nil(t, err)
	assert.Equal(t, int64(1), got.RunCount)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), *got.NextRunAt)
	assert.Equal(t, *got.NextRunAt, *svc.registry.NextFire(task.ID))

	execs, err := svc.Executions(context.Background(), task.ID, 10)
	require.Nil(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, structs.COMPLETED, execs[0].Status)
	assert.Contains(t, execs[0].Logs, "run started (timer)")

	clock.Advance(time.Hour)
	assert.Len(t, disp.Calls(), 2)
}

func TestRetriesThenPermanentFailure(t *testing.T) {
	svc, clock, disp, _ := testService(t, database.NewMemory())
	disp.err = fmt.Errorf("boom")

	spec := validSpec(structs.KindOneTime)
	at := clock.Now().Add(time.Minute)
	spec.Schedule = &structs.Schedule{RunAt: &at}
	spec.Retry = &structs.RetryPolicy{MaxRetries: 2, BackoffMS: 30000}
	task := createTask(t, svc, spec)

	// first attempt fails, a retry is scheduled backoff later
	clock.Advance(time.Minute)
	got, err := svc.GetTask(context.Background(), task.ID)
	require.Nil(t, err)
	assert.Equal(t, structs.ACTIVE, got.Status)
	assert.Equal(t, int64(1), got.RetryCount)
	require.NotNil(t, got.NextRunAt)
	assert.Equal(t, clock.Now().Add(30*time.Second), *got.NextRunAt)
	assert.Equal(t, *got.NextRunAt, *svc.registry.NextFire(task.ID))

	// second attempt consumes the last retry
	clock.Advance(30 * time.Second)
	got, err = svc.GetTask(context.Background(), task.ID)
	require.Nil(t, err)
	assert.Equal(t, structs.ACTIVE, got.Status)
	assert.Equal(t, int64(2), got.RetryCount)

	// third attempt exhausts the budget and the task fails for good
	clock.Advance(30 * time.Second)
	got, err = svc.GetTask(context.Background(), task.ID)
	require.Nil(t, err)
	assert.Equal(t, structs.FAILED, got.Status)
	assert.Nil(t, got.NextRunAt)
	assert.Equal(t, int64(0), got.RunCount)
	assert.Equal(t, 0, svc.registry.Len())

	execs, err := svc.Executions(context.Background(), task.ID, 10)
	require.Nil(t, err)
	require.Len(t, execs, 3)
	for _, e := range execs {
		assert.Equal(t, structs.FAILED, e.Status)
		assert.Equal(t, "boom", e.Error)
	}

	clock.Advance(time.Hour)
	assert.Len(t, disp.Calls(), 3)
}

func TestRetryCountResetsAfterSuccess(t *testing.T) {
	svc, clock, disp, _ := testService(t, database.NewMemory())

	spec := validSpec(structs.KindRecurring)
	spec.Retry = &structs.RetryPolicy{MaxRetries: 1, BackoffMS: 60000}
	task := createTask(t, svc, spec)

	disp.err = fmt.Errorf("boom")
	clock.Advance(time.Hour) // 11:00 fire fails
	got, err := svc.GetTask(context.Background(), task.ID)
	require.Nil(t, err)
	assert.Equal(t, int64(1), got.RetryCount)

	disp.err = nil
	clock.Advance(time.Minute) // 11:01 retry succeeds
	got, err = svc.GetTask(context.Background(), task.ID)
	require.Nil(t, err)
	assert.Equal(t, int64(0), got.RetryCount)
	assert.Equal(t, int64(1), got.RunCount)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), *got.NextRunAt)

	// the retry budget is whole again
	disp.err = fmt.Errorf("boom")
	clock.Advance(59 * time.Minute) // 12:00 fire fails
	got, err = svc.GetTask(context.Background(), task.ID)
	require.Nil(t, err)
	assert.Equal(t, structs.ACTIVE, got.Status)
	assert.Equal(t, int64(1), got.RetryCount)
}

func TestConditionSkipRecurring(t *testing.T) {
	svc, clock, disp, _ := testService(t, database.NewMemory())

	spec := validSpec(structs.KindRecurring)
	spec.Vars = map[string]string{"env": "dev"}
	spec.Conditions = []structs.Condition{
		{Type: structs.ConditionVariable, Field: "env", Operator: structs.OpEquals, Value: "prod"},
	}
	task := createTask(t, svc, spec)

	clock.Advance(time.Hour)

	// the action never ran but the schedule moved on
	assert.Empty(t, disp.Calls())
	got, err := svc.GetTask(context.Background(), task.ID)
	require.Nil(t, err)
	assert.Equal(t, structs.ACTIVE, got.Status)
	assert.Equal(t, int64(0), got.RunCount)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), *got.NextRunAt)

	execs, err := svc.Executions(context.Background(), task.ID, 10)
	require.Nil(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, structs.COMPLETED, execs[0].Status)
	assert.Contains(t, execs[0].Logs, `skipped: condition 1 (variable) not met: "dev" != "prod"`)
}

func TestConditionSkipOneTime(t *testing.T) {
	svc, clock, disp, _ := testService(t, database.NewMemory())

	spec := validSpec(structs.KindOneTime)
	at := clock.Now().Add(time.Minute)
	spec.Schedule = &structs.Schedule{RunAt: &at}
	spec.Vars = map[string]string{"env": "dev"}
	spec.Conditions = []structs.Condition{
		{Type: structs.ConditionVariable, Field: "env", Operator: structs.OpEquals, Value: "prod"},
	}
	task := createTask(t, svc, spec)

	clock.Advance(time.Minute)

	// one chance, gated off, done
	assert.Empty(t, disp.Calls())
	got, err := svc.GetTask(context.Background(), task.ID)
	require.Nil(t, err)
	assert.Equal(t, structs.COMPLETED, got.Status)
	assert.Nil(t, got.NextRunAt)
	assert.Equal(t, int64(0), got.RunCount)
	assert.Equal(t, 0, svc.registry.Len())
}

func TestSkippedRunSendsNoNotification(t *testing.T) {
	svc, clock, _, note := testService(t, database.NewMemory())

	spec := validSpec(structs.KindOneTime)
	at := clock.Now().Add(time.Minute)
	spec.Schedule = &structs.Schedule{RunAt: &at}
	spec.Notify = &structs.NotifyPolicy{OnSuccess: true, OnFailure: true, Channels: []string{"log"}}
	spec.Conditions = []structs.Condition{
		{Type: structs.ConditionVariable, Field: "missing", Operator: structs.OpExists},
	}
	createTask(t, svc, spec)

	clock.Advance(time.Minute)

	assert.Empty(t, note.Sent())
}

func TestOneTimeFireCompletesTask(t *testing.T) {
	svc, clock, disp, _ := testService(t, database.NewMemory())

	spec := validSpec(structs.KindOneTime)
	at := clock.Now().Add(time.Minute)
	spec.Schedule = &structs.Schedule{RunAt: &at}
	task := createTask(t, svc, spec)

	clock.Advance(time.Minute)

	require.Len(t, disp.Calls(), 1)
	got, err := svc.GetTask(context.Background(), task.ID)
	require.Nil(t, err)
	assert.Equal(t, structs.COMPLETED, got.Status)
	assert.Equal(t, int64(1), got.RunCount)
	assert.Nil(t, got.NextRunAt)
	assert.Equal(t, 0, svc.registry.Len())

	clock.Advance(24 * time.Hour)
	assert.Len(t, disp.Calls(), 1)
}

func TestManualRunCompletesOneTimeAndDisarmsTimer(t *testing.T) {
	svc, clock, disp, _ := testService(t, database.NewMemory())

	spec := validSpec(structs.KindOneTime)
	at := clock.Now().Add(time.Hour)
	spec.Schedule = &structs.Schedule{RunAt: &at}
	task := createTask(t, svc, spec)
	require.Equal(t, 1, svc.registry.Len())

	_, err := svc.RunNow(context.Background(), task.ID)
	require.Nil(t, err)

	got, err := svc.GetTask(context.Background(), task.ID)
	require.Nil(t, err)
	assert.Equal(t, structs.COMPLETED, got.Status)
	assert.Equal(t, 0, svc.registry.Len())

	// the old scheduled instant passes without a second run
	clock.Advance(2 * time.Hour)
	assert.Len(t, disp.Calls(), 1)
}

func TestFireOnRowDeletedBehindRegistry(t *testing.T) {
	db := database.NewMemory()
	svc, clock, disp, _ := testService(t, db)
	task := createTask(t, svc, validSpec(structs.KindRecurring))

	// the row vanishes without going through the service
	_, err := db.DeleteTask(context.Background(), task.ID)
	require.Nil(t, err)

	clock.Advance(time.Hour)

	assert.Empty(t, disp.Calls())
	assert.Equal(t, 0, svc.registry.Len())
}
