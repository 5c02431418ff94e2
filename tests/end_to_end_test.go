package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/skerrick/gantry/pkg/structs"
)

// TestTask01 End to End test
//
// - Creates a recurring task
// - Gets it by ID and by list query
// - Runs it now, checks the execution and that the stub handler saw it
// - Checks the success notification went out
// - Renames it
// - Checks it shows in upcoming but not in ready (next fire is 3am)
// - Pauses & resumes it
// - Deletes it
func TestTask01(t *testing.T) {
	ctr := structs.CreateTaskRequest{}

	err := setup.loadTestData("test_task_recurring.json", &ctr)
	if err != nil {
		t.Fatal(err)
	}

	// create task
	task, err := setup.client.CreateTask(&ctr)
	assert.Nil(t, err)
	assert.NotEqual(t, task.ID, "")
	assert.Equal(t, task.Status, structs.ACTIVE)
	assert.Equal(t, task.Kind, structs.KindRecurring)
	assert.NotNil(t, task.NextRunAt)
	assert.False(t, task.CreatedAt.IsZero())
	assert.False(t, task.UpdatedAt.IsZero())

	// get task
	got, err := setup.client.Task(task.ID)
	assert.Nil(t, err)
	assert.Equal(t, got.ID, task.ID)
	assert.Equal(t, got.Name, task.Name)

	// list tasks
	query := &structs.Query{Limit: 100, TaskIDs: []string{task.ID}}
	tasks, err := setup.client.Tasks(query)
	assert.Nil(t, err)
	assert.Equal(t, len(tasks), 1)

	// fire it by hand
	before := setup.ran.count()
	exec, err := setup.client.RunNow(task.ID)
	assert.Nil(t, err)
	assert.Equal(t, exec.Status, structs.COMPLETED)
	assert.Equal(t, exec.TaskID, task.ID)
	assert.NotNil(t, exec.CompletedAt)
	assert.Equal(t, setup.ran.count(), before+1)

	got, err = setup.client.Task(task.ID)
	assert.Nil(t, err)
	assert.Equal(t, got.RunCount, int64(1))
	assert.NotNil(t, got.LastRunAt)
	assert.NotNil(t, got.NextRunAt)
	assert.Equal(t, got.Status, structs.ACTIVE)

	// the success notification went out on the capture channel
	notes := setup.sent.forTask(task.ID)
	assert.Equal(t, len(notes), 1)
	assert.Equal(t, notes[0].Outcome, structs.OutcomeSuccess)
	assert.Equal(t, notes[0].UserID, task.UserID)

	// rename
	newName := "nightly-report-v2"
	got, err = setup.client.UpdateTask(task.ID, &structs.UpdateTaskRequest{Name: &newName})
	assert.Nil(t, err)
	assert.Equal(t, got.Name, newName)

	// upcoming has it, ready does not (3am is not due yet)
	upcoming, err := setup.client.UpcomingTasks(task.UserID, 50)
	assert.Nil(t, err)
	found := false
	for _, u := range upcoming {
		if u.ID == task.ID {
			found = true
		}
	}
	assert.True(t, found)

	ready, err := setup.client.ReadyTasks(50)
	assert.Nil(t, err)
	for _, r := range ready {
		assert.NotEqual(t, r.ID, task.ID)
	}

	// pause & resume
	got, err = setup.client.PauseTask(task.ID)
	assert.Nil(t, err)
	assert.Equal(t, got.Status, structs.PAUSED)

	got, err = setup.client.ResumeTask(task.ID)
	assert.Nil(t, err)
	assert.Equal(t, got.Status, structs.ACTIVE)
	assert.NotNil(t, got.NextRunAt)

	// delete
	deleted, err := setup.client.DeleteTask(task.ID)
	assert.Nil(t, err)
	assert.Equal(t, deleted, int64(1))

	_, err = setup.client.Task(task.ID)
	assert.NotNil(t, err)
}

// TestTask02 End to End test
//
// - Creates a one_time task whose action always fails, one retry allowed
// - Runs it now, expects the attempt error back
// - Waits for the retry to fire on its own and exhaust the budget
// - Checks the task failed for good with two recorded executions
// - Checks both failure notifications went out
func TestTask02(t *testing.T) {
	ctr := structs.CreateTaskRequest{}

	err := setup.loadTestData("test_task_fail.json", &ctr)
	if err != nil {
		t.Fatal(err)
	}

	// create task
	task, err := setup.client.CreateTask(&ctr)
	assert.Nil(t, err)
	assert.Equal(t, task.Status, structs.ACTIVE)

	// the attempt fails and says so
	_, err = setup.client.RunNow(task.ID)
	assert.NotNil(t, err)

	// the retry fires on its own after the backoff; wait for the task to
	// land in a final status
	start := time.Now()
	for {
		if time.Since(start) > (10 * time.Second) {
			t.Fatalf("timed out waiting for task %s to finish", task.ID)
			return
		}
		time.Sleep(50 * time.Millisecond)
		got, err := setup.client.Task(task.ID)
		assert.Nil(t, err)

		if structs.IsFinalStatus(got.Status) {
			assert.Equal(t, got.Status, structs.FAILED)
			assert.Equal(t, got.RetryCount, int64(1))
			assert.Equal(t, got.RunCount, int64(0))
			assert.Nil(t, got.NextRunAt)
			break
		}
	}

	execs, err := setup.client.Executions(task.ID, 10)
	assert.Nil(t, err)
	assert.Equal(t, len(execs), 2)
	for _, e := range execs {
		assert.Equal(t, e.Status, structs.FAILED)
		assert.Contains(t, e.Error, "boom")
	}

	notes := setup.sent.forTask(task.ID)
	assert.Equal(t, len(notes), 2)
	for _, n := range notes {
		assert.Equal(t, n.Outcome, structs.OutcomeFailure)
	}

	// a finished task cannot be run again
	_, err = setup.client.RunNow(task.ID)
	assert.NotNil(t, err)
}

// TestWebhook01 End to End test
//
// - Creates a trigger task and binds a webhook to it
// - Fires the webhook with the shared secret, checks the run
// - Fires it with a bad secret and with a made up id, expects errors
// - Unbinds the webhook, expects further calls to fail
func TestWebhook01(t *testing.T) {
	ctr := structs.CreateTaskRequest{}

	err := setup.loadTestData("test_task_trigger.json", &ctr)
	if err != nil {
		t.Fatal(err)
	}

	// create task
	task, err := setup.client.CreateTask(&ctr)
	assert.Nil(t, err)
	assert.Equal(t, task.Kind, structs.KindTrigger)
	assert.Equal(t, task.Status, structs.ACTIVE)
	assert.Nil(t, task.NextRunAt)

	// bind a webhook
	hook, err := setup.client.CreateWebhook(task.ID)
	assert.Nil(t, err)
	assert.NotEqual(t, hook.WebhookID, "")
	assert.NotEqual(t, hook.Secret, "")
	assert.Contains(t, hook.URL, "/api/v1/hooks/"+hook.WebhookID)

	// fire it
	before := setup.ran.count()
	exec, err := setup.client.Trigger(hook.WebhookID, hook.Secret, []byte(`{"from":"caller"}`))
	assert.Nil(t, err)
	assert.Equal(t, exec.Status, structs.COMPLETED)
	assert.Equal(t, exec.TaskID, task.ID)
	assert.Equal(t, setup.ran.count(), before+1)

	// trigger tasks stay active and keep counting runs
	got, err := setup.client.Task(task.ID)
	assert.Nil(t, err)
	assert.Equal(t, got.RunCount, int64(1))
	assert.Equal(t, got.Status, structs.ACTIVE)

	// wrong secret, then a webhook that does not exist
	_, err = setup.client.Trigger(hook.WebhookID, "not-the-secret", nil)
	assert.NotNil(t, err)

	_, err = setup.client.Trigger(uuid.NewString(), hook.Secret, nil)
	assert.NotNil(t, err)

	// only the authenticated call actually ran
	execs, err := setup.client.Executions(task.ID, 10)
	assert.Nil(t, err)
	assert.Equal(t, len(execs), 1)

	// unbind
	deleted, err := setup.client.DeleteWebhooks(task.ID)
	assert.Nil(t, err)
	assert.Equal(t, deleted, int64(1))

	_, err = setup.client.Trigger(hook.WebhookID, hook.Secret, nil)
	assert.NotNil(t, err)
}
