package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/skerrick/gantry/internal/core"
	"github.com/skerrick/gantry/internal/mocks/pkg/database_mock"
	"github.com/skerrick/gantry/internal/mocks/pkg/dispatch_mock"
	"github.com/skerrick/gantry/internal/mocks/pkg/notify_mock"
	"github.com/skerrick/gantry/internal/utils"
	"github.com/skerrick/gantry/pkg/database"
	"github.com/skerrick/gantry/pkg/errors"
	"github.com/skerrick/gantry/pkg/structs"
)

// mockService builds an api Service whose engine runs over the given mocks.
func mockService(t *testing.T, db database.Database, opts *Options) *Service {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	opts.SetDefaults()

	svc, err := NewAPI(db, dispatch_mock.NewMockDispatcher(gomock.NewController(t)), nil, opts)
	require.Nil(t, err)
	return svc.(*Service)
}

func TestClose(t *testing.T) {
	db := database_mock.NewMockDatabase(gomock.NewController(t))
	nt := notify_mock.NewMockNotifier(gomock.NewController(t))

	eng, err := core.NewService(db, nil, nt, nil)
	require.Nil(t, err)
	svc := &Service{eng: eng, db: db, nt: nt}

	nt.EXPECT().Close().Return(nil)
	db.EXPECT().Close().Return(nil)

	err = svc.Close()

	assert.Nil(t, err)
}

func TestCloseNilNotifier(t *testing.T) {
	db := database_mock.NewMockDatabase(gomock.NewController(t))

	eng, err := core.NewService(db, nil, nil, nil)
	require.Nil(t, err)
	svc := &Service{eng: eng, db: db}

	db.EXPECT().Close().Return(nil)

	err = svc.Close()

	assert.Nil(t, err)
}

func TestCreateWebhookBuildsURL(t *testing.T) {
	id := utils.NewRandomID()
	task := &structs.Task{
		TaskSpec: structs.TaskSpec{
			Name:    "on-demand",
			Kind:    structs.KindTrigger,
			Trigger: &structs.Trigger{Kind: structs.TriggerWebhook},
		},
		ID:     id,
		Status: structs.ACTIVE,
	}

	db := database_mock.NewMockDatabase(gomock.NewController(t))
	svc := mockService(t, db, &Options{PublicURL: "https://gantry.example.com/"})

	db.EXPECT().Tasks(gomock.Any(), &structs.Query{Limit: 1, TaskIDs: []string{id}}).Return([]*structs.Task{task}, nil)
	db.EXPECT().InsertWebhook(gomock.Any(), gomock.Any()).Return(nil)

	resp, err := svc.CreateWebhook(context.Background(), id)

	require.Nil(t, err)
	assert.NotEmpty(t, resp.WebhookID)
	assert.NotEmpty(t, resp.Secret)
	assert.Equal(t, "https://gantry.example.com/api/v1/hooks/"+resp.WebhookID, resp.URL)
}

func TestCreateWebhookRejectsScheduledTask(t *testing.T) {
	id := utils.NewRandomID()
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	task := &structs.Task{
		TaskSpec: structs.TaskSpec{
			Name:     "nightly",
			Kind:     structs.KindOneTime,
			Schedule: &structs.Schedule{RunAt: &at},
		},
		ID:     id,
		Status: structs.ACTIVE,
	}

	db := database_mock.NewMockDatabase(gomock.NewController(t))
	svc := mockService(t, db, nil)

	db.EXPECT().Tasks(gomock.Any(), gomock.Any()).Return([]*structs.Task{task}, nil)

	_, err := svc.CreateWebhook(context.Background(), id)

	assert.ErrorIs(t, err, errors.ErrInvalidTask)
}

func TestDeleteWebhooks(t *testing.T) {
	id := utils.NewRandomID()
	task := &structs.Task{
		TaskSpec: structs.TaskSpec{
			Name:    "on-demand",
			Kind:    structs.KindTrigger,
			Trigger: &structs.Trigger{Kind: structs.TriggerWebhook},
		},
		ID:     id,
		Status: structs.ACTIVE,
	}

	db := database_mock.NewMockDatabase(gomock.NewController(t))
	svc := mockService(t, db, nil)

	db.EXPECT().Tasks(gomock.Any(), gomock.Any()).Return([]*structs.Task{task}, nil)
	db.EXPECT().DeleteTaskWebhooks(gomock.Any(), id).Return(int64(2), nil)

	deleted, err := svc.DeleteWebhooks(context.Background(), id)

	require.Nil(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestGetTaskNotFound(t *testing.T) {
	id := utils.NewRandomID()

	db := database_mock.NewMockDatabase(gomock.NewController(t))
	svc := mockService(t, db, nil)

	db.EXPECT().Tasks(gomock.Any(), &structs.Query{Limit: 1, TaskIDs: []string{id}}).Return([]*structs.Task{}, nil)

	_, err := svc.GetTask(context.Background(), id)

	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestInitializeArmsPersistedTasks(t *testing.T) {
	soon := time.Now().Add(time.Hour)
	task := &structs.Task{
		TaskSpec: structs.TaskSpec{
			Name:     "rearm-me",
			Kind:     structs.KindRecurring,
			Schedule: &structs.Schedule{Cron: "0 * * * *"},
		},
		ID:        utils.NewRandomID(),
		Status:    structs.ACTIVE,
		NextRunAt: &soon,
	}

	db := database_mock.NewMockDatabase(gomock.NewController(t))
	svc := mockService(t, db, nil)

	db.EXPECT().Tasks(gomock.Any(), gomock.Any()).Return([]*structs.Task{task}, nil)

	err := svc.Initialize(context.Background())

	assert.Nil(t, err)
	svc.Shutdown()
}

// TestLifecycleAgainstMemoryStore drives the facade end to end on the
// in-memory store: create, read, list, pause, resume, delete.
func TestLifecycleAgainstMemoryStore(t *testing.T) {
	svc := mockService(t, database.NewMemory(), nil)
	defer svc.Close()
	ctx := context.Background()

	at := time.Now().Add(time.Hour).UTC()
	task, err := svc.CreateTask(ctx, &structs.CreateTaskRequest{
		TaskSpec: structs.TaskSpec{
			Name:     "hourly-report",
			Kind:     structs.KindOneTime,
			Schedule: &structs.Schedule{RunAt: &at},
			Action:   structs.Action{Type: structs.ActionWebhook},
		},
		UserID: "u1",
	})
	require.Nil(t, err)
	assert.Equal(t, structs.ACTIVE, task.Status)

	got, err := svc.GetTask(ctx, task.ID)
	require.Nil(t, err)
	assert.Equal(t, task.ID, got.ID)

	listed, err := svc.ListTasks(ctx, &structs.Query{UserIDs: []string{"u1"}})
	require.Nil(t, err)
	assert.Len(t, listed, 1)

	upcoming, err := svc.UpcomingTasks(ctx, "u1", 10)
	require.Nil(t, err)
	assert.Len(t, upcoming, 1)

	paused, err := svc.PauseTask(ctx, task.ID)
	require.Nil(t, err)
	assert.Equal(t, structs.PAUSED, paused.Status)

	resumed, err := svc.ResumeTask(ctx, task.ID)
	require.Nil(t, err)
	assert.Equal(t, structs.ACTIVE, resumed.Status)

	err = svc.DeleteTask(ctx, task.ID)
	require.Nil(t, err)

	_, err = svc.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}
