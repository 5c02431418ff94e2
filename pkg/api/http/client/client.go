package client

import (
	"net/url"

	"github.com/skerrick/gantry/pkg/api/http/common"
	"github.com/skerrick/gantry/pkg/structs"
)

// Client talks to a gantry HTTP server. One method per API route.
type Client struct {
	url *url.URL
}

func New(address string) (*Client, error) {
	u, err := url.Parse(address)
	return &Client{url: u}, err
}

func (c *Client) CreateTask(ctr *structs.CreateTaskRequest) (*structs.Task, error) {
	addr := c.addr(common.API_TASKS)
	var out structs.Task
	return &out, genericPost(addr, ctr, &out)
}

func (c *Client) Tasks(q *structs.Query) ([]*structs.Task, error) {
	addr := c.addr(common.API_TASKS)
	setQueryString(addr, q)
	var out []*structs.Task
	return out, genericGet(addr, &out)
}

func (c *Client) Task(id string) (*structs.Task, error) {
	addr := c.addr(common.TaskPath(common.API_TASK, id))
	var out structs.Task
	return &out, genericGet(addr, &out)
}

func (c *Client) UpdateTask(id string, utr *structs.UpdateTaskRequest) (*structs.Task, error) {
	addr := c.addr(common.TaskPath(common.API_TASK, id))
	var out structs.Task
	return &out, genericPatch(addr, utr, &out)
}

func (c *Client) DeleteTask(id string) (int64, error) {
	addr := c.addr(common.TaskPath(common.API_TASK, id))
	var out common.DeleteResponse
	return out.Deleted, genericDelete(addr, &out)
}

func (c *Client) PauseTask(id string) (*structs.Task, error) {
	addr := c.addr(common.TaskPath(common.API_TASK_PAUSE, id))
	var out structs.Task
	return &out, genericPatch(addr, nil, &out)
}

func (c *Client) ResumeTask(id string) (*structs.Task, error) {
	addr := c.addr(common.TaskPath(common.API_TASK_RESUME, id))
	var out structs.Task
	return &out, genericPatch(addr, nil, &out)
}

// RunNow fires the task immediately and waits for the run to finish.
// The returned execution holds the result or the error of the attempt.
func (c *Client) RunNow(id string) (*structs.Execution, error) {
	addr := c.addr(common.TaskPath(common.API_TASK_RUN, id))
	var out structs.Execution
	return &out, genericPost(addr, nil, &out)
}

func (c *Client) Executions(taskID string, limit int) ([]*structs.Execution, error) {
	addr := c.addr(common.TaskPath(common.API_TASK_EXECUTIONS, taskID))
	setLimit(addr, limit)
	var out []*structs.Execution
	return out, genericGet(addr, &out)
}

func (c *Client) UpcomingTasks(userID string, limit int) ([]*structs.Task, error) {
	addr := c.addr(common.API_TASKS_UPCOMING)
	setLimit(addr, limit)
	values := addr.Query()
	values.Set("user_id", userID)
	addr.RawQuery = values.Encode()
	var out []*structs.Task
	return out, genericGet(addr, &out)
}

func (c *Client) ReadyTasks(limit int) ([]*structs.Task, error) {
	addr := c.addr(common.API_TASKS_READY)
	setLimit(addr, limit)
	var out []*structs.Task
	return out, genericGet(addr, &out)
}

func (c *Client) CreateWebhook(taskID string) (*structs.CreateWebhookResponse, error) {
	addr := c.addr(common.TaskPath(common.API_TASK_WEBHOOKS, taskID))
	var out structs.CreateWebhookResponse
	return &out, genericPost(addr, nil, &out)
}

func (c *Client) DeleteWebhooks(taskID string) (int64, error) {
	addr := c.addr(common.TaskPath(common.API_TASK_WEBHOOKS, taskID))
	var out common.DeleteResponse
	return out.Deleted, genericDelete(addr, &out)
}

// Trigger fires the webhook bound task, authenticating with the shared
// secret handed out by CreateWebhook. The payload travels as the request
// body and is not interpreted by the engine.
func (c *Client) Trigger(webhookID, secret string, payload []byte) (*structs.Execution, error) {
	addr := c.addr(common.HookPath(webhookID))
	var out structs.Execution
	return &out, hookPost(addr, secret, payload, &out)
}

func (c *Client) addr(path string) *url.URL {
	return &url.URL{Scheme: c.url.Scheme, Host: c.url.Host, Path: path}
}
