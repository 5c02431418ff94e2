package database

import (
	"context"
	"sort"
	"sync"

	"github.com/skerrick/gantry/pkg/structs"
)

// Memory is an in-memory Database used by tests and throwaway deployments.
// Contents are lost on restart.
type Memory struct {
	mu       sync.RWMutex
	tasks    map[string]*structs.Task
	execs    map[string]*structs.Execution
	webhooks map[string]*structs.WebhookBinding
}

// NewMemory returns an empty in-memory database.
func NewMemory() *Memory {
	return &Memory{
		tasks:    map[string]*structs.Task{},
		execs:    map[string]*structs.Execution{},
		webhooks: map[string]*structs.WebhookBinding{},
	}
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

// InsertTask writes a new task.
func (m *Memory) InsertTask(ctx context.Context, t *structs.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

// UpdateTask overwrites a task, matched by ID.
func (m *Memory) UpdateTask(ctx context.Context, t *structs.Task) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return 0, nil
	}
	cp := *t
	m.tasks[t.ID] = &cp
	return 1, nil
}

// DeleteTask removes a task and, like the SQL stores, cascades its
// executions and webhook bindings.
func (m *Memory) DeleteTask(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return 0, nil
	}
	delete(m.tasks, id)
	for eid, e := range m.execs {
		if e.TaskID == id {
			delete(m.execs, eid)
		}
	}
	for wid, w := range m.webhooks {
		if w.TaskID == id {
			delete(m.webhooks, wid)
		}
	}
	return 1, nil
}

// Tasks returns tasks matching the given query.
func (m *Memory) Tasks(ctx context.Context, q *structs.Query) ([]*structs.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*structs.Task{}
	for _, t := range m.tasks {
		if !matchesQuery(t, q) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}

	if q.OrderByNextRun {
		sort.Slice(out, func(i, j int) bool {
			if out[i].NextRunAt.Equal(*out[j].NextRunAt) {
				return out[i].ID < out[j].ID
			}
			return out[i].NextRunAt.Before(*out[j].NextRunAt)
		})
	} else {
		sort.Slice(out, func(i, j int) bool {
			if out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].ID < out[j].ID
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []*structs.Task{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// InsertExecution writes a new execution record.
func (m *Memory) InsertExecution(ctx context.Context, e *structs.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.execs[e.ID] = &cp
	return nil
}

// UpdateExecution overwrites an execution, matched by ID.
func (m *Memory) UpdateExecution(ctx context.Context, e *structs.Execution) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.execs[e.ID]; !ok {
		return 0, nil
	}
	cp := *e
	m.execs[e.ID] = &cp
	return 1, nil
}

// Executions returns up to limit executions for a task, latest started first.
func (m *Memory) Executions(ctx context.Context, taskID string, limit int) ([]*structs.Execution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*structs.Execution{}
	for _, e := range m.execs {
		if e.TaskID != taskID {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InsertWebhook writes a new webhook binding.
func (m *Memory) InsertWebhook(ctx context.Context, w *structs.WebhookBinding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	m.webhooks[w.ID] = &cp
	return nil
}

// Webhook returns the binding with the given id, or nil if absent.
func (m *Memory) Webhook(ctx context.Context, id string) (*structs.WebhookBinding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.webhooks[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

// DeleteTaskWebhooks removes every binding owned by the given task.
func (m *Memory) DeleteTaskWebhooks(ctx context.Context, taskID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := int64(0)
	for wid, w := range m.webhooks {
		if w.TaskID == taskID {
			delete(m.webhooks, wid)
			deleted++
		}
	}
	return deleted, nil
}

func matchesQuery(t *structs.Task, q *structs.Query) bool {
	if q.TaskIDs != nil && !containsString(q.TaskIDs, t.ID) {
		return false
	}
	if q.UserIDs != nil && !containsString(q.UserIDs, t.UserID) {
		return false
	}
	if q.Kinds != nil && !containsString(kindToStrings(q.Kinds), string(t.Kind)) {
		return false
	}
	if q.Statuses != nil && !containsString(statusToStrings(q.Statuses), string(t.Status)) {
		return false
	}
	if q.DueBefore != nil {
		if t.NextRunAt == nil || t.NextRunAt.After(*q.DueBefore) {
			return false
		}
	}
	if q.OrderByNextRun && t.NextRunAt == nil {
		return false
	}
	return true
}

func containsString(in []string, s string) bool {
	for _, v := range in {
		if v == s {
			return true
		}
	}
	return false
}
