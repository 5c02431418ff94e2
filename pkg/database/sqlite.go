package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/skerrick/gantry/pkg/structs"
)

// sqliteTimeFormat is fixed width UTC so lexicographic order on stored
// strings matches chronological order.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL DEFAULT '',
    name         TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    kind         TEXT NOT NULL,
    schedule     TEXT,
    trigger_conf TEXT,
    action       TEXT NOT NULL,
    conditions   TEXT,
    vars         TEXT,
    retry        TEXT,
    notify       TEXT,
    status       TEXT NOT NULL,
    last_run_at  TEXT,
    next_run_at  TEXT,
    run_count    INTEGER NOT NULL DEFAULT 0,
    retry_count  INTEGER NOT NULL DEFAULT 0,
    created_at   TEXT NOT NULL,
    updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS tasks_user_idx ON tasks (user_id);
CREATE INDEX IF NOT EXISTS tasks_status_idx ON tasks (status);
CREATE TABLE IF NOT EXISTS executions (
    id           TEXT PRIMARY KEY,
    task_id      TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    status       TEXT NOT NULL,
    started_at   TEXT NOT NULL,
    completed_at TEXT,
    duration_ms  INTEGER NOT NULL DEFAULT 0,
    result       TEXT,
    error        TEXT NOT NULL DEFAULT '',
    logs         TEXT
);
CREATE INDEX IF NOT EXISTS executions_task_idx ON executions (task_id, started_at);
CREATE TABLE IF NOT EXISTS webhooks (
    id         TEXT PRIMARY KEY,
    secret     TEXT NOT NULL,
    task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS webhooks_task_idx ON webhooks (task_id);
`

// Sqlite is a gantry database implementation backed by a local sqlite file.
// Suited to single process deployments.
type Sqlite struct {
	db *sql.DB
}

// NewSqlite opens (creating if needed) the sqlite database at the given
// path and ensures the schema exists.
func NewSqlite(path string) (*Sqlite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single pooled connection keeps the
	// pragmas applied and serialises writes within the process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA busy_timeout=3000;",
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
	} {
		if _, err = db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err = db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Sqlite{db: db}, nil
}

// Close shuts down the database connection.
func (s *Sqlite) Close() error {
	return s.db.Close()
}

// InsertTask writes a new task row.
func (s *Sqlite) InsertTask(ctx context.Context, t *structs.Task) error {
	blobs, err := toTaskBlobs(t)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, name, description, kind, schedule, trigger_conf, action, conditions, vars, retry, notify, status, last_run_at, next_run_at, run_count, retry_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.Name, t.Description, t.Kind,
		sqBytes(blobs.schedule), sqBytes(blobs.trigger), string(blobs.action),
		sqBytes(blobs.conditions), sqBytes(blobs.vars), sqBytes(blobs.retry), sqBytes(blobs.notify),
		t.Status, sqTimePtr(t.LastRunAt), sqTimePtr(t.NextRunAt), t.RunCount, t.RetryCount,
		sqTime(t.CreatedAt), sqTime(t.UpdatedAt))
	return err
}

// UpdateTask overwrites the task row with the given ID in a single statement.
func (s *Sqlite) UpdateTask(ctx context.Context, t *structs.Task) (int64, error) {
	blobs, err := toTaskBlobs(t)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET user_id = ?, name = ?, description = ?, kind = ?, schedule = ?, trigger_conf = ?, action = ?, conditions = ?, vars = ?, retry = ?, notify = ?, status = ?, last_run_at = ?, next_run_at = ?, run_count = ?, retry_count = ?, updated_at = ?
		WHERE id = ?
	`, t.UserID, t.Name, t.Description, t.Kind,
		sqBytes(blobs.schedule), sqBytes(blobs.trigger), string(blobs.action),
		sqBytes(blobs.conditions), sqBytes(blobs.vars), sqBytes(blobs.retry), sqBytes(blobs.notify),
		t.Status, sqTimePtr(t.LastRunAt), sqTimePtr(t.NextRunAt), t.RunCount, t.RetryCount,
		sqTime(t.UpdatedAt), t.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteTask removes a task row. Executions and webhook bindings cascade.
func (s *Sqlite) DeleteTask(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Tasks returns tasks matching the given query.
func (s *Sqlite) Tasks(ctx context.Context, q *structs.Query) ([]*structs.Task, error) {
	where := []string{}
	args := []interface{}{}
	appendIn := func(field string, vals []string) {
		if len(vals) == 0 {
			return
		}
		where = append(where, fmt.Sprintf("%s IN (%s)", field, sqlPlaceholders(len(vals))))
		for _, v := range vals {
			args = append(args, v)
		}
	}
	appendIn("id", q.TaskIDs)
	appendIn("user_id", q.UserIDs)
	appendIn("kind", kindToStrings(q.Kinds))
	appendIn("status", statusToStrings(q.Statuses))
	if q.DueBefore != nil {
		where = append(where, "next_run_at <= ?")
		args = append(args, sqTime(*q.DueBefore))
	}
	if q.OrderByNextRun {
		where = append(where, "next_run_at IS NOT NULL")
	}

	qstr := `SELECT id, user_id, name, description, kind, schedule, trigger_conf, action, conditions, vars, retry, notify, status, last_run_at, next_run_at, run_count, retry_count, created_at, updated_at FROM tasks`
	if len(where) > 0 {
		qstr += " WHERE " + strings.Join(where, " AND ")
	}
	if q.OrderByNextRun {
		qstr += " ORDER BY next_run_at ASC"
	} else {
		qstr += " ORDER BY created_at DESC"
	}
	qstr += " LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, qstr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*structs.Task{}
	for rows.Next() {
		t, err := scanSqliteTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// InsertExecution writes a new execution row.
func (s *Sqlite) InsertExecution(ctx context.Context, e *structs.Execution) error {
	result, logs, err := toExecBlobs(e)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions (id, task_id, status, started_at, completed_at, duration_ms, result, error, logs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.TaskID, e.Status, sqTime(e.StartedAt), sqTimePtr(e.CompletedAt),
		e.DurationMS, sqBytes(result), e.Error, sqBytes(logs))
	return err
}

// UpdateExecution overwrites the execution row with the given ID.
func (s *Sqlite) UpdateExecution(ctx context.Context, e *structs.Execution) (int64, error) {
	result, logs, err := toExecBlobs(e)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE executions
		SET status = ?, completed_at = ?, duration_ms = ?, result = ?, error = ?, logs = ?
		WHERE id = ?
	`, e.Status, sqTimePtr(e.CompletedAt), e.DurationMS, sqBytes(result), e.Error, sqBytes(logs), e.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Executions returns up to limit executions for a task, latest started first.
func (s *Sqlite) Executions(ctx context.Context, taskID string, limit int) ([]*structs.Execution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, status, started_at, completed_at, duration_ms, result, error, logs
		FROM executions WHERE task_id = ? ORDER BY started_at DESC LIMIT ?
	`, taskID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	execs := []*structs.Execution{}
	for rows.Next() {
		e := structs.Execution{}
		var started string
		var completed, result, logs sql.NullString
		err = rows.Scan(&e.ID, &e.TaskID, &e.Status, &started, &completed, &e.DurationMS, &result, &e.Error, &logs)
		if err != nil {
			return nil, err
		}
		if e.StartedAt, err = time.Parse(sqliteTimeFormat, started); err != nil {
			return nil, err
		}
		if e.CompletedAt, err = parseSqTimePtr(completed); err != nil {
			return nil, err
		}
		if result.Valid {
			e.Result = []byte(result.String)
		}
		if logs.Valid {
			if err = fromJSON([]byte(logs.String), &e.Logs); err != nil {
				return nil, err
			}
		}
		execs = append(execs, &e)
	}
	return execs, rows.Err()
}

// InsertWebhook writes a new webhook binding.
func (s *Sqlite) InsertWebhook(ctx context.Context, w *structs.WebhookBinding) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO webhooks (id, secret, task_id, created_at) VALUES (?, ?, ?, ?)
	`, w.ID, w.Secret, w.TaskID, sqTime(w.CreatedAt))
	return err
}

// Webhook returns the binding with the given ID, or nil if absent.
func (s *Sqlite) Webhook(ctx context.Context, id string) (*structs.WebhookBinding, error) {
	w := structs.WebhookBinding{}
	var created string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, secret, task_id, created_at FROM webhooks WHERE id = ?
	`, id).Scan(&w.ID, &w.Secret, &w.TaskID, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if w.CreatedAt, err = time.Parse(sqliteTimeFormat, created); err != nil {
		return nil, err
	}
	return &w, nil
}

// DeleteTaskWebhooks removes every binding owned by the given task.
func (s *Sqlite) DeleteTaskWebhooks(ctx context.Context, taskID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM webhooks WHERE task_id = ?`, taskID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSqliteTask(rows *sql.Rows) (*structs.Task, error) {
	t := structs.Task{}
	var created, updated string
	var sched, trig, conds, vars, retry, notify, lastRun, nextRun sql.NullString
	var act string
	err := rows.Scan(
		&t.ID, &t.UserID, &t.Name, &t.Description, &t.Kind,
		&sched, &trig, &act, &conds, &vars, &retry, &notify,
		&t.Status, &lastRun, &nextRun, &t.RunCount, &t.RetryCount,
		&created, &updated,
	)
	if err != nil {
		return nil, err
	}
	err = fromTaskBlobs(&t, nsBytes(sched), nsBytes(trig), []byte(act), nsBytes(conds), nsBytes(vars), nsBytes(retry), nsBytes(notify))
	if err != nil {
		return nil, err
	}
	if t.LastRunAt, err = parseSqTimePtr(lastRun); err != nil {
		return nil, err
	}
	if t.NextRunAt, err = parseSqTimePtr(nextRun); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = time.Parse(sqliteTimeFormat, created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = time.Parse(sqliteTimeFormat, updated); err != nil {
		return nil, err
	}
	return &t, nil
}

func sqlPlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func sqTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeFormat)
}

func sqTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return sqTime(*t)
}

func parseSqTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := time.Parse(sqliteTimeFormat, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func sqBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func nsBytes(ns sql.NullString) []byte {
	if !ns.Valid {
		return nil
	}
	return []byte(ns.String)
}
