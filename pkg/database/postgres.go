package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skerrick/gantry/pkg/structs"
)

const (
	tableTasks      = "tasks"
	tableExecutions = "executions"
	tableWebhooks   = "webhooks"

	taskColumns = "id, user_id, name, description, kind, schedule, trigger_conf, action, conditions, vars, retry, notify, status, last_run_at, next_run_at, run_count, retry_count, created_at, updated_at"
	execColumns = "id, task_id, status, started_at, completed_at, duration_ms, result, error, logs"
)

// Postgres is a gantry database implementation that uses postgres.
type Postgres struct {
	opts *Options
	pool *pgxpool.Pool
}

// NewPostgres returns a new Postgres database connection.
func NewPostgres(opts *Options) (*Postgres, error) {
	opts.SetDefaults()
	opts.URL = strings.Replace(opts.URL, "$"+opts.UsernameEnvVar, os.Getenv(opts.UsernameEnvVar), 1)
	opts.URL = strings.Replace(opts.URL, "$"+opts.PasswordEnvVar, os.Getenv(opts.PasswordEnvVar), 1)
	pool, err := pgxpool.New(context.Background(), opts.URL)
	return &Postgres{pool: pool, opts: opts}, err
}

// Close shuts down the database connection.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// InsertTask writes a new task row.
func (p *Postgres) InsertTask(ctx context.Context, t *structs.Task) error {
	vstr, args, err := toTaskSqlArgs(1, t)
	if err != nil {
		return err
	}
	qstr := fmt.Sprintf(`INSERT INTO %s (%s) VALUES %s;`, tableTasks, taskColumns, vstr)

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, qstr, args...)
	return err
}

// UpdateTask overwrites the task row with the given ID in a single statement.
func (p *Postgres) UpdateTask(ctx context.Context, t *structs.Task) (int64, error) {
	blobs, err := toTaskBlobs(t)
	if err != nil {
		return 0, err
	}
	qstr := fmt.Sprintf(`UPDATE %s SET user_id=$1, name=$2, description=$3, kind=$4, schedule=$5, trigger_conf=$6, action=$7, conditions=$8, vars=$9, retry=$10, notify=$11, status=$12, last_run_at=$13, next_run_at=$14, run_count=$15, retry_count=$16, updated_at=$17 WHERE id=$18;`, tableTasks)
	args := []interface{}{
		t.UserID,
		t.Name,
		t.Description,
		t.Kind,
		blobs.schedule,
		blobs.trigger,
		blobs.action,
		blobs.conditions,
		blobs.vars,
		blobs.retry,
		blobs.notify,
		t.Status,
		t.LastRunAt,
		t.NextRunAt,
		t.RunCount,
		t.RetryCount,
		t.UpdatedAt,
		t.ID,
	}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	info, err := conn.Exec(ctx, qstr, args...)
	if err != nil {
		return 0, err
	}
	return info.RowsAffected(), nil
}

// DeleteTask removes a task row. Executions and webhook bindings cascade.
func (p *Postgres) DeleteTask(ctx context.Context, id string) (int64, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	info, err := conn.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id=$1;`, tableTasks), id)
	if err != nil {
		return 0, err
	}
	return info.RowsAffected(), nil
}

// Tasks returns tasks matching the given query.
func (p *Postgres) Tasks(ctx context.Context, q *structs.Query) ([]*structs.Task, error) {
	where, args := toSqlQuery(map[string][]string{
		"id":      q.TaskIDs,
		"user_id": q.UserIDs,
		"kind":    kindToStrings(q.Kinds),
		"status":  statusToStrings(q.Statuses),
	}, q)
	args = append(args, q.Limit, q.Offset)

	order := "created_at DESC"
	if q.OrderByNextRun {
		order = "next_run_at ASC"
	}
	qstr := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s LIMIT $%d OFFSET $%d;`,
		taskColumns, tableTasks, where, order, len(args)-1, len(args),
	)

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, qstr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*structs.Task{}
	for rows.Next() {
		t := structs.Task{}
		var sched, trig, act, conds, vars, retry, notify []byte
		err = rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Name,
			&t.Description,
			&t.Kind,
			&sched,
			&trig,
			&act,
			&conds,
			&vars,
			&retry,
			&notify,
			&t.Status,
			&t.LastRunAt,
			&t.NextRunAt,
			&t.RunCount,
			&t.RetryCount,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		err = fromTaskBlobs(&t, sched, trig, act, conds, vars, retry, notify)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, &t)
	}

	return tasks, rows.Err()
}

// InsertExecution writes a new execution row.
func (p *Postgres) InsertExecution(ctx context.Context, e *structs.Execution) error {
	vstr, args, err := toExecSqlArgs(1, e)
	if err != nil {
		return err
	}
	qstr := fmt.Sprintf(`INSERT INTO %s (%s) VALUES %s;`, tableExecutions, execColumns, vstr)

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, qstr, args...)
	return err
}

// UpdateExecution overwrites the execution row with the given ID.
func (p *Postgres) UpdateExecution(ctx context.Context, e *structs.Execution) (int64, error) {
	result, logs, err := toExecBlobs(e)
	if err != nil {
		return 0, err
	}
	qstr := fmt.Sprintf(`UPDATE %s SET status=$1, completed_at=$2, duration_ms=$3, result=$4, error=$5, logs=$6 WHERE id=$7;`, tableExecutions)
	args := []interface{}{e.Status, e.CompletedAt, e.DurationMS, result, e.Error, logs, e.ID}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	info, err := conn.Exec(ctx, qstr, args...)
	if err != nil {
		return 0, err
	}
	return info.RowsAffected(), nil
}

// Executions returns up to limit executions for a task, latest started first.
func (p *Postgres) Executions(ctx context.Context, taskID string, limit int) ([]*structs.Execution, error) {
	qstr := fmt.Sprintf(`SELECT %s FROM %s WHERE task_id=$1 ORDER BY started_at DESC LIMIT $2;`, execColumns, tableExecutions)

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, qstr, taskID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	execs := []*structs.Execution{}
	for rows.Next() {
		e := structs.Execution{}
		var logs []byte
		err = rows.Scan(
			&e.ID,
			&e.TaskID,
			&e.Status,
			&e.StartedAt,
			&e.CompletedAt,
			&e.DurationMS,
			&e.Result,
			&e.Error,
			&logs,
		)
		if err != nil {
			return nil, err
		}
		if err = fromJSON(logs, &e.Logs); err != nil {
			return nil, err
		}
		execs = append(execs, &e)
	}

	return execs, rows.Err()
}

// InsertWebhook writes a new webhook binding.
func (p *Postgres) InsertWebhook(ctx context.Context, w *structs.WebhookBinding) error {
	qstr := fmt.Sprintf(`INSERT INTO %s (id, secret, task_id, created_at) VALUES ($1, $2, $3, $4);`, tableWebhooks)

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, qstr, w.ID, w.Secret, w.TaskID, w.CreatedAt)
	return err
}

// Webhook returns the binding with the given ID, or nil if absent.
func (p *Postgres) Webhook(ctx context.Context, id string) (*structs.WebhookBinding, error) {
	qstr := fmt.Sprintf(`SELECT id, secret, task_id, created_at FROM %s WHERE id=$1;`, tableWebhooks)

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, qstr, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	w := structs.WebhookBinding{}
	err = rows.Scan(&w.ID, &w.Secret, &w.TaskID, &w.CreatedAt)
	return &w, err
}

// DeleteTaskWebhooks removes every binding owned by the given task.
func (p *Postgres) DeleteTaskWebhooks(ctx context.Context, taskID string) (int64, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	info, err := conn.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE task_id=$1;`, tableWebhooks), taskID)
	if err != nil {
		return 0, err
	}
	return info.RowsAffected(), nil
}

// taskBlobs holds a task's JSON encoded columns.
type taskBlobs struct {
	schedule   []byte
	trigger    []byte
	action     []byte
	conditions []byte
	vars       []byte
	retry      []byte
	notify     []byte
}

// toTaskBlobs marshals a task's struct valued fields; nil fields stay nil
// so they land as SQL NULL.
func toTaskBlobs(t *structs.Task) (*taskBlobs, error) {
	b := &taskBlobs{}
	var err error
	if t.Schedule != nil {
		if b.schedule, err = json.Marshal(t.Schedule); err != nil {
			return nil, err
		}
	}
	if t.Trigger != nil {
		if b.trigger, err = json.Marshal(t.Trigger); err != nil {
			return nil, err
		}
	}
	if b.action, err = json.Marshal(t.Action); err != nil {
		return nil, err
	}
	if len(t.Conditions) > 0 {
		if b.conditions, err = json.Marshal(t.Conditions); err != nil {
			return nil, err
		}
	}
	if len(t.Vars) > 0 {
		if b.vars, err = json.Marshal(t.Vars); err != nil {
			return nil, err
		}
	}
	if t.Retry != nil {
		if b.retry, err = json.Marshal(t.Retry); err != nil {
			return nil, err
		}
	}
	if t.Notify != nil {
		if b.notify, err = json.Marshal(t.Notify); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// fromTaskBlobs unmarshals JSON encoded columns back onto a task.
func fromTaskBlobs(t *structs.Task, sched, trig, act, conds, vars, retry, notify []byte) error {
	if err := fromJSON(sched, &t.Schedule); err != nil {
		return err
	}
	if err := fromJSON(trig, &t.Trigger); err != nil {
		return err
	}
	if err := fromJSON(act, &t.Action); err != nil {
		return err
	}
	if err := fromJSON(conds, &t.Conditions); err != nil {
		return err
	}
	if err := fromJSON(vars, &t.Vars); err != nil {
		return err
	}
	if err := fromJSON(retry, &t.Retry); err != nil {
		return err
	}
	return fromJSON(notify, &t.Notify)
}

// fromJSON unmarshals b into the given pointer, leaving it untouched if b
// is empty (SQL NULL).
func fromJSON(b []byte, into interface{}) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, into)
}

// toTaskSqlArgs converts a task into a SQL values string & args (for an insert)
func toTaskSqlArgs(offset int, t *structs.Task) (string, []interface{}, error) {
	blobs, err := toTaskBlobs(t)
	if err != nil {
		return "", nil, err
	}
	vals := []string{}
	for i := offset; i < 19+offset; i++ {
		vals = append(vals, fmt.Sprintf("$%d", i))
	}
	return fmt.Sprintf("(%s)", strings.Join(vals, ", ")), []interface{}{
		t.ID,
		t.UserID,
		t.Name,
		t.Description,
		t.Kind,
		blobs.schedule,
		blobs.trigger,
		blobs.action,
		blobs.conditions,
		blobs.vars,
		blobs.retry,
		blobs.notify,
		t.Status,
		t.LastRunAt,
		t.NextRunAt,
		t.RunCount,
		t.RetryCount,
		t.CreatedAt,
		t.UpdatedAt,
	}, nil
}

// toExecBlobs marshals an execution's JSON encoded columns.
func toExecBlobs(e *structs.Execution) (result, logs []byte, err error) {
	if len(e.Result) > 0 {
		result = []byte(e.Result)
	}
	if len(e.Logs) > 0 {
		logs, err = json.Marshal(e.Logs)
	}
	return result, logs, err
}

// toExecSqlArgs converts an execution into a SQL values string & args (for an insert)
func toExecSqlArgs(offset int, e *structs.Execution) (string, []interface{}, error) {
	result, logs, err := toExecBlobs(e)
	if err != nil {
		return "", nil, err
	}
	vals := []string{}
	for i := offset; i < 9+offset; i++ {
		vals = append(vals, fmt.Sprintf("$%d", i))
	}
	return fmt.Sprintf("(%s)", strings.Join(vals, ", ")), []interface{}{
		e.ID,
		e.TaskID,
		e.Status,
		e.StartedAt,
		e.CompletedAt,
		e.DurationMS,
		result,
		e.Error,
		logs,
	}, nil
}

// toSqlQuery converts query data into a SQL where clause & args
func toSqlQuery(in map[string][]string, q *structs.Query) (string, []interface{}) {
	if in == nil {
		in = map[string][]string{}
	}
	and := []string{}
	args := []interface{}{}
	for k, v := range in {
		if v == nil || len(v) == 0 {
			continue
		}
		s, a := toSqlIn(len(args)+1, k, v)
		and = append(and, s)
		args = append(args, a...)
	}
	if q.DueBefore != nil {
		args = append(args, *q.DueBefore)
		and = append(and, fmt.Sprintf("next_run_at <= $%d", len(args)))
	}
	if q.OrderByNextRun {
		and = append(and, "next_run_at IS NOT NULL")
	}
	if len(and) == 0 {
		return "", args
	}
	return fmt.Sprintf("WHERE %s", strings.Join(and, " AND ")), args
}

// toSqlIn converts a list of strings into a SQL IN clause
func toSqlIn(offset int, field string, args []string) (string, []interface{}) {
	if len(args) == 0 {
		return "", []interface{}{}
	}
	vals := []string{}
	ifargs := []interface{}{}
	for i, a := range args {
		vals = append(vals, fmt.Sprintf("$%d", i+offset))
		ifargs = append(ifargs, a)
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(vals, ", ")), ifargs
}

// statusToStrings converts a list of statuses into a list of strings
func statusToStrings(in []structs.Status) []string {
	if in == nil || len(in) == 0 {
		return nil
	}
	out := []string{}
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

// kindToStrings converts a list of kinds into a list of strings
func kindToStrings(in []structs.Kind) []string {
	if in == nil || len(in) == 0 {
		return nil
	}
	out := []string{}
	for _, k := range in {
		out = append(out, string(k))
	}
	return out
}
