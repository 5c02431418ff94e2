package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/skerrick/gantry/pkg/structs"
)

const (
	asyncNotifyQueue = "gantry:notify"
	asyncNotifyTask  = "notify:send"
	asyncMaxRetry    = 5
	asyncTimeout     = 30 * time.Second
)

// Asynq is a Notifier that queues notifications in redis, to be drained
// by a worker process running a delivery Notifier (usually a Fanout).
// Delivery errors are retried by the queue.
type Asynq struct {
	opts *Options

	// the asynq client (enqueue side)
	cli *asynq.Client

	// set iff Register is called; this process is a worker
	lock sync.Mutex
	mux  *asynq.ServeMux
	srv  *asynq.Server
}

// NewAsynqNotifier returns a queue backed notifier.
func NewAsynqNotifier(opts *Options) (*Asynq, error) {
	return &Asynq{opts: opts, cli: asynq.NewClient(redisOpt(opts))}, nil
}

func redisOpt(opts *Options) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: opts.URL, TLSConfig: opts.TLSConfig}
}

// Send queues one notification for delivery.
func (a *Asynq) Send(ctx context.Context, n *structs.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = a.cli.EnqueueContext(ctx, asynq.NewTask(asyncNotifyTask, payload),
		asynq.Queue(asyncNotifyQueue),
		asynq.MaxRetry(asyncMaxRetry),
		asynq.Timeout(asyncTimeout),
	)
	return err
}

// Register points queued notifications at the given delivery notifier.
// Call Run afterwards to start draining.
func (a *Asynq) Register(delivery Notifier) {
	if a.mux == nil {
		a.buildServer()
	}
	a.mux.HandleFunc(asyncNotifyTask, func(ctx context.Context, t *asynq.Task) error {
		n, err := decodeNotification(t.Payload())
		if err != nil {
			return err
		}
		// an error here means the queue retries the delivery
		return delivery.Send(ctx, n)
	})
}

// Run drains queued notifications until Close is called. Blocks.
func (a *Asynq) Run() error {
	if a.srv == nil {
		return fmt.Errorf("no delivery notifier registered")
	}
	return a.srv.Run(a.mux)
}

// Close shuts down the client and any running worker.
func (a *Asynq) Close() error {
	if a.srv != nil {
		a.srv.Stop()
		a.srv.Shutdown()
	}
	return a.cli.Close()
}

func (a *Asynq) buildServer() {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.mux != nil {
		// someone locked and set this first
		return
	}
	a.srv = asynq.NewServer(
		redisOpt(a.opts),
		asynq.Config{Queues: map[string]int{asyncNotifyQueue: 1}},
	)
	a.mux = asynq.NewServeMux()
}

// decodeNotification parses a queued notification payload.
func decodeNotification(payload []byte) (*structs.Notification, error) {
	n := structs.Notification{}
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("decode queued notification: %w", err)
	}
	return &n, nil
}
