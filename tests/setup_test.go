package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/skerrick/gantry/pkg/api"
	"github.com/skerrick/gantry/pkg/api/http/client"
	"github.com/skerrick/gantry/pkg/api/http/server"
	"github.com/skerrick/gantry/pkg/database"
	"github.com/skerrick/gantry/pkg/notify"
	"github.com/skerrick/gantry/pkg/structs"
)

var (
	setup = &Setup{}
)

type Setup struct {
	db     database.Database
	ran    *runRecorder
	sent   *noteRecorder
	svc    api.API
	ts     *httptest.Server
	client *client.Client
}

// noteRecorder is a notify channel that keeps everything it delivers, so
// tests can assert on outcome notifications. Tasks select it as "capture".
type noteRecorder struct {
	mu   sync.Mutex
	sent []*structs.Notification
}

func (c *noteRecorder) Name() string {
	return "capture"
}

func (c *noteRecorder) Deliver(ctx context.Context, n *structs.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return nil
}

// forTask returns the notifications recorded for the given task.
func (c *noteRecorder) forTask(taskID string) []*structs.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []*structs.Notification{}
	for _, n := range c.sent {
		if n.TaskID == taskID {
			out = append(out, n)
		}
	}
	return out
}

func init() {
	// Everything runs in-process: the in-memory store, the stub
	// dispatcher, a fan-out notifier and the real router behind a test
	// server, driven through the real client.
	setup.db = database.NewMemory()

	dsp, ran := newStubDispatcher()
	setup.ran = ran
	setup.sent = &noteRecorder{}

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	svc, err := api.NewAPI(setup.db, dsp, notify.NewFanout(setup.sent), &api.Options{Log: log})
	if err != nil {
		panic(err)
	}
	setup.svc = svc

	err = svc.Initialize(context.Background())
	if err != nil {
		panic(err)
	}

	setup.ts = httptest.NewServer(server.NewServer("", false).Handler(svc))
	fmt.Println("Test server location:", setup.ts.URL)

	setup.client, err = client.New(setup.ts.URL)
	if err != nil {
		panic(err)
	}
}

func (s *Setup) loadTestData(name string, out interface{}) error {
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
