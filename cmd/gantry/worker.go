package main

import (
	"fmt"

	"github.com/skerrick/gantry/internal/utils"
	"github.com/skerrick/gantry/pkg/notify"
)

const docWorker = `Run the deferred notification delivery worker`

type optsWorker struct {
	optsGeneral
	optsQueue
	optsSMTP
	optsChannels
}

func (c *optsWorker) Execute(args []string) error {
	// This main drains notifications queued by engine processes that were
	// configured with the same queue URL, delivering them over the channels
	// configured here. Failed deliveries are retried by the queue.
	//
	// It holds no database connection and runs no timers; it exists so a
	// deployment can keep slow deliveries (mail relay, webhook targets)
	// out of the engine process.
	if c.QueueURL == "" {
		return fmt.Errorf("worker requires a queue url")
	}
	log := newLogger(c.Debug)

	tlsCfg, err := utils.TLSConfig(c.QueueTLSCaCert, c.QueueTLSCert, c.QueueTLSKey)
	if err != nil {
		return err
	}

	queue, err := notify.NewAsynqNotifier(&notify.Options{URL: c.QueueURL, TLSConfig: tlsCfg})
	if err != nil {
		return err
	}
	defer queue.Close()

	queue.Register(notify.NewFanout(c.channels(log, c.optsSMTP)...))

	log.Info("notification worker running")
	return queue.Run()
}
