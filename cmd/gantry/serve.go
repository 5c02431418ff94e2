package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/skerrick/gantry/internal/utils"
	"github.com/skerrick/gantry/pkg/api"
	"github.com/skerrick/gantry/pkg/api/http/server"
	"github.com/skerrick/gantry/pkg/database"
	"github.com/skerrick/gantry/pkg/dispatch"
	"github.com/skerrick/gantry/pkg/notify"
)

const docServe = `Run the task engine and serve its API over HTTP`

type optsServe struct {
	optsGeneral
	optsDatabase
	optsQueue
	optsSMTP
	optsChannels

	Addr string `long:"addr" env:"ADDR" default:"localhost:8200" description:"Address to bind to"`

	PublicURL string `long:"public-url" env:"PUBLIC_URL" description:"Externally reachable base URL, used to build webhook trigger URLs"`

	AIURL    string `long:"ai-url" env:"AI_URL" description:"Base URL of an OpenAI compatible completion endpoint for ai_prompt actions"`
	AIModel  string `long:"ai-model" env:"AI_MODEL" description:"Model used when an ai_prompt payload names none"`
	FileRoot string `long:"file-root" env:"FILE_ROOT" description:"Directory file_op actions are confined to"`
}

func (c *optsServe) Execute(args []string) error {
	// This main runs the whole engine in one process: it re-arms timers for
	// persisted tasks, fires them as they come due and serves the HTTP API
	// (including the inbound webhook trigger endpoint) to callers.
	//
	// Notifications deliver in-process over the configured channels unless
	// a queue URL is set, in which case they are deferred to be drained by
	// a `gantry worker` process.
	//
	// If you wish to interact with gantry by importing the pkg libraries
	// you don't need to run this.
	log := newLogger(c.Debug)

	tlsCfg, err := utils.TLSConfig(c.QueueTLSCaCert, c.QueueTLSCert, c.QueueTLSKey)
	if err != nil {
		return err
	}

	svc, err := api.New(
		&database.Options{URL: c.DatabaseURL},
		&dispatch.Options{
			AIURL:          c.AIURL,
			AIModel:        c.AIModel,
			FileRoot:       c.FileRoot,
			SMTPAddr:       c.SMTPAddr,
			SMTPFrom:       c.SMTPFrom,
			SMTPUserEnvVar: smtpUserEnvVar,
			SMTPPassEnvVar: smtpPassEnvVar,
		},
		&notify.Options{URL: c.QueueURL, TLSConfig: tlsCfg},
		&api.Options{
			PublicURL:  c.PublicURL,
			Log:        log,
			Registerer: prometheus.DefaultRegisterer,
			Channels:   c.channels(log, c.optsSMTP),
		},
	)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Initialize(context.Background()); err != nil {
		return err
	}

	s := server.NewServer(c.Addr, c.Debug)
	return s.ServeForever(svc)
}
