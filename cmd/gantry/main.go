package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/skerrick/gantry/pkg/notify"
)

// optsGeneral are flags shared by every subcommand.
type optsGeneral struct {
	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

type optsDatabase struct {
	DatabaseURL string `long:"database-url" env:"DATABASE_URL" default:"memory://" description:"Database connection string: postgres://, sqlite://<path> or memory://"`
}

type optsQueue struct {
	QueueURL string `long:"queue-url" env:"QUEUE_URL" description:"Redis address for deferred notification delivery (empty delivers in process)"`

	QueueTLSCaCert string `long:"queue-tls-ca-cert" env:"QUEUE_TLS_CA_CERT" description:"Path to CA cert used to verify the queue"`
	QueueTLSCert   string `long:"queue-tls-cert" env:"QUEUE_TLS_CERT" description:"Path to TLS cert to connect to the queue with"`
	QueueTLSKey    string `long:"queue-tls-key" env:"QUEUE_TLS_KEY" description:"Path to TLS key to connect to the queue with"`
}

type optsSMTP struct {
	SMTPAddr string `long:"smtp-addr" env:"SMTP_ADDR" description:"host:port of the outbound mail relay"`
	SMTPFrom string `long:"smtp-from" env:"SMTP_FROM" description:"From address on outbound mail"`
}

// optsChannels configure the notification delivery channels. The log
// channel is always available; webhook and email join it when configured.
type optsChannels struct {
	NotifyWebhookURL string   `long:"notify-webhook-url" env:"NOTIFY_WEBHOOK_URL" description:"URL the webhook notification channel POSTs to"`
	NotifyEmailTo    []string `long:"notify-email-to" env:"NOTIFY_EMAIL_TO" env-delim:"," description:"Addresses the email notification channel sends to"`
}

func (c *optsChannels) channels(log *logrus.Logger, smtp optsSMTP) []notify.Channel {
	chs := []notify.Channel{notify.NewLogChannel(log)}
	if c.NotifyWebhookURL != "" {
		chs = append(chs, notify.NewWebhookChannel(nil, c.NotifyWebhookURL))
	}
	if smtp.SMTPAddr != "" && len(c.NotifyEmailTo) > 0 {
		chs = append(chs, notify.NewEmailChannel(smtp.SMTPAddr, smtp.SMTPFrom, c.NotifyEmailTo, smtpUserEnvVar, smtpPassEnvVar))
	}
	return chs
}

const (
	smtpUserEnvVar = "GANTRY_SMTP_USER"
	smtpPassEnvVar = "GANTRY_SMTP_PASS"
)

func newLogger(debug bool) *logrus.Logger {
	log := logrus.New()
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func main() {
	godotenv.Load() // a missing .env file is fine

	parser := flags.NewParser(nil, flags.Default)
	parser.AddCommand("serve", docServe, docServe, &optsServe{})
	parser.AddCommand("worker", docWorker, docWorker, &optsWorker{})
	parser.AddCommand("migrate", docMigrate, docMigrate, &optsMigrate{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
