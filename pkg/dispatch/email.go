package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strings"

	"github.com/skerrick/gantry/pkg/structs"
)

// sendMail is swapped out in tests.
var sendMail = smtp.SendMail

type emailPayload struct {
	// To lists recipient addresses. At least one is required.
	To []string `json:"to"`

	// Subject is the mail subject line.
	Subject string `json:"subject"`

	// Body is the plain text mail body.
	Body string `json:"body"`
}

type emailResult struct {
	Recipients int `json:"recipients"`
}

// Email sends plain text mail through a configured SMTP relay.
type Email struct {
	addr       string
	from       string
	userEnvVar string
	passEnvVar string
}

// NewEmail returns a send_email action handler.
func NewEmail(opts *Options) *Email {
	return &Email{
		addr:       opts.SMTPAddr,
		from:       opts.SMTPFrom,
		userEnvVar: opts.SMTPUserEnvVar,
		passEnvVar: opts.SMTPPassEnvVar,
	}
}

// Type returns the ActionType this handler serves.
func (h *Email) Type() structs.ActionType {
	return structs.ActionSendEmail
}

// Execute sends one mail.
func (h *Email) Execute(ctx context.Context, payload json.RawMessage, logs Logger) (json.RawMessage, error) {
	if h.addr == "" {
		return nil, fmt.Errorf("no smtp relay configured")
	}
	p := emailPayload{}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode send_email payload: %w", err)
	}
	if len(p.To) == 0 {
		return nil, fmt.Errorf("send_email payload requires at least one recipient")
	}

	var auth smtp.Auth
	if h.userEnvVar != "" {
		host, _, err := net.SplitHostPort(h.addr)
		if err != nil {
			host = h.addr
		}
		auth = smtp.PlainAuth("", os.Getenv(h.userEnvVar), os.Getenv(h.passEnvVar), host)
	}

	msg := strings.Join([]string{
		"From: " + h.from,
		"To: " + strings.Join(p.To, ", "),
		"Subject: " + p.Subject,
		"",
		p.Body,
	}, "\r\n")

	if err := sendMail(h.addr, auth, h.from, p.To, []byte(msg)); err != nil {
		return nil, fmt.Errorf("send mail: %w", err)
	}
	logs.Logf("sent %q to %d recipient(s)", p.Subject, len(p.To))
	return json.Marshal(&emailResult{Recipients: len(p.To)})
}
