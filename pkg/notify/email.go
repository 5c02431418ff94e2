package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strings"

	"github.com/skerrick/gantry/pkg/structs"
)

// sendMail is swapped out in tests.
var sendMail = smtp.SendMail

// EmailChannel mails notifications to a fixed operator address list.
type EmailChannel struct {
	addr       string
	from       string
	to         []string
	userEnvVar string
	passEnvVar string
}

// NewEmailChannel returns an email channel sending through the relay at
// addr. Credentials are read from the named env vars; an empty
// userEnvVar means the relay is used unauthenticated.
func NewEmailChannel(addr, from string, to []string, userEnvVar, passEnvVar string) *EmailChannel {
	return &EmailChannel{addr: addr, from: from, to: to, userEnvVar: userEnvVar, passEnvVar: passEnvVar}
}

// Name is how tasks select this channel.
func (c *EmailChannel) Name() string {
	return "email"
}

// Deliver mails the notification summary.
func (c *EmailChannel) Deliver(ctx context.Context, n *structs.Notification) error {
	if c.addr == "" || len(c.to) == 0 {
		return fmt.Errorf("no notification mail relay configured")
	}

	var auth smtp.Auth
	if c.userEnvVar != "" {
		host, _, err := net.SplitHostPort(c.addr)
		if err != nil {
			host = c.addr
		}
		auth = smtp.PlainAuth("", os.Getenv(c.userEnvVar), os.Getenv(c.passEnvVar), host)
	}

	subject := fmt.Sprintf("[gantry] task %q %s", n.TaskName, n.Outcome)
	msg := strings.Join([]string{
		"From: " + c.from,
		"To: " + strings.Join(c.to, ", "),
		"Subject: " + subject,
		"",
		fmt.Sprintf("Task %s (%s) finished with outcome %s at %s.", n.TaskName, n.TaskID, n.Outcome, n.At.Format("2006-01-02 15:04:05 MST")),
		"",
		n.Message,
	}, "\r\n")

	return sendMail(c.addr, auth, c.from, c.to, []byte(msg))
}
