package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"ngnasoro-engine/internal/domain/notification"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Enabled reports whether enough is configured to reach a server.
func (c SMTPConfig) Enabled() bool { return c.Host != "" && c.From != "" }

// SendFunc hands a built message to the transport.
type SendFunc func(e *email.Email) error

const signature = "\n\nN'GNA SÔRÔ!\nCe message est envoyé automatiquement, merci de ne pas y répondre."

// EmailNotifier mails a notification to the client's address. Notifications
// without an address are accepted and dropped.
type EmailNotifier struct {
	from string
	send SendFunc
	log  *logrus.Logger
}

func NewEmailNotifier(cfg SMTPConfig, log *logrus.Logger) *EmailNotifier {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &EmailNotifier{
		from: cfg.From,
		send: func(e *email.Email) error { return e.Send(addr, auth) },
		log:  log,
	}
}

// WithSender swaps the transport, mostly for tests.
func (n *EmailNotifier) WithSender(fn SendFunc) *EmailNotifier {
	n.send = fn
	return n
}

func (n *EmailNotifier) Notify(_ context.Context, m *notification.Notification) error {
	to := strings.TrimSpace(m.Email)
	if to == "" {
		return nil
	}

	e := email.NewEmail()
	e.From = n.from
	e.To = []string{to}
	e.Subject = m.Title
	body := m.Message
	if m.ActionLink != "" {
		body += "\n\nDétails : " + m.ActionLink
	}
	e.Text = []byte(body + signature)

	if err := n.send(e); err != nil {
		n.log.WithError(err).WithFields(logrus.Fields{"to": to, "key": m.DedupeKey}).Error("email not sent")
		return fmt.Errorf("%w: email: %v", notification.ErrDelivery, err)
	}
	n.log.WithFields(logrus.Fields{"to": to, "subject": e.Subject}).Info("email sent")
	return nil
}
