// Package mailer relays contact form submissions over SMTP.
package mailer

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/wneessen/go-mail"
)

// SubjectPrefix is prepended to every relayed subject line.
const SubjectPrefix = "Weblithic Contact: "

// Message is one contact form submission.
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Complete reports whether every field is non-empty.
func (m Message) Complete() bool {
	return strings.TrimSpace(m.Name) != "" &&
		strings.TrimSpace(m.Email) != "" &&
		strings.TrimSpace(m.Subject) != "" &&
		strings.TrimSpace(m.Message) != ""
}

// Sender delivers a contact message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds SMTP relay settings.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	Recipient string
}

// SMTP is a Sender backed by an SMTP server.
type SMTP struct {
	cfg Config
}

// NewSMTP creates an SMTP sender.
func NewSMTP(cfg Config) *SMTP {
	return &SMTP{cfg: cfg}
}

var htmlBody = template.Must(template.New("contact").Parse(`<h2>New contact form submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`))

// Build assembles the outgoing mail for msg.
func (s *SMTP) Build(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(msg.Name, s.cfg.User); err != nil {
		return nil, fmt.Errorf("mailer: from: %w", err)
	}
	if err := m.To(s.cfg.Recipient); err != nil {
		return nil, fmt.Errorf("mailer: to: %w", err)
	}
	if err := m.ReplyTo(msg.Email); err != nil {
		return nil, fmt.Errorf("mailer: reply-to: %w", err)
	}
	m.Subject(SubjectPrefix + msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, plainBody(msg))

	var html strings.Builder
	if err := htmlBody.Execute(&html, msg); err != nil {
		return nil, fmt.Errorf("mailer: html body: %w", err)
	}
	m.AddAlternativeString(mail.TypeTextHTML, html.String())
	return m, nil
}

func plainBody(msg Message) string {
	return fmt.Sprintf("Name: %s\nEmail: %s\nSubject: %s\n\nMessage:\n%s\n",
		msg.Name, msg.Email, msg.Subject, msg.Message)
}

// Send relays msg to the configured recipient.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	m, err := s.Build(msg)
	if err != nil {
		return err
	}
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Password),
		)
	}
	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("mailer: client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}
