package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// SMTPMailer sends confirmation email over a plain SMTP relay with STARTTLS
// auth. With incomplete credentials it logs and reports failure instead of
// attempting delivery.
type SMTPMailer struct {
	Host   string
	Port   string
	User   string
	Pass   string
	Sender string
}

func NewSMTPMailer(host, port, user, pass, sender string) *SMTPMailer {
	return &SMTPMailer{Host: host, Port: port, User: user, Pass: pass, Sender: sender}
}

func (m *SMTPMailer) configured() bool {
	return m.Host != "" && m.Port != "" && m.User != "" && m.Pass != "" && m.Sender != ""
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) bool {
	if !m.configured() {
		log.Print("SMTP credentials not fully configured, skipping email sending")
		return false
	}

	msg := strings.Join([]string{
		"From: " + m.Sender,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%s", m.Host, m.Port)
	auth := smtp.PlainAuth("", m.User, m.Pass, m.Host)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.Sender, []string{to}, []byte(msg))
	}()

	select {
	case <-ctx.Done():
		log.Printf("email to %s abandoned: %v", to, ctx.Err())
		return false
	case err := <-done:
		if err != nil {
			log.Printf("failed to send email to %s: %v", to, err)
			return false
		}
	}

	log.Printf("email sent to %s with subject %q", to, subject)
	return true
}

// NoopMailer is used in dev and tests; it records nothing and always
// reports success.
type NoopMailer struct{}

func (NoopMailer) Send(ctx context.Context, to, subject, body string) bool { return true }
