package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/udisondev/la2login/internal/config"
)

// smtpsPort — порт, на котором сервер ждёт TLS сразу, без STARTTLS.
const smtpsPort = 465

const dialTimeout = 10 * time.Second

// SMTPSender delivers mail through the configured SMTP relay as text/html.
type SMTPSender struct {
	cfg config.Mail
}

// NewSMTPSender creates a sender for cfg.
func NewSMTPSender(cfg config.Mail) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers msg to the given address.
func (s *SMTPSender) Send(ctx context.Context, to string, msg Message) error {
	m, err := buildMessage(s.cfg, to, msg, time.Now())
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.cfg.SMTPHost, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp %s:%d: %w", s.cfg.SMTPHost, s.cfg.SMTPPort, err)
	}
	return nil
}

// clientOptions: 465 — неявный TLS, иначе STARTTLS, если сервер его предлагает.
func (s *SMTPSender) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.SMTPPort),
		gomail.WithTimeout(dialTimeout),
	}
	if s.cfg.SMTPPort == smtpsPort {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if s.cfg.SMTPUser != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.SMTPUser),
			gomail.WithPassword(s.cfg.SMTPPassword),
		)
	}
	return opts
}

// buildMessage собирает html-письмо от имени сервера.
func buildMessage(cfg config.Mail, to string, msg Message, now time.Time) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(cfg.ServerName, cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", cfg.From, err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(now)
	m.SetBodyString(gomail.TypeTextHTML, msg.Body)
	return m, nil
}
