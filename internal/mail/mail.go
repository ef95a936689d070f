// Package mail delivers the templated e-mails game servers request through
// RequestSendMail. Delivery is asynchronous and best effort: a failed or
// dropped mail is logged and never reported back to the game server.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/udisondev/la2login/internal/config"
	"github.com/udisondev/la2login/internal/model"
)

const queueSize = 64

// AccountData resolves per-account values, the recipient address among them.
type AccountData interface {
	GetAccountData(ctx context.Context, login, key string) (string, bool, error)
}

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, to string, msg Message) error
}

// Message is a rendered mail ready for delivery.
type Message struct {
	Subject string
	Body    string
}

type request struct {
	account string
	mailID  string
	args    []string
}

// Service queues mail requests and delivers them from Run.
type Service struct {
	accounts  AccountData
	sender    Sender
	templates map[string]config.MailTemplate
	queue     chan request
}

// NewService creates a mail service. %servername% and %servermail% are
// substituted into templates once here.
func NewService(cfg config.Mail, accounts AccountData, sender Sender) *Service {
	r := strings.NewReplacer("%servername%", cfg.ServerName, "%servermail%", cfg.ServerMail)
	templates := make(map[string]config.MailTemplate, len(cfg.Templates))
	for id, t := range cfg.Templates {
		templates[id] = config.MailTemplate{Subject: r.Replace(t.Subject), Body: r.Replace(t.Body)}
	}

	return &Service{
		accounts:  accounts,
		sender:    sender,
		templates: templates,
		queue:     make(chan request, queueSize),
	}
}

// SendMail enqueues a mail. It never blocks the caller: when the queue is
// full the mail is dropped.
func (s *Service) SendMail(account, mailID string, args []string) {
	req := request{account: account, mailID: mailID, args: append([]string(nil), args...)}
	select {
	case s.queue <- req:
	default:
		slog.Warn("mail queue full, dropping mail", "account", account, "mail_id", mailID)
	}
}

// Run delivers queued mails until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	slog.Info("mail service started", "templates", len(s.templates))
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-s.queue:
			if err := s.deliver(ctx, req); err != nil {
				slog.Warn("mail not sent", "account", req.account, "mail_id", req.mailID, "err", err)
			}
		}
	}
}

func (s *Service) deliver(ctx context.Context, req request) error {
	tpl, ok := s.templates[req.mailID]
	if !ok {
		return fmt.Errorf("unknown mail template %q", req.mailID)
	}

	to, ok, err := s.accounts.GetAccountData(ctx, req.account, model.AccountDataEmailAddr)
	if err != nil {
		return fmt.Errorf("looking up address: %w", err)
	}
	if !ok || to == "" {
		slog.Debug("account has no mail address", "account", req.account)
		return nil
	}

	msg := Render(tpl, req.account, req.args)
	if err := s.sender.Send(ctx, to, msg); err != nil {
		return fmt.Errorf("sending to %s: %w", to, err)
	}
	slog.Info("mail sent", "account", req.account, "mail_id", req.mailID)
	return nil
}

// Render fills %var0%..%varN% with args and %accountname% with account.
func Render(tpl config.MailTemplate, account string, args []string) Message {
	pairs := make([]string, 0, 2*len(args)+2)
	for i, a := range args {
		pairs = append(pairs, fmt.Sprintf("%%var%d%%", i), a)
	}
	pairs = append(pairs, "%accountname%", account)
	r := strings.NewReplacer(pairs...)

	return Message{Subject: tpl.Subject, Body: r.Replace(tpl.Body)}
}
