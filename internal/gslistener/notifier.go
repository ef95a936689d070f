package gslistener

import "log/slog"

// Notifier receives operator-facing notices about game servers and players.
type Notifier interface {
	Notify(msg string)
}

// LogNotifier пишет уведомления в общий лог.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(msg string) {
	slog.Info(msg, "source", "console")
}

// Mailer queues mail requested by a game server for one of its accounts.
type Mailer interface {
	SendMail(account, mailID string, args []string)
}
