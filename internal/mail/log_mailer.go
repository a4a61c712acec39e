package mail

import (
	"context"
	"log/slog"
)

// LogMailer is a Mailer that writes messages to the structured log instead
// of delivering them. It is the default driver for development environments
// where no SMTP relay is available.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer that logs through the given logger.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{
		logger: logger.With(slog.String("component", "log_mailer")),
	}
}

// Ensure LogMailer implements Mailer
var _ Mailer = (*LogMailer)(nil)

// Send logs the message at info level. The body is logged in full, so this
// driver must not be used where real reset links could leak into log storage.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "mail message (log driver, not delivered)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body))
	return nil
}
