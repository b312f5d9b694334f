package notify

import (
	"context"
	"log/slog"
)

// Email is a fully rendered message.
type Email struct {
	Tags    map[string]string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
	To      []string
}

// Sender delivers rendered email.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// LogSender logs messages instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that writes every message to logger.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, email *Email) error {
	s.logger.InfoContext(ctx, "email not sent, no provider configured",
		slog.Any("to", email.To),
		slog.String("subject", email.Subject),
		slog.Int("html_bytes", len(email.HTML)),
	)
	return nil
}
