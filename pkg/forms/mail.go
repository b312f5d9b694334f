package forms

import (
	"context"
	"fmt"
)

// Mailer sends a templated notification.
type Mailer interface {
	Send(ctx context.Context, template string, data any) error
}

// MailSink notifies the sales inbox about every submission.
type MailSink struct {
	mailer Mailer
}

// NewMailSink wraps mailer as a sink.
func NewMailSink(mailer Mailer) *MailSink {
	return &MailSink{mailer: mailer}
}

func (s *MailSink) Name() string { return "mail" }

func (s *MailSink) Accepts(Kind) bool { return true }

// Deliver renders the template named after the submission kind.
func (s *MailSink) Deliver(ctx context.Context, sub *Submission) error {
	if err := s.mailer.Send(ctx, string(sub.Kind), sub); err != nil {
		return fmt.Errorf("forms: mail: %w", err)
	}
	return nil
}
