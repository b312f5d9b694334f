package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v3"
)

// ResendConfig holds Resend credentials and the sender identity.
type ResendConfig struct {
	APIKey      string `env:"RESEND_API_KEY"`
	SenderEmail string `env:"RESEND_FROM_EMAIL" envDefault:"no-reply@corporategiftsdubaii.ae"`
	SenderName  string `env:"RESEND_FROM_NAME" envDefault:"Corporate Gifts Dubai"`
	BaseURL     string `env:"RESEND_BASE_URL"`
}

// ResendSender sends email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a Resend-backed sender.
func NewResendSender(cfg ResendConfig) (*ResendSender, error) {
	client := resend.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("notify: resend base url: %w", err)
		}
		client.BaseURL = u
	}

	from := cfg.SenderEmail
	if cfg.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.SenderName, cfg.SenderEmail)
	}
	return &ResendSender{client: client, from: from}, nil
}

func (s *ResendSender) Send(ctx context.Context, email *Email) error {
	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
	}
	for name, value := range email.Tags {
		req.Tags = append(req.Tags, resend.Tag{Name: name, Value: value})
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
