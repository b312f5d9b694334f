package notify

import (
	"context"
	"errors"
	"strings"
)

// Config selects who receives notifications.
type Config struct {
	To      []string `env:"NOTIFY_TO" envSeparator:"," envDefault:"sales@corporategiftsdubaii.ae"`
	ReplyTo bool     `env:"NOTIFY_REPLY_TO_CUSTOMER" envDefault:"true"`
}

// Notifier renders a template and sends it to the configured inbox.
type Notifier struct {
	sender   Sender
	renderer *Renderer
	cfg      Config
}

// New creates a notifier.
func New(sender Sender, renderer *Renderer, cfg Config) *Notifier {
	return &Notifier{sender: sender, renderer: renderer, cfg: cfg}
}

// replyAddresser is implemented by data that carries the customer's email.
type replyAddresser interface {
	ReplyAddress() string
}

// Send renders template with data and mails the result.
func (n *Notifier) Send(ctx context.Context, template string, data any) error {
	if len(n.cfg.To) == 0 {
		return ErrNoRecipient
	}

	msg, err := n.renderer.Render(template, data)
	if err != nil {
		return err
	}

	email := &Email{
		To:      n.cfg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		Tags:    map[string]string{"template": template},
	}
	if ra, ok := data.(replyAddresser); ok && n.cfg.ReplyTo {
		email.ReplyTo = strings.TrimSpace(ra.ReplyAddress())
	}

	if err := n.sender.Send(ctx, email); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}
