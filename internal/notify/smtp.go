package notify

import (
	"context"
	"errors"
	"fmt"
	"marketplace/internal/domain"
	"sync"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig configures the SMTP transport
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPNotifier sends plain text mails through an SMTP relay
type SMTPNotifier struct {
	mu     sync.Mutex // one SMTP session at a time per client
	client *mail.Client
	from   string
}

// NewSMTPNotifier builds a notifier. Nothing is dialled until the first Send.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp sender address is required")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPNotifier{client: client, from: cfg.From}, nil
}

// Send delivers msg. Every failure is returned as domain.ErrNotification.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return fmt.Errorf("%w: sender %q: %w", domain.ErrNotification, n.from, err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("%w: recipient %q: %w", domain.ErrNotification, msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("%w: deliver to %s: %w", domain.ErrNotification, msg.To, err)
	}
	return nil
}
