// Package notify delivers transactional emails about orders.
package notify

import (
	"context"
	"errors"
	"fmt"
	"marketplace/internal/domain"
	"time"

	"github.com/sirupsen/logrus"
)

// Message is one outbound email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier sends a message. Implementations report delivery problems as
// errors wrapping domain.ErrNotification and never panic.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, msg Message) error

// Send calls f(ctx, msg)
func (f NotifierFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// LogNotifier writes messages to the log instead of sending them.
// Used when no SMTP server is configured.
type LogNotifier struct{}

// Send logs the recipient and subject, and the body at debug level
func (LogNotifier) Send(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Notification (log only)")
	logrus.Debug(msg.Body)
	return nil
}

type guarded struct {
	next    Notifier
	timeout time.Duration
}

// WithTimeout bounds every Send of n by timeout and converts panics and
// transport errors into domain.ErrNotification. A transport that ignores
// its context is abandoned once the deadline passes.
func WithTimeout(n Notifier, timeout time.Duration) Notifier {
	return &guarded{next: n, timeout: timeout}
}

func (g *guarded) Send(ctx context.Context, msg Message) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: panic while sending to %s: %v", domain.ErrNotification, msg.To, r)
			}
		}()
		done <- g.next.Send(ctx, msg)
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, domain.ErrNotification) {
			return fmt.Errorf("%w: %w", domain.ErrNotification, err)
		}
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: sending to %s: %w", domain.ErrNotification, msg.To, ctx.Err())
	}
}
