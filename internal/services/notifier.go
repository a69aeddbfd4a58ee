package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"poetica/internal/logging"
	"poetica/internal/models"
)

const (
	DefaultQueueSize = 256
	sendTimeout      = 30 * time.Second
)

// Notifier renders notification emails and hands them to a single
// background worker. Enqueueing never blocks a request; when the queue is
// full the message is dropped and logged.
type Notifier struct {
	mailer   Mailer
	siteURL  string
	resetTTL time.Duration
	queue    chan Message
	done     chan struct{}
	mu       sync.RWMutex
	closed   bool
	log      *zap.Logger
}

var _ Notifications = (*Notifier)(nil)

func NewNotifier(mailer Mailer, siteURL string, resetTTL time.Duration, queueSize int) *Notifier {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	n := &Notifier{
		mailer:   mailer,
		siteURL:  siteURL,
		resetTTL: resetTTL,
		queue:    make(chan Message, queueSize),
		done:     make(chan struct{}),
		log:      logging.WithComponent("notifier"),
	}
	go n.worker()
	return n
}

func (n *Notifier) enqueue(msg Message) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.log.Warn("Notifier stopped, dropping email", zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return
	}

	select {
	case n.queue <- msg:
	default:
		n.log.Warn("Email queue full, dropping email", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	}
}

func (n *Notifier) worker() {
	defer close(n.done)
	for msg := range n.queue {
		n.deliver(msg)
	}
}

func (n *Notifier) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	err := n.mailer.Send(ctx, msg)
	switch {
	case err == nil:
	case errors.Is(err, ErrMailDisabled):
		n.log.Debug("Mail disabled, email skipped", zap.String("subject", msg.Subject))
	default:
		n.log.Error("Failed to send email", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
	}
}

// Stop closes the queue and waits for queued mail to be delivered or ctx to end.
func (n *Notifier) Stop(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notifier drain: %w", ctx.Err())
	}
}

func (n *Notifier) notify(to, subject, template string, data interface{}) {
	if to == "" {
		return
	}
	body, err := renderEmail(template, data)
	if err != nil {
		n.log.Error("Failed to render email", zap.String("template", template), zap.Error(err))
		return
	}
	n.enqueue(Message{To: to, Subject: subject, HTML: body})
}

func (n *Notifier) PoemApproved(ctx context.Context, author *models.User, poem *models.Poem) {
	n.notify(author.Email, "Your poem has been published", "approved", map[string]string{
		"Name":  author.Name,
		"Title": poem.Title,
		"Link":  fmt.Sprintf("%s/poems/%s", n.siteURL, poem.ID),
	})
}

func (n *Notifier) PoemRejected(ctx context.Context, author *models.User, poem *models.Poem, reason string) {
	n.notify(author.Email, "Update on your poem submission", "rejected", map[string]string{
		"Name":   author.Name,
		"Title":  poem.Title,
		"Reason": reason,
	})
}

func (n *Notifier) PasswordReset(ctx context.Context, user *models.User, token string) {
	n.notify(user.Email, "Reset your Poetica password", "reset", map[string]string{
		"Name":  user.Name,
		"Valid": n.resetTTL.String(),
		"Link":  fmt.Sprintf("%s/reset-password?token=%s", n.siteURL, url.QueryEscape(token)),
	})
}
