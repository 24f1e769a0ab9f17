package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jamboshop/jamboshop/pkg/logger"
	"github.com/jamboshop/jamboshop/pkg/mail"
)

// Notification is a rendered message addressed to a single recipient.
type Notification struct {
	Recipient string
	Subject   string
	Body      string
}

// Dispatcher delivers account notifications. Delivery is best effort: account
// flows never fail because an email could not be sent.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification)
}

// MailDispatcher sends notifications through a Mailer on a background
// goroutine. Failures are logged, never returned to the request path.
type MailDispatcher struct {
	mailer  mail.Mailer
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewMailDispatcher constructs a dispatcher over the given mailer.
func NewMailDispatcher(mailer mail.Mailer, timeout time.Duration) (*MailDispatcher, error) {
	if mailer == nil {
		return nil, errors.New("mail dispatcher: mailer is required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &MailDispatcher{
		mailer:  mailer,
		timeout: timeout,
		log:     logger.WithModule("notifications"),
	}, nil
}

// Dispatch queues the notification for asynchronous delivery. The send runs
// on a detached context so a finished HTTP request cannot cancel it.
func (d *MailDispatcher) Dispatch(_ context.Context, n Notification) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		err := d.mailer.Send(sendCtx, mail.Message{
			To:      []string{n.Recipient},
			Subject: n.Subject,
			Body:    n.Body,
		})
		if err != nil {
			if errors.Is(err, mail.ErrSMTPDisabled) {
				d.log.Debug("email delivery disabled, notification dropped",
					zap.String("subject", n.Subject))
				return
			}
			d.log.Error("failed to deliver notification",
				zap.String("subject", n.Subject),
				zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight deliveries finish, for graceful shutdown and
// deterministic tests.
func (d *MailDispatcher) Wait() {
	d.wg.Wait()
}
