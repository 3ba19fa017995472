// Package notify turns loan events from the queue into emails.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/event"
	"github.com/oksasatya/go-library-management/pkg/mailer"
	"github.com/oksasatya/go-library-management/pkg/mailer/templates"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrPermanent marks messages that will never succeed and must not be requeued.
var ErrPermanent = errors.New("permanent notification failure")

const sendTimeout = 15 * time.Second

type Sender interface {
	Send(ctx context.Context, job mailer.EmailJob) error
}

// Dispatcher handles one delivery at a time. After a transient failure it
// waits RetryDelay before requeueing, so an unreachable mail provider does
// not spin the same message through the queue.
type Dispatcher struct {
	Sender         Sender
	AppName        string
	LibrarianEmail string
	RetryDelay     time.Duration
	Logger         *logrus.Logger
}

// Handle decodes one message and sends the email it calls for. Events that
// need no email are acknowledged silently.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) error {
	var evt event.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrPermanent, err)
	}

	job, ok, err := d.jobFor(evt)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPermanent, evt.Type, err)
	}
	if !ok {
		d.log().WithField("type", evt.Type).Debug("event needs no email")
		return nil
	}

	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := d.Sender.Send(c, job); err != nil {
		return fmt.Errorf("send %s to %s: %w", job.Template, job.To, err)
	}
	d.log().WithFields(logrus.Fields{"type": evt.Type, "to": job.To, "book_id": evt.BookID}).Info("notification sent")
	return nil
}

func (d *Dispatcher) jobFor(evt event.Event) (mailer.EmailJob, bool, error) {
	base := []templates.Option{
		templates.WithTime(evt.OccurredAt),
		templates.WithBook(evt.BookTitle, evt.BookAuthor),
	}
	switch evt.Type {
	case event.LoanCreated:
		data := templates.NewEmailData(d.AppName, templates.LoanReceipt, evt.UserName, evt.UserEmail,
			append(base, templates.WithLoan(evt.LoanID, evt.DueAt, evt.Penalty))...)
		job, err := mailer.NewJob(evt.UserEmail, templates.LoanReceipt, data)
		return job, err == nil, err
	case event.LoanReturned:
		data := templates.NewEmailData(d.AppName, templates.LoanReturned, evt.UserName, evt.UserEmail,
			append(base, templates.WithLoan(evt.LoanID, nil, ""))...)
		job, err := mailer.NewJob(evt.UserEmail, templates.LoanReturned, data)
		return job, err == nil, err
	case event.BookLowStock:
		if d.LibrarianEmail == "" {
			return mailer.EmailJob{}, false, nil
		}
		data := templates.NewEmailData(d.AppName, templates.LowStockAlert, "", d.LibrarianEmail,
			append(base, templates.WithStock(evt.AvailableCopies, evt.TotalCopies))...)
		job, err := mailer.NewJob(d.LibrarianEmail, templates.LowStockAlert, data)
		return job, err == nil, err
	}
	return mailer.EmailJob{}, false, nil
}

// Run handles deliveries until msgs is closed or ctx is done. Permanent
// failures are dropped, anything else is requeued after RetryDelay.
func (d *Dispatcher) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			d.settle(ctx, msg, d.Handle(ctx, msg.Body))
		}
	}
}

func (d *Dispatcher) settle(ctx context.Context, msg amqp.Delivery, err error) {
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, ErrPermanent):
		d.log().WithError(err).Warn("dropping message")
		_ = msg.Nack(false, false)
	default:
		d.log().WithError(err).WithField("retry_in", d.RetryDelay).Error("notification failed, requeueing")
		d.backoff(ctx)
		_ = msg.Nack(false, true)
	}
}

// backoff sleeps for RetryDelay or until ctx is done.
func (d *Dispatcher) backoff(ctx context.Context) {
	if d.RetryDelay <= 0 {
		return
	}
	t := time.NewTimer(d.RetryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (d *Dispatcher) log() logrus.FieldLogger {
	if d.Logger == nil {
		return logrus.StandardLogger()
	}
	return d.Logger
}
