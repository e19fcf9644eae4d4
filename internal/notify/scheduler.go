// Package notify defines the outbound port for scheduling local reminders.
// Delivery itself is out of scope; the core only hands a fire time and a
// message to whatever notifier the platform provides and keeps the opaque
// handle for later cancellation.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"paisa/internal/amqp"
)

// Scheduler schedules and cancels reminders. Implementations may fail;
// callers log and move on, a reminder is never worth blocking a ledger
// write for.
type Scheduler interface {
	// Schedule requests a reminder at fireAt and returns an opaque handle.
	Schedule(ctx context.Context, fireAt time.Time, title, body string) (string, error)

	// Cancel withdraws a previously scheduled reminder. Unknown handles
	// are ignored.
	Cancel(ctx context.Context, handle string) error
}

// AMQPScheduler publishes reminder requests to the notifier queue.
type AMQPScheduler struct {
	client *amqp.Client
}

func NewAMQPScheduler(client *amqp.Client) *AMQPScheduler {
	return &AMQPScheduler{client: client}
}

func (s *AMQPScheduler) Schedule(ctx context.Context, fireAt time.Time, title, body string) (string, error) {
	handle := uuid.NewString()
	msg := &amqp.ReminderMessage{
		Handle:    handle,
		Title:     title,
		Body:      body,
		FireAt:    fireAt,
		Timestamp: time.Now(),
	}
	if err := s.client.PublishReminder(ctx, msg); err != nil {
		return "", err
	}
	return handle, nil
}

func (s *AMQPScheduler) Cancel(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	return s.client.PublishReminderCancel(ctx, handle)
}

// LogScheduler is the fallback when no notifier queue is configured: it
// records the request and pretends scheduling succeeded, so the rest of
// the system behaves identically with notifications disabled.
type LogScheduler struct{}

func (LogScheduler) Schedule(ctx context.Context, fireAt time.Time, title, body string) (string, error) {
	handle := uuid.NewString()
	slog.InfoContext(ctx, "Reminder scheduling disabled, logging only",
		"handle", handle, "fire_at", fireAt, "title", title)
	return handle, nil
}

func (LogScheduler) Cancel(ctx context.Context, handle string) error {
	slog.InfoContext(ctx, "Reminder cancel (logging only)", "handle", handle)
	return nil
}
