package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"paisa/internal/core"
	"paisa/internal/ledger"
)

// ReminderLedger is the slice of the service layer the reminder worker
// drives: the overdue sweep plus the savings reminder bookkeeping.
type ReminderLedger interface {
	MarkOverdueLoans(ctx context.Context) ([]string, error)
	Snapshot() ledger.Snapshot
	AddNotification(ctx context.Context, title, message string, typ core.NotificationType) core.Notification
	RecordSavingsReminder(ctx context.Context, id string, at time.Time)
}

// ReminderWorker runs the daily housekeeping pass on a cron schedule:
// flag overdue loans and surface due savings reminders.
type ReminderWorker struct {
	ledger ReminderLedger
	spec   string
	cron   *cron.Cron
	now    func() time.Time
}

func NewReminderWorker(ledger ReminderLedger, cronSpec string) *ReminderWorker {
	return &ReminderWorker{
		ledger: ledger,
		spec:   cronSpec,
		now:    time.Now,
	}
}

// Start registers the sweep on the cron schedule and begins running it.
func (w *ReminderWorker) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(w.spec, func() {
		w.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("register reminder schedule %q: %w", w.spec, err)
	}
	w.cron = c
	c.Start()

	slog.InfoContext(ctx, "Reminder worker started", "schedule", w.spec)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (w *ReminderWorker) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	slog.Info("Reminder worker stopped")
}

// RunOnce performs a single housekeeping pass.
func (w *ReminderWorker) RunOnce(ctx context.Context) {
	now := w.now()

	flagged, err := w.ledger.MarkOverdueLoans(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Overdue sweep failed", "error", err)
	} else if len(flagged) > 0 {
		slog.InfoContext(ctx, "Overdue sweep flagged loans", "count", len(flagged))
	}

	w.sweepSavings(ctx, now)
}

func (w *ReminderWorker) sweepSavings(ctx context.Context, now time.Time) {
	for _, target := range w.ledger.Snapshot().Savings.Targets {
		if !target.ReminderDue(now) {
			continue
		}

		w.ledger.AddNotification(ctx, "Savings reminder",
			fmt.Sprintf("Put something aside for %s (goal ₹%.0f)", target.Purpose, target.Amount.Rupees()),
			core.NoticeInfo)
		w.ledger.RecordSavingsReminder(ctx, target.ID, now)

		slog.InfoContext(ctx, "Savings reminder fired",
			"target_id", target.ID, "purpose", target.Purpose, "gap_days", int(target.ReminderGapDays))
	}
}
