package worker

import (
	"context"
	"testing"
	"time"

	"paisa/internal/core"
	"paisa/internal/ledger"
	"paisa/internal/notify"
	"paisa/internal/services"
)

func newReminderFixture(t *testing.T) (*services.LedgerService, *ReminderWorker, time.Time) {
	t.Helper()
	svc := services.NewLedgerService(ledger.NewStore(ledger.Snapshot{}), nil, nil, notify.LogScheduler{})
	w := NewReminderWorker(svc, "0 9 * * *")
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }
	return svc, w, now
}

func TestRunOnce_FiresDueSavingsReminder(t *testing.T) {
	svc, w, now := newReminderFixture(t)
	ctx := context.Background()

	target, err := svc.AddSavingsTarget(ctx, services.SavingsInput{
		Purpose:         "Bike",
		Amount:          core.RupeesToMoney(50000),
		TargetDate:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		ReminderGapDays: core.RemindDaily,
	})
	if err != nil {
		t.Fatalf("AddSavingsTarget: %v", err)
	}

	w.RunOnce(ctx)

	got, ok := svc.Snapshot().Savings.Find(target.ID)
	if !ok {
		t.Fatalf("target vanished")
	}
	if !got.LastReminderAt.Equal(now) {
		t.Fatalf("lastReminderAt = %v, want %v", got.LastReminderAt, now)
	}

	found := false
	for _, n := range svc.Snapshot().Notifications.Notifications {
		if n.Title == "Savings reminder" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a savings reminder notification")
	}

	// A second pass inside the gap stays quiet.
	before := len(svc.Snapshot().Notifications.Notifications)
	w.RunOnce(ctx)
	if got := len(svc.Snapshot().Notifications.Notifications); got != before {
		t.Fatalf("reminder fired again within the gap: %d -> %d notifications", before, got)
	}
}

func TestRunOnce_RespectsTwoDayGap(t *testing.T) {
	svc, w, now := newReminderFixture(t)
	ctx := context.Background()

	_, err := svc.AddSavingsTarget(ctx, services.SavingsInput{
		Purpose:         "Trip",
		Amount:          core.RupeesToMoney(20000),
		TargetDate:      time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		ReminderGapDays: core.RemindTwoDays,
	})
	if err != nil {
		t.Fatalf("AddSavingsTarget: %v", err)
	}

	w.RunOnce(ctx) // first reminder fires immediately

	// One day later: not due yet for a two-day gap.
	w.now = func() time.Time { return now.AddDate(0, 0, 1) }
	before := len(svc.Snapshot().Notifications.Notifications)
	w.RunOnce(ctx)
	if got := len(svc.Snapshot().Notifications.Notifications); got != before {
		t.Fatalf("two-day reminder fired after one day")
	}

	// Two days later: due again.
	w.now = func() time.Time { return now.AddDate(0, 0, 2) }
	w.RunOnce(ctx)
	if got := len(svc.Snapshot().Notifications.Notifications); got != before+1 {
		t.Fatalf("two-day reminder did not fire after two days")
	}
}

func TestRunOnce_MarksOverdueLoans(t *testing.T) {
	svc, w, _ := newReminderFixture(t)
	ctx := context.Background()

	loan, err := svc.AddLoan(ctx, services.LoanInput{
		LenderName:        "Old Bank",
		LoanType:          "personal",
		Principal:         core.RupeesToMoney(12000),
		AnnualRatePercent: 0,
		TenureMonths:      3,
		StartDate:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("AddLoan: %v", err)
	}

	w.RunOnce(ctx)

	got, ok := svc.Snapshot().Loans.Find(loan.ID)
	if !ok {
		t.Fatalf("loan vanished")
	}
	if got.Status != core.LoanOverdue {
		t.Fatalf("status = %s, want overdue", got.Status)
	}
}
