package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"paisa/internal/core"
	"paisa/internal/ledger"
	"paisa/internal/notify"
)

type fakeRepo struct {
	saveErr  error
	saves    int
	enqueued []string // kinds, in order
	nextRow  int64
}

func (f *fakeRepo) SaveSnapshot(ctx context.Context, key string, snap ledger.Snapshot) error {
	f.saves++
	return f.saveErr
}

func (f *fakeRepo) Enqueue(ctx context.Context, kind, entityID, payload string) (int64, error) {
	f.enqueued = append(f.enqueued, kind)
	f.nextRow++
	return f.nextRow, nil
}

type fakeNudger struct {
	rows []int64
}

func (f *fakeNudger) PublishExportNudge(ctx context.Context, rowID int64, kind string) error {
	f.rows = append(f.rows, rowID)
	return nil
}

type fakeScheduler struct {
	scheduleErr error
	scheduled   int
	cancelled   []string
}

func (f *fakeScheduler) Schedule(ctx context.Context, fireAt time.Time, title, body string) (string, error) {
	if f.scheduleErr != nil {
		return "", f.scheduleErr
	}
	f.scheduled++
	return "handle-1", nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, handle string) error {
	f.cancelled = append(f.cancelled, handle)
	return nil
}

func newTestService(repo *fakeRepo, nudger *fakeNudger, sched *fakeScheduler) *LedgerService {
	var np ExportNudger
	if nudger != nil {
		np = nudger
	}
	var sp notify.Scheduler
	if sched != nil {
		sp = sched
	}
	svc := NewLedgerService(ledger.NewStore(ledger.Snapshot{}), repo, np, sp)
	svc.now = func() time.Time { return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestAddTransaction(t *testing.T) {
	repo := &fakeRepo{}
	nudger := &fakeNudger{}
	svc := newTestService(repo, nudger, nil)
	ctx := context.Background()

	tx, err := svc.AddTransaction(ctx, TransactionInput{
		Type:        core.Income,
		Amount:      core.RupeesToMoney(5000),
		Category:    "Salary",
		Description: "January",
		Date:        "2026-01-15",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if tx.ID == "" {
		t.Fatalf("expected generated id")
	}

	snap := svc.Snapshot()
	if snap.Transactions.Balance.Rupees() != 5000 {
		t.Fatalf("balance = %v, want 5000", snap.Transactions.Balance.Rupees())
	}
	if repo.saves == 0 {
		t.Fatalf("expected snapshot persisted")
	}
	if len(repo.enqueued) != 1 || repo.enqueued[0] != KindTransaction {
		t.Fatalf("enqueued = %v, want [%s]", repo.enqueued, KindTransaction)
	}
	if len(nudger.rows) != 1 {
		t.Fatalf("expected one export nudge, got %d", len(nudger.rows))
	}
	if snap.Notifications.UnreadCount != 1 {
		t.Fatalf("expected one unread notification, got %d", snap.Notifications.UnreadCount)
	}
}

func TestAddTransaction_InvalidAmount(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil, nil)

	_, err := svc.AddTransaction(context.Background(), TransactionInput{
		Type:     core.Expense,
		Amount:   core.Money{Paise: 0},
		Category: "Food",
		Date:     "2026-01-15",
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if len(svc.Snapshot().Transactions.Transactions) != 0 {
		t.Fatalf("invalid transaction must not be recorded")
	}
}

func TestAddTransaction_PersistFailureDoesNotFailCommand(t *testing.T) {
	repo := &fakeRepo{saveErr: errors.New("disk full")}
	svc := newTestService(repo, nil, nil)

	_, err := svc.AddTransaction(context.Background(), TransactionInput{
		Type:     core.Expense,
		Amount:   core.RupeesToMoney(100),
		Category: "Food",
		Date:     "2026-01-15",
	})
	if err != nil {
		t.Fatalf("persistence failure must not fail the command: %v", err)
	}
	if len(svc.Snapshot().Transactions.Transactions) != 1 {
		t.Fatalf("in-memory state must advance despite persistence failure")
	}
}

func TestDeleteTransaction_UnknownID(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil, nil)
	if err := svc.DeleteTransaction(context.Background(), "nope"); err != nil {
		t.Fatalf("unknown id must be a no-op, got %v", err)
	}
}

func TestAddActivity_TotalDerivedFromSubitems(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil, nil)

	act, err := svc.AddActivity(context.Background(), ActivityInput{
		Name:          "Groceries",
		Category:      "Food",
		Date:          "2026-01-15",
		PaymentMethod: core.PayUPI,
		Subitems: []SubitemInput{
			{Name: "Rice", Price: core.RupeesToMoney(80), Quantity: 2},
			{Name: "Milk", Price: core.RupeesToMoney(30), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("AddActivity: %v", err)
	}
	if act.TotalAmount.Rupees() != 190 {
		t.Fatalf("total = %v, want 190", act.TotalAmount.Rupees())
	}
	if svc.Snapshot().Activities.TotalSpent.Rupees() != 190 {
		t.Fatalf("totalSpent = %v, want 190", svc.Snapshot().Activities.TotalSpent.Rupees())
	}
}

func TestUpdateActivity_Unknown(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil, nil)

	_, err := svc.UpdateActivity(context.Background(), core.Activity{
		ID:            "ghost",
		Name:          "x",
		Category:      "y",
		Date:          "2026-01-15",
		PaymentMethod: core.PayCash,
		Subitems:      []core.Subitem{{ID: "s", Name: "item", Price: core.RupeesToMoney(10), Quantity: 1}},
	})
	if !errors.Is(err, ErrUnknownActivity) {
		t.Fatalf("err = %v, want ErrUnknownActivity", err)
	}
}

func TestAddLoan_NormalizesTenure(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, nil, nil)

	loan, err := svc.AddLoan(context.Background(), LoanInput{
		LenderName:        "HDFC",
		LoanType:          "personal",
		Principal:         core.RupeesToMoney(100000),
		AnnualRatePercent: 10,
		TenureMonths:      11.6,
		StartDate:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("AddLoan: %v", err)
	}
	if loan.TenureMonths != 12 {
		t.Fatalf("tenure = %d, want 12", loan.TenureMonths)
	}
	if loan.EMIAmount.Rupees() != 8792 {
		t.Fatalf("emi = %v, want 8792", loan.EMIAmount.Rupees())
	}
	if len(repo.enqueued) != 1 || repo.enqueued[0] != KindLoan {
		t.Fatalf("enqueued = %v, want [%s]", repo.enqueued, KindLoan)
	}
}

func TestAddLoan_Invalid(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil, nil)

	_, err := svc.AddLoan(context.Background(), LoanInput{
		LenderName:        "HDFC",
		Principal:         core.Money{},
		AnnualRatePercent: 10,
		TenureMonths:      12,
		StartDate:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrInvalidLoan) {
		t.Fatalf("err = %v, want ErrInvalidLoan", err)
	}
}

func TestPayEMI(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, nil, nil)
	ctx := context.Background()

	loan, err := svc.AddLoan(ctx, LoanInput{
		LenderName:        "Friend",
		LoanType:          "personal",
		Principal:         core.RupeesToMoney(3000),
		AnnualRatePercent: 0,
		TenureMonths:      3,
		StartDate:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("AddLoan: %v", err)
	}

	got, err := svc.PayEMI(ctx, loan.ID, 1)
	if err != nil {
		t.Fatalf("PayEMI: %v", err)
	}
	if got.PaidAmount.Rupees() != 1000 {
		t.Fatalf("paid = %v, want 1000", got.PaidAmount.Rupees())
	}

	// Paying the same month again changes nothing.
	again, err := svc.PayEMI(ctx, loan.ID, 1)
	if err != nil {
		t.Fatalf("PayEMI again: %v", err)
	}
	if again.PaidAmount.Rupees() != 1000 {
		t.Fatalf("repeat pay shifted totals: paid = %v", again.PaidAmount.Rupees())
	}

	if _, err := svc.PayEMI(ctx, "ghost", 1); !errors.Is(err, ErrUnknownLoan) {
		t.Fatalf("err = %v, want ErrUnknownLoan", err)
	}

	// Finish the loan; a completion notification appears.
	if _, err := svc.PayEMI(ctx, loan.ID, 2); err != nil {
		t.Fatalf("PayEMI month 2: %v", err)
	}
	final, err := svc.PayEMI(ctx, loan.ID, 3)
	if err != nil {
		t.Fatalf("PayEMI month 3: %v", err)
	}
	if final.Status != core.LoanCompleted {
		t.Fatalf("status = %s, want completed", final.Status)
	}

	found := false
	for _, n := range svc.Snapshot().Notifications.Notifications {
		if n.Title == "Loan repaid" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a loan-repaid notification")
	}
}

func TestMarkOverdueLoans(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil, nil)
	ctx := context.Background()

	// Loan started a year ago: every installment is past due.
	_, err := svc.AddLoan(ctx, LoanInput{
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

	flagged, err := svc.MarkOverdueLoans(ctx)
	if err != nil {
		t.Fatalf("MarkOverdueLoans: %v", err)
	}
	if len(flagged) != 1 {
		t.Fatalf("flagged = %d loans, want 1", len(flagged))
	}

	// Second sweep finds nothing new.
	flagged, err = svc.MarkOverdueLoans(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(flagged) != 0 {
		t.Fatalf("second sweep flagged %d loans, want 0", len(flagged))
	}
}

func TestAddSavingsTarget_SchedulesReminder(t *testing.T) {
	sched := &fakeScheduler{}
	svc := newTestService(&fakeRepo{}, nil, sched)

	target, err := svc.AddSavingsTarget(context.Background(), SavingsInput{
		Purpose:         "Bike",
		Amount:          core.RupeesToMoney(50000),
		TargetDate:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		ReminderGapDays: core.RemindDaily,
	})
	if err != nil {
		t.Fatalf("AddSavingsTarget: %v", err)
	}
	if target.NotificationHandle != "handle-1" {
		t.Fatalf("handle = %q, want handle-1", target.NotificationHandle)
	}
	if sched.scheduled != 1 {
		t.Fatalf("scheduled = %d, want 1", sched.scheduled)
	}
}

func TestAddSavingsTarget_SchedulerFailureKeepsTarget(t *testing.T) {
	sched := &fakeScheduler{scheduleErr: errors.New("notifier down")}
	svc := newTestService(&fakeRepo{}, nil, sched)

	target, err := svc.AddSavingsTarget(context.Background(), SavingsInput{
		Purpose:         "Trip",
		Amount:          core.RupeesToMoney(20000),
		TargetDate:      time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		ReminderGapDays: core.RemindTwoDays,
	})
	if err != nil {
		t.Fatalf("scheduler failure must not fail the command: %v", err)
	}
	if target.NotificationHandle != "" {
		t.Fatalf("handle = %q, want empty on scheduling failure", target.NotificationHandle)
	}
	if len(svc.Snapshot().Savings.Targets) != 1 {
		t.Fatalf("target must be recorded despite scheduling failure")
	}
}

func TestUpdateSavingsTarget_CancelsPreviousReminder(t *testing.T) {
	sched := &fakeScheduler{}
	svc := newTestService(&fakeRepo{}, nil, sched)
	ctx := context.Background()

	target, err := svc.AddSavingsTarget(ctx, SavingsInput{
		Purpose:         "Bike",
		Amount:          core.RupeesToMoney(50000),
		TargetDate:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		ReminderGapDays: core.RemindDaily,
	})
	if err != nil {
		t.Fatalf("AddSavingsTarget: %v", err)
	}

	target.Amount = core.RupeesToMoney(60000)
	if _, err := svc.UpdateSavingsTarget(ctx, target); err != nil {
		t.Fatalf("UpdateSavingsTarget: %v", err)
	}
	if len(sched.cancelled) != 1 || sched.cancelled[0] != "handle-1" {
		t.Fatalf("cancelled = %v, want [handle-1]", sched.cancelled)
	}
	if sched.scheduled != 2 {
		t.Fatalf("scheduled = %d, want 2", sched.scheduled)
	}
}

func TestRemoveSavingsTarget_CancelsReminder(t *testing.T) {
	sched := &fakeScheduler{}
	svc := newTestService(&fakeRepo{}, nil, sched)
	ctx := context.Background()

	target, err := svc.AddSavingsTarget(ctx, SavingsInput{
		Purpose:         "Bike",
		Amount:          core.RupeesToMoney(50000),
		TargetDate:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		ReminderGapDays: core.RemindDaily,
	})
	if err != nil {
		t.Fatalf("AddSavingsTarget: %v", err)
	}

	if err := svc.RemoveSavingsTarget(ctx, target.ID); err != nil {
		t.Fatalf("RemoveSavingsTarget: %v", err)
	}
	if len(sched.cancelled) != 1 {
		t.Fatalf("expected reminder cancelled on removal")
	}
	if len(svc.Snapshot().Savings.Targets) != 0 {
		t.Fatalf("target not removed")
	}
}

func TestRecordSavingsReminder(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil, &fakeScheduler{})
	ctx := context.Background()

	target, err := svc.AddSavingsTarget(ctx, SavingsInput{
		Purpose:         "Bike",
		Amount:          core.RupeesToMoney(50000),
		TargetDate:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		ReminderGapDays: core.RemindDaily,
	})
	if err != nil {
		t.Fatalf("AddSavingsTarget: %v", err)
	}

	at := time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC)
	svc.RecordSavingsReminder(ctx, target.ID, at)

	got, ok := svc.Snapshot().Savings.Find(target.ID)
	if !ok {
		t.Fatalf("target vanished")
	}
	if !got.LastReminderAt.Equal(at) {
		t.Fatalf("lastReminderAt = %v, want %v", got.LastReminderAt, at)
	}
	if got.ReminderDue(at.Add(time.Hour)) {
		t.Fatalf("reminder must not be due an hour after firing")
	}
	if !got.ReminderDue(at.Add(25 * time.Hour)) {
		t.Fatalf("daily reminder must be due after a full day")
	}
}

func TestMarkNotifications(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil, nil)
	ctx := context.Background()

	n1 := svc.AddNotification(ctx, "One", "first", core.NoticeInfo)
	svc.AddNotification(ctx, "Two", "second", core.NoticeInfo)

	if got := svc.Snapshot().Notifications.UnreadCount; got != 2 {
		t.Fatalf("unread = %d, want 2", got)
	}

	if err := svc.MarkNotificationRead(ctx, n1.ID); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if got := svc.Snapshot().Notifications.UnreadCount; got != 1 {
		t.Fatalf("unread = %d, want 1", got)
	}

	if err := svc.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	if got := svc.Snapshot().Notifications.UnreadCount; got != 0 {
		t.Fatalf("unread = %d, want 0", got)
	}
}
