// Package services orchestrates ledger commands: apply the state transition
// in memory first, then persist the snapshot and fan out side effects.
// Persistence and export failures are logged, never propagated; the in-memory
// ledger is the source of truth for the running process.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"paisa/internal/core"
	"paisa/internal/ledger"
	"paisa/internal/notify"
	"paisa/internal/storage"
)

// Export row kinds.
const (
	KindTransaction = "transaction"
	KindActivity    = "activity"
	KindLoan        = "loan"
	KindEMIPayment  = "emi_payment"
	KindSavings     = "savings"
)

var (
	ErrInvalidLoan     = errors.New("invalid loan parameters")
	ErrUnknownLoan     = errors.New("unknown loan")
	ErrUnknownActivity = errors.New("unknown activity")
)

// SnapshotPersister is the slice of the storage layer the service needs.
type SnapshotPersister interface {
	SaveSnapshot(ctx context.Context, key string, snap ledger.Snapshot) error
	Enqueue(ctx context.Context, kind, entityID, payload string) (int64, error)
}

// ExportNudger wakes the export worker after a row is enqueued.
type ExportNudger interface {
	PublishExportNudge(ctx context.Context, rowID int64, kind string) error
}

// LedgerService applies commands to the ledger store and drives the
// persistence and export side effects.
type LedgerService struct {
	store     *ledger.Store
	repo      SnapshotPersister
	nudger    ExportNudger
	scheduler notify.Scheduler
	now       func() time.Time
}

func NewLedgerService(store *ledger.Store, repo SnapshotPersister, nudger ExportNudger, scheduler notify.Scheduler) *LedgerService {
	if scheduler == nil {
		scheduler = notify.LogScheduler{}
	}
	return &LedgerService{
		store:     store,
		repo:      repo,
		nudger:    nudger,
		scheduler: scheduler,
		now:       time.Now,
	}
}

// Snapshot returns the current state tree.
func (s *LedgerService) Snapshot() ledger.Snapshot {
	return s.store.Snapshot()
}

// Breakdown returns the expense breakdown for the current state.
func (s *LedgerService) Breakdown() []core.BreakdownEntry {
	return s.store.Snapshot().Breakdown()
}

// TransactionInput carries the caller-supplied fields of a new transaction.
type TransactionInput struct {
	Type        core.TransactionType
	Amount      core.Money
	Category    string
	Description string
	Date        string
}

// AddTransaction validates and records a transaction, then persists and
// queues it for export.
func (s *LedgerService) AddTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	tx := core.Transaction{
		ID:          uuid.NewString(),
		Type:        in.Type,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
		Timestamp:   s.now(),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	notice := s.newNotification("Transaction added",
		fmt.Sprintf("%s of ₹%.2f recorded in %s", tx.Type, tx.Amount.Rupees(), tx.Category),
		core.NoticeSuccess)

	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Transactions = snap.Transactions.Add(tx)
		snap.Notifications = snap.Notifications.Add(notice)
		return snap
	})

	s.persist(ctx, snap)
	s.export(ctx, KindTransaction, tx.ID, tx)

	slog.InfoContext(ctx, "Transaction added",
		"id", tx.ID, "type", tx.Type, "amount_paise", tx.Amount.Paise, "category", tx.Category)
	return tx, nil
}

// DeleteTransaction removes a transaction. Unknown ids are a no-op.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Transactions = snap.Transactions.Delete(id)
		return snap
	})
	s.persist(ctx, snap)
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// ClearTransactions wipes the transaction ledger.
func (s *LedgerService) ClearTransactions(ctx context.Context) error {
	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Transactions = snap.Transactions.Clear()
		return snap
	})
	s.persist(ctx, snap)
	slog.InfoContext(ctx, "Transaction ledger cleared")
	return nil
}

// SubitemInput carries the caller-supplied fields of an activity line item.
type SubitemInput struct {
	Name     string
	Price    core.Money
	Quantity int64
	Unit     string
}

// ActivityInput carries the caller-supplied fields of a new activity.
type ActivityInput struct {
	Name          string
	Category      string
	Date          string
	PaymentMethod core.PaymentMethod
	Subitems      []SubitemInput
}

// AddActivity validates and records an activity with its line items. The
// total is always derived from the subitems, never trusted from the caller.
func (s *LedgerService) AddActivity(ctx context.Context, in ActivityInput) (core.Activity, error) {
	now := s.now()
	act := core.Activity{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Category:      in.Category,
		Date:          in.Date,
		PaymentMethod: in.PaymentMethod,
		Timestamp:     now,
	}
	for _, si := range in.Subitems {
		act.Subitems = append(act.Subitems, core.Subitem{
			ID:        uuid.NewString(),
			Name:      si.Name,
			Price:     si.Price,
			Quantity:  si.Quantity,
			Unit:      si.Unit,
			Timestamp: now,
		})
	}
	act = act.Recalculated()
	if err := act.Validate(); err != nil {
		return core.Activity{}, fmt.Errorf("validate activity: %w", err)
	}

	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Activities = snap.Activities.Add(act)
		return snap
	})

	s.persist(ctx, snap)
	s.export(ctx, KindActivity, act.ID, act)

	slog.InfoContext(ctx, "Activity added",
		"id", act.ID, "name", act.Name, "total_paise", act.TotalAmount.Paise, "subitems", len(act.Subitems))
	return act, nil
}

// UpdateActivity replaces an existing activity wholesale.
func (s *LedgerService) UpdateActivity(ctx context.Context, act core.Activity) (core.Activity, error) {
	act = act.Recalculated()
	if err := act.Validate(); err != nil {
		return core.Activity{}, fmt.Errorf("validate activity: %w", err)
	}

	found := false
	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		if _, ok := snap.Activities.Find(act.ID); !ok {
			return snap
		}
		found = true
		snap.Activities = snap.Activities.Update(act)
		return snap
	})
	if !found {
		return core.Activity{}, ErrUnknownActivity
	}

	s.persist(ctx, snap)
	s.export(ctx, KindActivity, act.ID, act)

	slog.InfoContext(ctx, "Activity updated", "id", act.ID, "total_paise", act.TotalAmount.Paise)
	return act, nil
}

// DeleteActivity removes an activity. Unknown ids are a no-op.
func (s *LedgerService) DeleteActivity(ctx context.Context, id string) error {
	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Activities = snap.Activities.Delete(id)
		return snap
	})
	s.persist(ctx, snap)
	slog.InfoContext(ctx, "Activity deleted", "id", id)
	return nil
}

// AddSubitem appends a line item to an activity and shifts the totals.
func (s *LedgerService) AddSubitem(ctx context.Context, activityID string, in SubitemInput) (core.Subitem, error) {
	sub := core.Subitem{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Price:     in.Price,
		Quantity:  in.Quantity,
		Unit:      in.Unit,
		Timestamp: s.now(),
	}
	if err := sub.Validate(); err != nil {
		return core.Subitem{}, fmt.Errorf("validate subitem: %w", err)
	}

	found := false
	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		if _, ok := snap.Activities.Find(activityID); !ok {
			return snap
		}
		found = true
		snap.Activities = snap.Activities.AddSubitem(activityID, sub)
		return snap
	})
	if !found {
		return core.Subitem{}, ErrUnknownActivity
	}

	s.persist(ctx, snap)
	slog.InfoContext(ctx, "Subitem added", "activity_id", activityID, "subitem_id", sub.ID)
	return sub, nil
}

// RemoveSubitem drops a line item from an activity. Unknown ids are a no-op.
func (s *LedgerService) RemoveSubitem(ctx context.Context, activityID, subitemID string) error {
	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Activities = snap.Activities.RemoveSubitem(activityID, subitemID)
		return snap
	})
	s.persist(ctx, snap)
	slog.InfoContext(ctx, "Subitem removed", "activity_id", activityID, "subitem_id", subitemID)
	return nil
}

// LoanInput carries the caller-supplied fields of a new loan.
type LoanInput struct {
	LenderName        string
	LoanType          string
	Description       string
	Principal         core.Money
	AnnualRatePercent float64
	TenureMonths      float64
	StartDate         time.Time
}

// AddLoan builds the amortization schedule and records the loan.
func (s *LedgerService) AddLoan(ctx context.Context, in LoanInput) (core.Loan, error) {
	tenure := core.NormalizeTenure(in.TenureMonths)
	loan, ok := core.NewLoan(uuid.NewString(), in.LenderName, in.LoanType, in.Description,
		in.Principal, in.AnnualRatePercent, tenure, in.StartDate, s.now())
	if !ok {
		return core.Loan{}, ErrInvalidLoan
	}

	notice := s.newNotification("Loan added",
		fmt.Sprintf("%s: EMI ₹%.2f for %d months", loan.LenderName, loan.EMIAmount.Rupees(), loan.TenureMonths),
		core.NoticeInfo)

	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Loans = snap.Loans.Add(loan)
		snap.Notifications = snap.Notifications.Add(notice)
		return snap
	})

	s.persist(ctx, snap)
	s.export(ctx, KindLoan, loan.ID, loan)

	slog.InfoContext(ctx, "Loan added",
		"id", loan.ID, "principal_paise", loan.PrincipalAmount.Paise,
		"emi_paise", loan.EMIAmount.Paise, "tenure_months", loan.TenureMonths)
	return loan, nil
}

// PayEMI marks one scheduled installment as paid. Paying an already-paid or
// unknown month changes nothing and is not an error.
func (s *LedgerService) PayEMI(ctx context.Context, loanID string, month int) (core.Loan, error) {
	now := s.now()
	var completed bool
	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		updated, changed := snap.Loans.Pay(loanID, month, now)
		if !changed {
			return snap
		}
		snap.Loans = updated
		if loan, ok := updated.Find(loanID); ok && loan.Status == core.LoanCompleted {
			completed = true
			snap.Notifications = snap.Notifications.Add(s.newNotification("Loan repaid",
				fmt.Sprintf("%s is fully repaid", loan.LenderName), core.NoticeSuccess))
		}
		return snap
	})

	loan, ok := snap.Loans.Find(loanID)
	if !ok {
		return core.Loan{}, ErrUnknownLoan
	}

	s.persist(ctx, snap)
	s.export(ctx, KindEMIPayment, loanID, map[string]any{
		"loan_id": loanID,
		"month":   month,
		"paid_at": now,
	})

	slog.InfoContext(ctx, "EMI payment recorded",
		"loan_id", loanID, "month", month, "completed", completed)
	return loan, nil
}

// DeleteLoan removes a loan. Unknown ids are a no-op.
func (s *LedgerService) DeleteLoan(ctx context.Context, id string) error {
	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Loans = snap.Loans.Delete(id)
		return snap
	})
	s.persist(ctx, snap)
	slog.InfoContext(ctx, "Loan deleted", "id", id)
	return nil
}

// MarkOverdueLoans sweeps every active loan and flags the ones with a
// past-due unpaid installment. Returns the ids that flipped to overdue.
func (s *LedgerService) MarkOverdueLoans(ctx context.Context) ([]string, error) {
	now := s.now()
	var flagged []string
	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		updated, ids := snap.Loans.MarkOverdue(now)
		snap.Loans = updated
		flagged = ids
		for _, id := range ids {
			if loan, ok := updated.Find(id); ok {
				snap.Notifications = snap.Notifications.Add(s.newNotification("EMI overdue",
					fmt.Sprintf("%s has an unpaid installment past its due date", loan.LenderName),
					core.NoticeWarning))
			}
		}
		return snap
	})

	if len(flagged) > 0 {
		s.persist(ctx, snap)
		slog.WarnContext(ctx, "Loans marked overdue", "count", len(flagged))
	}
	return flagged, nil
}

// SavingsInput carries the caller-supplied fields of a savings target.
type SavingsInput struct {
	Purpose         string
	Amount          core.Money
	TargetDate      time.Time
	ReminderGapDays core.SavingsReminderGap
}

// AddSavingsTarget records a savings goal and schedules its first reminder.
// A scheduling failure is logged and the target is kept without a handle.
func (s *LedgerService) AddSavingsTarget(ctx context.Context, in SavingsInput) (core.SavingsTarget, error) {
	now := s.now()
	target := core.SavingsTarget{
		ID:              uuid.NewString(),
		Purpose:         in.Purpose,
		Amount:          in.Amount,
		TargetDate:      in.TargetDate,
		ReminderGapDays: in.ReminderGapDays,
		LastUpdated:     now,
	}
	if err := target.Validate(); err != nil {
		return core.SavingsTarget{}, fmt.Errorf("validate savings target: %w", err)
	}

	target.NotificationHandle = s.scheduleReminder(ctx, target, now)

	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Savings = snap.Savings.Add(target)
		return snap
	})

	s.persist(ctx, snap)
	s.export(ctx, KindSavings, target.ID, target)

	slog.InfoContext(ctx, "Savings target added",
		"id", target.ID, "purpose", target.Purpose, "amount_paise", target.Amount.Paise)
	return target, nil
}

// UpdateSavingsTarget replaces a savings goal and reschedules its reminder.
func (s *LedgerService) UpdateSavingsTarget(ctx context.Context, target core.SavingsTarget) (core.SavingsTarget, error) {
	if err := target.Validate(); err != nil {
		return core.SavingsTarget{}, fmt.Errorf("validate savings target: %w", err)
	}

	now := s.now()
	prev, exists := s.store.Snapshot().Savings.Find(target.ID)
	if !exists {
		return core.SavingsTarget{}, fmt.Errorf("unknown savings target %q", target.ID)
	}

	s.cancelReminder(ctx, prev.NotificationHandle)
	target.LastUpdated = now
	target.NotificationHandle = s.scheduleReminder(ctx, target, now)

	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Savings = snap.Savings.Update(target)
		return snap
	})

	s.persist(ctx, snap)
	s.export(ctx, KindSavings, target.ID, target)

	slog.InfoContext(ctx, "Savings target updated", "id", target.ID)
	return target, nil
}

// RemoveSavingsTarget drops a savings goal and cancels its pending reminder.
// Unknown ids are a no-op.
func (s *LedgerService) RemoveSavingsTarget(ctx context.Context, id string) error {
	if prev, ok := s.store.Snapshot().Savings.Find(id); ok {
		s.cancelReminder(ctx, prev.NotificationHandle)
	}

	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Savings = snap.Savings.Remove(id)
		return snap
	})
	s.persist(ctx, snap)
	slog.InfoContext(ctx, "Savings target removed", "id", id)
	return nil
}

// RecordSavingsReminder stamps a target after the reminder worker fired its
// nudge, so the next one waits a full gap again.
func (s *LedgerService) RecordSavingsReminder(ctx context.Context, id string, at time.Time) {
	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		target, ok := snap.Savings.Find(id)
		if !ok {
			return snap
		}
		target.LastReminderAt = at
		snap.Savings = snap.Savings.Update(target)
		return snap
	})
	s.persist(ctx, snap)
}

// MarkNotificationRead marks one notification as read. Already-read and
// unknown ids are a no-op.
func (s *LedgerService) MarkNotificationRead(ctx context.Context, id string) error {
	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Notifications = snap.Notifications.MarkRead(id)
		return snap
	})
	s.persist(ctx, snap)
	return nil
}

// MarkAllNotificationsRead clears the unread counter.
func (s *LedgerService) MarkAllNotificationsRead(ctx context.Context) error {
	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Notifications = snap.Notifications.MarkAllRead()
		return snap
	})
	s.persist(ctx, snap)
	return nil
}

// AddNotification records an in-app notification directly. Used by the
// workers to surface reminder nudges.
func (s *LedgerService) AddNotification(ctx context.Context, title, message string, typ core.NotificationType) core.Notification {
	notice := s.newNotification(title, message, typ)
	snap := s.store.Update(func(snap ledger.Snapshot) ledger.Snapshot {
		snap.Notifications = snap.Notifications.Add(notice)
		return snap
	})
	s.persist(ctx, snap)
	return notice
}

func (s *LedgerService) newNotification(title, message string, typ core.NotificationType) core.Notification {
	return core.Notification{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Type:      typ,
		Timestamp: s.now(),
	}
}

func (s *LedgerService) scheduleReminder(ctx context.Context, target core.SavingsTarget, now time.Time) string {
	fireAt := now.AddDate(0, 0, int(target.ReminderGapDays))
	handle, err := s.scheduler.Schedule(ctx, fireAt,
		"Savings reminder",
		fmt.Sprintf("Put something aside for %s", target.Purpose))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to schedule savings reminder",
			"target_id", target.ID, "error", err)
		return ""
	}
	return handle
}

func (s *LedgerService) cancelReminder(ctx context.Context, handle string) {
	if handle == "" {
		return
	}
	if err := s.scheduler.Cancel(ctx, handle); err != nil {
		slog.ErrorContext(ctx, "Failed to cancel savings reminder", "handle", handle, "error", err)
	}
}

// persist writes the snapshot through to SQLite. Failures are logged; the
// in-memory state has already advanced and stays authoritative.
func (s *LedgerService) persist(ctx context.Context, snap ledger.Snapshot) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveSnapshot(ctx, storage.SnapshotKey, snap); err != nil {
		slog.ErrorContext(ctx, "Failed to persist snapshot", "error", err)
	}
}

// export enqueues a durable export row and nudges the worker. Either step
// may fail without affecting the command.
func (s *LedgerService) export(ctx context.Context, kind, entityID string, payload any) {
	if s.repo == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal export payload", "kind", kind, "error", err)
		return
	}
	rowID, err := s.repo.Enqueue(ctx, kind, entityID, string(body))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to enqueue export row",
			"kind", kind, "entity_id", entityID, "error", err)
		return
	}
	if s.nudger == nil {
		slog.WarnContext(ctx, "AMQP client not available, export row waits for the sweep", "row_id", rowID)
		return
	}
	if err := s.nudger.PublishExportNudge(ctx, rowID, kind); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export nudge",
			"row_id", rowID, "error", err)
	}
}
