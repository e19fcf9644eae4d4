package core

import (
	"errors"
	"strings"
	"time"
)

// SavingsReminderGap is the spacing between savings reminders, in days.
// The forms only offer daily and every-other-day reminders.
type SavingsReminderGap int

const (
	RemindDaily    SavingsReminderGap = 1
	RemindTwoDays  SavingsReminderGap = 2
)

// SavingsTarget is a goal the user wants to put money aside for, with a
// periodic reminder. NotificationHandle is the opaque token returned by the
// scheduler; it is stored only so a later edit can cancel the pending
// reminder.
type SavingsTarget struct {
	ID                 string             `json:"id"`
	Purpose            string             `json:"purpose"`
	Amount             Money              `json:"amount"`
	TargetDate         time.Time          `json:"targetDate"`
	ReminderGapDays    SavingsReminderGap `json:"reminderGapDays"`
	LastUpdated        time.Time          `json:"lastUpdated"`
	NotificationHandle string             `json:"notificationHandle,omitempty"`
	LastReminderAt     time.Time          `json:"lastReminderAt"`
}

func (g SavingsReminderGap) Validate() error {
	switch g {
	case RemindDaily, RemindTwoDays:
		return nil
	}
	return errors.New("invalid reminder gap")
}

func (s SavingsTarget) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(s.Purpose) == "" {
		return errors.New("empty purpose")
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if s.TargetDate.IsZero() {
		return errors.New("missing target date")
	}
	return s.ReminderGapDays.Validate()
}

// ReminderDue reports whether the next reminder for this target should fire.
// A target that has never been reminded is due immediately.
func (s SavingsTarget) ReminderDue(now time.Time) bool {
	if s.LastReminderAt.IsZero() {
		return true
	}
	gap := time.Duration(s.ReminderGapDays) * 24 * time.Hour
	return now.Sub(s.LastReminderAt) >= gap
}
