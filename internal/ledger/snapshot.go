package ledger

import "paisa/internal/core"

// Snapshot is the full state tree of every ledger. It is what gets
// serialized to the persistence layer and handed to the presentation layer
// for rendering.
type Snapshot struct {
	Transactions  TransactionState  `json:"transactions"`
	Activities    ActivityState     `json:"activities"`
	Loans         LoanState         `json:"loans"`
	Savings       SavingsState      `json:"savings"`
	Notifications NotificationState `json:"notifications"`
}

// Normalize recomputes every derived total from the underlying record
// lists. Rehydration always runs through here so a stale or hand-edited
// snapshot can never smuggle inconsistent aggregates into the store.
func (s Snapshot) Normalize() Snapshot {
	s.Transactions = s.Transactions.Normalize()
	s.Activities = s.Activities.Normalize()
	s.Loans = s.Loans.Normalize()
	s.Notifications = s.Notifications.Normalize()
	return s
}

// Breakdown computes the combined expense breakdown across the transaction
// and activity ledgers.
func (s Snapshot) Breakdown() []core.BreakdownEntry {
	return core.ComputeBreakdown(s.Transactions.Transactions, s.Activities.Activities)
}
