// Package ledger holds the reducer-style state machines for the ledgers.
// Every transition is a pure function from an old state value to a new one;
// aggregate totals are maintained inside the transitions so callers can
// never drive them out of sync with the record lists.
package ledger

import "paisa/internal/core"

// TransactionState is the transaction ledger: entries newest first plus the
// running totals. Balance always equals TotalIncome - TotalExpense.
type TransactionState struct {
	Transactions []core.Transaction `json:"transactions"`
	TotalIncome  core.Money         `json:"totalIncome"`
	TotalExpense core.Money         `json:"totalExpense"`
	Balance      core.Money         `json:"balance"`
}

// Add prepends the transaction and folds its amount into the matching
// total. Inputs are trusted to be pre-validated by the form layer.
func (s TransactionState) Add(tx core.Transaction) TransactionState {
	s.Transactions = prepend(s.Transactions, tx)
	switch tx.Type {
	case core.Income:
		s.TotalIncome = s.TotalIncome.Add(tx.Amount)
	case core.Expense:
		s.TotalExpense = s.TotalExpense.Add(tx.Amount)
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// Delete removes the transaction with the given id and subtracts its amount
// from the matching total. An unknown id is a no-op.
func (s TransactionState) Delete(id string) TransactionState {
	idx := -1
	for i, tx := range s.Transactions {
		if tx.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}
	tx := s.Transactions[idx]
	s.Transactions = removeAt(s.Transactions, idx)
	switch tx.Type {
	case core.Income:
		s.TotalIncome = s.TotalIncome.Sub(tx.Amount)
	case core.Expense:
		s.TotalExpense = s.TotalExpense.Sub(tx.Amount)
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// Clear resets the ledger to empty. Used for account reset.
func (s TransactionState) Clear() TransactionState {
	return TransactionState{}
}

// Normalize recomputes every total from the transaction list. Used when
// rehydrating a persisted snapshot whose derived fields may be stale.
func (s TransactionState) Normalize() TransactionState {
	s.TotalIncome = core.Money{}
	s.TotalExpense = core.Money{}
	for _, tx := range s.Transactions {
		switch tx.Type {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

func prepend[T any](list []T, v T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, v)
	return append(out, list...)
}

func removeAt[T any](list []T, idx int) []T {
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:idx]...)
	return append(out, list[idx+1:]...)
}

func replaceAt[T any](list []T, idx int, v T) []T {
	out := make([]T, len(list))
	copy(out, list)
	out[idx] = v
	return out
}
