package ledger

import (
	"time"

	"paisa/internal/core"
)

// LoanState is the loan ledger. The three totals mirror the per-loan
// invariants aggregated across all loans.
type LoanState struct {
	Loans                []core.Loan `json:"loans"`
	TotalLoanAmount      core.Money  `json:"totalLoanAmount"`
	TotalPaidAmount      core.Money  `json:"totalPaidAmount"`
	TotalRemainingAmount core.Money  `json:"totalRemainingAmount"`
}

// Add prepends a freshly created loan.
func (s LoanState) Add(loan core.Loan) LoanState {
	s.Loans = prepend(s.Loans, loan)
	s.TotalLoanAmount = s.TotalLoanAmount.Add(loan.PrincipalAmount)
	s.TotalPaidAmount = s.TotalPaidAmount.Add(loan.PaidAmount)
	s.TotalRemainingAmount = s.TotalRemainingAmount.Add(loan.RemainingAmount)
	return s
}

// Pay applies an installment payment to the loan with the given id. Unknown
// loans and already-paid months are no-ops; the operation is idempotent.
// The second return reports whether anything changed.
func (s LoanState) Pay(loanID string, month int, now time.Time) (LoanState, bool) {
	idx := s.indexOf(loanID)
	if idx < 0 {
		return s, false
	}
	updated, changed := s.Loans[idx].ApplyPayment(month, now)
	if !changed {
		return s, false
	}
	s.TotalPaidAmount = s.TotalPaidAmount.Add(updated.PaidAmount.Sub(s.Loans[idx].PaidAmount))
	s.TotalRemainingAmount = s.TotalRemainingAmount.Add(updated.RemainingAmount.Sub(s.Loans[idx].RemainingAmount))
	s.Loans = replaceAt(s.Loans, idx, updated)
	return s, true
}

// Delete removes a loan and its contribution to the totals. An unknown id
// is a no-op.
func (s LoanState) Delete(id string) LoanState {
	idx := s.indexOf(id)
	if idx < 0 {
		return s
	}
	loan := s.Loans[idx]
	s.TotalLoanAmount = s.TotalLoanAmount.Sub(loan.PrincipalAmount)
	s.TotalPaidAmount = s.TotalPaidAmount.Sub(loan.PaidAmount)
	s.TotalRemainingAmount = s.TotalRemainingAmount.Sub(loan.RemainingAmount)
	s.Loans = removeAt(s.Loans, idx)
	return s
}

// MarkOverdue flags every active loan with a past-due unpaid installment.
// Returns the ids of loans whose status changed.
func (s LoanState) MarkOverdue(now time.Time) (LoanState, []string) {
	var flagged []string
	for i, loan := range s.Loans {
		updated, changed := loan.RefreshOverdue(now)
		if !changed {
			continue
		}
		s.Loans = replaceAt(s.Loans, i, updated)
		flagged = append(flagged, loan.ID)
	}
	return s, flagged
}

// Normalize recomputes the aggregate totals from the loan list.
func (s LoanState) Normalize() LoanState {
	s.TotalLoanAmount = core.Money{}
	s.TotalPaidAmount = core.Money{}
	s.TotalRemainingAmount = core.Money{}
	for _, loan := range s.Loans {
		s.TotalLoanAmount = s.TotalLoanAmount.Add(loan.PrincipalAmount)
		s.TotalPaidAmount = s.TotalPaidAmount.Add(loan.PaidAmount)
		s.TotalRemainingAmount = s.TotalRemainingAmount.Add(loan.RemainingAmount)
	}
	return s
}

// Find returns the loan with the given id, if present.
func (s LoanState) Find(id string) (core.Loan, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return core.Loan{}, false
	}
	return s.Loans[idx], true
}

func (s LoanState) indexOf(id string) int {
	for i, loan := range s.Loans {
		if loan.ID == id {
			return i
		}
	}
	return -1
}
