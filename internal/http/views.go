package http

import (
	"paisa/internal/core"
	"paisa/internal/ledger"
)

// SummaryView is the dashboard aggregate served by GET /api/summary.
type SummaryView struct {
	Balance              core.Money `json:"balance"`
	TotalIncome          core.Money `json:"totalIncome"`
	TotalExpense         core.Money `json:"totalExpense"`
	TotalSpent           core.Money `json:"totalSpent"`
	TotalLoanAmount      core.Money `json:"totalLoanAmount"`
	TotalPaidAmount      core.Money `json:"totalPaidAmount"`
	TotalRemainingAmount core.Money `json:"totalRemainingAmount"`
	ActiveLoans          int        `json:"activeLoans"`
	OverdueLoans         int        `json:"overdueLoans"`
	SavingsTargets       int        `json:"savingsTargets"`
	UnreadNotifications  int        `json:"unreadNotifications"`
}

func buildSummary(snap ledger.Snapshot) SummaryView {
	view := SummaryView{
		Balance:              snap.Transactions.Balance,
		TotalIncome:          snap.Transactions.TotalIncome,
		TotalExpense:         snap.Transactions.TotalExpense,
		TotalSpent:           snap.Activities.TotalSpent,
		TotalLoanAmount:      snap.Loans.TotalLoanAmount,
		TotalPaidAmount:      snap.Loans.TotalPaidAmount,
		TotalRemainingAmount: snap.Loans.TotalRemainingAmount,
		SavingsTargets:       len(snap.Savings.Targets),
		UnreadNotifications:  snap.Notifications.UnreadCount,
	}
	for _, loan := range snap.Loans.Loans {
		switch loan.Status {
		case core.LoanActive:
			view.ActiveLoans++
		case core.LoanOverdue:
			view.OverdueLoans++
		}
	}
	return view
}
