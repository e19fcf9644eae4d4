package core

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	LoanActive    LoanStatus = "active"
	LoanCompleted LoanStatus = "completed"
	LoanOverdue   LoanStatus = "overdue"
)

type (
	LoanStatus string

	// EMI is one installment of a loan schedule. IsPaid flips from false to
	// true exactly once; there is no unpay.
	EMI struct {
		Month     int        `json:"month"`
		Amount    Money      `json:"amount"`
		DueDate   time.Time  `json:"dueDate"`
		IsPaid    bool       `json:"isPaid"`
		PaidDate  *time.Time `json:"paidDate,omitempty"`
		Interest  Money      `json:"interest"`
		Principal Money      `json:"principal"`
	}

	// Loan tracks a borrowed amount with a fixed monthly installment.
	// PaidAmount + RemainingAmount equals EMIAmount * TenureMonths for the
	// whole lifetime of the loan.
	Loan struct {
		ID              string     `json:"id"`
		LenderName      string     `json:"lenderName"`
		LoanType        string     `json:"loanType"`
		PrincipalAmount Money      `json:"principalAmount"`
		InterestRate    float64    `json:"interestRate"`
		TenureMonths    int        `json:"tenureMonths"`
		EMIAmount       Money      `json:"emiAmount"`
		StartDate       time.Time  `json:"startDate"`
		RemainingAmount Money      `json:"remainingAmount"`
		PaidAmount      Money      `json:"paidAmount"`
		EMIs            []EMI      `json:"emis"`
		Status          LoanStatus `json:"status"`
		Description     string     `json:"description,omitempty"`
		Timestamp       time.Time  `json:"timestamp"`
	}
)

// NormalizeTenure converts a possibly fractional tenure to whole months:
// nearest integer, never below 1. Callers that already hold an integer
// tenure can skip this.
func NormalizeTenure(months float64) int {
	if math.IsNaN(months) || math.IsInf(months, 0) {
		return 1
	}
	n := int(math.Round(months))
	if n < 1 {
		n = 1
	}
	return n
}

// ComputeEMI computes the fixed monthly installment for a loan, rounded to
// the nearest whole rupee.
//
// The monthly rate is annualRatePercent / (12*100). A zero rate divides the
// principal evenly over the tenure; otherwise the standard amortization
// formula P*r*(1+r)^n / ((1+r)^n - 1) applies. Invalid input (non-positive
// principal, negative or non-finite rate, tenure < 1) yields a zero Money;
// callers must check IsPositive before using the result.
func ComputeEMI(principal Money, annualRatePercent float64, tenureMonths int) Money {
	if !principal.IsPositive() || tenureMonths < 1 {
		return Money{}
	}
	if math.IsNaN(annualRatePercent) || math.IsInf(annualRatePercent, 0) || annualRatePercent < 0 {
		return Money{}
	}

	p := principal.Rupees()
	r := annualRatePercent / (12 * 100)
	n := float64(tenureMonths)

	var emi float64
	if r == 0 {
		emi = p / n
	} else {
		factor := math.Pow(1+r, n)
		emi = p * r * factor / (factor - 1)
	}
	if math.IsNaN(emi) || math.IsInf(emi, 0) || emi <= 0 {
		return Money{}
	}
	return RupeesToMoney(int64(math.Round(emi)))
}

// GenerateSchedule builds the full installment schedule for a loan: exactly
// tenureMonths entries with month numbers 1..n and due dates advanced by
// calendar months from startDate (month-rollover arithmetic, not 30-day
// steps). Each entry additionally carries the interest/principal split of
// that period, computed against the outstanding principal. Returns nil when
// the EMI cannot be computed.
func GenerateSchedule(principal Money, annualRatePercent float64, tenureMonths int, startDate time.Time) []EMI {
	emi := ComputeEMI(principal, annualRatePercent, tenureMonths)
	if !emi.IsPositive() {
		return nil
	}

	monthlyRate := decimal.NewFromFloat(annualRatePercent / (12 * 100))
	outstanding := decimal.New(principal.Paise, -2)
	emiDec := decimal.New(emi.Paise, -2)

	schedule := make([]EMI, 0, tenureMonths)
	for month := 1; month <= tenureMonths; month++ {
		interest := outstanding.Mul(monthlyRate).Round(2)
		principalPart := emiDec.Sub(interest)
		if month == tenureMonths || principalPart.GreaterThan(outstanding) {
			// Last installment absorbs rounding drift so the outstanding
			// principal lands exactly on zero.
			principalPart = outstanding
		}
		outstanding = outstanding.Sub(principalPart)

		schedule = append(schedule, EMI{
			Month:     month,
			Amount:    emi,
			DueDate:   startDate.AddDate(0, month, 0),
			IsPaid:    false,
			Interest:  Money{Paise: interest.Shift(2).IntPart()},
			Principal: Money{Paise: principalPart.Shift(2).IntPart()},
		})
	}
	return schedule
}

// NewLoan assembles a loan with its generated schedule. RemainingAmount
// starts at EMIAmount * TenureMonths (the total payable including interest)
// and PaidAmount at zero.
func NewLoan(id, lenderName, loanType, description string, principal Money, annualRatePercent float64, tenureMonths int, startDate, now time.Time) (Loan, bool) {
	emis := GenerateSchedule(principal, annualRatePercent, tenureMonths, startDate)
	if emis == nil {
		return Loan{}, false
	}
	emi := emis[0].Amount
	return Loan{
		ID:              id,
		LenderName:      strings.TrimSpace(lenderName),
		LoanType:        loanType,
		PrincipalAmount: principal,
		InterestRate:    annualRatePercent,
		TenureMonths:    tenureMonths,
		EMIAmount:       emi,
		StartDate:       startDate,
		RemainingAmount: emi.MulInt(int64(tenureMonths)),
		PaidAmount:      Money{},
		EMIs:            emis,
		Status:          LoanActive,
		Description:     strings.TrimSpace(description),
		Timestamp:       now,
	}, true
}

// ApplyPayment marks the installment for the given month as paid and moves
// its amount from RemainingAmount to PaidAmount. Paying an already-paid or
// unknown month is a no-op, which makes the operation idempotent and rules
// out double counting. The second return value reports whether state
// changed.
//
// When RemainingAmount drops to zero or below, the loan becomes completed
// and never leaves that status. An overdue loan whose past-due installments
// are all cleared by the payment returns to active.
func (l Loan) ApplyPayment(month int, now time.Time) (Loan, bool) {
	idx := -1
	for i, e := range l.EMIs {
		if e.Month == month {
			idx = i
			break
		}
	}
	if idx < 0 || l.EMIs[idx].IsPaid {
		return l, false
	}

	emis := make([]EMI, len(l.EMIs))
	copy(emis, l.EMIs)
	paidAt := now
	emis[idx].IsPaid = true
	emis[idx].PaidDate = &paidAt

	l.EMIs = emis
	l.PaidAmount = l.PaidAmount.Add(emis[idx].Amount)
	l.RemainingAmount = l.RemainingAmount.Sub(emis[idx].Amount)

	switch {
	case l.RemainingAmount.Paise <= 0:
		l.Status = LoanCompleted
	case l.Status == LoanOverdue && !l.hasPastDueUnpaid(now):
		l.Status = LoanActive
	}
	return l, true
}

// RefreshOverdue flags an active loan as overdue when any unpaid installment
// is past its due date. Completed loans are never touched.
func (l Loan) RefreshOverdue(now time.Time) (Loan, bool) {
	if l.Status != LoanActive || !l.hasPastDueUnpaid(now) {
		return l, false
	}
	l.Status = LoanOverdue
	return l, true
}

func (l Loan) hasPastDueUnpaid(now time.Time) bool {
	for _, e := range l.EMIs {
		if !e.IsPaid && e.DueDate.Before(now) {
			return true
		}
	}
	return false
}

// TotalPayable returns EMIAmount * TenureMonths.
func (l Loan) TotalPayable() Money {
	return l.EMIAmount.MulInt(int64(l.TenureMonths))
}
