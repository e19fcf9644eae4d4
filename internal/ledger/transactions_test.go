package ledger

import (
	"testing"

	"paisa/internal/core"
)

func tx(id string, typ core.TransactionType, rupees int64) core.Transaction {
	return core.Transaction{ID: id, Type: typ, Amount: core.RupeesToMoney(rupees), Category: "General"}
}

func checkBalance(t *testing.T, s TransactionState) {
	t.Helper()
	if s.Balance != s.TotalIncome.Sub(s.TotalExpense) {
		t.Fatalf("balance invariant broken: balance=%d income=%d expense=%d",
			s.Balance.Paise, s.TotalIncome.Paise, s.TotalExpense.Paise)
	}
}

func TestTransactionLedgerAddDelete(t *testing.T) {
	var s TransactionState

	s = s.Add(tx("t1", core.Income, 1000))
	checkBalance(t, s)
	s = s.Add(tx("t2", core.Expense, 300))
	checkBalance(t, s)
	s = s.Add(tx("t3", core.Expense, 200))
	checkBalance(t, s)

	if s.TotalIncome != core.RupeesToMoney(1000) || s.TotalExpense != core.RupeesToMoney(500) {
		t.Fatalf("totals income=%d expense=%d", s.TotalIncome.Paise, s.TotalExpense.Paise)
	}
	if s.Balance != core.RupeesToMoney(500) {
		t.Fatalf("balance %d", s.Balance.Paise)
	}
	// Newest first.
	if s.Transactions[0].ID != "t3" {
		t.Fatalf("expected newest first, got %s", s.Transactions[0].ID)
	}

	s = s.Delete("t2")
	checkBalance(t, s)
	if s.TotalExpense != core.RupeesToMoney(200) {
		t.Fatalf("expense after delete %d", s.TotalExpense.Paise)
	}
	if len(s.Transactions) != 2 {
		t.Fatalf("len %d after delete", len(s.Transactions))
	}

	// Unknown id is a silent no-op.
	before := s
	s = s.Delete("nope")
	checkBalance(t, s)
	if len(s.Transactions) != len(before.Transactions) || s.Balance != before.Balance {
		t.Fatalf("delete of unknown id changed state")
	}
}

func TestTransactionLedgerBalanceInvariantSequence(t *testing.T) {
	// Property 1: balance == income - expense after every call in a mixed
	// add/delete sequence.
	var s TransactionState
	ops := []func(TransactionState) TransactionState{
		func(s TransactionState) TransactionState { return s.Add(tx("a", core.Income, 50)) },
		func(s TransactionState) TransactionState { return s.Add(tx("b", core.Expense, 20)) },
		func(s TransactionState) TransactionState { return s.Delete("a") },
		func(s TransactionState) TransactionState { return s.Add(tx("c", core.Income, 70)) },
		func(s TransactionState) TransactionState { return s.Delete("missing") },
		func(s TransactionState) TransactionState { return s.Add(tx("d", core.Expense, 35)) },
		func(s TransactionState) TransactionState { return s.Delete("b") },
	}
	for _, op := range ops {
		s = op(s)
		checkBalance(t, s)
	}
	if s.Balance != core.RupeesToMoney(35) {
		t.Fatalf("final balance %d", s.Balance.Paise)
	}
}

func TestTransactionLedgerClear(t *testing.T) {
	s := TransactionState{}.Add(tx("t1", core.Income, 10)).Add(tx("t2", core.Expense, 5))
	s = s.Clear()
	if len(s.Transactions) != 0 || s.Balance.Paise != 0 || s.TotalIncome.Paise != 0 || s.TotalExpense.Paise != 0 {
		t.Fatalf("clear left residue: %+v", s)
	}
}

func TestTransactionLedgerNormalize(t *testing.T) {
	// A rehydrated snapshot with stale totals must come back consistent.
	s := TransactionState{
		Transactions: []core.Transaction{
			tx("t1", core.Income, 100),
			tx("t2", core.Expense, 40),
		},
		TotalIncome:  core.RupeesToMoney(9999),
		TotalExpense: core.RupeesToMoney(1),
		Balance:      core.RupeesToMoney(-7),
	}.Normalize()
	if s.TotalIncome != core.RupeesToMoney(100) || s.TotalExpense != core.RupeesToMoney(40) || s.Balance != core.RupeesToMoney(60) {
		t.Fatalf("normalize produced income=%d expense=%d balance=%d",
			s.TotalIncome.Paise, s.TotalExpense.Paise, s.Balance.Paise)
	}
}
