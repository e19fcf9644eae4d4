package core

import "testing"

func expenseTx(category string, rupees int64) Transaction {
	return Transaction{ID: "tx-" + category, Type: Expense, Amount: RupeesToMoney(rupees), Category: category}
}

func TestComputeBreakdownCollapsesOthers(t *testing.T) {
	txs := []Transaction{
		expenseTx("Rent", 500),
		expenseTx("Food", 400),
		expenseTx("Fuel", 300),
		expenseTx("Bills", 200),
		expenseTx("Movies", 100),
		expenseTx("Misc", 50),
	}
	entries := ComputeBreakdown(txs, nil)
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	last := entries[4]
	if last.Category != OthersCategory {
		t.Fatalf("5th entry is %q, expected %q", last.Category, OthersCategory)
	}
	// Top 4 survive; the 5th and 6th ranked (100 + 50) collapse.
	if last.Amount != RupeesToMoney(150) {
		t.Fatalf("others amount %d paise", last.Amount.Paise)
	}
	if entries[0].Category != "Rent" || entries[3].Category != "Bills" {
		t.Fatalf("unexpected ordering: %+v", entries)
	}
}

func TestComputeBreakdownFiveOrFewerPassThrough(t *testing.T) {
	txs := []Transaction{
		expenseTx("Rent", 500),
		expenseTx("Food", 400),
		expenseTx("Fuel", 300),
		expenseTx("Bills", 200),
		expenseTx("Movies", 100),
	}
	entries := ComputeBreakdown(txs, nil)
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Category == OthersCategory {
			t.Fatalf("no Others bucket expected with 5 categories")
		}
	}
}

func TestComputeBreakdownMixesActivitiesAndSkipsIncome(t *testing.T) {
	txs := []Transaction{
		expenseTx("Food", 100),
		{ID: "inc", Type: Income, Amount: RupeesToMoney(9999), Category: "Salary"},
		{ID: "blank", Type: Expense, Amount: RupeesToMoney(40), Category: "  "},
	}
	acts := []Activity{
		{ID: "a1", Name: "Groceries", Category: "Food", TotalAmount: RupeesToMoney(60)},
		{ID: "a2", Name: "Trip", Category: "", TotalAmount: RupeesToMoney(20)},
	}
	entries := ComputeBreakdown(txs, acts)

	byCat := map[string]BreakdownEntry{}
	for _, e := range entries {
		byCat[e.Category] = e
	}
	if _, ok := byCat["Salary"]; ok {
		t.Fatalf("income must not appear in the breakdown")
	}
	if byCat["Food"].Amount != RupeesToMoney(160) {
		t.Fatalf("food total %d", byCat["Food"].Amount.Paise)
	}
	if byCat["Expenses"].Amount != RupeesToMoney(40) {
		t.Fatalf("blank transaction category should bucket to Expenses")
	}
	if byCat["Activities"].Amount != RupeesToMoney(20) {
		t.Fatalf("blank activity category should bucket to Activities")
	}
}

func TestComputeBreakdownPercentages(t *testing.T) {
	txs := []Transaction{
		expenseTx("A", 75),
		expenseTx("B", 25),
	}
	entries := ComputeBreakdown(txs, nil)
	if entries[0].Percentage != 75 || entries[1].Percentage != 25 {
		t.Fatalf("percentages %v / %v", entries[0].Percentage, entries[1].Percentage)
	}

	if got := ComputeBreakdown(nil, nil); len(got) != 0 {
		t.Fatalf("empty ledgers should yield no entries, got %d", len(got))
	}
}
