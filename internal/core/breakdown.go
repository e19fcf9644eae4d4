package core

import (
	"sort"
	"strings"
)

// Category labels used when a record carries no category of its own.
const (
	fallbackTransactionCategory = "Expenses"
	fallbackActivityCategory    = "Activities"

	// OthersCategory is the synthetic bucket that absorbs everything past
	// the top four categories.
	OthersCategory = "Others"

	breakdownMaxEntries = 5
)

// BreakdownEntry is one slice of the expense breakdown.
type BreakdownEntry struct {
	Category   string  `json:"category"`
	Amount     Money   `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// ComputeBreakdown groups expense transactions and activities by category
// and returns the slices sorted by amount, largest first. With more than
// five distinct categories the top four survive and the rest collapse into
// the "Others" bucket. Percentages are relative to the combined total and
// clamped to [0,100].
//
// The result is purely derived; callers recompute it from the ledgers on
// every query (or cache it and invalidate on any ledger mutation).
func ComputeBreakdown(transactions []Transaction, activities []Activity) []BreakdownEntry {
	totals := map[string]Money{}

	for _, tx := range transactions {
		if tx.Type != Expense {
			continue
		}
		key := strings.TrimSpace(tx.Category)
		if key == "" {
			key = fallbackTransactionCategory
		}
		totals[key] = totals[key].Add(tx.Amount)
	}
	for _, act := range activities {
		key := strings.TrimSpace(act.Category)
		if key == "" {
			key = fallbackActivityCategory
		}
		totals[key] = totals[key].Add(act.TotalAmount)
	}

	entries := make([]BreakdownEntry, 0, len(totals))
	var total Money
	for category, amount := range totals {
		if !amount.IsPositive() {
			continue
		}
		entries = append(entries, BreakdownEntry{Category: category, Amount: amount})
		total = total.Add(amount)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Amount.Paise != entries[j].Amount.Paise {
			return entries[i].Amount.Paise > entries[j].Amount.Paise
		}
		return entries[i].Category < entries[j].Category
	})

	if len(entries) > breakdownMaxEntries {
		var others Money
		for _, e := range entries[breakdownMaxEntries-1:] {
			others = others.Add(e.Amount)
		}
		entries = append(entries[:breakdownMaxEntries-1:breakdownMaxEntries-1], BreakdownEntry{
			Category: OthersCategory,
			Amount:   others,
		})
	}

	for i := range entries {
		entries[i].Percentage = percentageOf(entries[i].Amount, total)
	}
	return entries
}

func percentageOf(amount, total Money) float64 {
	if total.Paise <= 0 {
		return 0
	}
	pct := float64(amount.Paise) / float64(total.Paise) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
