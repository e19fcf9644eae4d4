package ledger

import (
	"testing"

	"paisa/internal/core"
)

func item(id, name string, priceRupees, qty int64) core.Subitem {
	return core.Subitem{ID: id, Name: name, Price: core.RupeesToMoney(priceRupees), Quantity: qty}
}

func activity(id string, items ...core.Subitem) core.Activity {
	return core.Activity{
		ID:            id,
		Name:          "Activity " + id,
		Category:      "Shopping",
		Subitems:      items,
		PaymentMethod: core.PayCash,
	}.Recalculated()
}

func checkSpentInvariant(t *testing.T, s ActivityState) {
	t.Helper()
	var sum core.Money
	for _, act := range s.Activities {
		sum = sum.Add(act.TotalAmount)
	}
	if s.TotalSpent != sum {
		t.Fatalf("totalSpent invariant broken: ledger=%d, sum=%d", s.TotalSpent.Paise, sum.Paise)
	}
}

func TestActivityLedgerAddDelete(t *testing.T) {
	var s ActivityState
	s = s.Add(activity("a1", item("s1", "rice", 2, 5), item("s2", "oil", 10, 1)))
	checkSpentInvariant(t, s)
	if s.TotalSpent != core.RupeesToMoney(20) {
		t.Fatalf("totalSpent %d", s.TotalSpent.Paise)
	}

	s = s.Add(activity("a2", item("s3", "soap", 3, 2)))
	checkSpentInvariant(t, s)
	if s.Activities[0].ID != "a2" {
		t.Fatalf("expected newest first")
	}

	s = s.Delete("a1")
	checkSpentInvariant(t, s)
	if s.TotalSpent != core.RupeesToMoney(6) {
		t.Fatalf("totalSpent after delete %d", s.TotalSpent.Paise)
	}

	s = s.Delete("ghost")
	checkSpentInvariant(t, s)
	if len(s.Activities) != 1 {
		t.Fatalf("delete of unknown id changed list")
	}
}

func TestActivityLedgerUpdateDelta(t *testing.T) {
	// Property 8: an update changing a total from 500 to 800 moves the
	// ledger by exactly +300, whatever else is in the ledger.
	s := ActivityState{}.
		Add(activity("a1", item("s1", "old", 500, 1))).
		Add(activity("a2", item("s2", "noise", 123, 1)))

	before := s.TotalSpent
	updated := activity("a1", item("s1", "new", 800, 1))
	s = s.Update(updated)
	checkSpentInvariant(t, s)

	if got := s.TotalSpent.Sub(before); got != core.RupeesToMoney(300) {
		t.Fatalf("delta %d paise, want +300 rupees", got.Paise)
	}

	// Updating an unknown id is a no-op.
	before = s.TotalSpent
	s = s.Update(activity("ghost", item("x", "x", 1, 1)))
	if s.TotalSpent != before {
		t.Fatalf("unknown update changed totalSpent")
	}
}

func TestActivityLedgerSubitemLockstep(t *testing.T) {
	// Property 2: after any churn of subitem adds/removes, totalSpent still
	// equals the sum of all activity totals.
	s := ActivityState{}.
		Add(activity("a1", item("s1", "rice", 2, 5))).
		Add(activity("a2"))

	s = s.AddSubitem("a1", item("s2", "dal", 7, 2))
	checkSpentInvariant(t, s)
	s = s.AddSubitem("a2", item("s3", "milk", 4, 3))
	checkSpentInvariant(t, s)
	s = s.RemoveSubitem("a1", "s1")
	checkSpentInvariant(t, s)
	s = s.AddSubitem("a1", item("s4", "tea", 5, 1))
	checkSpentInvariant(t, s)
	s = s.RemoveSubitem("a2", "s3")
	checkSpentInvariant(t, s)

	// a1: dal 14 + tea 5 = 19; a2: empty.
	if s.TotalSpent != core.RupeesToMoney(19) {
		t.Fatalf("totalSpent %d", s.TotalSpent.Paise)
	}
	var a1 core.Activity
	for _, act := range s.Activities {
		if act.ID == "a1" {
			a1 = act
		}
	}
	if a1.TotalAmount != core.RupeesToMoney(19) {
		t.Fatalf("a1 total %d", a1.TotalAmount.Paise)
	}

	// Unknown targets are no-ops.
	before := s
	s = s.AddSubitem("ghost", item("x", "x", 1, 1))
	s = s.RemoveSubitem("a1", "ghost")
	checkSpentInvariant(t, s)
	if s.TotalSpent != before.TotalSpent {
		t.Fatalf("no-op operations changed totalSpent")
	}
}

func TestActivityLedgerNormalize(t *testing.T) {
	stale := ActivityState{
		Activities: []core.Activity{
			{ID: "a1", Subitems: []core.Subitem{item("s1", "rice", 3, 2)}, TotalAmount: core.RupeesToMoney(999)},
		},
		TotalSpent: core.RupeesToMoney(12345),
	}.Normalize()
	checkSpentInvariant(t, stale)
	if stale.TotalSpent != core.RupeesToMoney(6) {
		t.Fatalf("normalized totalSpent %d", stale.TotalSpent.Paise)
	}
}
