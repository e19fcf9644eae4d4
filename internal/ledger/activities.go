package ledger

import "paisa/internal/core"

// ActivityState is the activity ledger: itemized purchases newest first and
// the running TotalSpent, which always equals the sum of every activity's
// TotalAmount.
type ActivityState struct {
	Activities []core.Activity `json:"activities"`
	TotalSpent core.Money      `json:"totalSpent"`
}

// Add prepends the activity and grows TotalSpent by its total. The
// activity's TotalAmount must already match its subitems (the form layer
// computes it before dispatching).
func (s ActivityState) Add(act core.Activity) ActivityState {
	s.Activities = prepend(s.Activities, act)
	s.TotalSpent = s.TotalSpent.Add(act.TotalAmount)
	return s
}

// Update replaces the activity with the same id and shifts TotalSpent by
// the delta between the new and old totals. The old total is read before
// the replacement; swapping that order would corrupt the aggregate. An
// unknown id is a no-op.
func (s ActivityState) Update(act core.Activity) ActivityState {
	idx := s.indexOf(act.ID)
	if idx < 0 {
		return s
	}
	oldTotal := s.Activities[idx].TotalAmount
	s.Activities = replaceAt(s.Activities, idx, act)
	s.TotalSpent = s.TotalSpent.Add(act.TotalAmount.Sub(oldTotal))
	return s
}

// Delete removes the activity and subtracts its total from TotalSpent. An
// unknown id is a no-op.
func (s ActivityState) Delete(id string) ActivityState {
	idx := s.indexOf(id)
	if idx < 0 {
		return s
	}
	s.TotalSpent = s.TotalSpent.Sub(s.Activities[idx].TotalAmount)
	s.Activities = removeAt(s.Activities, idx)
	return s
}

// AddSubitem appends a line item to the activity and adjusts both the
// parent's TotalAmount and the ledger's TotalSpent by the line total, in
// lockstep. An unknown activity id is a no-op.
func (s ActivityState) AddSubitem(activityID string, item core.Subitem) ActivityState {
	idx := s.indexOf(activityID)
	if idx < 0 {
		return s
	}
	act := s.Activities[idx]
	items := make([]core.Subitem, 0, len(act.Subitems)+1)
	items = append(items, act.Subitems...)
	act.Subitems = append(items, item)
	act.TotalAmount = act.TotalAmount.Add(item.LineTotal())

	s.Activities = replaceAt(s.Activities, idx, act)
	s.TotalSpent = s.TotalSpent.Add(item.LineTotal())
	return s
}

// RemoveSubitem deletes a line item from the activity and shrinks both
// totals by its line total. Unknown activity or subitem ids are no-ops.
func (s ActivityState) RemoveSubitem(activityID, subitemID string) ActivityState {
	idx := s.indexOf(activityID)
	if idx < 0 {
		return s
	}
	act := s.Activities[idx]
	itemIdx := -1
	for i, it := range act.Subitems {
		if it.ID == subitemID {
			itemIdx = i
			break
		}
	}
	if itemIdx < 0 {
		return s
	}
	line := act.Subitems[itemIdx].LineTotal()
	act.Subitems = removeAt(act.Subitems, itemIdx)
	act.TotalAmount = act.TotalAmount.Sub(line)

	s.Activities = replaceAt(s.Activities, idx, act)
	s.TotalSpent = s.TotalSpent.Sub(line)
	return s
}

// Normalize recomputes every activity total from its subitems and
// TotalSpent from the activity totals.
func (s ActivityState) Normalize() ActivityState {
	acts := make([]core.Activity, len(s.Activities))
	total := core.Money{}
	for i, act := range s.Activities {
		acts[i] = act.Recalculated()
		total = total.Add(acts[i].TotalAmount)
	}
	s.Activities = acts
	s.TotalSpent = total
	return s
}

// Find returns the activity with the given id, if present.
func (s ActivityState) Find(id string) (core.Activity, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return core.Activity{}, false
	}
	return s.Activities[idx], true
}

func (s ActivityState) indexOf(id string) int {
	for i, act := range s.Activities {
		if act.ID == id {
			return i
		}
	}
	return -1
}
