package ledger

import "paisa/internal/core"

// SavingsState holds the savings targets, newest first.
type SavingsState struct {
	Targets []core.SavingsTarget `json:"targets"`
}

func (s SavingsState) Add(target core.SavingsTarget) SavingsState {
	s.Targets = prepend(s.Targets, target)
	return s
}

// Update replaces the target with the same id. An unknown id is a no-op.
func (s SavingsState) Update(target core.SavingsTarget) SavingsState {
	for i, t := range s.Targets {
		if t.ID == target.ID {
			s.Targets = replaceAt(s.Targets, i, target)
			return s
		}
	}
	return s
}

func (s SavingsState) Remove(id string) SavingsState {
	for i, t := range s.Targets {
		if t.ID == id {
			s.Targets = removeAt(s.Targets, i)
			return s
		}
	}
	return s
}

// Find returns the target with the given id, if present.
func (s SavingsState) Find(id string) (core.SavingsTarget, bool) {
	for _, t := range s.Targets {
		if t.ID == id {
			return t, true
		}
	}
	return core.SavingsTarget{}, false
}
