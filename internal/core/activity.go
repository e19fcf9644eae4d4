package core

import (
	"errors"
	"strings"
	"time"
)

const (
	PayCash    PaymentMethod = "cash"
	PayAccount PaymentMethod = "account"
	PayCard    PaymentMethod = "card"
	PayUPI     PaymentMethod = "upi"
)

type (
	PaymentMethod string

	// Subitem is one line of an itemized activity. Its lifetime is bound to
	// the parent activity.
	Subitem struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Price     Money     `json:"price"`
		Quantity  int64     `json:"quantity"`
		Unit      string    `json:"unit,omitempty"`
		Timestamp time.Time `json:"timestamp"`
	}

	// Activity is an itemized purchase record (grocery/shopping style).
	// TotalAmount is always derived from the subitems, never set directly.
	Activity struct {
		ID            string        `json:"id"`
		Name          string        `json:"name"`
		Category      string        `json:"category"`
		Description   string        `json:"description,omitempty"`
		Subitems      []Subitem     `json:"subitems"`
		TotalAmount   Money         `json:"totalAmount"`
		Date          string        `json:"date"`
		Timestamp     time.Time     `json:"timestamp"`
		PaymentMethod PaymentMethod `json:"paymentMethod"`
	}
)

func (p PaymentMethod) Validate() error {
	switch p {
	case PayCash, PayAccount, PayCard, PayUPI:
		return nil
	}
	return errors.New("invalid payment method")
}

// LineTotal returns price * quantity. A missing quantity counts as 1,
// matching how the forms record single items.
func (s Subitem) LineTotal() Money {
	qty := s.Quantity
	if qty < 1 {
		qty = 1
	}
	return s.Price.MulInt(qty)
}

func (s Subitem) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if err := s.Price.Validate(); err != nil {
		return err
	}
	if s.Quantity < 0 {
		return errors.New("negative quantity")
	}
	return nil
}

// SubitemsTotal sums price*quantity over all subitems.
func SubitemsTotal(items []Subitem) Money {
	var total Money
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Recalculated returns a copy of the activity with TotalAmount recomputed
// from its subitems.
func (a Activity) Recalculated() Activity {
	a.TotalAmount = SubitemsTotal(a.Subitems)
	return a
}

func (a Activity) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(a.Category) == "" {
		return ErrEmptyCategory
	}
	if err := a.PaymentMethod.Validate(); err != nil {
		return err
	}
	for _, it := range a.Subitems {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	if a.TotalAmount != SubitemsTotal(a.Subitems) {
		return errors.New("total amount out of sync with subitems")
	}
	return nil
}
