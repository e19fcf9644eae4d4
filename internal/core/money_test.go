package core

import "testing"

func TestParseDecimalToPaise(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToPaise(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Paise: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Paise: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := RupeesToMoney(10)
	b := Money{Paise: 250}
	if got := a.Add(b).Paise; got != 1250 {
		t.Fatalf("add: expected 1250, got %d", got)
	}
	if got := a.Sub(b).Paise; got != 750 {
		t.Fatalf("sub: expected 750, got %d", got)
	}
	if got := b.MulInt(4).Paise; got != 1000 {
		t.Fatalf("mul: expected 1000, got %d", got)
	}
}
