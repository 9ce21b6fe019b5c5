package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
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
		{"0", 0, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	cases := []struct {
		in  float64
		out int64
		ok  bool
	}{
		{0, 0, true},
		{10, 1000, true},
		{0.1 + 0.2, 30, true},
		{19.99, 1999, true},
		{2.675, 268, true},
		{-5, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(-1), 0, false},
	}
	for _, tc := range cases {
		got, err := MoneyFromFloat(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%v expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%v expected error", tc.in)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{Money{Cents: 4000}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"total":40.00}` {
		t.Fatalf("unexpected json %s", b)
	}

	var m Money
	if err := json.Unmarshal([]byte(`"12.5"`), &m); err != nil || m.Cents != 1250 {
		t.Fatalf("unmarshal string: %v %d", err, m.Cents)
	}
	if err := json.Unmarshal([]byte(`-1`), &m); err == nil {
		t.Fatalf("expected negative amount to fail")
	}
}

func TestMoneyUnmarshalRejectsUnbalancedQuotes(t *testing.T) {
	for _, in := range []string{`"12`, `12"`, `"`} {
		var m Money
		if err := m.UnmarshalJSON([]byte(in)); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("%s: expected ErrInvalidAmount, got %v", in, err)
		}
	}
	var m Money
	if err := m.UnmarshalJSON([]byte(`12`)); err != nil || m.Cents != 1200 {
		t.Fatalf("bare number: %v %d", err, m.Cents)
	}
}

func TestMoneyAdd(t *testing.T) {
	sum, err := Money{Cents: 150}.Add(Money{Cents: 250})
	if err != nil || sum.Cents != 400 {
		t.Fatalf("expected 400, got %d (err=%v)", sum.Cents, err)
	}

	_, err = Money{Cents: math.MaxInt64 - 1}.Add(Money{Cents: 2})
	if !errors.Is(err, ErrAmountOverflow) || !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected overflow, got %v", err)
	}
	_, err = Money{Cents: math.MinInt64 + 1}.Add(Money{Cents: -2})
	if !errors.Is(err, ErrAmountOverflow) {
		t.Fatalf("expected negative overflow, got %v", err)
	}
}
