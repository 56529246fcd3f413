package models

import (
	"testing"
	"time"
)

func TestParseActivityDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
		zero  bool
	}{
		{"2024-03-15T00:00:00.000000-05:00", time.Date(2024, 3, 15, 0, 0, 0, 0, time.FixedZone("", -5*3600)), false},
		{"2024-03-15T10:30:00Z", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), false},
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"not a date", time.Time{}, true},
	}

	for _, tt := range tests {
		got := ParseActivityDate(tt.input)
		if tt.zero {
			if !got.IsZero() {
				t.Errorf("%q: expected zero time, got %v", tt.input, got)
			}
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("%q: expected %v, got %v", tt.input, tt.want, got)
		}
	}
}

func TestBestTimestamp_PriorityOrder(t *testing.T) {
	a := &RawActivity{
		TransactionDate: "2024-03-15",
		TradeDate:       "2024-03-13",
		SettlementDate:  "2024-03-18",
	}
	if got := a.BestTimestamp(); !got.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected transaction date, got %v", got)
	}

	// Unparseable transaction date falls through to the trade date.
	b := &RawActivity{
		TransactionDate: "garbage",
		TradeDate:       "2024-03-13",
	}
	if got := b.BestTimestamp(); !got.Equal(time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected trade date, got %v", got)
	}

	if got := (&RawActivity{}).BestTimestamp(); !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}

func TestDirectAmount(t *testing.T) {
	net, gross := 100.0, 95.0
	a := &RawActivity{NetAmount: &net, GrossAmount: &gross}
	if amount, ok := a.DirectAmount(); !ok || amount != 100 {
		t.Errorf("expected net amount 100, got %v ok=%v", amount, ok)
	}

	// A populated zero is treated as missing.
	zero := 0.0
	b := &RawActivity{NetAmount: &zero, GrossAmount: &gross}
	if amount, ok := b.DirectAmount(); !ok || amount != 95 {
		t.Errorf("expected gross amount 95, got %v ok=%v", amount, ok)
	}

	if _, ok := (&RawActivity{}).DirectAmount(); ok {
		t.Error("expected no amount")
	}
}
