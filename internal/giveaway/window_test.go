package giveaway

import (
	"testing"
	"time"
)

func TestNewWindow(t *testing.T) {
	t.Run("rejects malformed bounds", func(t *testing.T) {
		if _, err := NewWindow("25:00", "19:30", msk); err == nil {
			t.Error("expected error for invalid start")
		}
		if _, err := NewWindow("15:00", "19-30", msk); err == nil {
			t.Error("expected error for invalid end")
		}
	})

	t.Run("rejects inverted bounds", func(t *testing.T) {
		if _, err := NewWindow("19:30", "15:00", msk); err == nil {
			t.Error("expected error when end precedes start")
		}
		if _, err := NewWindow("15:00", "15:00", msk); err == nil {
			t.Error("expected error when end equals start")
		}
	})

	t.Run("nil location defaults to UTC", func(t *testing.T) {
		w, err := NewWindow("15:00", "19:30", nil)
		if err != nil {
			t.Fatalf("NewWindow: %v", err)
		}
		if w.Location() != time.UTC {
			t.Errorf("Location = %v, want UTC", w.Location())
		}
	})
}

func TestWindowContains(t *testing.T) {
	w, err := NewWindow("15:00", "19:30", msk)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"just before open", time.Date(2026, 3, 1, 14, 59, 0, 0, msk), false},
		{"at open", time.Date(2026, 3, 1, 15, 0, 0, 0, msk), true},
		{"mid window", time.Date(2026, 3, 1, 16, 0, 0, 0, msk), true},
		{"at close", time.Date(2026, 3, 1, 19, 30, 0, 0, msk), true},
		{"one second after close", time.Date(2026, 3, 1, 19, 30, 1, 0, msk), false},
		{"seconds into the closing minute", time.Date(2026, 3, 1, 19, 30, 30, 0, msk), false},
		{"just after close", time.Date(2026, 3, 1, 19, 31, 0, 0, msk), false},
		// 13:00 UTC is 16:00 MSK; the instant must be normalized to the
		// window zone before comparison.
		{"utc instant inside window", time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC), true},
		{"utc instant outside window", time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := w.Contains(tc.at); got != tc.want {
				t.Errorf("Contains(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestWindowDrawEligible(t *testing.T) {
	w, err := NewWindow("15:00", "19:30", msk)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"mid window", time.Date(2026, 3, 1, 17, 0, 0, 0, msk), false},
		{"one minute before close", time.Date(2026, 3, 1, 19, 29, 0, 0, msk), false},
		{"one second before close", time.Date(2026, 3, 1, 19, 29, 59, 0, msk), false},
		{"at close", time.Date(2026, 3, 1, 19, 30, 0, 0, msk), true},
		{"after close", time.Date(2026, 3, 1, 22, 0, 0, 0, msk), true},
		// 16:30 UTC is 19:30 MSK.
		{"utc instant at close", time.Date(2026, 3, 1, 16, 30, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := w.DrawEligible(tc.at); got != tc.want {
				t.Errorf("DrawEligible(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}
