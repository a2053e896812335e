package core

import (
	"testing"
	"time"
)

func TestParseStartDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-31", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), true},
		{" 2024-01-31 08:15:00 ", time.Date(2024, 1, 31, 8, 15, 0, 0, time.UTC), true},
		{"2024-01-31T08:15:00", time.Date(2024, 1, 31, 8, 15, 0, 0, time.UTC), true},
		{"2024/01/31", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), true},
		{"01/31/2024", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), true},
		{"1/5/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"1/15/2024 8:30", time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC), true},
		{"01/15/2024 08:30", time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC), true},
		{"2024/01/15 08:30", time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC), true},
		{"1/15/2024 8:30:00 AM", time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC), true},
		{"1/15/2024 3:04 PM", time.Date(2024, 1, 15, 15, 4, 0, 0, time.UTC), true},
		{"1/15/2024 12:10:00 AM", time.Date(2024, 1, 15, 0, 10, 0, 0, time.UTC), true},
		{"1/15/24", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"12/31/99", time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"05-Feb-2024", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), true},
		{"Feb 5, 2024", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), true},
		{"2024-02-30", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tc := range cases {
		got, err := ParseStartDate(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(tc.want) {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %v", tc.in, got)
		}
	}
}

func TestParseMB(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"500", 500, true},
		{" 12.25 ", 12.25, true},
		{"1,234.5", 1234.5, true},
		{"0", 0, true},
		{"1e3", 1000, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-5", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseMB(tc.in)
		if ok != tc.ok || got != tc.out {
			t.Fatalf("%q expected (%v, %v), got (%v, %v)", tc.in, tc.out, tc.ok, got, ok)
		}
	}
}
