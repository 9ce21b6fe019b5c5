package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2025, time.March, 31},
		{2025, time.April, 30},
		{2025, time.December, 31},
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Fatalf("DaysInMonth(%d, %s) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestAddMonths(t *testing.T) {
	cases := []struct {
		year      int
		month     time.Month
		delta     int
		wantYear  int
		wantMonth time.Month
	}{
		{2025, time.January, -1, 2024, time.December},
		{2025, time.January, -2, 2024, time.November},
		{2025, time.March, -14, 2024, time.January},
		{2024, time.December, 1, 2025, time.January},
		{2024, time.June, 0, 2024, time.June},
		{2024, time.June, 30, 2026, time.December},
		{0, time.January, -1, -1, time.December},
	}
	for _, tc := range cases {
		y, m := AddMonths(tc.year, tc.month, tc.delta)
		if y != tc.wantYear || m != tc.wantMonth {
			t.Fatalf("AddMonths(%d, %s, %d) = %d %s, want %d %s",
				tc.year, tc.month, tc.delta, y, m, tc.wantYear, tc.wantMonth)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-05")
	if err != nil || d.String() != "2025-03-05" {
		t.Fatalf("plain date: %v %s", err, d)
	}
	// The calendar day of the timestamp's own offset wins.
	d, err = ParseDate("2025-03-31T23:30:00-05:00")
	if err != nil || d.String() != "2025-03-31" {
		t.Fatalf("timestamp: %v %s", err, d)
	}
	if _, err := ParseDate("05/03/2025"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		Date Date `json:"date"`
	}
	if err := json.Unmarshal([]byte(`{"date":"2024-02-29"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Date.Year() != 2024 || v.Date.Month() != time.February || v.Date.Day() != 29 {
		t.Fatalf("unexpected date %v", v.Date)
	}
	b, _ := json.Marshal(v)
	if string(b) != `{"date":"2024-02-29"}` {
		t.Fatalf("unexpected json %s", b)
	}
}
