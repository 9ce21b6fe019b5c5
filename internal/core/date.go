package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar date. The wrapped time is always midnight UTC so that
// Year and Month never depend on the server's location.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day. Out-of-range values are
// normalised the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as observed in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts "YYYY-MM-DD" or a full RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysInMonth returns the number of calendar days of the given month,
// accounting for leap years.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidMonth reports whether m is January..December.
func ValidMonth(m time.Month) bool {
	return m >= time.January && m <= time.December
}

// AddMonths shifts a (year, month) pair by delta months with a true year
// rollover in both directions.
func AddMonths(year int, month time.Month, delta int) (int, time.Month) {
	idx := year*12 + int(month-time.January) + delta
	y := floorDiv(idx, 12)
	return y, time.Month(idx-y*12) + time.January
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
