package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar day with no time-of-day semantics. It is always stored
// at midnight UTC. The zero Date marks a missing or unparseable value.
type Date struct {
	time.Time
}

// NewDate returns the normalized Date for year, month and day.
// Out of range values roll over the same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the current calendar day in the local time zone.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a strict YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Valid reports whether d holds a real calendar day.
func (d Date) Valid() bool {
	return !d.IsZero()
}

func (d Date) Validate() error {
	if !d.Valid() {
		return ErrInvalidDate
	}
	return nil
}

// String formats d as YYYY-MM-DD, or "" for the zero Date.
func (d Date) String() string {
	if !d.Valid() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// LastOfMonth returns the last day of d's month.
func (d Date) LastOfMonth() Date {
	return NewDate(d.Year(), d.Month()+1, 0)
}

// MarshalJSON writes an ISO date, or null for the zero Date.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
