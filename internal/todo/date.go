package todo

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for every date token in a todo file.
const DateLayout = "2006-01-02"

// Date is a civil date without a time zone. The zero value is "no date".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the given civil date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// Sometime is the far-future date used to park tasks without a real deadline.
var Sometime = Date{Year: 9999, Month: time.December, Day: 31}

// Today returns the current date in the local time zone.
func Today() Date {
	return DateOf(time.Now())
}

// DateOf converts a time to the civil date it falls on.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses an ISO date. It rejects well-shaped but impossible
// dates such as 2025-02-30.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.time().Format(DateLayout)
}

// IsZero reports whether d is the absent date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d falls before o.
func (d Date) Before(o Date) bool {
	return d.time().Before(o.time())
}

// After reports whether d falls after o.
func (d Date) After(o Date) bool {
	return d.time().After(o.time())
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.time().AddDate(0, 0, n))
}

func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}
