package core

import (
	"fmt"
	"time"
)

// PeriodKey identifies a calendar month. It is the unit the reconciler uses
// to decide "already generated this month": two runs inside the same period
// key must never materialize an obligation twice.
type PeriodKey struct {
	Year  int
	Month int // 1-12
}

// PeriodOf returns the period key of t's UTC calendar month.
func PeriodOf(t time.Time) PeriodKey {
	u := t.UTC()
	return PeriodKey{Year: u.Year(), Month: int(u.Month())}
}

// Period returns the period key the date falls in. Zero dates map to the
// zero PeriodKey, the sentinel for "never generated".
func (d Date) Period() PeriodKey {
	if d.IsZero() {
		return PeriodKey{}
	}
	return PeriodOf(d.Time)
}

func (p PeriodKey) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// String renders the key as "2024-03".
func (p PeriodKey) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// ParsePeriod parses a "2006-01" formatted key.
func ParsePeriod(s string) (PeriodKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return PeriodKey{}, fmt.Errorf("parse period %q: %w", s, err)
	}
	return PeriodOf(t), nil
}

// Next returns the following calendar month.
func (p PeriodKey) Next() PeriodKey {
	if p.Month == 12 {
		return PeriodKey{Year: p.Year + 1, Month: 1}
	}
	return PeriodKey{Year: p.Year, Month: p.Month + 1}
}

// Previous returns the preceding calendar month.
func (p PeriodKey) Previous() PeriodKey {
	if p.Month == 1 {
		return PeriodKey{Year: p.Year - 1, Month: 12}
	}
	return PeriodKey{Year: p.Year, Month: p.Month - 1}
}

// Contains reports whether d falls inside this calendar month.
func (p PeriodKey) Contains(d Date) bool {
	return d.Year() == p.Year && int(d.Month()) == p.Month
}

// LastDay returns the number of days in the month (handles leap years).
func (p PeriodKey) LastDay() int {
	return time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateAt builds a Date inside this period, clamping day to the month's last
// day when the month is shorter. Day 31 in April yields April 30.
func (p PeriodKey) DateAt(day int) Date {
	if last := p.LastDay(); day > last {
		day = last
	}
	return NewDate(p.Year, p.Month, day)
}

// Bounds returns the first day of the period and the first day of the next
// period, the half-open range storage queries filter on.
func (p PeriodKey) Bounds() (from, to Date) {
	n := p.Next()
	return NewDate(p.Year, p.Month, 1), NewDate(n.Year, n.Month, 1)
}
