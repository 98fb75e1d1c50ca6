// Package calendar holds the business-day rules used to derive entry dates.
package calendar

import "time"

const dateLayout = "2006-01-02"

// Calendar is a weekday calendar with an optional holiday list.
// The zero value treats every Monday..Friday as a business day.
type Calendar struct {
	holidays map[string]struct{}
}

// New creates a calendar that also skips the given holidays.
func New(holidays []time.Time) Calendar {
	c := Calendar{holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[Day(h).Format(dateLayout)] = struct{}{}
	}
	return c
}

// ParseHolidays parses YYYY-MM-DD strings.
func ParseHolidays(values []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, err := ParseDate(v)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// IsBusinessDay reports whether d is a weekday and not a holiday.
func (c Calendar) IsBusinessDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[Day(d).Format(dateLayout)]
	return !holiday
}

// NextBusinessDay returns the first business day strictly after d.
func (c Calendar) NextBusinessDay(d time.Time) time.Time {
	next := Day(d).AddDate(0, 0, 1)
	for !c.IsBusinessDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Day truncates t to UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
