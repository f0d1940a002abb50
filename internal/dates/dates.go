package dates

import "time"

// Layout is the canonical date-only format used everywhere in the service. Dates are
// carried and compared as strings so that two values produced in the same tenant
// timezone can never drift apart through timezone conversion.
const Layout = "2006-01-02"

// DefaultTimezone is the tenant timezone applied when none is configured.
const DefaultTimezone = "America/Sao_Paulo"

// LoadLocation resolves a timezone name, falling back to the default and finally UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if loc, err = time.LoadLocation(DefaultTimezone); err == nil {
			return loc
		}
		return time.UTC
	}
	return loc
}

// FromTime truncates an instant to its calendar day in the given location.
func FromTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(Layout)
}

// Today returns the current calendar day in the given location.
func Today(loc *time.Location) string {
	return FromTime(time.Now(), loc)
}

// AddDays adds n calendar days (not business days) to a date-only value. Invalid
// input is returned unchanged.
func AddDays(date string, n int) string {
	t, err := time.Parse(Layout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(Layout)
}

// DiffDays returns the number of calendar days from a to b. Negative when b is
// earlier than a, zero when either value is invalid.
func DiffDays(a, b string) int {
	ta, errA := time.Parse(Layout, a)
	tb, errB := time.Parse(Layout, b)
	if errA != nil || errB != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// ComputeDueDate derives the SLA deadline: the delivery instant truncated to its
// calendar day in the tenant timezone, plus slaDays calendar days.
func ComputeDueDate(deliveredAt time.Time, slaDays int, loc *time.Location) string {
	return AddDays(FromTime(deliveredAt, loc), slaDays)
}

// IsOverdue reports whether dueDate has passed. Date-only strings in YYYY-MM-DD
// order lexicographically, so a plain string compare is exact. A ticket due today
// is not overdue.
func IsOverdue(dueDate, today string) bool {
	return dueDate != "" && dueDate < today
}

// IsValid reports whether a value parses as a canonical date-only string.
func IsValid(date string) bool {
	_, err := time.Parse(Layout, date)
	return err == nil
}
