// utils/dates.go
package utils

import "time"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}

// LocationOrUTC resolves an IANA timezone name, falling back to UTC when the
// name is empty or unknown.
func LocationOrUTC(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatDate renders a timestamp as e.g. "Monday, January 2" in the given zone.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Monday, January 2")
}

// FormatClock renders a timestamp as e.g. "3:04 PM" in the given zone.
func FormatClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("3:04 PM")
}
