// Package format turns calendar records into display strings and orders them.
package format

import "time"

// InvalidDate is returned for timestamps that could not be parsed.
const InvalidDate = "Invalid Date"

const (
	dateLayout = "Monday 2 January"
	timeLayout = "15:04"
)

// FormatDate renders t as "<Weekday> <Day> <Month>" in the local zone,
// e.g. "Monday 3 June".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return InvalidDate
	}
	return t.Local().Format(dateLayout)
}

// FormatTime renders t as zero-padded 24 hour "HH:MM" in the local zone.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return InvalidDate
	}
	return t.Local().Format(timeLayout)
}

// FormatRange renders the start and end time of a session, "09:05 - 11:00".
func FormatRange(start, end time.Time) string {
	return FormatTime(start) + " - " + FormatTime(end)
}
