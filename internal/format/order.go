package format

import (
	"sort"

	"race-calendar/internal/model"
)

// CompareEvents orders events by start time ascending. Equal start times
// compare as 0 and are not broken further.
func CompareEvents(a, b model.Event) int {
	switch {
	case a.StartTime.Before(b.StartTime):
		return -1
	case a.StartTime.After(b.StartTime):
		return 1
	default:
		return 0
	}
}

// SortEvents sorts events in place by start time, keeping the relative order
// of events that start at the same time.
func SortEvents(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return CompareEvents(events[i], events[j]) < 0
	})
}
