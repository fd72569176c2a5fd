package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"race-calendar/internal/model"
)

const icsProductID = "-//race-calendar//events//EN"

// EventUID is the stable iCalendar UID of an event.
func EventUID(id model.ID) string {
	return fmt.Sprintf("event-%d@race-calendar", id)
}

// WriteICS writes events as an iCalendar document. Events without a valid
// start time are skipped; the number written is returned.
func WriteICS(w io.Writer, snap *Snapshot, events []model.Event, stamp time.Time) (int, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName("Race Calendar")

	written := 0
	for _, e := range events {
		if e.StartTime.IsZero() {
			continue
		}
		end := e.EndTime
		if end.IsZero() || end.Before(e.StartTime) {
			end = e.StartTime
		}

		vevent := cal.AddEvent(EventUID(e.ID))
		vevent.SetDtStampTime(stamp.UTC())
		vevent.SetStartAt(e.StartTime.UTC())
		vevent.SetEndAt(end.UTC())
		vevent.SetSummary(e.Title)
		if place := joinNonEmpty(", ", e.Location, e.Country); place != "" {
			vevent.SetLocation(place)
		}

		card := NewEventCard(snap, e)
		if description := joinNonEmpty(" · ", card.Championship, strings.Join(card.Categories, ", ")); description != "" {
			vevent.SetDescription(description)
		}
		if len(card.Categories) > 0 {
			vevent.AddProperty(ics.ComponentPropertyCategories, strings.Join(card.Categories, ","))
		}
		written++
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return 0, fmt.Errorf("write calendar: %w", err)
	}
	return written, nil
}
