package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Timestamp layouts accepted from the data source, most specific first.
// The last one is what an HTML datetime-local input submits.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Event is a single scheduled race occurrence.
type Event struct {
	ID             ID        `json:"id,omitempty"`
	Title          string    `json:"title"`
	Image          string    `json:"image"`
	Location       string    `json:"location"`
	Country        string    `json:"country"`
	ChampionshipID ID        `json:"championshipId"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	CreatedBy      ID        `json:"createdBy"`
}

type eventJSON struct {
	ID             ID     `json:"id,omitempty"`
	Title          string `json:"title"`
	Image          string `json:"image"`
	Location       string `json:"location"`
	Country        string `json:"country"`
	ChampionshipID ID     `json:"championshipId"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	CreatedBy      ID     `json:"createdBy"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		ID:             e.ID,
		Title:          e.Title,
		Image:          e.Image,
		Location:       e.Location,
		Country:        e.Country,
		ChampionshipID: e.ChampionshipID,
		StartTime:      formatTimestamp(e.StartTime),
		EndTime:        formatTimestamp(e.EndTime),
		CreatedBy:      e.CreatedBy,
	})
}

// UnmarshalJSON never fails on a bad timestamp: the affected field stays
// zero so one malformed record cannot hide the rest of a collection.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Event{
		ID:             raw.ID,
		Title:          raw.Title,
		Image:          raw.Image,
		Location:       raw.Location,
		Country:        raw.Country,
		ChampionshipID: raw.ChampionshipID,
		CreatedBy:      raw.CreatedBy,
	}
	e.StartTime, _ = ParseTimestamp(raw.StartTime)
	e.EndTime, _ = ParseTimestamp(raw.EndTime)
	return nil
}

// ParseTimestamp parses a timestamp in any accepted layout. Values without a
// zone offset are interpreted in the local zone.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, raw, time.Local)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
