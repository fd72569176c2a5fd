package service

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"race-calendar/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// EventInput holds the editable fields of an event as collected by a form.
type EventInput struct {
	Title          string    `validate:"required"`
	Image          string
	Location       string    `validate:"required"`
	Country        string    `validate:"required"`
	ChampionshipID model.ID  `validate:"required"`
	StartTime      time.Time `validate:"required"`
	EndTime        time.Time `validate:"required,gtefield=StartTime"`
}

// InputFromEvent pre-populates an edit form with the event's current values.
func InputFromEvent(e model.Event) EventInput {
	return EventInput{
		Title:          e.Title,
		Image:          e.Image,
		Location:       e.Location,
		Country:        e.Country,
		ChampionshipID: e.ChampionshipID,
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
	}
}

func (in EventInput) normalize() EventInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Image = strings.TrimSpace(in.Image)
	in.Location = strings.TrimSpace(in.Location)
	in.Country = strings.TrimSpace(in.Country)
	return in
}

// Validate checks required fields, the start/end order and, when a snapshot
// is available, that the championship exists.
func (in EventInput) Validate(snap *Snapshot) error {
	in = in.normalize()
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}
	if snap != nil {
		if _, err := snap.LookupChampionship(in.ChampionshipID); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	return nil
}

// Event builds the payload sent to the data source.
func (in EventInput) Event(creator model.ID) model.Event {
	in = in.normalize()
	return model.Event{
		Title:          in.Title,
		Image:          in.Image,
		Location:       in.Location,
		Country:        in.Country,
		ChampionshipID: in.ChampionshipID,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		CreatedBy:      creator,
	}
}

var fieldLabels = map[string]string{
	"Title":          "title",
	"Location":       "location",
	"Country":        "country",
	"ChampionshipID": "championship",
	"StartTime":      "start time",
	"EndTime":        "end time",
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		label := fieldLabels[fe.Field()]
		if label == "" {
			label = strings.ToLower(fe.Field())
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, label+" is required")
		case "gtefield":
			msgs = append(msgs, label+" must not be before start time")
		default:
			msgs = append(msgs, label+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// ImageRotation hands out placeholder images in a fixed cycle for events
// created without one.
type ImageRotation struct {
	pattern string
	count   uint64
	next    atomic.Uint64
}

// NewImageRotation expects pattern to contain a single %d verb, filled with
// 1..count. A pattern without a verb is returned as is.
func NewImageRotation(pattern string, count int) *ImageRotation {
	if count < 1 {
		count = 1
	}
	return &ImageRotation{pattern: pattern, count: uint64(count)}
}

func (r *ImageRotation) Next() string {
	if !strings.Contains(r.pattern, "%d") {
		return r.pattern
	}
	n := r.next.Add(1) - 1
	return fmt.Sprintf(r.pattern, n%r.count+1)
}
