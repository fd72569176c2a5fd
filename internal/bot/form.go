package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"race-calendar/internal/format"
	"race-calendar/internal/model"
	"race-calendar/internal/service"
)

type formStep int

const (
	stepTitle formStep = iota
	stepStart
	stepEnd
	stepLocation
	stepCountry
	stepChampionship
	stepImage
	stepDone
)

const formSteps = int(stepDone)

const formTimeLayout = "2006-01-02 15:04"

var (
	errFieldRequired       = errors.New("field is required")
	errEmptyAnswer         = errors.New("empty answer")
	errBadTime             = errors.New("unrecognized date")
	errEndBeforeStart      = errors.New("end before start")
	errUnknownChampionship = errors.New("unknown championship")
)

// eventForm collects event fields one step at a time. With a non-zero
// eventID it edits an existing event and every step may be skipped to keep
// the current value.
type eventForm struct {
	eventID model.ID
	step    formStep
	input   service.EventInput
}

func newCreateForm() *eventForm {
	return &eventForm{step: stepTitle}
}

func newEditForm(id model.ID, current service.EventInput) *eventForm {
	return &eventForm{eventID: id, step: stepTitle, input: current}
}

func (f *eventForm) editing() bool {
	return f.eventID != 0
}

func (f *eventForm) done() bool {
	return f.step >= stepDone
}

// apply consumes the answer to the current step. On error the form stays on
// the same step; hint turns the error into a reply.
func (f *eventForm) apply(text string, snap *service.Snapshot) error {
	text = strings.TrimSpace(text)
	if isSkipInput(text) {
		if !f.editing() && f.step != stepImage {
			return errFieldRequired
		}
		if f.step == stepEnd && f.input.EndTime.Before(f.input.StartTime) {
			return errEndBeforeStart
		}
		f.step++
		return nil
	}
	if text == "" {
		return errEmptyAnswer
	}

	switch f.step {
	case stepTitle:
		f.input.Title = text
	case stepStart:
		t, err := parseFormTime(text)
		if err != nil {
			return err
		}
		f.input.StartTime = t
	case stepEnd:
		t, err := parseFormTime(text)
		if err != nil {
			return err
		}
		if t.Before(f.input.StartTime) {
			return errEndBeforeStart
		}
		f.input.EndTime = t
	case stepLocation:
		f.input.Location = text
	case stepCountry:
		f.input.Country = text
	case stepChampionship:
		id, err := matchChampionship(snap, text)
		if err != nil {
			return err
		}
		f.input.ChampionshipID = id
	case stepImage:
		f.input.Image = text
	default:
		return nil
	}
	f.step++
	return nil
}

func (f *eventForm) hint(err error) string {
	switch {
	case errors.Is(err, errFieldRequired):
		return "This field is required, please send a value."
	case errors.Is(err, errEmptyAnswer):
		return "Please answer with text."
	case errors.Is(err, errBadTime):
		return "Cannot read the date. Use the format <code>2024-09-12 08:00</code>."
	case errors.Is(err, errEndBeforeStart):
		return fmt.Sprintf("The end must not be before the start (%s %s).",
			format.FormatDate(f.input.StartTime), format.FormatTime(f.input.StartTime))
	case errors.Is(err, errUnknownChampionship):
		return "Unknown championship. Pick one from the keyboard."
	default:
		return "Please try again."
	}
}

// prompt is the question for the current step.
func (f *eventForm) prompt(snap *service.Snapshot) string {
	var question, current string
	switch f.step {
	case stepTitle:
		question = "What is the event called?"
		current = f.input.Title
	case stepStart:
		question = "When does it start? Send <code>YYYY-MM-DD HH:MM</code>."
		current = formatFormTime(f.input.StartTime)
	case stepEnd:
		question = "When does it end? Send <code>YYYY-MM-DD HH:MM</code>."
		current = formatFormTime(f.input.EndTime)
	case stepLocation:
		question = "Where does it take place (track or venue)?"
		current = f.input.Location
	case stepCountry:
		question = "Which country?"
		current = f.input.Country
	case stepChampionship:
		question = "Which championship? Pick one from the keyboard."
		current = snap.ChampionshipName(f.input.ChampionshipID)
	case stepImage:
		question = "Send an image URL or press Skip for a placeholder."
		current = f.input.Image
	default:
		return ""
	}

	var sb strings.Builder
	if f.editing() {
		sb.WriteString(fmt.Sprintf("✏️ Editing event #%d\n", f.eventID))
	} else {
		sb.WriteString("🆕 New event\n")
	}
	sb.WriteString(fmt.Sprintf("<b>Step %d/%d:</b> %s", int(f.step)+1, formSteps, question))
	if f.editing() {
		if current == "" {
			current = "none"
		}
		sb.WriteString(fmt.Sprintf("\nCurrent: <code>%s</code>. Press Skip to keep it.", escape(current)))
	}
	return sb.String()
}

func parseFormTime(raw string) (time.Time, error) {
	for _, layout := range []string{formTimeLayout, "02.01.2006 15:04"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := model.ParseTimestamp(raw); err == nil {
		return t, nil
	}
	return time.Time{}, errBadTime
}

func formatFormTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(formTimeLayout)
}

// matchChampionship accepts a championship id or its name, ignoring case.
func matchChampionship(snap *service.Snapshot, text string) (model.ID, error) {
	if id, err := model.ParseID(text); err == nil {
		if _, err := snap.LookupChampionship(id); err == nil {
			return id, nil
		}
	}
	if snap != nil {
		for _, c := range snap.Championships {
			if strings.EqualFold(strings.TrimSpace(c.Name), text) {
				return c.ID, nil
			}
		}
	}
	return 0, errUnknownChampionship
}
