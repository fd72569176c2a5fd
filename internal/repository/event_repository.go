package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"race-calendar/internal/model"
)

const eventsResource = "events"

// EventRepository handles CRUD for events on the data source.
type EventRepository struct {
	gw *Gateway
}

func NewEventRepository(gw *Gateway) *EventRepository {
	return &EventRepository{gw: gw}
}

func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := r.gw.get(ctx, eventsResource, "/events", &events); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	// records without a numeric id cannot be opened, edited or deleted
	kept := events[:0]
	for _, e := range events {
		if e.ID == 0 {
			r.gw.log.Warn("skipping event without numeric id", slog.String("title", e.Title))
			continue
		}
		kept = append(kept, e)
	}
	return kept, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id model.ID) (*model.Event, error) {
	var event model.Event
	if err := r.gw.get(ctx, eventsResource, eventPath(id), &event); err != nil {
		return nil, fmt.Errorf("find event %d: %w", id, err)
	}
	return &event, nil
}

// Create posts the event and stores the id assigned by the data source.
func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	payload := *event
	payload.ID = 0

	var created model.Event
	if err := r.gw.do(ctx, http.MethodPost, eventsResource, "/events", payload, &created); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	if created.ID == 0 {
		return fmt.Errorf("create event: data source returned no numeric id")
	}
	*event = created
	return nil
}

// Update replaces the whole event; partial updates are not supported.
func (r *EventRepository) Update(ctx context.Context, event *model.Event) error {
	if event.ID == 0 {
		return fmt.Errorf("update event: missing id")
	}
	if err := r.gw.do(ctx, http.MethodPut, eventsResource, eventPath(event.ID), event, nil); err != nil {
		return fmt.Errorf("update event %d: %w", event.ID, err)
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id model.ID) error {
	if err := r.gw.do(ctx, http.MethodDelete, eventsResource, eventPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	return nil
}

func eventPath(id model.ID) string {
	return "/events/" + id.String()
}
