package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"race-calendar/internal/lib/logger/sl"
	"race-calendar/internal/model"
	"race-calendar/internal/repository"
)

type UserProvider interface {
	List(ctx context.Context) ([]model.User, error)
}

// EventDetail is the detail view of one event. Creator is nil when the
// author could not be resolved; the rest of the view is still usable.
type EventDetail struct {
	Event   model.Event
	Card    EventCard
	Creator *model.User
}

type DetailService struct {
	log     *slog.Logger
	events  EventStore
	users   UserProvider
	catalog *CatalogService
}

func NewDetailService(log *slog.Logger, events EventStore, users UserProvider, catalog *CatalogService) *DetailService {
	return &DetailService{log: log, events: events, users: users, catalog: catalog}
}

// Get loads the event fresh from the data source and resolves its
// championship, categories and creator.
func (s *DetailService) Get(ctx context.Context, id model.ID) (*EventDetail, error) {
	const op = "service.DetailService.Get"
	log := s.log.With(slog.String("op", op), slog.String("id", id.String()))

	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("event %d: %w", id, ErrEventNotFound)
		}
		log.Error("failed to load event", sl.Err(err))
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	snap, err := s.catalog.Current(ctx)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, log, *event, snap), nil
}

// describe never fails: an unresolved creator leaves Creator nil.
func (s *DetailService) describe(ctx context.Context, log *slog.Logger, event model.Event, snap *Snapshot) *EventDetail {
	detail := &EventDetail{Event: event, Card: NewEventCard(snap, event)}

	users, err := s.users.List(ctx)
	if err != nil {
		log.Warn("failed to load users", sl.Err(err))
		return detail
	}
	creator, err := LookupUser(users, event.CreatedBy)
	if err != nil {
		log.Debug("creator not resolved", sl.Err(err))
		return detail
	}
	detail.Creator = &creator
	return detail
}

// Update resends the full field set of the event. The creator is never
// reassigned and an empty image keeps the current one. Once the data source
// accepted the change Update succeeds; when the event cannot be reloaded the
// detail is built from the values that were sent.
func (s *DetailService) Update(ctx context.Context, id model.ID, in EventInput) (*EventDetail, error) {
	const op = "service.DetailService.Update"
	log := s.log.With(slog.String("op", op), slog.String("id", id.String()))

	current, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("event %d: %w", id, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := in.Validate(s.catalog.Snapshot()); err != nil {
		return nil, err
	}

	updated := in.Event(current.CreatedBy)
	updated.ID = id
	if updated.Image == "" {
		updated.Image = current.Image
	}
	if err := s.events.Update(ctx, &updated); err != nil {
		log.Error("failed to update event", sl.Err(err))
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("event %d: %w", id, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("event updated")

	s.catalog.afterWrite(ctx, log)
	detail, err := s.Get(ctx, id)
	if err != nil {
		log.Warn("failed to reload updated event", sl.Err(err))
		return s.describe(ctx, log, updated, s.catalog.Snapshot()), nil
	}
	return detail, nil
}

func (s *DetailService) Delete(ctx context.Context, id model.ID) error {
	const op = "service.DetailService.Delete"
	log := s.log.With(slog.String("op", op), slog.String("id", id.String()))

	if err := s.events.Delete(ctx, id); err != nil {
		log.Error("failed to delete event", sl.Err(err))
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("event %d: %w", id, ErrEventNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("event deleted")

	s.catalog.afterWrite(ctx, log)
	return nil
}

func LookupUser(users []model.User, id model.ID) (model.User, error) {
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
}
