package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"race-calendar/internal/format"
	"race-calendar/internal/lib/logger/sl"
	"race-calendar/internal/model"
)

type EventStore interface {
	List(ctx context.Context) ([]model.Event, error)
	FindByID(ctx context.Context, id model.ID) (*model.Event, error)
	Create(ctx context.Context, event *model.Event) error
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id model.ID) error
}

type ChampionshipProvider interface {
	List(ctx context.Context) ([]model.Championship, error)
}

type CategoryProvider interface {
	List(ctx context.Context) ([]model.Category, error)
}

// CatalogObserver is notified about snapshot lifecycle. May be nil.
type CatalogObserver interface {
	SnapshotPublished(version uint64)
	RefreshFailed()
}

// CatalogService owns the shared catalog snapshot and derives filtered views
// from it. Reads only reach the data source when no snapshot is loaded or the
// current one was invalidated.
type CatalogService struct {
	log           *slog.Logger
	events        EventStore
	championships ChampionshipProvider
	categories    CategoryProvider
	images        *ImageRotation
	observer      CatalogObserver
	now           func() time.Time

	tokens atomic.Uint64

	mu       sync.RWMutex
	snapshot *Snapshot
	applied  uint64
	stale    bool
}

func NewCatalogService(
	log *slog.Logger,
	events EventStore,
	championships ChampionshipProvider,
	categories CategoryProvider,
	images *ImageRotation,
	observer CatalogObserver,
) *CatalogService {
	return &CatalogService{
		log:           log,
		events:        events,
		championships: championships,
		categories:    categories,
		images:        images,
		observer:      observer,
		now:           time.Now,
	}
}

// Snapshot returns the last published snapshot without fetching. It is nil
// until the first successful refresh.
func (s *CatalogService) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Current returns the published snapshot, loading it first when there is none
// or it was invalidated.
func (s *CatalogService) Current(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	snap, stale := s.snapshot, s.stale
	s.mu.RUnlock()
	if snap != nil && !stale {
		return snap, nil
	}
	return s.Refresh(ctx)
}

// Invalidate marks the snapshot stale; the next read reloads it.
func (s *CatalogService) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// Refresh reloads all three collections. A refresh that was started before
// an already applied one is dropped and the newer snapshot returned instead.
func (s *CatalogService) Refresh(ctx context.Context) (*Snapshot, error) {
	const op = "service.CatalogService.Refresh"
	log := s.log.With(slog.String("op", op))

	token := s.tokens.Add(1)

	events, err := s.events.List(ctx)
	if err != nil {
		return nil, s.refreshFailed(log, "events", err)
	}
	championships, err := s.championships.List(ctx)
	if err != nil {
		return nil, s.refreshFailed(log, "championships", err)
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, s.refreshFailed(log, "categories", err)
	}

	return s.publish(log, token, func(*Snapshot) *Snapshot {
		return &Snapshot{Events: events, Championships: championships, Categories: categories}
	}), nil
}

// RefreshEvents re-pulls only the events collection, keeping championships
// and categories of the current snapshot. Used after writes.
func (s *CatalogService) RefreshEvents(ctx context.Context) (*Snapshot, error) {
	const op = "service.CatalogService.RefreshEvents"
	log := s.log.With(slog.String("op", op))

	if s.Snapshot() == nil {
		return s.Refresh(ctx)
	}

	token := s.tokens.Add(1)
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, s.refreshFailed(log, "events", err)
	}

	return s.publish(log, token, func(prev *Snapshot) *Snapshot {
		return &Snapshot{Events: events, Championships: prev.Championships, Categories: prev.Categories}
	}), nil
}

func (s *CatalogService) refreshFailed(log *slog.Logger, resource string, err error) error {
	log.Error("failed to load "+resource, sl.Err(err))
	if s.observer != nil {
		s.observer.RefreshFailed()
	}
	return fmt.Errorf("%w: %w", ErrLoadFailed, err)
}

// publish installs the snapshot built by next unless a refresh with a newer
// token has already been applied.
func (s *CatalogService) publish(log *slog.Logger, token uint64, next func(prev *Snapshot) *Snapshot) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token < s.applied {
		log.Debug("discarding superseded refresh", slog.Uint64("token", token), slog.Uint64("applied", s.applied))
		return s.snapshot
	}

	snap := next(s.snapshot)
	snap.Events = append([]model.Event(nil), snap.Events...)
	format.SortEvents(snap.Events)
	snap.LoadedAt = s.now()
	if s.snapshot != nil {
		snap.Version = s.snapshot.Version + 1
	} else {
		snap.Version = 1
	}

	s.snapshot = snap
	s.applied = token
	s.stale = false

	log.Debug("snapshot published",
		slog.Uint64("version", snap.Version),
		slog.Int("events", len(snap.Events)),
		slog.Int("championships", len(snap.Championships)),
		slog.Int("categories", len(snap.Categories)),
	)
	if s.observer != nil {
		s.observer.SnapshotPublished(snap.Version)
	}
	return snap
}

// EventCard is the display projection of one event.
type EventCard struct {
	ID           model.ID
	Title        string
	Image        string
	Location     string
	Country      string
	Date         string
	StartTime    string
	EndTime      string
	Hours        string
	Championship string
	Categories   []string
}

func NewEventCard(snap *Snapshot, e model.Event) EventCard {
	categories := snap.CategoriesForChampionship(e.ChampionshipID)
	tags := make([]string, 0, len(categories))
	for _, c := range categories {
		tags = append(tags, c.Type)
	}
	return EventCard{
		ID:           e.ID,
		Title:        e.Title,
		Image:        e.Image,
		Location:     e.Location,
		Country:      e.Country,
		Date:         format.FormatDate(e.StartTime),
		StartTime:    format.FormatTime(e.StartTime),
		EndTime:      format.FormatTime(e.EndTime),
		Hours:        format.FormatRange(e.StartTime, e.EndTime),
		Championship: snap.ChampionshipName(e.ChampionshipID),
		Categories:   tags,
	}
}

type ChampionshipOption struct {
	ID       model.ID
	Name     string
	Selected bool
}

// CatalogView is the filtered catalog as shown to one viewer.
type CatalogView struct {
	Version       uint64
	Filter        Filter
	Events        []model.Event
	Cards         []EventCard
	Championships []ChampionshipOption
	Total         int
}

// View derives the filtered catalog from the current snapshot. The returned
// filter is synced with the snapshot's championships.
func (s *CatalogService) View(ctx context.Context, f Filter) (CatalogView, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return CatalogView{Filter: f}, err
	}
	return BuildView(snap, f), nil
}

// BuildView projects snap through f.
func BuildView(snap *Snapshot, f Filter) CatalogView {
	var championships []model.Championship
	var events []model.Event
	var version uint64
	if snap != nil {
		championships, events, version = snap.Championships, snap.Events, snap.Version
	}

	f = f.Sync(championships)
	matched := FilterEvents(events, f)

	view := CatalogView{
		Version:       version,
		Filter:        f,
		Events:        matched,
		Cards:         make([]EventCard, 0, len(matched)),
		Championships: make([]ChampionshipOption, 0, len(championships)),
		Total:         len(events),
	}
	for _, e := range matched {
		view.Cards = append(view.Cards, NewEventCard(snap, e))
	}
	for _, c := range championships {
		view.Championships = append(view.Championships, ChampionshipOption{ID: c.ID, Name: c.Name, Selected: f.Selected[c.ID]})
	}
	return view
}

// CreateEvent validates in, stores it with creator as author and re-pulls
// the events collection.
func (s *CatalogService) CreateEvent(ctx context.Context, creator model.ID, in EventInput) (*model.Event, error) {
	const op = "service.CatalogService.CreateEvent"
	log := s.log.With(slog.String("op", op))

	if creator <= 0 {
		return nil, ErrNoIdentity
	}
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(snap); err != nil {
		return nil, err
	}

	event := in.Event(creator)
	if event.Image == "" && s.images != nil {
		event.Image = s.images.Next()
	}
	if err := s.events.Create(ctx, &event); err != nil {
		log.Error("failed to create event", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("event created", slog.String("id", event.ID.String()), slog.String("creator", creator.String()))

	s.afterWrite(ctx, log)
	return &event, nil
}

// afterWrite re-pulls events; when that fails the snapshot is invalidated so
// the next read retries.
func (s *CatalogService) afterWrite(ctx context.Context, log *slog.Logger) {
	if _, err := s.RefreshEvents(ctx); err != nil {
		log.Warn("failed to refresh events after write", sl.Err(err))
		s.Invalidate()
	}
}

// IsLoadFailure reports whether err came from reading the data source.
func IsLoadFailure(err error) bool {
	return errors.Is(err, ErrLoadFailed)
}
