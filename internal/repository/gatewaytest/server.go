// Package gatewaytest provides an in-memory stand-in for the calendar data
// source, served over httptest. It follows json-server conventions: numeric
// ids assigned on POST, full replacement on PUT and an empty object on DELETE.
package gatewaytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"race-calendar/internal/model"
)

// Fixture is the initial content of the fake data source.
type Fixture struct {
	Events        []model.Event
	Championships []model.Championship
	Categories    []model.Category
	Users         []model.User
}

// DefaultFixture mirrors the demo data of the race calendar.
func DefaultFixture() Fixture {
	start := time.Date(2024, 8, 25, 15, 0, 0, 0, time.UTC)
	return Fixture{
		Championships: []model.Championship{
			{ID: 1, Name: "Formula 1", CategoryIDs: []model.ID{1}},
			{ID: 2, Name: "Formula E", CategoryIDs: []model.ID{1, 2}},
			{ID: 3, Name: "World Endurance Championship", CategoryIDs: []model.ID{3, 4, 5}},
			{ID: 4, Name: "World Rally Championship", CategoryIDs: []model.ID{6}},
			{ID: 5, Name: "Dakar", CategoryIDs: []model.ID{6, 7, 8}},
		},
		Categories: []model.Category{
			{ID: 1, Type: "Single seater"},
			{ID: 2, Type: "Electric"},
			{ID: 3, Type: "Hypercar"},
			{ID: 4, Type: "LMP2"},
			{ID: 5, Type: "LMGT3"},
			{ID: 6, Type: "Rally1"},
			{ID: 7, Type: "Truck"},
			{ID: 8, Type: "Bike"},
		},
		Users: []model.User{
			{ID: 1, Name: "Max", Image: "/images/users/max.jpg"},
			{ID: 2, Name: "Lando", Image: "/images/users/lando.jpg"},
		},
		Events: []model.Event{
			{ID: 1, Title: "Dutch GP", Location: "Circuit Zandvoort", Country: "The Netherlands", ChampionshipID: 1, StartTime: start, EndTime: start.Add(2 * time.Hour), CreatedBy: 1},
			{ID: 2, Title: "Belgian GP", Location: "Spa-Francorchamps", Country: "Belgium", ChampionshipID: 1, StartTime: start.AddDate(0, 0, -28), EndTime: start.AddDate(0, 0, -28).Add(2 * time.Hour), CreatedBy: 2},
			{ID: 3, Title: "London E-Prix", Location: "ExCeL", Country: "United Kingdom", ChampionshipID: 2, StartTime: start.AddDate(0, 0, -42), EndTime: start.AddDate(0, 0, -42).Add(time.Hour), CreatedBy: 1},
		},
	}
}

type failure struct {
	method string
	path   string
	code   int
}

// Server is a running fake data source.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	events        []model.Event
	championships []model.Championship
	categories    []model.Category
	users         []model.User
	nextID        model.ID
	failures      []failure
	requests      map[string]int
}

// NewServer starts a fake data source seeded with fixture and closes it when
// the test ends.
func NewServer(t testing.TB, fixture Fixture) *Server {
	t.Helper()

	s := &Server{
		events:        append([]model.Event(nil), fixture.Events...),
		championships: fixture.Championships,
		categories:    fixture.Categories,
		users:         fixture.Users,
		requests:      make(map[string]int),
	}
	for _, e := range s.events {
		if e.ID > s.nextID {
			s.nextID = e.ID
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", s.listEvents)
	mux.HandleFunc("POST /events", s.createEvent)
	mux.HandleFunc("GET /events/{id}", s.getEvent)
	mux.HandleFunc("PUT /events/{id}", s.updateEvent)
	mux.HandleFunc("DELETE /events/{id}", s.deleteEvent)
	mux.HandleFunc("GET /championships", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, s.championships)
	})
	mux.HandleFunc("GET /categories", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, s.categories)
	})
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, s.users)
	})

	s.Server = httptest.NewServer(s.intercept(mux))
	t.Cleanup(s.Close)
	return s
}

// Fail makes the next request matching method and path answer with code.
func (s *Server) Fail(method, path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, path: path, code: code})
}

// Requests returns how many requests reached method and path.
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+path]
}

// Events returns a copy of the stored events.
func (s *Server) Events() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Event(nil), s.events...)
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.Method+" "+r.URL.Path]++
		for i, f := range s.failures {
			if f.method == r.Method && f.path == r.URL.Path {
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				s.mu.Unlock()
				http.Error(w, http.StatusText(f.code), f.code)
				return
			}
		}
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.events)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.find(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, s.events[idx])
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var event model.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	event.ID = s.nextID
	s.events = append(s.events, event)
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	var event model.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.find(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	event.ID = s.events[idx].ID
	s.events[idx] = event
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.find(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	s.events = append(s.events[:idx], s.events[idx+1:]...)
	writeJSON(w, http.StatusOK, struct{}{})
}

// find must be called with s.mu held.
func (s *Server) find(r *http.Request) (int, bool) {
	id, err := model.ParseID(r.PathValue("id"))
	if err != nil {
		return 0, false
	}
	for i, e := range s.events {
		if e.ID == id {
			return i, true
		}
	}
	return 0, false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
