package service

import (
	"strings"

	"race-calendar/internal/model"
)

// Filter is the catalog filter state of one viewer: free-text search plus a
// selection flag per championship id. Filter values are never mutated in
// place; every change returns a new Filter.
type Filter struct {
	Search   string
	Selected map[model.ID]bool
}

// NewFilter selects every championship with an empty search.
func NewFilter(championships []model.Championship) Filter {
	return Filter{}.Sync(championships)
}

// Sync adds championships the filter has not seen yet, selected.
func (f Filter) Sync(championships []model.Championship) Filter {
	selected := make(map[model.ID]bool, len(championships))
	for id, on := range f.Selected {
		selected[id] = on
	}
	for _, c := range championships {
		if _, ok := selected[c.ID]; !ok {
			selected[c.ID] = true
		}
	}
	return Filter{Search: f.Search, Selected: selected}
}

func (f Filter) Toggle(id model.ID) Filter {
	selected := make(map[model.ID]bool, len(f.Selected))
	for k, v := range f.Selected {
		selected[k] = v
	}
	selected[id] = !selected[id]
	return Filter{Search: f.Search, Selected: selected}
}

func (f Filter) WithSearch(search string) Filter {
	return Filter{Search: search, Selected: f.Selected}
}

// Matches reports whether the event title contains the search text, ignoring
// case, and its championship is selected. Championships missing from the
// selection are treated as not selected.
func (f Filter) Matches(e model.Event) bool {
	if !f.Selected[e.ChampionshipID] {
		return false
	}
	return strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Search))
}

// FilterEvents returns the matching events in their original order.
func FilterEvents(events []model.Event, f Filter) []model.Event {
	matched := make([]model.Event, 0, len(events))
	for _, e := range events {
		if f.Matches(e) {
			matched = append(matched, e)
		}
	}
	return matched
}
