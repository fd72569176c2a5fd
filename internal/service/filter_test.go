package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"race-calendar/internal/model"
)

func titles(events []model.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Title)
	}
	return out
}

func TestFilterEventsIgnoresCase(t *testing.T) {
	events := []model.Event{
		{ID: 1, Title: "Dutch GP", ChampionshipID: 1},
		{ID: 2, Title: "Belgian GP", ChampionshipID: 1},
		{ID: 3, Title: "Monaco GP", ChampionshipID: 2},
	}
	f := Filter{Selected: map[model.ID]bool{1: true, 2: false}}

	for _, search := range []string{"GP", "gp", "Gp"} {
		got := FilterEvents(events, f.WithSearch(search))
		assert.Equal(t, []string{"Dutch GP", "Belgian GP"}, titles(got), search)
	}

	assert.Equal(t, []string{"Belgian GP"}, titles(FilterEvents(events, f.WithSearch("belg"))))
}

func TestNewFilterSelectsEverything(t *testing.T) {
	championships := []model.Championship{{ID: 1}, {ID: 2}}
	events := []model.Event{
		{ID: 1, Title: "Dutch GP", ChampionshipID: 1},
		{ID: 2, Title: "Berlin E-Prix", ChampionshipID: 2},
	}

	got := FilterEvents(events, NewFilter(championships))
	assert.Equal(t, []string{"Dutch GP", "Berlin E-Prix"}, titles(got))
}

func TestFilterExcludesUnknownChampionship(t *testing.T) {
	f := NewFilter([]model.Championship{{ID: 1}})
	assert.False(t, f.Matches(model.Event{Title: "Orphan", ChampionshipID: 42}))
	assert.True(t, f.Matches(model.Event{Title: "Known", ChampionshipID: 1}))
}

func TestFilterSyncKeepsChoices(t *testing.T) {
	f := NewFilter([]model.Championship{{ID: 1}, {ID: 2}}).Toggle(2)

	synced := f.Sync([]model.Championship{{ID: 1}, {ID: 2}, {ID: 3}})
	assert.Equal(t, map[model.ID]bool{1: true, 2: false, 3: true}, synced.Selected)
}

func TestFilterToggleReturnsCopy(t *testing.T) {
	f := NewFilter([]model.Championship{{ID: 1}})
	toggled := f.Toggle(1)

	assert.True(t, f.Selected[1])
	assert.False(t, toggled.Selected[1])
	assert.True(t, toggled.Toggle(1).Selected[1])
}
