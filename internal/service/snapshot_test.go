package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"race-calendar/internal/model"
	"race-calendar/internal/repository/gatewaytest"
)

func fixtureSnapshot() *Snapshot {
	fx := gatewaytest.DefaultFixture()
	return &Snapshot{Version: 1, Events: fx.Events, Championships: fx.Championships, Categories: fx.Categories}
}

func categoryTypes(categories []model.Category) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.Type)
	}
	return out
}

func TestCategoriesForChampionship(t *testing.T) {
	snap := fixtureSnapshot()

	assert.Equal(t, []string{"Hypercar", "LMP2", "LMGT3"}, categoryTypes(snap.CategoriesForChampionship(3)))
	assert.Equal(t, []string{"Single seater", "Electric"}, categoryTypes(snap.CategoriesForChampionship(2)))

	unknown := snap.CategoriesForChampionship(99)
	require.NotNil(t, unknown)
	assert.Empty(t, unknown)
}

func TestChampionshipLookup(t *testing.T) {
	snap := fixtureSnapshot()

	assert.Equal(t, "Dakar", snap.ChampionshipName(5))
	assert.Equal(t, "", snap.ChampionshipName(99))

	_, err := snap.LookupChampionship(99)
	assert.True(t, errors.Is(err, ErrChampionshipNotFound))

	_, err = lookupEvent(snap, 99)
	assert.True(t, errors.Is(err, ErrEventNotFound))
}

func TestNilSnapshotIsEmpty(t *testing.T) {
	var snap *Snapshot

	assert.Equal(t, "", snap.ChampionshipName(1))
	assert.Empty(t, snap.CategoriesForChampionship(1))

	view := BuildView(snap, Filter{})
	assert.Empty(t, view.Cards)
	assert.Zero(t, view.Total)
}

func lookupEvent(snap *Snapshot, id model.ID) (model.Event, error) {
	for _, e := range snap.Events {
		if e.ID == id {
			return e, nil
		}
	}
	return model.Event{}, fmt.Errorf("event %d: %w", id, ErrEventNotFound)
}
