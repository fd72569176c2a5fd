package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"race-calendar/internal/model"
	"race-calendar/internal/repository/gatewaytest"
	"race-calendar/internal/service"
)

func fixtureSnapshot() *service.Snapshot {
	fx := gatewaytest.DefaultFixture()
	return &service.Snapshot{Version: 1, Events: fx.Events, Championships: fx.Championships, Categories: fx.Categories}
}

func TestCreateFormCollectsFields(t *testing.T) {
	snap := fixtureSnapshot()
	f := newCreateForm()

	answers := []string{
		"Test Rally",
		"2024-09-12 08:00",
		"2024-09-15 18:30",
		"Jyväskylä",
		"Finland",
		"world rally championship",
		btnSkip,
	}
	for _, answer := range answers {
		require.False(t, f.done())
		require.NoError(t, f.apply(answer, snap), answer)
	}

	require.True(t, f.done())
	assert.Equal(t, "Test Rally", f.input.Title)
	assert.True(t, f.input.StartTime.Equal(time.Date(2024, 9, 12, 8, 0, 0, 0, time.Local)))
	assert.True(t, f.input.EndTime.Equal(time.Date(2024, 9, 15, 18, 30, 0, 0, time.Local)))
	assert.Equal(t, "Jyväskylä", f.input.Location)
	assert.Equal(t, "Finland", f.input.Country)
	assert.Equal(t, model.ID(4), f.input.ChampionshipID)
	assert.Empty(t, f.input.Image)
}

func TestCreateFormRequiresValues(t *testing.T) {
	f := newCreateForm()

	assert.ErrorIs(t, f.apply(btnSkip, nil), errFieldRequired)
	assert.ErrorIs(t, f.apply("   ", nil), errEmptyAnswer)
	assert.Equal(t, stepTitle, f.step)
}

func TestFormRejectsBadTimes(t *testing.T) {
	f := newCreateForm()
	require.NoError(t, f.apply("Test Rally", nil))

	assert.ErrorIs(t, f.apply("next friday", nil), errBadTime)
	require.NoError(t, f.apply("12.09.2024 08:00", nil))

	err := f.apply("2024-09-11 08:00", nil)
	require.ErrorIs(t, err, errEndBeforeStart)
	assert.Contains(t, f.hint(err), "must not be before the start")
	assert.Equal(t, stepEnd, f.step)

	require.NoError(t, f.apply("2024-09-12T10:00", nil))
	assert.Equal(t, stepLocation, f.step)
}

func TestFormChampionshipMatching(t *testing.T) {
	snap := fixtureSnapshot()

	id, err := matchChampionship(snap, "2")
	require.NoError(t, err)
	assert.Equal(t, model.ID(2), id)

	id, err = matchChampionship(snap, "DAKAR")
	require.NoError(t, err)
	assert.Equal(t, model.ID(5), id)

	_, err = matchChampionship(snap, "99")
	assert.ErrorIs(t, err, errUnknownChampionship)

	_, err = matchChampionship(nil, "Dakar")
	assert.ErrorIs(t, err, errUnknownChampionship)
}

func TestEditFormSkipKeepsValues(t *testing.T) {
	snap := fixtureSnapshot()
	current := service.InputFromEvent(snap.Events[0])
	f := newEditForm(1, current)

	for i := 0; i < formSteps; i++ {
		require.NoError(t, f.apply(btnSkip, snap))
	}
	require.True(t, f.done())
	assert.Equal(t, current, f.input)
}

func TestEditFormRechecksEndWhenStartMoves(t *testing.T) {
	snap := fixtureSnapshot()
	f := newEditForm(1, service.InputFromEvent(snap.Events[0]))

	require.NoError(t, f.apply(btnSkip, snap))
	require.NoError(t, f.apply("2024-08-26 10:00", snap))

	err := f.apply(btnSkip, snap)
	require.ErrorIs(t, err, errEndBeforeStart)
	assert.Equal(t, stepEnd, f.step)
	assert.Contains(t, f.hint(err), "must not be before the start")

	require.NoError(t, f.apply("2024-08-26 12:00", snap))
	assert.Equal(t, stepLocation, f.step)
	assert.False(t, f.input.EndTime.Before(f.input.StartTime))
}

func TestFormPrompts(t *testing.T) {
	snap := fixtureSnapshot()

	create := newCreateForm()
	assert.Contains(t, create.prompt(snap), "<b>Step 1/7:</b>")
	assert.NotContains(t, create.prompt(snap), "Current:")

	edit := newEditForm(1, service.InputFromEvent(snap.Events[0]))
	assert.Contains(t, edit.prompt(snap), "Editing event #1")
	assert.Contains(t, edit.prompt(snap), "Current: <code>Dutch GP</code>")

	edit.step = stepChampionship
	assert.Contains(t, edit.prompt(snap), "Current: <code>Formula 1</code>")

	edit.step = stepImage
	assert.Contains(t, edit.prompt(snap), "Current: <code>none</code>")
}
