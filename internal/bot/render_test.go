package bot

import (
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"race-calendar/internal/model"
	"race-calendar/internal/service"
)

func buttons(markup tgbotapi.InlineKeyboardMarkup) map[string]string {
	out := make(map[string]string)
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out[*btn.CallbackData] = btn.Text
			}
		}
	}
	return out
}

func TestRenderCatalog(t *testing.T) {
	snap := fixtureSnapshot()

	text, markup := renderCatalog(service.BuildView(snap, service.Filter{}))
	assert.Contains(t, text, "Showing 3 of 3 events")
	assert.Contains(t, text, "#1 Dutch GP")
	assert.Contains(t, text, "Formula E")

	btns := buttons(markup)
	assert.Equal(t, "✅ Formula E", btns["toggle:2"])
	assert.Contains(t, btns, "event:3")
	assert.Contains(t, btns, cbRefresh)

	view := service.BuildView(snap, service.NewFilter(snap.Championships).Toggle(2).WithSearch("gp"))
	text, markup = renderCatalog(view)
	assert.Contains(t, text, "Showing 2 of 3 events matching <i>gp</i>")
	assert.NotContains(t, text, "London E-Prix")
	assert.Equal(t, "⬜ Formula E", buttons(markup)["toggle:2"])
}

func TestRenderCatalogEmptyAndOverflow(t *testing.T) {
	snap := fixtureSnapshot()
	text, _ := renderCatalog(service.BuildView(snap, service.Filter{Search: "<none>"}))
	assert.Contains(t, text, "No events match")
	assert.Contains(t, text, "&lt;none&gt;")

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	big := &service.Snapshot{Championships: snap.Championships, Categories: snap.Categories}
	for i := 1; i <= maxCatalogCards+5; i++ {
		big.Events = append(big.Events, model.Event{
			ID:             model.ID(i),
			Title:          fmt.Sprintf("Round %d", i),
			ChampionshipID: 1,
			StartTime:      start.AddDate(0, 0, i),
			EndTime:        start.AddDate(0, 0, i).Add(time.Hour),
		})
	}
	text, markup := renderCatalog(service.BuildView(big, service.Filter{}))
	assert.Contains(t, text, "…and 5 more")
	assert.NotContains(t, buttons(markup), fmt.Sprintf("event:%d", maxCatalogCards+1))
}

func TestRenderDetail(t *testing.T) {
	snap := fixtureSnapshot()
	event := snap.Events[0]
	event.Title = "Dutch <GP>"

	d := &service.EventDetail{Event: event, Card: service.NewEventCard(snap, event)}
	text, markup := renderDetail(d)
	assert.Contains(t, text, "Dutch &lt;GP&gt;")
	assert.Contains(t, text, "🏆 Formula 1")
	assert.Contains(t, text, "Circuit Zandvoort, The Netherlands")
	assert.Contains(t, text, "Creator unknown")

	btns := buttons(markup)
	assert.Contains(t, btns, "edit:1")
	assert.Contains(t, btns, "delete:1")
	assert.Contains(t, btns, cbBack)

	d.Creator = &model.User{ID: 1, Name: "Max"}
	text, _ = renderDetail(d)
	assert.Contains(t, text, "Created by Max")
}

func TestRenderDeleteConfirm(t *testing.T) {
	text, markup := renderDeleteConfirm(service.EventCard{ID: 7, Title: "Rally Finland"})
	assert.Contains(t, text, "Rally Finland")
	btns := buttons(markup)
	assert.Contains(t, btns, "confirm:7")
	assert.Contains(t, btns, "cancel:7")
}

func TestParseCallbackID(t *testing.T) {
	id, err := parseCallbackID(callbackData(cbToggle, 12), cbToggle)
	require.NoError(t, err)
	assert.Equal(t, model.ID(12), id)

	_, err = parseCallbackID("toggle:x", cbToggle)
	assert.Error(t, err)
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "Dutch GP", shortTitle(" Dutch GP ", 10))
	assert.Equal(t, "Grand Pri…", shortTitle("Grand Prix of Monaco", 10))
}
