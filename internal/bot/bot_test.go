package bot

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"race-calendar/internal/model"
	"race-calendar/internal/repository"
	"race-calendar/internal/repository/gatewaytest"
	"race-calendar/internal/service"
)

const testChat int64 = 7

type fakeAPI struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (f *fakeAPI) last() tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeAPI) sawText(substr string) bool {
	for _, text := range f.texts() {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

type testBot struct {
	*Bot
	api *fakeAPI
	srv *gatewaytest.Server
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := gatewaytest.NewServer(t, gatewaytest.DefaultFixture())
	gw, err := repository.NewGateway(srv.URL, 2*time.Second, log, nil)
	require.NoError(t, err)
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "bot.db"), log)
	require.NoError(t, err)

	events := repository.NewEventRepository(gw)
	users := repository.NewUserRepository(gw)
	accounts := repository.NewAccountRepository(db)
	catalog := service.NewCatalogService(log, events,
		repository.NewChampionshipRepository(gw),
		repository.NewCategoryRepository(gw),
		service.NewImageRotation("/images/newEvent0%d.jpg", 4),
		nil,
	)

	api := &fakeAPI{}
	b := newBot(api, log, Services{
		Catalog:  catalog,
		Detail:   service.NewDetailService(log, events, users, catalog),
		Identity: service.NewIdentityService(log, accounts, users),
		Digest:   service.NewDigestService(catalog, accounts),
	})
	return &testBot{Bot: b, api: api, srv: srv}
}

func command(text string) *tgbotapi.Message {
	name := strings.Fields(text)[0]
	msg := message(text)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}}
	return msg
}

func message(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: testChat, FirstName: "Oscar"},
		Chat: &tgbotapi.Chat{ID: testChat, Type: "private"},
		Text: text,
	}
}

func callback(messageID int, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: testChat},
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: testChat, Type: "private"}},
		Data:    data,
	}
}

func (tb *testBot) say(t *testing.T, msg *tgbotapi.Message) {
	t.Helper()
	require.NoError(t, tb.handleMessage(context.Background(), msg))
}

func (tb *testBot) press(t *testing.T, messageID int, data string) {
	t.Helper()
	require.NoError(t, tb.handleCallback(context.Background(), callback(messageID, data)))
}

func TestCreateEventDialog(t *testing.T) {
	tb := newTestBot(t)

	tb.say(t, command("/new"))
	assert.Contains(t, tb.api.lastText(), "Choose who you are")

	tb.say(t, command("/iam 1"))
	assert.Contains(t, tb.api.lastText(), "You now act as <b>Max</b>")

	tb.say(t, command("/new"))
	assert.Contains(t, tb.api.lastText(), "Step 1/7")

	for _, answer := range []string{
		"Test Rally",
		"2024-09-12 08:00",
		"2024-09-15 18:00",
		"Jyväskylä",
		"Finland",
		"World Rally Championship",
		btnSkip,
	} {
		tb.say(t, message(answer))
	}

	stored := tb.srv.Events()
	require.Len(t, stored, 4)
	created := stored[3]
	assert.Equal(t, "Test Rally", created.Title)
	assert.Equal(t, model.ID(4), created.ChampionshipID)
	assert.Equal(t, model.ID(1), created.CreatedBy)
	assert.Equal(t, "/images/newEvent01.jpg", created.Image)

	assert.True(t, tb.api.sawText(`✅ Event "Test Rally" created.`))
	assert.Contains(t, tb.api.lastText(), "Created by Max")
}

func TestCreateDialogRejectsBadAnswer(t *testing.T) {
	tb := newTestBot(t)
	tb.say(t, command("/iam 2"))
	tb.say(t, command("/new"))

	tb.say(t, message("Rally Japan"))
	tb.say(t, message("soon"))
	assert.Contains(t, tb.api.lastText(), "Cannot read the date")

	tb.say(t, message(btnCancelDialog))
	assert.Contains(t, tb.api.lastText(), "Cancelled")
	assert.Nil(t, tb.chat(testChat).form)
	assert.Len(t, tb.srv.Events(), 3)
}

func TestEditDialogChangesTitleOnly(t *testing.T) {
	tb := newTestBot(t)
	before := tb.srv.Events()[0]

	tb.press(t, 1, "edit:1")
	assert.Equal(t, detailEditing, tb.chat(testChat).stage)
	assert.Contains(t, tb.api.lastText(), "Current: <code>Dutch GP</code>")

	tb.say(t, message("Dutch Grand Prix"))
	for i := 1; i < formSteps; i++ {
		tb.say(t, message(btnSkip))
	}

	after := tb.srv.Events()[0]
	assert.Equal(t, "Dutch Grand Prix", after.Title)
	assert.Equal(t, before.Location, after.Location)
	assert.Equal(t, before.Country, after.Country)
	assert.Equal(t, before.ChampionshipID, after.ChampionshipID)
	assert.Equal(t, before.CreatedBy, after.CreatedBy)
	assert.True(t, before.StartTime.Equal(after.StartTime))
	assert.True(t, before.EndTime.Equal(after.EndTime))

	assert.True(t, tb.api.sawText("✅ Event updated."))
	assert.Equal(t, detailIdle, tb.chat(testChat).stage)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	tb := newTestBot(t)

	tb.press(t, 3, "confirm:1")
	assert.Contains(t, tb.api.lastText(), "expired")
	assert.Len(t, tb.srv.Events(), 3)

	tb.press(t, 3, "delete:1")
	assert.Contains(t, tb.api.lastText(), `Delete event "Dutch GP"`)
	assert.Equal(t, detailConfirmingDelete, tb.chat(testChat).stage)

	tb.press(t, 3, "confirm:1")
	assert.Len(t, tb.srv.Events(), 2)
	assert.True(t, tb.api.sawText("🗑 Event #1 deleted."))
	assert.Contains(t, tb.api.lastText(), "Showing 2 of 2 events")
}

func TestDeleteFailureShowsNotice(t *testing.T) {
	tb := newTestBot(t)
	tb.srv.Fail(http.MethodDelete, "/events/2", http.StatusInternalServerError)

	tb.press(t, 3, "delete:2")
	tb.press(t, 3, "confirm:2")
	assert.Equal(t, textWriteFailed, tb.api.lastText())
	assert.Len(t, tb.srv.Events(), 3)
}

func TestCatalogToggleEditsInPlace(t *testing.T) {
	tb := newTestBot(t)

	tb.say(t, command("/events"))
	assert.Contains(t, tb.api.lastText(), "Showing 3 of 3 events")

	tb.press(t, 5, "toggle:1")
	edit, ok := tb.api.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 5, edit.MessageID)
	assert.Contains(t, edit.Text, "Showing 1 of 3 events")

	tb.say(t, command("/search dutch"))
	assert.Contains(t, tb.api.lastText(), "Showing 0 of 3 events")

	tb.press(t, 5, cbReset)
	assert.Contains(t, tb.api.lastText(), "Showing 3 of 3 events")
	assert.Equal(t, 1, tb.srv.Requests(http.MethodGet, "/events"))
}

func TestCatalogLoadFailureOffersRetry(t *testing.T) {
	tb := newTestBot(t)
	tb.srv.Fail(http.MethodGet, "/events", http.StatusServiceUnavailable)

	tb.say(t, command("/events"))
	assert.Equal(t, textLoadFailed, tb.api.lastText())
	msg, ok := tb.api.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Contains(t, buttons(markup), cbRetry)

	tb.press(t, 9, cbRetry)
	assert.Contains(t, tb.api.lastText(), "Showing 3 of 3 events")
}

func TestExportSendsDocument(t *testing.T) {
	tb := newTestBot(t)

	tb.say(t, command("/ics"))
	doc, ok := tb.api.last().(tgbotapi.DocumentConfig)
	require.True(t, ok)
	file, ok := doc.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "race-calendar.ics", file.Name)
	assert.Contains(t, string(file.Bytes), "SUMMARY:Dutch GP")
}

func TestDigestSubscription(t *testing.T) {
	tb := newTestBot(t)

	tb.say(t, command("/digest on"))
	assert.Contains(t, tb.api.lastText(), "enabled")

	require.NoError(t, tb.SendDigests(context.Background()))
	msg, ok := tb.api.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, testChat, msg.ChatID)
	assert.Contains(t, msg.Text, "Upcoming races")

	tb.say(t, command("/digest off"))
	sent := len(tb.api.texts())
	require.NoError(t, tb.SendDigests(context.Background()))
	assert.Len(t, tb.api.texts(), sent)
}

func TestWhoami(t *testing.T) {
	tb := newTestBot(t)

	tb.say(t, command("/whoami"))
	assert.Contains(t, tb.api.lastText(), "not bound")

	tb.say(t, command("/iam 42"))
	assert.Contains(t, tb.api.lastText(), "no calendar user #42")

	tb.say(t, command("/iam"))
	assert.Contains(t, tb.api.lastText(), "Lando")

	tb.say(t, command("/iam 2"))
	tb.say(t, command("/whoami"))
	assert.Contains(t, tb.api.lastText(), "You act as <b>Lando</b>")
}
