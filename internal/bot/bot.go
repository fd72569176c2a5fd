package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"race-calendar/internal/lib/logger/sl"
	"race-calendar/internal/model"
	"race-calendar/internal/service"
)

// sender is the part of the Telegram API the handlers talk to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type detailStage int

const (
	detailIdle detailStage = iota
	detailLoading
	detailEditing
	detailConfirmingDelete
)

// chatState is the per-chat UI state. It lives in memory only.
type chatState struct {
	filter        service.Filter
	form          *eventForm
	stage         detailStage
	pendingDelete model.ID
}

type Services struct {
	Catalog  *service.CatalogService
	Detail   *service.DetailService
	Identity *service.IdentityService
	Digest   *service.DigestService
}

// Bot serves the race calendar over Telegram.
type Bot struct {
	client   *tgbotapi.BotAPI
	api      sender
	log      *slog.Logger
	catalog  *service.CatalogService
	detail   *service.DetailService
	identity *service.IdentityService
	digest   *service.DigestService

	mu    sync.Mutex
	chats map[int64]*chatState
}

func New(token string, log *slog.Logger, svc Services) (*Bot, error) {
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("bot authorized", slog.String("account", client.Self.UserName))

	b := newBot(client, log, svc)
	b.client = client
	return b, nil
}

func newBot(api sender, log *slog.Logger, svc Services) *Bot {
	return &Bot{
		api:      api,
		log:      log,
		catalog:  svc.Catalog,
		detail:   svc.Detail,
		identity: svc.Identity,
		digest:   svc.Digest,
		chats:    make(map[int64]*chatState),
	}
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.client.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error("failed to handle callback", sl.Err(err))
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error("failed to handle message", sl.Err(err))
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	chatID := msg.Chat.ID

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.resetDialog(chatID)
		return b.sendText(chatID, "⏪ Cancelled.")
	}

	if msg.IsCommand() {
		b.log.Debug("command received",
			slog.Int64("user_id", msg.From.ID),
			slog.String("command", msg.Command()),
			slog.String("args", msg.CommandArguments()),
		)
		return b.handleCommand(ctx, msg)
	}

	if b.chat(chatID).form != nil {
		return b.handleFormAnswer(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(chatID, "I did not get that. Try /events, /new or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(chatID, helpText)
	case "events":
		return b.showCatalog(ctx, chatID, 0)
	case "search":
		return b.handleSearch(ctx, chatID, args)
	case "event":
		id, err := model.ParseID(args)
		if err != nil {
			return b.sendText(chatID, "Send the event number: /event 12")
		}
		return b.showDetail(ctx, chatID, 0, id)
	case "new":
		return b.startCreateForm(ctx, msg)
	case "iam":
		return b.handleIAm(ctx, msg, args)
	case "whoami":
		return b.handleWhoami(ctx, msg)
	case "ics":
		return b.handleExport(ctx, chatID)
	case "digest":
		return b.handleDigest(ctx, msg, args)
	case "cancel":
		b.resetDialog(chatID)
		return b.sendText(chatID, "⏪ Cancelled.")
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

const helpText = "ℹ️ <b>Race calendar</b>\n" +
	"• /events - list races, toggle championships with the buttons\n" +
	"• /search &lt;text&gt; - filter by title (empty clears)\n" +
	"• /event &lt;id&gt; - race details, edit and delete\n" +
	"• /new - add a race step by step\n" +
	"• /iam &lt;id&gt; - choose the calendar user you act as\n" +
	"• /whoami - show the bound calendar user\n" +
	"• /ics - export the filtered list as a calendar file\n" +
	"• /digest on|off - daily summary of the next 7 days\n" +
	"• /cancel - stop the current dialog"

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureAccount(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep track of motorsport race weekends.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelEvents):
		return true, b.showCatalog(ctx, msg.Chat.ID, 0)
	case strings.ToLower(menuLabelNew):
		return true, b.startCreateForm(ctx, msg)
	case strings.ToLower(menuLabelExport):
		return true, b.handleExport(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelHelp):
		return true, b.sendText(msg.Chat.ID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("failed to ack callback", sl.Err(err))
	}

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	data := cb.Data
	b.log.Debug("callback received", slog.Int64("user_id", cb.From.ID), slog.String("data", data))

	switch {
	case data == cbRefresh:
		return b.refreshCatalog(ctx, chatID, messageID)
	case data == cbRetry:
		b.catalog.Invalidate()
		return b.showCatalog(ctx, chatID, messageID)
	case data == cbReset:
		b.updateChat(chatID, func(s *chatState) { s.filter = service.Filter{} })
		return b.showCatalog(ctx, chatID, messageID)
	case data == cbBack:
		b.updateChat(chatID, func(s *chatState) { s.stage = detailIdle })
		return b.showCatalog(ctx, chatID, messageID)
	case strings.HasPrefix(data, cbToggle):
		id, err := parseCallbackID(data, cbToggle)
		if err != nil {
			return nil
		}
		b.updateChat(chatID, func(s *chatState) { s.filter = s.filter.Toggle(id) })
		return b.showCatalog(ctx, chatID, messageID)
	case strings.HasPrefix(data, cbEvent):
		id, err := parseCallbackID(data, cbEvent)
		if err != nil {
			return nil
		}
		return b.showDetail(ctx, chatID, 0, id)
	case strings.HasPrefix(data, cbEdit):
		id, err := parseCallbackID(data, cbEdit)
		if err != nil {
			return nil
		}
		return b.startEditForm(ctx, chatID, id)
	case strings.HasPrefix(data, cbDelete):
		id, err := parseCallbackID(data, cbDelete)
		if err != nil {
			return nil
		}
		return b.askDeleteConfirmation(ctx, chatID, messageID, id)
	case strings.HasPrefix(data, cbConfirm):
		id, err := parseCallbackID(data, cbConfirm)
		if err != nil {
			return nil
		}
		return b.confirmDelete(ctx, chatID, messageID, id)
	case strings.HasPrefix(data, cbCancel):
		id, err := parseCallbackID(data, cbCancel)
		if err != nil {
			return nil
		}
		b.updateChat(chatID, func(s *chatState) {
			s.pendingDelete = 0
			s.stage = detailIdle
		})
		return b.showDetail(ctx, chatID, messageID, id)
	default:
		return nil
	}
}

func (b *Bot) ensureAccount(ctx context.Context, from *tgbotapi.User) (*model.Account, error) {
	return b.identity.Ensure(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) chat(chatID int64) chatState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.chats[chatID]; ok {
		return *s
	}
	return chatState{}
}

func (b *Bot) updateChat(chatID int64, fn func(s *chatState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.chats[chatID]
	if !ok {
		s = &chatState{}
		b.chats[chatID] = s
	}
	fn(s)
}

func (b *Bot) resetDialog(chatID int64) {
	b.updateChat(chatID, func(s *chatState) {
		s.form = nil
		s.pendingDelete = 0
		s.stage = detailIdle
	})
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

// sendOrEdit replaces the message with messageID, or sends a new one when
// messageID is zero.
func (b *Bot) sendOrEdit(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	if messageID == 0 {
		return b.sendWithReplyMarkup(chatID, text, markup)
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	_, err := b.api.Send(edit)
	return err
}
