package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"race-calendar/internal/model"
	"race-calendar/internal/service"
)

func (b *Bot) startCreateForm(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if _, err := b.ensureAccount(ctx, msg.From); err != nil {
		return err
	}
	if _, err := b.identity.Resolve(ctx, msg.From.ID); err != nil {
		if errors.Is(err, service.ErrNoIdentity) {
			return b.sendText(chatID, "Choose who you are before adding events: /iam &lt;id&gt;. See the list with /iam.")
		}
		return err
	}

	snap, err := b.catalog.Current(ctx)
	if err != nil {
		text, markup := renderLoadFailed()
		return b.sendWithReplyMarkup(chatID, text, markup)
	}

	form := newCreateForm()
	b.updateChat(chatID, func(s *chatState) {
		s.form = form
		s.stage = detailIdle
	})
	return b.sendWithReplyMarkup(chatID, form.prompt(snap), formKeyboard(form, snap))
}

func (b *Bot) startEditForm(ctx context.Context, chatID int64, id model.ID) error {
	d, err := b.detail.Get(ctx, id)
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		return b.sendText(chatID, fmt.Sprintf("Event #%d not found.", id))
	case err != nil:
		text, markup := renderLoadFailed()
		return b.sendWithReplyMarkup(chatID, text, markup)
	}

	form := newEditForm(id, service.InputFromEvent(d.Event))
	b.updateChat(chatID, func(s *chatState) {
		s.form = form
		s.stage = detailEditing
	})
	snap := b.catalog.Snapshot()
	return b.sendWithReplyMarkup(chatID, form.prompt(snap), formKeyboard(form, snap))
}

func (b *Bot) handleFormAnswer(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	form := b.chat(chatID).form
	if form == nil {
		return nil
	}

	snap := b.catalog.Snapshot()
	if err := form.apply(msg.Text, snap); err != nil {
		return b.sendWithReplyMarkup(chatID, form.hint(err), formKeyboard(form, snap))
	}
	if !form.done() {
		return b.sendWithReplyMarkup(chatID, form.prompt(snap), formKeyboard(form, snap))
	}

	b.resetDialog(chatID)
	if form.editing() {
		return b.finishEdit(ctx, chatID, form)
	}
	return b.finishCreate(ctx, chatID, msg.From.ID, form)
}

func (b *Bot) finishCreate(ctx context.Context, chatID, telegramID int64, form *eventForm) error {
	creator, err := b.identity.Resolve(ctx, telegramID)
	if err != nil {
		return b.sendText(chatID, "Choose who you are before adding events: /iam &lt;id&gt;.")
	}

	event, err := b.catalog.CreateEvent(ctx, creator, form.input)
	if err != nil {
		return b.sendText(chatID, writeFailureText(err))
	}

	if err := b.sendText(chatID, fmt.Sprintf("✅ Event \"%s\" created.", escape(event.Title))); err != nil {
		return err
	}
	return b.showDetail(ctx, chatID, 0, event.ID)
}

func (b *Bot) finishEdit(ctx context.Context, chatID int64, form *eventForm) error {
	d, err := b.detail.Update(ctx, form.eventID, form.input)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return b.sendText(chatID, fmt.Sprintf("Event #%d no longer exists.", form.eventID))
		}
		return b.sendText(chatID, writeFailureText(err))
	}

	if err := b.sendText(chatID, "✅ Event updated."); err != nil {
		return err
	}
	text, markup := renderDetail(d)
	return b.sendWithReplyMarkup(chatID, text, markup)
}

// writeFailureText shows validation problems as they are and every other
// failure as the generic notice.
func writeFailureText(err error) string {
	if errors.Is(err, service.ErrInvalidInput) {
		return "⚠️ " + escape(err.Error())
	}
	return textWriteFailed
}
