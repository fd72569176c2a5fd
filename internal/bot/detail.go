package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"race-calendar/internal/lib/logger/sl"
	"race-calendar/internal/model"
	"race-calendar/internal/service"
)

func (b *Bot) showDetail(ctx context.Context, chatID int64, messageID int, id model.ID) error {
	b.updateChat(chatID, func(s *chatState) { s.stage = detailLoading })
	defer b.updateChat(chatID, func(s *chatState) {
		if s.stage == detailLoading {
			s.stage = detailIdle
		}
	})

	d, err := b.detail.Get(ctx, id)
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		return b.sendText(chatID, fmt.Sprintf("Event #%d not found.", id))
	case err != nil:
		b.log.Warn("event unavailable", slog.String("id", id.String()), sl.Err(err))
		text, markup := renderLoadFailed()
		return b.sendOrEdit(chatID, messageID, text, markup)
	}

	text, markup := renderDetail(d)
	return b.sendOrEdit(chatID, messageID, text, markup)
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, messageID int, id model.ID) error {
	d, err := b.detail.Get(ctx, id)
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		return b.sendText(chatID, fmt.Sprintf("Event #%d not found.", id))
	case err != nil:
		text, markup := renderLoadFailed()
		return b.sendOrEdit(chatID, messageID, text, markup)
	}

	b.updateChat(chatID, func(s *chatState) {
		s.pendingDelete = id
		s.stage = detailConfirmingDelete
	})
	text, markup := renderDeleteConfirm(d.Card)
	return b.sendOrEdit(chatID, messageID, text, markup)
}

// confirmDelete deletes id only when it is the chat's pending confirmation.
func (b *Bot) confirmDelete(ctx context.Context, chatID int64, messageID int, id model.ID) error {
	st := b.chat(chatID)
	if st.stage != detailConfirmingDelete || st.pendingDelete != id {
		return b.sendText(chatID, "This confirmation has expired. Open the event again.")
	}
	b.resetDialog(chatID)

	if err := b.detail.Delete(ctx, id); err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return b.sendText(chatID, fmt.Sprintf("Event #%d was already deleted.", id))
		}
		return b.sendText(chatID, textWriteFailed)
	}

	if err := b.sendText(chatID, fmt.Sprintf("🗑 Event #%d deleted.", id)); err != nil {
		return err
	}
	return b.showCatalog(ctx, chatID, messageID)
}
