package bot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"race-calendar/internal/lib/logger/sl"
	"race-calendar/internal/service"
)

func (b *Bot) showCatalog(ctx context.Context, chatID int64, messageID int) error {
	view, err := b.catalog.View(ctx, b.chat(chatID).filter)
	if err != nil {
		b.log.Warn("catalog unavailable", sl.Err(err))
		text, markup := renderLoadFailed()
		return b.sendOrEdit(chatID, messageID, text, markup)
	}
	b.updateChat(chatID, func(s *chatState) { s.filter = view.Filter })

	text, markup := renderCatalog(view)
	return b.sendOrEdit(chatID, messageID, text, markup)
}

func (b *Bot) refreshCatalog(ctx context.Context, chatID int64, messageID int) error {
	if _, err := b.catalog.Refresh(ctx); err != nil {
		text, markup := renderLoadFailed()
		return b.sendOrEdit(chatID, messageID, text, markup)
	}
	return b.showCatalog(ctx, chatID, messageID)
}

func (b *Bot) handleSearch(ctx context.Context, chatID int64, search string) error {
	b.updateChat(chatID, func(s *chatState) { s.filter = s.filter.WithSearch(search) })
	return b.showCatalog(ctx, chatID, 0)
}

// handleExport sends the chat's filtered catalog as an .ics document.
func (b *Bot) handleExport(ctx context.Context, chatID int64) error {
	view, err := b.catalog.View(ctx, b.chat(chatID).filter)
	if err != nil {
		text, markup := renderLoadFailed()
		return b.sendWithReplyMarkup(chatID, text, markup)
	}

	var buf bytes.Buffer
	n, err := service.WriteICS(&buf, b.catalog.Snapshot(), view.Events, time.Now())
	if err != nil {
		b.log.Error("failed to build calendar export", sl.Err(err))
		return b.sendText(chatID, textWriteFailed)
	}
	if n == 0 {
		return b.sendText(chatID, "Nothing to export: no events match the current filter.")
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "race-calendar.ics", Bytes: buf.Bytes()})
	doc.Caption = fmt.Sprintf("📤 %d events", n)
	_, err = b.api.Send(doc)
	return err
}
