package bot

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"race-calendar/internal/model"
	"race-calendar/internal/service"
)

// Telegram caps messages at 4096 characters and keyboards at 100 buttons.
const maxCatalogCards = 20

const (
	cbToggle  = "toggle:"
	cbEvent   = "event:"
	cbEdit    = "edit:"
	cbDelete  = "delete:"
	cbConfirm = "confirm:"
	cbCancel  = "cancel:"
	cbRefresh = "refresh"
	cbReset   = "reset"
	cbRetry   = "retry"
	cbBack    = "back"
)

const (
	textLoadFailed  = "⚠️ Failed to load the race calendar. Check the connection and try again."
	textWriteFailed = "❌ Something went wrong, the change was not saved. Please try again."
)

func escape(s string) string {
	return html.EscapeString(s)
}

func callbackData(prefix string, id model.ID) string {
	return prefix + id.String()
}

func parseCallbackID(data, prefix string) (model.ID, error) {
	return model.ParseID(strings.TrimPrefix(data, prefix))
}

func renderCard(card service.EventCard) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🏎 <b>#%d %s</b>", card.ID, escape(card.Title)))
	if card.Championship != "" {
		sb.WriteString(fmt.Sprintf(" · %s", escape(card.Championship)))
	}
	sb.WriteString(fmt.Sprintf("\n   📅 %s · %s", card.Date, card.Hours))
	if place := placeOf(card); place != "" {
		sb.WriteString(fmt.Sprintf("\n   📍 %s", escape(place)))
	}
	if len(card.Categories) > 0 {
		sb.WriteString(fmt.Sprintf("\n   🏷 %s", escape(strings.Join(card.Categories, ", "))))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func placeOf(card service.EventCard) string {
	var parts []string
	for _, p := range []string{card.Location, card.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func renderCatalog(view service.CatalogView) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("📅 <b>Race calendar</b>\n")
	sb.WriteString(fmt.Sprintf("Showing %d of %d events", len(view.Cards), view.Total))
	if search := strings.TrimSpace(view.Filter.Search); search != "" {
		sb.WriteString(fmt.Sprintf(" matching <i>%s</i>", escape(search)))
	}
	sb.WriteString("\n\n")

	cards := view.Cards
	if len(cards) > maxCatalogCards {
		cards = cards[:maxCatalogCards]
	}
	if len(cards) == 0 {
		sb.WriteString("No events match the current filter.\n")
	}
	for _, card := range cards {
		sb.WriteString(renderCard(card))
		sb.WriteByte('\n')
	}
	if hidden := len(view.Cards) - len(cards); hidden > 0 {
		sb.WriteString(fmt.Sprintf("…and %d more. Narrow the list with /search.\n", hidden))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, card := range cards {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🔎 #%d %s", card.ID, shortTitle(card.Title, 28)), callbackData(cbEvent, card.ID)),
		))
	}

	var row []tgbotapi.InlineKeyboardButton
	for _, opt := range view.Championships {
		mark := "⬜"
		if opt.Selected {
			mark = "✅"
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(mark+" "+shortTitle(opt.Name, 24), callbackData(cbToggle, opt.ID)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", cbRefresh),
		tgbotapi.NewInlineKeyboardButtonData("♻️ Reset filter", cbReset),
	))

	return strings.TrimSpace(sb.String()), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func renderDetail(d *service.EventDetail) (string, tgbotapi.InlineKeyboardMarkup) {
	card := d.Card

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏎 <b>%s</b> (#%d)\n", escape(card.Title), card.ID))
	if card.Championship != "" {
		sb.WriteString(fmt.Sprintf("🏆 %s\n", escape(card.Championship)))
	}
	if len(card.Categories) > 0 {
		sb.WriteString(fmt.Sprintf("🏷 %s\n", escape(strings.Join(card.Categories, ", "))))
	}
	sb.WriteString(fmt.Sprintf("📅 %s\n", card.Date))
	sb.WriteString(fmt.Sprintf("🕒 %s\n", card.Hours))
	if place := placeOf(card); place != "" {
		sb.WriteString(fmt.Sprintf("📍 %s\n", escape(place)))
	}
	if card.Image != "" {
		sb.WriteString(fmt.Sprintf("🖼 %s\n", escape(card.Image)))
	}
	if d.Creator != nil {
		sb.WriteString(fmt.Sprintf("👤 Created by %s\n", escape(d.Creator.Name)))
	} else {
		sb.WriteString("👤 Creator unknown\n")
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Edit", callbackData(cbEdit, card.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", callbackData(cbDelete, card.ID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to events", cbBack),
		),
	)
	return strings.TrimSpace(sb.String()), markup
}

func renderDeleteConfirm(card service.EventCard) (string, tgbotapi.InlineKeyboardMarkup) {
	text := fmt.Sprintf("Delete event \"%s\" (#%d)? This cannot be undone.", escape(card.Title), card.ID)
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Delete", callbackData(cbConfirm, card.ID)),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Keep", callbackData(cbCancel, card.ID)),
		),
	)
	return text, markup
}

func renderLoadFailed() (string, tgbotapi.InlineKeyboardMarkup) {
	return textLoadFailed, tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔁 Retry", cbRetry)),
	)
}

func renderUsers(users []model.User) string {
	if len(users) == 0 {
		return "No calendar users available."
	}
	var sb strings.Builder
	sb.WriteString("👥 <b>Calendar users</b>\n")
	for _, u := range users {
		sb.WriteString(fmt.Sprintf("• <code>%d</code> %s\n", u.ID, escape(u.Name)))
	}
	sb.WriteString("\nBind yourself with /iam &lt;id&gt;.")
	return sb.String()
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
