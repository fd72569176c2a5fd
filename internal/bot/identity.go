package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"race-calendar/internal/lib/logger/sl"
	"race-calendar/internal/model"
	"race-calendar/internal/service"
)

func (b *Bot) handleIAm(ctx context.Context, msg *tgbotapi.Message, args string) error {
	chatID := msg.Chat.ID
	if _, err := b.ensureAccount(ctx, msg.From); err != nil {
		return err
	}

	if args == "" {
		users, err := b.identity.Users(ctx)
		if err != nil {
			text, markup := renderLoadFailed()
			return b.sendWithReplyMarkup(chatID, text, markup)
		}
		return b.sendText(chatID, renderUsers(users))
	}

	id, err := model.ParseID(args)
	if err != nil {
		return b.sendText(chatID, "The user id must be a number: /iam 2")
	}
	user, err := b.identity.Bind(ctx, msg.From.ID, id)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return b.sendText(chatID, fmt.Sprintf("There is no calendar user #%d. See the list with /iam.", id))
	case errors.Is(err, service.ErrLoadFailed):
		text, markup := renderLoadFailed()
		return b.sendWithReplyMarkup(chatID, text, markup)
	case err != nil:
		return b.sendText(chatID, textWriteFailed)
	}
	return b.sendText(chatID, fmt.Sprintf("👤 You now act as <b>%s</b> (#%d).", escape(user.Name), user.ID))
}

func (b *Bot) handleWhoami(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	user, err := b.identity.Whoami(ctx, msg.From.ID)
	switch {
	case errors.Is(err, service.ErrNoIdentity):
		return b.sendText(chatID, "You are not bound to a calendar user yet. Use /iam &lt;id&gt;.")
	case errors.Is(err, service.ErrUserNotFound):
		return b.sendText(chatID, fmt.Sprintf("You are bound to user #%d, which no longer exists. Use /iam &lt;id&gt;.", user.ID))
	case err != nil:
		text, markup := renderLoadFailed()
		return b.sendWithReplyMarkup(chatID, text, markup)
	}
	return b.sendText(chatID, fmt.Sprintf("👤 You act as <b>%s</b> (#%d).", escape(user.Name), user.ID))
}

func (b *Bot) handleDigest(ctx context.Context, msg *tgbotapi.Message, args string) error {
	chatID := msg.Chat.ID
	if _, err := b.ensureAccount(ctx, msg.From); err != nil {
		return err
	}

	switch strings.ToLower(args) {
	case "on":
		if err := b.identity.SetDigest(ctx, msg.From.ID, true); err != nil {
			return b.sendText(chatID, textWriteFailed)
		}
		return b.sendText(chatID, "🔔 Daily digest enabled.")
	case "off":
		if err := b.identity.SetDigest(ctx, msg.From.ID, false); err != nil {
			return b.sendText(chatID, textWriteFailed)
		}
		return b.sendText(chatID, "🔕 Daily digest disabled.")
	case "":
		text, err := b.digest.Summary(ctx, time.Now())
		if err != nil {
			text, markup := renderLoadFailed()
			return b.sendWithReplyMarkup(chatID, text, markup)
		}
		return b.sendText(chatID, text)
	default:
		return b.sendText(chatID, "Use /digest on or /digest off.")
	}
}

// SendDigests sends the upcoming races summary to every subscribed chat.
func (b *Bot) SendDigests(ctx context.Context) error {
	accounts, err := b.digest.Subscribers(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return nil
	}

	text, err := b.digest.Summary(ctx, time.Now())
	if err != nil {
		return err
	}
	for _, acc := range accounts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendText(acc.TelegramID, text); err != nil {
			b.log.Warn("failed to send digest", slog.Int64("telegram_id", acc.TelegramID), sl.Err(err))
		}
	}
	b.log.Info("digest sent", slog.Int("subscribers", len(accounts)))
	return nil
}
