package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"race-calendar/internal/format"
	"race-calendar/internal/model"
)

// DigestWindow is how far ahead the daily digest looks.
const DigestWindow = 7 * 24 * time.Hour

// DigestService builds the daily "upcoming races" notification.
type DigestService struct {
	catalog  *CatalogService
	accounts AccountStore
}

func NewDigestService(catalog *CatalogService, accounts AccountStore) *DigestService {
	return &DigestService{catalog: catalog, accounts: accounts}
}

func (s *DigestService) Subscribers(ctx context.Context) ([]model.Account, error) {
	return s.accounts.ListDigestSubscribers(ctx)
}

func (s *DigestService) Summary(ctx context.Context, now time.Time) (string, error) {
	snap, err := s.catalog.Current(ctx)
	if err != nil {
		return "", err
	}
	return UpcomingSummary(snap, now, DigestWindow), nil
}

// Upcoming returns the events starting in [now, now+window), in start order.
func Upcoming(snap *Snapshot, now time.Time, window time.Duration) []model.Event {
	if snap == nil {
		return nil
	}
	until := now.Add(window)
	var upcoming []model.Event
	for _, e := range snap.Events {
		if e.StartTime.IsZero() || e.StartTime.Before(now) || !e.StartTime.Before(until) {
			continue
		}
		upcoming = append(upcoming, e)
	}
	return upcoming
}

// UpcomingSummary renders Upcoming as Telegram HTML.
func UpcomingSummary(snap *Snapshot, now time.Time, window time.Duration) string {
	events := Upcoming(snap, now, window)

	var builder strings.Builder
	builder.WriteString("🏁 <b>Upcoming races</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s - %s\n\n", format.FormatDate(now), format.FormatDate(now.Add(window))))

	if len(events) == 0 {
		builder.WriteString("No races in the next days.")
		return builder.String()
	}
	for _, e := range events {
		builder.WriteString(formatDigestEvent(NewEventCard(snap, e)))
	}
	return strings.TrimSpace(builder.String())
}

func formatDigestEvent(card EventCard) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🏎 <b>%s</b>", html.EscapeString(strings.TrimSpace(card.Title))))
	if card.Championship != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(card.Championship)))
	}
	sb.WriteString(fmt.Sprintf("\n   📅 %s · %s", card.Date, card.Hours))

	place := joinNonEmpty(", ", card.Location, card.Country)
	if place != "" {
		sb.WriteString(fmt.Sprintf("\n   📍 %s", html.EscapeString(place)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
