package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"race-calendar/internal/lib/logger/sl"
	"race-calendar/internal/model"
	"race-calendar/internal/repository"
)

type AccountStore interface {
	UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.Account, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (*model.Account, error)
	BindCalendarUser(ctx context.Context, telegramID int64, userID model.ID) error
	SetDigest(ctx context.Context, telegramID int64, enabled bool) error
	ListDigestSubscribers(ctx context.Context) ([]model.Account, error)
}

// IdentityService binds Telegram accounts to calendar users. The bound user
// is the author of events created from that account.
type IdentityService struct {
	log      *slog.Logger
	accounts AccountStore
	users    UserProvider
}

func NewIdentityService(log *slog.Logger, accounts AccountStore, users UserProvider) *IdentityService {
	return &IdentityService{log: log, accounts: accounts, users: users}
}

func (s *IdentityService) Ensure(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.Account, error) {
	return s.accounts.UpsertFromTelegram(ctx, telegramID, firstName, lastName, username)
}

// Users lists the calendar users an account can be bound to.
func (s *IdentityService) Users(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return users, nil
}

// Bind checks that userID exists in the data source and stores it for the
// account.
func (s *IdentityService) Bind(ctx context.Context, telegramID int64, userID model.ID) (model.User, error) {
	const op = "service.IdentityService.Bind"
	log := s.log.With(slog.String("op", op), slog.Int64("telegram_id", telegramID))

	users, err := s.Users(ctx)
	if err != nil {
		log.Error("failed to load users", sl.Err(err))
		return model.User{}, err
	}
	user, err := LookupUser(users, userID)
	if err != nil {
		return model.User{}, err
	}
	if err := s.accounts.BindCalendarUser(ctx, telegramID, userID); err != nil {
		log.Error("failed to bind calendar user", sl.Err(err))
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("calendar user bound", slog.String("user_id", userID.String()))
	return user, nil
}

// Resolve returns the calendar user id bound to the account or
// ErrNoIdentity.
func (s *IdentityService) Resolve(ctx context.Context, telegramID int64) (model.ID, error) {
	acc, err := s.accounts.FindByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNoIdentity
		}
		return 0, fmt.Errorf("resolve identity: %w", err)
	}
	id, ok := acc.CalendarUser()
	if !ok {
		return 0, ErrNoIdentity
	}
	return id, nil
}

// Whoami resolves the bound calendar user with its profile.
func (s *IdentityService) Whoami(ctx context.Context, telegramID int64) (model.User, error) {
	id, err := s.Resolve(ctx, telegramID)
	if err != nil {
		return model.User{}, err
	}
	users, err := s.Users(ctx)
	if err != nil {
		return model.User{ID: id}, err
	}
	user, err := LookupUser(users, id)
	if err != nil {
		return model.User{ID: id}, err
	}
	return user, nil
}

func (s *IdentityService) SetDigest(ctx context.Context, telegramID int64, enabled bool) error {
	return s.accounts.SetDigest(ctx, telegramID, enabled)
}
