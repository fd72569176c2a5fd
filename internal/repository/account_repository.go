package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"race-calendar/internal/model"
)

// AccountRepository stores the Telegram accounts that talk to the bot.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// UpsertFromTelegram records the Telegram profile of an account, keeping its
// calendar binding and digest setting, and returns the stored row.
func (r *AccountRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.Account, error) {
	account := model.Account{
		TelegramID: telegramID,
		FirstName:  firstName,
		LastName:   lastName,
		Username:   username,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "username", "updated_at"}),
	}).Create(&account).Error
	if err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}
	return r.FindByTelegramID(ctx, telegramID)
}

func (r *AccountRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &account, nil
}

// BindCalendarUser sets the calendar user the account creates events as.
func (r *AccountRepository) BindCalendarUser(ctx context.Context, telegramID int64, userID model.ID) error {
	value := int64(userID)
	res := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("telegram_id = ?", telegramID).
		Update("calendar_user_id", &value)
	if res.Error != nil {
		return fmt.Errorf("bind calendar user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepository) SetDigest(ctx context.Context, telegramID int64, enabled bool) error {
	res := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("telegram_id = ?", telegramID).
		Update("digest_enabled", enabled)
	if res.Error != nil {
		return fmt.Errorf("set digest: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepository) ListDigestSubscribers(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := r.db.WithContext(ctx).Where("digest_enabled = ?", true).Order("telegram_id ASC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list digest subscribers: %w", err)
	}
	return accounts, nil
}
