package model

import "time"

// Account stores Telegram user metadata and the calendar user the chat acts as.
type Account struct {
	ID             uint  `gorm:"primaryKey"`
	TelegramID     int64 `gorm:"uniqueIndex"`
	FirstName      string
	LastName       string
	Username       string
	CalendarUserID *int64
	DigestEnabled  bool `gorm:"default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CalendarUser returns the bound calendar user id, if any.
func (a Account) CalendarUser() (ID, bool) {
	if a.CalendarUserID == nil || *a.CalendarUserID <= 0 {
		return 0, false
	}
	return ID(*a.CalendarUserID), true
}
