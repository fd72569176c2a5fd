package service

import "errors"

var (
	ErrLoadFailed           = errors.New("failed to load calendar data")
	ErrEventNotFound        = errors.New("event not found")
	ErrChampionshipNotFound = errors.New("championship not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNoIdentity           = errors.New("no calendar user bound to this account")
	ErrInvalidInput         = errors.New("invalid event input")
)
