package repository

import (
	"context"
	"fmt"

	"race-calendar/internal/model"
)

// UserRepository reads calendar users, the creators referenced by events.
type UserRepository struct {
	gw *Gateway
}

func NewUserRepository(gw *Gateway) *UserRepository {
	return &UserRepository{gw: gw}
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.gw.get(ctx, "users", "/users", &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
