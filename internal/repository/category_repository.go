package repository

import (
	"context"
	"fmt"

	"race-calendar/internal/model"
)

// CategoryRepository reads championship categories.
type CategoryRepository struct {
	gw *Gateway
}

func NewCategoryRepository(gw *Gateway) *CategoryRepository {
	return &CategoryRepository{gw: gw}
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.gw.get(ctx, "categories", "/categories", &categories); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
