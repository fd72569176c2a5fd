package repository

import (
	"context"
	"fmt"

	"race-calendar/internal/model"
)

// ChampionshipRepository reads championships. They are never written.
type ChampionshipRepository struct {
	gw *Gateway
}

func NewChampionshipRepository(gw *Gateway) *ChampionshipRepository {
	return &ChampionshipRepository{gw: gw}
}

func (r *ChampionshipRepository) List(ctx context.Context) ([]model.Championship, error) {
	var championships []model.Championship
	if err := r.gw.get(ctx, "championships", "/championships", &championships); err != nil {
		return nil, fmt.Errorf("list championships: %w", err)
	}
	return championships, nil
}
