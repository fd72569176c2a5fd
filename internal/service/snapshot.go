package service

import (
	"fmt"
	"time"

	"race-calendar/internal/model"
)

// Snapshot is an immutable copy of the calendar collections at one point in
// time. Events are sorted by start time. A nil *Snapshot is valid and behaves
// as an empty catalog, so render code never has to guard against it.
type Snapshot struct {
	Version       uint64
	LoadedAt      time.Time
	Events        []model.Event
	Championships []model.Championship
	Categories    []model.Category
}

func (s *Snapshot) LookupChampionship(id model.ID) (model.Championship, error) {
	if s != nil {
		for _, c := range s.Championships {
			if c.ID == id {
				return c, nil
			}
		}
	}
	return model.Championship{}, fmt.Errorf("championship %d: %w", id, ErrChampionshipNotFound)
}

// ChampionshipName returns the championship's name, or "" for an unknown id.
func (s *Snapshot) ChampionshipName(id model.ID) string {
	c, err := s.LookupChampionship(id)
	if err != nil {
		return ""
	}
	return c.Name
}

// CategoriesForChampionship returns the categories sanctioned by the
// championship, in category list order. Unknown ids yield an empty slice.
func (s *Snapshot) CategoriesForChampionship(id model.ID) []model.Category {
	c, err := s.LookupChampionship(id)
	if err != nil {
		return []model.Category{}
	}
	categories := make([]model.Category, 0, len(c.CategoryIDs))
	for _, category := range s.Categories {
		if c.HasCategory(category.ID) {
			categories = append(categories, category)
		}
	}
	return categories
}
