// Package menu reads the restaurant's menu from the backend.
package menu

import (
	"context"
	"fmt"

	"restaurant-client/internal/common/apperr"
	"restaurant-client/internal/common/logger"
	"restaurant-client/internal/domain"
)

var ErrUnknownItem = apperr.New(apperr.CodeValidation, "That item is not on the menu.")

type Source interface {
	Menu(ctx context.Context) (domain.Menu, error)
}

type MenuServiceInterface interface {
	Fetch(ctx context.Context) (domain.Menu, error)
	Lookup(ctx context.Context, id int64) (domain.MenuItem, error)
}

type MenuService struct {
	src Source
	lg  *logger.Logger
}

func NewMenuService(src Source, lg *logger.Logger) *MenuService {
	return &MenuService{src: src, lg: lg}
}

// Fetch is a single read; retrying is left to the caller.
func (s *MenuService) Fetch(ctx context.Context) (domain.Menu, error) {
	m, err := s.src.Menu(ctx)
	if err != nil {
		s.lg.Error("menu_fetch_failed", err, nil)
		return domain.Menu{}, fmt.Errorf("fetch menu: %w", err)
	}
	s.lg.Debug("menu_fetched", map[string]any{
		"restaurant": m.Name,
		"categories": len(m.Categories),
		"items":      m.ItemCount(),
	})
	return m, nil
}

func (s *MenuService) Lookup(ctx context.Context, id int64) (domain.MenuItem, error) {
	m, err := s.Fetch(ctx)
	if err != nil {
		return domain.MenuItem{}, err
	}
	it, ok := m.FindItem(id)
	if !ok {
		return domain.MenuItem{}, ErrUnknownItem
	}
	return it, nil
}
