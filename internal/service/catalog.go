package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/resto_admin/internal/events"
	"github.com/Skotchmaster/resto_admin/internal/logging"
	"github.com/Skotchmaster/resto_admin/internal/models"
	"github.com/Skotchmaster/resto_admin/internal/repo"
	"github.com/Skotchmaster/resto_admin/internal/transport"
	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

// MenuIndex is the full-text side of the catalog. es.MenuIndex implements it.
type MenuIndex interface {
	IndexMenuItem(ctx context.Context, item domain.MenuItem) error
	DeleteMenuItem(ctx context.Context, id string) error
	SearchMenu(ctx context.Context, q string, from, size int) (int64, []domain.MenuItem, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  MenuIndex
	Events events.Publisher
}

func (s *CatalogService) ListMenuItems(ctx context.Context, category string) ([]domain.MenuItem, error) {
	return s.Repo.ListMenuItems(ctx, strings.TrimSpace(category))
}

func (s *CatalogService) GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	m, err := s.Repo.GetMenuItem(ctx, id)
	if err != nil {
		return nil, notFound(err, "menu item "+id)
	}
	return m, nil
}

func (s *CatalogService) checkCategory(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: category required", ErrValidation)
	}
	c, err := s.Repo.CategoryByName(ctx, name)
	if errors.Is(err, repo.ErrNotFound) {
		return "", fmt.Errorf("%w: unknown category %q", ErrValidation, name)
	}
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

func (s *CatalogService) CreateMenuItem(ctx context.Context, actor string, req transport.CreateMenuItemRequest) (*domain.MenuItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	category, err := s.checkCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	item, err := s.Repo.CreateMenuItem(ctx, &models.MenuItem{
		Name:        name,
		Price:       req.Price,
		Category:    category,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Available:   available,
		IsPopular:   req.IsPopular,
	})
	if err != nil {
		return nil, err
	}

	s.index(ctx, *item)
	events.Publish(ctx, s.Events, events.TopicMenu, item.ID, events.New("menu_item_created", actor, item))
	return item, nil
}

// PatchMenuItem updates only the fields present in req.
func (s *CatalogService) PatchMenuItem(ctx context.Context, actor string, req transport.PatchMenuItemRequest, id string) (*domain.MenuItem, error) {
	if req.Name != nil {
		n := strings.TrimSpace(*req.Name)
		if n == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		req.Name = &n
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if req.Category != nil {
		c, err := s.checkCategory(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
		req.Category = &c
	}

	item, err := s.Repo.PatchMenuItem(ctx, req, id)
	if err != nil {
		return nil, notFound(err, "menu item "+id)
	}

	s.index(ctx, *item)
	events.Publish(ctx, s.Events, events.TopicMenu, item.ID, events.New("menu_item_updated", actor, item))
	return item, nil
}

func (s *CatalogService) DeleteMenuItem(ctx context.Context, actor, id string) error {
	if err := s.Repo.DeleteMenuItem(ctx, id); err != nil {
		return notFound(err, "menu item "+id)
	}

	if s.Index != nil {
		if err := s.Index.DeleteMenuItem(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("unindex_menu_item_failed", "id", id, "error", err)
		}
	}
	events.Publish(ctx, s.Events, events.TopicMenu, id, events.New("menu_item_deleted", actor, map[string]string{"id": id}))
	return nil
}

// SearchMenu uses the search index when there is one and falls back to a
// store scan when there is not or when the index fails.
func (s *CatalogService) SearchMenu(ctx context.Context, q string, offset, limit int) (int64, []domain.MenuItem, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("%w: q required", ErrValidation)
	}

	if s.Index != nil {
		total, items, err := s.Index.SearchMenu(ctx, q, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "q", q, "error", err)
	}
	return s.Repo.SearchMenuItems(ctx, q, offset, limit)
}

// index is best effort; the store stays the source of truth.
func (s *CatalogService) index(ctx context.Context, item domain.MenuItem) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexMenuItem(ctx, item); err != nil {
		logging.FromContext(ctx).Warn("index_menu_item_failed", "id", item.ID, "error", err)
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	_, err := s.Repo.CategoryByName(ctx, name)
	if err == nil {
		return nil, fmt.Errorf("%w: category %q exists", ErrConflict, name)
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	c, err := s.Repo.CreateCategory(ctx, name)
	if err != nil {
		return nil, err
	}
	events.Publish(ctx, s.Events, events.TopicMenu, c.ID, events.New("category_created", actor, c))
	return c, nil
}

// RenameCategory moves the menu items of the old name along with it.
func (s *CatalogService) RenameCategory(ctx context.Context, actor, id, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	existing, err := s.Repo.CategoryByName(ctx, name)
	if err == nil && existing.ID != id {
		return nil, fmt.Errorf("%w: category %q exists", ErrConflict, name)
	}
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	c, err := s.Repo.RenameCategory(ctx, id, name)
	if err != nil {
		return nil, notFound(err, "category "+id)
	}

	if s.Index != nil {
		items, err := s.Repo.ListMenuItems(ctx, c.Name)
		if err != nil {
			logging.FromContext(ctx).Warn("reindex_category_failed", "category", c.Name, "error", err)
		}
		for _, it := range items {
			s.index(ctx, it)
		}
	}
	events.Publish(ctx, s.Events, events.TopicMenu, c.ID, events.New("category_renamed", actor, c))
	return c, nil
}

// DeleteCategory leaves menu items that reference the name untouched.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor, id string) error {
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		return notFound(err, "category "+id)
	}
	events.Publish(ctx, s.Events, events.TopicMenu, id, events.New("category_deleted", actor, map[string]string{"id": id}))
	return nil
}

// SeedCategories adds the default categories that are missing.
func (s *CatalogService) SeedCategories(ctx context.Context) (int, error) {
	return s.Repo.SeedCategories(ctx, domain.DefaultCategories)
}

func (s *CatalogService) MigrateCategoryNames(ctx context.Context) (int64, error) {
	return s.Repo.MigrateCategoryNames(ctx)
}
