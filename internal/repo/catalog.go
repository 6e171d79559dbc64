package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/resto_admin/internal/models"
	"github.com/Skotchmaster/resto_admin/internal/transport"
	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

// ListMenuItems returns every item, or only those of category when set.
func (r *GormRepo) ListMenuItems(ctx context.Context, category string) ([]domain.MenuItem, error) {
	q := r.DB.WithContext(ctx).Model(&models.MenuItem{})
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var rows []models.MenuItem
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, wrap("list_menu_items", err)
	}
	out := make([]domain.MenuItem, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

func (r *GormRepo) GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	var m models.MenuItem
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, wrap("get_menu_item", err)
	}
	d := m.ToDomain()
	return &d, nil
}

// MenuItemsByID loads the given ids keyed by id. Missing ids are absent.
func (r *GormRepo) MenuItemsByID(ctx context.Context, ids []string) (map[string]domain.MenuItem, error) {
	var rows []models.MenuItem
	if len(ids) > 0 {
		if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, wrap("menu_items_by_id", err)
		}
	}
	out := make(map[string]domain.MenuItem, len(rows))
	for i := range rows {
		out[rows[i].ID] = rows[i].ToDomain()
	}
	return out, nil
}

func (r *GormRepo) CreateMenuItem(ctx context.Context, m *models.MenuItem) (*domain.MenuItem, error) {
	if err := r.DB.WithContext(ctx).Create(m).Error; err != nil {
		return nil, wrap("create_menu_item", err)
	}
	d := m.ToDomain()
	return &d, nil
}

func (r *GormRepo) PatchMenuItem(ctx context.Context, req transport.PatchMenuItemRequest, id string) (*domain.MenuItem, error) {
	var m models.MenuItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			return err
		}

		updates := map[string]any{}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Price != nil {
			updates["price"] = *req.Price
		}
		if req.Category != nil {
			updates["category"] = *req.Category
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.ImageURL != nil {
			updates["image_url"] = *req.ImageURL
		}
		if req.Available != nil {
			updates["available"] = *req.Available
		}
		if req.IsPopular != nil {
			updates["is_popular"] = *req.IsPopular
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&m).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&m).Error
	})
	if err != nil {
		return nil, wrap("patch_menu_item", err)
	}
	d := m.ToDomain()
	return &d, nil
}

func (r *GormRepo) DeleteMenuItem(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.MenuItem{})
	if res.Error != nil {
		return wrap("delete_menu_item", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("delete_menu_item", ErrNotFound)
	}
	return nil
}

func (r *GormRepo) CountMenuItems(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.MenuItem{}).Count(&n).Error; err != nil {
		return 0, wrap("count_menu_items", err)
	}
	return n, nil
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []models.Category
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, wrap("list_categories", err)
	}
	out := make([]domain.Category, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

func (r *GormRepo) CategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(name)).First(&c).Error; err != nil {
		return nil, wrap("category_by_name", err)
	}
	d := c.ToDomain()
	return &d, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	c := models.Category{Name: name}
	if err := r.DB.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, wrap("create_category", err)
	}
	d := c.ToDomain()
	return &d, nil
}

// RenameCategory also moves every menu item that referenced the old name.
func (r *GormRepo) RenameCategory(ctx context.Context, id, name string) (*domain.Category, error) {
	var c models.Category
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&c).Error; err != nil {
			return err
		}
		old := c.Name
		if err := tx.Model(&c).Update("name", name).Error; err != nil {
			return err
		}
		c.Name = name
		return tx.Model(&models.MenuItem{}).Where("category = ?", old).Update("category", name).Error
	})
	if err != nil {
		return nil, wrap("rename_category", err)
	}
	d := c.ToDomain()
	return &d, nil
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return wrap("delete_category", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("delete_category", ErrNotFound)
	}
	return nil
}

// SeedCategories creates the names that do not exist yet and reports how
// many were added.
func (r *GormRepo) SeedCategories(ctx context.Context, names []string) (int, error) {
	added := 0
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, n := range names {
			var count int64
			if err := tx.Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(n)).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&models.Category{Name: n}).Error; err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, wrap("seed_categories", err)
	}
	return added, nil
}

// MigrateCategoryNames copies the legacy nama column into name where name
// is empty and clears nama. It is safe to run repeatedly.
func (r *GormRepo) MigrateCategoryNames(ctx context.Context) (int64, error) {
	var moved int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Category{}).
			Where("(name IS NULL OR name = '') AND nama IS NOT NULL AND nama <> ''").
			Update("name", gorm.Expr("nama"))
		if res.Error != nil {
			return res.Error
		}
		moved = res.RowsAffected
		return tx.Model(&models.Category{}).
			Where("nama IS NOT NULL AND nama <> ''").
			Update("nama", "").Error
	})
	if err != nil {
		return 0, wrap("migrate_category_names", err)
	}
	return moved, nil
}

// SearchMenuItems matches q against name, description and category. It backs
// menu search when no Elasticsearch index is configured.
func (r *GormRepo) SearchMenuItems(ctx context.Context, q string, offset, limit int) (int64, []domain.MenuItem, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	filtered := func() *gorm.DB {
		return r.DB.WithContext(ctx).Model(&models.MenuItem{}).
			Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return 0, nil, wrap("search_menu_items", err)
	}

	var rows []models.MenuItem
	if err := filtered().Order("name ASC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return 0, nil, wrap("search_menu_items", err)
	}
	out := make([]domain.MenuItem, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return total, out, nil
}
