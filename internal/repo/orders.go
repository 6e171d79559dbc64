package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/resto_admin/internal/models"
	"github.com/Skotchmaster/resto_admin/internal/transport"
	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// ListOrders returns orders newest first with the total matching count.
func (r *GormRepo) ListOrders(ctx context.Context, f transport.OrderFilter, offset, limit int) (int64, []domain.Order, error) {
	filtered := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Order{})
		if f.Status != "" {
			q = q.Where("status = ?", string(f.Status))
		}
		if f.UserID != "" {
			q = q.Where("user_id = ?", f.UserID)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return 0, nil, wrap("count_orders", err)
	}

	var rows []models.Order
	if err := withItems(filtered()).Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return 0, nil, wrap("list_orders", err)
	}

	out := make([]domain.Order, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return total, out, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var row models.Order
	if err := withItems(r.DB.WithContext(ctx)).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, wrap("get_order", err)
	}
	d := row.ToDomain()
	return &d, nil
}

func (r *GormRepo) CreateOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	row := models.OrderFromDomain(o)
	if err := r.DB.WithContext(ctx).Create(row).Error; err != nil {
		return nil, wrap("create_order", err)
	}
	return r.GetOrder(ctx, row.ID)
}

func (r *GormRepo) PatchOrder(ctx context.Context, req transport.PatchOrderRequest, id string) (*domain.Order, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Order
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}

		updates := map[string]any{}
		if req.PaymentMethod != nil {
			updates["payment_method"] = *req.PaymentMethod
		}
		if req.DeliveryAddress != nil {
			updates["delivery_address"] = *req.DeliveryAddress
		}
		if req.ContactPhone != nil {
			updates["contact_phone"] = *req.ContactPhone
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&row).Updates(updates).Error
	})
	if err != nil {
		return nil, wrap("patch_order", err)
	}
	return r.GetOrder(ctx, id)
}

// SaveTransition persists the status fields of next and appends the log
// row. The write is unconditional; concurrent moves are last write wins.
func (r *GormRepo) SaveTransition(ctx context.Context, next domain.Order, change domain.StatusChange) (*domain.StatusChange, error) {
	logRow := models.OrderStatusLog{
		OrderID:   next.ID,
		From:      string(change.From),
		To:        string(change.To),
		ChangedBy: change.ChangedBy,
		ChangedAt: change.ChangedAt,
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).Where("id = ?", next.ID).Updates(map[string]any{
			"status":       string(next.Status),
			"updated_at":   next.UpdatedAt,
			"completed_at": next.CompletedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Create(&logRow).Error
	})
	if err != nil {
		return nil, wrap("save_transition", err)
	}
	d := logRow.ToDomain()
	return &d, nil
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id string) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderLineItem{}).Error; err != nil {
			return err
		}
		return tx.Where("order_id = ?", id).Delete(&models.OrderStatusLog{}).Error
	})
	return wrap("delete_order", err)
}

func (r *GormRepo) StatusHistory(ctx context.Context, orderID string) ([]domain.StatusChange, error) {
	var rows []models.OrderStatusLog
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("changed_at ASC").Find(&rows).Error; err != nil {
		return nil, wrap("status_history", err)
	}
	out := make([]domain.StatusChange, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

func (r *GormRepo) CountOrdersByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, wrap("count_orders_by_status", err)
	}

	out := make(map[domain.OrderStatus]int64, len(domain.Statuses))
	for _, s := range domain.Statuses {
		out[s] = 0
	}
	for _, row := range rows {
		out[domain.OrderStatus(row.Status)] = row.N
	}
	return out, nil
}
