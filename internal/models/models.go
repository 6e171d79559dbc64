package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

type Account struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"        json:"email"`
	PasswordHash string    `gorm:"not null"                    json:"-"`
	DisplayName  string    `                                   json:"display_name"`
	CreatedAt    time.Time `                                   json:"created_at"`
	UpdatedAt    time.Time `                                   json:"updated_at"`
}

type Operator struct {
	UID         string     `gorm:"primaryKey;type:varchar(36)" json:"uid"`
	Email       string     `gorm:"index;not null"              json:"email"`
	DisplayName string     `                                   json:"display_name"`
	Role        string     `gorm:"not null"                    json:"role"`
	CreatedAt   time.Time  `                                   json:"created_at"`
	LastLogin   *time.Time `                                   json:"last_login"`
}

type RefreshToken struct {
	JTI       string    `gorm:"primaryKey;type:varchar(36)" json:"jti"`
	UserID    string    `gorm:"index;not null"              json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;not null"        json:"-"`
	ExpiresAt time.Time `gorm:"not null"                    json:"expires_at"`
	Revoked   bool      `gorm:"default:false"               json:"revoked"`
	CreatedAt time.Time `                                   json:"created_at"`
}

type PasswordReset struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string     `gorm:"index;not null"              json:"user_id"`
	TokenHash string     `gorm:"uniqueIndex;not null"        json:"-"`
	ExpiresAt time.Time  `gorm:"not null"                    json:"expires_at"`
	UsedAt    *time.Time `                                   json:"used_at"`
	CreatedAt time.Time  `                                   json:"created_at"`
}

type MenuItem struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string    `gorm:"not null"                    json:"name"`
	Price       int64     `gorm:"not null;check:price >= 0"   json:"price"`
	Category    string    `gorm:"index"                       json:"category"`
	Description string    `                                   json:"description"`
	ImageURL    string    `                                   json:"image_url"`
	Available   bool      `                                   json:"available"`
	IsPopular   bool      `                                   json:"is_popular"`
	CreatedAt   time.Time `                                   json:"created_at"`
	UpdatedAt   time.Time `                                   json:"updated_at"`
}

type Category struct {
	ID   string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name string `gorm:"index"                       json:"name"`
	// Nama is the legacy spelling of Name, emptied by MigrateCategoryNames.
	Nama string `gorm:"column:nama"                 json:"-"`
}

type Order struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID          string          `gorm:"index"                       json:"user_id"`
	Items           []OrderLineItem `gorm:"foreignKey:OrderID"          json:"items"`
	TotalPrice      int64           `gorm:"not null"                    json:"total_price"`
	Status          string          `gorm:"index;not null"              json:"status"`
	PaymentMethod   string          `                                   json:"payment_method"`
	DeliveryAddress string          `                                   json:"delivery_address"`
	ContactPhone    string          `                                   json:"contact_phone"`
	CreatedAt       time.Time       `gorm:"index"                       json:"created_at"`
	UpdatedAt       time.Time       `                                   json:"updated_at"`
	CompletedAt     *time.Time      `                                   json:"completed_at"`
}

type OrderLineItem struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"     json:"id"`
	OrderID    string `gorm:"index;not null"                  json:"order_id"`
	Position   int    `gorm:"not null"                        json:"position"`
	MenuItemID string `gorm:"not null"                        json:"menu_item_id"`
	Name       string `gorm:"not null"                        json:"name"`
	Price      int64  `gorm:"not null"                        json:"price"`
	Quantity   int    `gorm:"not null;check:quantity > 0"     json:"quantity"`
	Notes      string `                                       json:"notes"`
}

type OrderStatusLog struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID   string    `gorm:"index;not null"              json:"order_id"`
	From      string    `gorm:"column:from_status;not null" json:"from"`
	To        string    `gorm:"column:to_status;not null"   json:"to"`
	ChangedBy string    `                                   json:"changed_by"`
	ChangedAt time.Time `gorm:"index"                       json:"changed_at"`
}

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&Account{}, &Operator{}, &RefreshToken{}, &PasswordReset{},
		&MenuItem{}, &Category{},
		&Order{}, &OrderLineItem{}, &OrderStatusLog{},
	}
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (a *Account) BeforeCreate(*gorm.DB) error        { newID(&a.ID); return nil }
func (p *PasswordReset) BeforeCreate(*gorm.DB) error  { newID(&p.ID); return nil }
func (m *MenuItem) BeforeCreate(*gorm.DB) error       { newID(&m.ID); return nil }
func (c *Category) BeforeCreate(*gorm.DB) error       { newID(&c.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error          { newID(&o.ID); return nil }
func (li *OrderLineItem) BeforeCreate(*gorm.DB) error { newID(&li.ID); return nil }
func (s *OrderStatusLog) BeforeCreate(*gorm.DB) error { newID(&s.ID); return nil }

func utc(t time.Time) time.Time { return t.UTC() }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func (o *Operator) ToDomain() domain.Operator {
	return domain.Operator{
		UID:         o.UID,
		Email:       o.Email,
		DisplayName: o.DisplayName,
		Role:        domain.Role(o.Role),
		CreatedAt:   utc(o.CreatedAt),
		LastLogin:   utcPtr(o.LastLogin),
	}
}

func (m *MenuItem) ToDomain() domain.MenuItem {
	return domain.MenuItem{
		ID:          m.ID,
		Name:        m.Name,
		Price:       m.Price,
		Category:    m.Category,
		Description: m.Description,
		ImageURL:    m.ImageURL,
		Available:   m.Available,
		IsPopular:   m.IsPopular,
		CreatedAt:   utc(m.CreatedAt),
		UpdatedAt:   utc(m.UpdatedAt),
	}
}

func (c *Category) ToDomain() domain.Category {
	return domain.Category{ID: c.ID, Name: c.Name}
}

func (o *Order) ToDomain() domain.Order {
	items := make([]domain.OrderLineItem, 0, len(o.Items))
	for _, li := range o.Items {
		items = append(items, domain.OrderLineItem{
			ID:         li.ID,
			MenuItemID: li.MenuItemID,
			Name:       li.Name,
			Price:      li.Price,
			Quantity:   li.Quantity,
			Notes:      li.Notes,
		})
	}
	return domain.Order{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		TotalPrice:      o.TotalPrice,
		Status:          domain.OrderStatus(o.Status),
		PaymentMethod:   o.PaymentMethod,
		DeliveryAddress: o.DeliveryAddress,
		ContactPhone:    o.ContactPhone,
		CreatedAt:       utc(o.CreatedAt),
		UpdatedAt:       utc(o.UpdatedAt),
		CompletedAt:     utcPtr(o.CompletedAt),
	}
}

// OrderFromDomain builds a row with line item positions in slice order.
func OrderFromDomain(o domain.Order) *Order {
	newID(&o.ID)
	row := &Order{
		ID:              o.ID,
		UserID:          o.UserID,
		TotalPrice:      o.TotalPrice,
		Status:          string(o.Status),
		PaymentMethod:   o.PaymentMethod,
		DeliveryAddress: o.DeliveryAddress,
		ContactPhone:    o.ContactPhone,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		CompletedAt:     o.CompletedAt,
	}
	for i, li := range o.Items {
		row.Items = append(row.Items, OrderLineItem{
			ID:         li.ID,
			OrderID:    o.ID,
			Position:   i,
			MenuItemID: li.MenuItemID,
			Name:       li.Name,
			Price:      li.Price,
			Quantity:   li.Quantity,
			Notes:      li.Notes,
		})
	}
	return row
}

func (s *OrderStatusLog) ToDomain() domain.StatusChange {
	return domain.StatusChange{
		ID:        s.ID,
		OrderID:   s.OrderID,
		From:      domain.OrderStatus(s.From),
		To:        domain.OrderStatus(s.To),
		ChangedBy: s.ChangedBy,
		ChangedAt: utc(s.ChangedAt),
	}
}
