package transport

import (
	"github.com/Skotchmaster/resto_admin/pkg/domain"
	"github.com/Skotchmaster/resto_admin/pkg/session"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	AccessExp    int64           `json:"access_exp"`
	RefreshExp   int64           `json:"refresh_exp"`
	Session      session.Session `json:"session"`
}

// RefreshRequest is optional; browsers send the refreshToken cookie instead.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type RegisterOperatorRequest struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
}

type CreateMenuItemRequest struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Available   *bool  `json:"available"`
	IsPopular   bool   `json:"is_popular"`
}

// PatchMenuItemRequest touches only the fields that are present.
type PatchMenuItemRequest struct {
	Name        *string `json:"name"`
	Price       *int64  `json:"price"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	Available   *bool   `json:"available"`
	IsPopular   *bool   `json:"is_popular"`
}

type CategoryRequest struct {
	Name string `json:"name"`
}

type CreateOrderItem struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes"`
}

type CreateOrderRequest struct {
	UserID          string            `json:"user_id"`
	Items           []CreateOrderItem `json:"items"`
	PaymentMethod   string            `json:"payment_method"`
	DeliveryAddress string            `json:"delivery_address"`
	ContactPhone    string            `json:"contact_phone"`
}

// PatchOrderRequest has no status field. Status only moves through
// POST /orders/:id/status.
type PatchOrderRequest struct {
	PaymentMethod   *string `json:"payment_method"`
	DeliveryAddress *string `json:"delivery_address"`
	ContactPhone    *string `json:"contact_phone"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type OrderFilter struct {
	Status domain.OrderStatus
	UserID string
}
