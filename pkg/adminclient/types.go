package adminclient

import "github.com/Skotchmaster/resto_admin/pkg/session"

type OrderItem struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

// OrderRequest creates an order. UserID defaults to the signed-in operator.
type OrderRequest struct {
	UserID          string      `json:"user_id,omitempty"`
	Items           []OrderItem `json:"items"`
	PaymentMethod   string      `json:"payment_method,omitempty"`
	DeliveryAddress string      `json:"delivery_address,omitempty"`
	ContactPhone    string      `json:"contact_phone,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Session      session.Session `json:"session"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type statusRequest struct {
	Status string `json:"status"`
}
