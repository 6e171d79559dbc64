package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusReady      OrderStatus = "ready"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

var Statuses = []OrderStatus{
	StatusPending,
	StatusProcessing,
	StatusReady,
	StatusCompleted,
	StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus accepts the lower-case wire form only.
func ParseStatus(v string) (OrderStatus, error) {
	s := OrderStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", v)
	}
	return s, nil
}

// OrderLineItem is a copy of the menu item taken when the order was placed.
// Later menu edits never reach it.
type OrderLineItem struct {
	ID         string `json:"id"`
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []OrderLineItem `json:"items"`
	TotalPrice      int64           `json:"total_price"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	ContactPhone    string          `json:"contact_phone,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

func (li OrderLineItem) LineTotal() int64 {
	return li.Price * int64(li.Quantity)
}

// Total sums price x quantity over items.
func Total(items []OrderLineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

var ErrTotalOverflow = errors.New("order total overflows int64")

// CheckedTotal is Total for untrusted input. It rejects negative prices and
// quantities and any line or running sum that would not fit in int64.
func CheckedTotal(items []OrderLineItem) (int64, error) {
	var total int64
	for _, it := range items {
		if it.Price < 0 || it.Quantity < 0 {
			return 0, fmt.Errorf("%w: negative price or quantity for %q", ErrTotalOverflow, it.Name)
		}
		q := int64(it.Quantity)
		if q != 0 && it.Price > math.MaxInt64/q {
			return 0, fmt.Errorf("%w: line %q", ErrTotalOverflow, it.Name)
		}
		line := it.Price * q
		if total > math.MaxInt64-line {
			return 0, ErrTotalOverflow
		}
		total += line
	}
	return total, nil
}

// StatusChange is one applied lifecycle transition.
type StatusChange struct {
	ID        string      `json:"id"`
	OrderID   string      `json:"order_id"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ChangedBy string      `json:"changed_by"`
	ChangedAt time.Time   `json:"changed_at"`
}
