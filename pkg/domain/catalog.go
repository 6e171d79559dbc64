package domain

import "time"

type MenuItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Available   bool      `json:"available"`
	IsPopular   bool      `json:"is_popular"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Category is referenced from MenuItem by Name, not by ID.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var DefaultCategories = []string{
	"Appetizer",
	"Main Courses",
	"Desserts",
	"Beverages",
}

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type Operator struct {
	UID         string     `json:"uid"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name,omitempty"`
	Role        Role       `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

type DashboardStats struct {
	MenuItems int64                 `json:"menu_items"`
	Orders    int64                 `json:"orders"`
	ByStatus  map[OrderStatus]int64 `json:"by_status"`
}
