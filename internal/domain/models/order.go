package models

import "time"

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

// OrderAddress is the shipping address persisted with an order.
type OrderAddress struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	City      string    `json:"city"`
	SubCity   string    `json:"sub_city"`
	Street    string    `json:"street"`
	HouseNo   string    `json:"house_no"`
	CreatedAt time.Time `json:"created_at"`
}

// Order represents a placed order. At most one order ever exists for a given
// transaction reference.
type Order struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	AddressID  int64     `json:"address_id"`
	TotalPrice float64   `json:"total_price"`
	IsPaid     bool      `json:"is_paid"`
	Status     string    `json:"status"`
	TxRef      string    `json:"tx_ref"`
	CreatedAt  time.Time `json:"created_at"`
}

// OrderItem is one purchased line; UnitPrice is the snapshot price captured
// at initiation, never the live catalog price.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}
