package models

import "time"

// SnapshotItem is one cart line captured at payment initiation.
// UnitPrice is frozen here so the recorded order matches the charged amount
// even if the catalog price changes before the callback arrives.
type SnapshotItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// AddressSnapshot holds the shipping address supplied at initiation.
type AddressSnapshot struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
	SubCity  string `json:"sub_city"`
	Street   string `json:"street"`
	HouseNo  string `json:"house_no"`
}

// OrderDetails is the staged payload embedded in a pending payment.
type OrderDetails struct {
	Address AddressSnapshot `json:"address"`
	Items   []SnapshotItem  `json:"items"`
}

// PendingPayment maps a transaction reference to a staged order payload.
// The row exists from initiation until the order is materialized (or the
// initiation is rolled back); it is owned exclusively by the checkout flow.
type PendingPayment struct {
	ID         int64
	TxRef      string
	UserID     int64
	TotalPrice float64
	Details    OrderDetails
	CreatedAt  time.Time
}
