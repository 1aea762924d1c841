package models

// Cart is the per-user shopping cart, one row per user.
type Cart struct {
	ID     int64
	UserID int64
}

// CartItem is a cart line joined with the product for name and live price.
type CartItem struct {
	ID          int64   `json:"id"`
	CartID      int64   `json:"-"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"` // live catalog price at read time
}
