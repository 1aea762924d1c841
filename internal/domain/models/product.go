package models

// Product represents a catalog item.
type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"` // current catalog price, snapshots capture it at initiation
}
