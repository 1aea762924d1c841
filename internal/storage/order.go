package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/linemk/checkout-service/internal/domain/models"
)

// OrderStorage describes the order write path. All Tx methods participate in
// the single materialization transaction owned by the checkout service.
type OrderStorage interface {
	// CreateAddressTx inserts the order address and returns its id.
	CreateAddressTx(ctx context.Context, tx *sql.Tx, addr *models.OrderAddress) (int64, error)
	// CreateOrderTx inserts the order row and returns its id.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error)
	// CreateOrderItemsTx bulk-inserts the order items.
	CreateOrderItemsTx(ctx context.Context, tx *sql.Tx, orderID int64, items []models.SnapshotItem) error
	// GetOrdersByUserID returns the user's orders, newest first.
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
}

// orderRepository is the concrete OrderStorage implementation.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateAddressTx(ctx context.Context, tx *sql.Tx, addr *models.OrderAddress) (int64, error) {
	query := `INSERT INTO order_addresses (user_id, full_name, phone, city, sub_city, street, house_no, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, query,
		addr.UserID, addr.FullName, addr.Phone, addr.City, addr.SubCity, addr.Street, addr.HouseNo,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create order address: %w", err)
	}
	return id, nil
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error) {
	query := `INSERT INTO orders (user_id, address_id, total_price, is_paid, status, transaction_reference, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, query,
		order.UserID, order.AddressID, order.TotalPrice, order.IsPaid, order.Status, order.TxRef,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	return id, nil
}

// CreateOrderItemsTx builds a single multi-row INSERT; prices come from the
// snapshot, not the catalog.
func (r *orderRepository) CreateOrderItemsTx(ctx context.Context, tx *sql.Tx, orderID int64, items []models.SnapshotItem) error {
	if len(items) == 0 {
		return fmt.Errorf("no order items to insert")
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES ")
	args := make([]interface{}, 0, len(items)*4)
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 4
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4))
		args = append(args, orderID, item.ProductID, item.Quantity, item.UnitPrice)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := `
		SELECT id, user_id, address_id, total_price, is_paid, status, transaction_reference, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.AddressID, &order.TotalPrice, &order.IsPaid, &order.Status, &order.TxRef, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
