package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/checkout-service/internal/domain/models"
)

// CartStorage describes the cart collaborator methods. The checkout flow
// only reads items (snapshot source) and clears them inside its transaction.
type CartStorage interface {
	// GetOrCreateCart returns the user's cart, creating it on first use.
	GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	// UpsertItem adds a product to the cart or increments its quantity.
	UpsertItem(ctx context.Context, cartID, productID int64, quantity int) error
	// GetItemsByUserID returns the cart lines joined with products for name and live price.
	GetItemsByUserID(ctx context.Context, userID int64) ([]*models.CartItem, error)
	// ClearByUserIDTx deletes all cart items of the user inside the given transaction.
	ClearByUserIDTx(ctx context.Context, tx *sql.Tx, userID int64) error
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	cart := &models.Cart{}
	// ON CONFLICT keeps this a single round trip under concurrent first use
	query := `INSERT INTO carts (user_id) VALUES ($1)
	          ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	          RETURNING id, user_id`
	row := r.db.QueryRowContext(ctx, query, userID)
	if err := row.Scan(&cart.ID, &cart.UserID); err != nil {
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}
	return cart, nil
}

func (r *cartRepository) UpsertItem(ctx context.Context, cartID, productID int64, quantity int) error {
	query := `INSERT INTO cart_items (cart_id, product_id, quantity)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (cart_id, product_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`
	_, err := r.db.ExecContext(ctx, query, cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) GetItemsByUserID(ctx context.Context, userID int64) ([]*models.CartItem, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, p.name, ci.quantity, p.price
		FROM cart_items ci
		JOIN carts c ON ci.cart_id = c.id
		JOIN products p ON ci.product_id = p.id
		WHERE c.user_id = $1
		ORDER BY ci.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.CartItem
	for rows.Next() {
		item := &models.CartItem{}
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) ClearByUserIDTx(ctx context.Context, tx *sql.Tx, userID int64) error {
	query := `DELETE FROM cart_items USING carts
	          WHERE cart_items.cart_id = carts.id AND carts.user_id = $1`
	_, err := tx.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
