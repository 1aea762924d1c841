package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/checkout-service/internal/domain/models"
)

var ErrProductNotFound = errors.New("product not found")

// ProductStorage describes the catalog read methods.
type ProductStorage interface {
	// GetProductByID returns a single catalog product.
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// ListProducts returns the whole catalog ordered by name.
	ListProducts(ctx context.Context) ([]*models.Product, error)
}

// productRepository is the concrete ProductStorage implementation.
type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new catalog repository.
func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	product := &models.Product{}
	row := r.db.QueryRowContext(ctx, "SELECT id, name, price FROM products WHERE id = $1", id)
	if err := row.Scan(&product.ID, &product.Name, &product.Price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, price FROM products ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(&product.ID, &product.Name, &product.Price); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}
