package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/checkout-service/internal/domain/models"
	"github.com/linemk/checkout-service/internal/storage"
)

var ErrQuantityNotPositive = errors.New("quantity must be positive")

// CartService is the cart collaborator consumed by the checkout flow.
type CartService interface {
	AddItem(ctx context.Context, userID, productID int64, quantity int) error
	GetCart(ctx context.Context, userID int64) (*CartResponse, error)
}

// CartResponse mirrors what the storefront shows: lines with live prices
// plus the running totals.
type CartResponse struct {
	Items      []*models.CartItem `json:"items"`
	TotalItems int                `json:"total_items"`
	TotalPrice float64            `json:"total_price"`
}

type cartService struct {
	log         *slog.Logger
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{
		log:         log,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// AddItem puts a product into the user's cart, incrementing quantity when the
// line already exists.
func (s *cartService) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	const op = "service.CartService.AddItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if quantity <= 0 {
		return fmt.Errorf("%s: %w", op, ErrQuantityNotPositive)
	}

	// the product must exist before the line is written
	if _, err := s.productRepo.GetProductByID(ctx, productID); err != nil {
		logger.Error("failed to get product", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		logger.Error("failed to get cart", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get cart: %w", op, err)
	}

	if err := s.cartRepo.UpsertItem(ctx, cart.ID, productID, quantity); err != nil {
		logger.Error("failed to add cart item", slog.Any("error", err))
		return fmt.Errorf("%s: failed to add cart item: %w", op, err)
	}

	logger.Info("item added to cart", slog.Int("quantity", quantity))
	return nil
}

func (s *cartService) GetCart(ctx context.Context, userID int64) (*CartResponse, error) {
	const op = "service.CartService.GetCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	items, err := s.cartRepo.GetItemsByUserID(ctx, userID)
	if err != nil {
		logger.Error("failed to get cart items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart items: %w", op, err)
	}

	resp := &CartResponse{Items: items}
	if resp.Items == nil {
		resp.Items = []*models.CartItem{}
	}
	for _, item := range items {
		resp.TotalItems += item.Quantity
		resp.TotalPrice += item.UnitPrice * float64(item.Quantity)
	}
	return resp, nil
}
